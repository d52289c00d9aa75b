package bandit

import (
	"fmt"
	"math/rand/v2"

	"github.com/chewxy/math32"
	"github.com/sw965/omw/mathx/randx"
	"github.com/sw965/sparrow/ucb"
)

// EpsilonGreedy keeps a per-arm mean-reward estimate and visit count.
// With probability Epsilon it explores uniformly; otherwise it exploits a
// maximizing estimate, ties broken uniformly.
type EpsilonGreedy struct {
	Epsilon   float64
	Step      StepFunc
	estimates []float64
	counts    []int
}

func NewEpsilonGreedy(arms int, epsilon float64, step StepFunc) (*EpsilonGreedy, error) {
	if arms <= 0 {
		return nil, ErrNoArms
	}
	if epsilon < 0.0 || epsilon > 1.0 {
		return nil, fmt.Errorf("epsilonが不正(0.0～1.0の範囲外): epsilon=%.6g", epsilon)
	}
	if step == nil {
		step = NewSampleAverageStep()
	}

	return &EpsilonGreedy{
		Epsilon:   epsilon,
		Step:      step,
		estimates: make([]float64, arms),
		counts:    make([]int, arms),
	}, nil
}

func (e *EpsilonGreedy) Select(_ int, rng *rand.Rand) (int, error) {
	if rng.Float64() < e.Epsilon {
		return rng.IntN(len(e.estimates)), nil
	}
	return randx.Choice(maxIndices(e.estimates), rng)
}

func (e *EpsilonGreedy) Observe(arm int, reward float64) error {
	if arm < 0 || arm >= len(e.estimates) {
		return fmt.Errorf("%w: arm=%d", ErrInvalidArm, arm)
	}

	e.counts[arm] += 1
	step := e.Step(e.counts[arm])
	e.estimates[arm] += step * (reward - e.estimates[arm])
	return nil
}

// Estimates returns a copy of the per-arm estimates.
func (e *EpsilonGreedy) Estimates() []float64 {
	y := make([]float64, len(e.estimates))
	copy(y, e.estimates)
	return y
}

// UCB selects the arm maximizing estimate + c*sqrt(ln(t+1)/(count+floor)).
// Unvisited arms dominate while t is small.
type UCB struct {
	Step    StepFunc
	manager ucb.Manager[[]int, int]
}

func NewUCB(arms int, c float64, step StepFunc) (*UCB, error) {
	if arms <= 0 {
		return nil, ErrNoArms
	}

	fn, err := ucb.NewStandardFunc(c)
	if err != nil {
		return nil, err
	}

	if step == nil {
		step = NewSampleAverageStep()
	}

	m := ucb.Manager[[]int, int]{}
	for i := 0; i < arms; i++ {
		m[i] = &ucb.Calculator{Func: fn}
	}
	return &UCB{Step: step, manager: m}, nil
}

func (u *UCB) Select(_ int, rng *rand.Rand) (int, error) {
	return randx.Choice(u.manager.MaxKeys(), rng)
}

func (u *UCB) Observe(arm int, reward float64) error {
	c, ok := u.manager[arm]
	if !ok {
		return fmt.Errorf("%w: arm=%d", ErrInvalidArm, arm)
	}

	c.Trial += 1
	step := u.Step(c.Trial)
	c.Estimate += step * (reward - c.Estimate)
	return nil
}

// Trials returns the per-arm visit counts.
func (u *UCB) Trials() map[int]int {
	return u.manager.Trials()
}

// Gradient is the gradient bandit: softmax action preferences updated by
// the policy-gradient rule
//
//	H(chosen) += α(R - baseline)(1 - π(chosen))
//	H(other)  -= α(R - baseline)π(other)
//
// where the baseline is the running average reward.
type Gradient struct {
	StepSize float32
	Baseline bool

	prefs     []float32
	probs     []float32
	avgReward float32
	trial     int
	lastArm   int
}

func NewGradient(arms int, stepSize float32, baseline bool) (*Gradient, error) {
	if arms <= 0 {
		return nil, ErrNoArms
	}
	if stepSize <= 0.0 || math32.IsNaN(stepSize) || math32.IsInf(stepSize, 0) {
		return nil, fmt.Errorf("%w: size=%.6g", ErrInvalidStepSize, stepSize)
	}

	return &Gradient{
		StepSize: stepSize,
		Baseline: baseline,
		prefs:    make([]float32, arms),
		lastArm:  -1,
	}, nil
}

// Policy returns softmax(prefs), subtracting the max preference for
// numerical stability.
func (g *Gradient) Policy() []float32 {
	max := g.prefs[0]
	for _, h := range g.prefs[1:] {
		if h > max {
			max = h
		}
	}

	probs := make([]float32, len(g.prefs))
	var sum float32
	for i, h := range g.prefs {
		v := math32.Exp(h - max)
		probs[i] = v
		sum += v
	}

	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

func (g *Gradient) Select(_ int, rng *rand.Rand) (int, error) {
	probs := g.Policy()
	arm, err := randx.IntByWeight(probs, rng)
	if err != nil {
		return -1, err
	}
	g.probs = probs
	g.lastArm = arm
	return arm, nil
}

func (g *Gradient) Observe(arm int, reward float64) error {
	if arm < 0 || arm >= len(g.prefs) {
		return fmt.Errorf("%w: arm=%d", ErrInvalidArm, arm)
	}
	if g.probs == nil || g.lastArm != arm {
		return fmt.Errorf("%w: arm=%d", ErrSelectBeforeObserve, arm)
	}

	r := float32(reward)
	g.trial += 1
	g.avgReward += (r - g.avgReward) / float32(g.trial)

	var baseline float32
	if g.Baseline {
		baseline = g.avgReward
	}

	adv := r - baseline
	for i := range g.prefs {
		if i == arm {
			g.prefs[i] += g.StepSize * adv * (1.0 - g.probs[i])
		} else {
			g.prefs[i] -= g.StepSize * adv * g.probs[i]
		}
	}
	return nil
}
