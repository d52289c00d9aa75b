package bandit

import (
	"fmt"
	"math/rand/v2"

	"github.com/sw965/omw/parallel"
)

// History records one simulation run. OptimalPercent[t] is the fraction of
// the first t+1 steps on which the objectively best arm was chosen.
type History struct {
	Rewards        []float64
	OptimalPercent []float64
}

// Simulate alternates Select and Observe for steps steps.
func Simulate(agent Agent, arms Arms, steps int, rng *rand.Rand) (History, error) {
	best, err := arms.Best()
	if err != nil {
		return History{}, err
	}

	h := History{
		Rewards:        make([]float64, 0, steps),
		OptimalPercent: make([]float64, 0, steps),
	}

	bestCount := 0
	for t := 0; t < steps; t++ {
		arm, err := agent.Select(t, rng)
		if err != nil {
			return History{}, err
		}

		if arm < 0 || arm >= len(arms) {
			return History{}, fmt.Errorf("%w: arm=%d", ErrInvalidArm, arm)
		}

		reward := arms[arm].Sample()
		if err := agent.Observe(arm, reward); err != nil {
			return History{}, err
		}

		if arm == best {
			bestCount += 1
		}

		h.Rewards = append(h.Rewards, reward)
		h.OptimalPercent = append(h.OptimalPercent, float64(bestCount)/float64(t+1))
	}
	return h, nil
}

// SimulateMany runs independent (agent, arms) pairs in parallel, one rng
// per worker. The learning loops themselves stay single-threaded.
func SimulateMany(agents []Agent, armss []Arms, steps int, rngs []*rand.Rand) ([]History, error) {
	n := len(agents)
	if n != len(armss) {
		return nil, fmt.Errorf("%w: agents=%d armss=%d", ErrArmCountMismatch, n, len(armss))
	}

	histories := make([]History, n)
	p := len(rngs)

	err := parallel.For(n, p, func(workerId, idx int) error {
		h, err := Simulate(agents[idx], armss[idx], steps, rngs[workerId])
		if err != nil {
			return err
		}
		histories[idx] = h
		return nil
	})
	return histories, err
}

// AverageOptimalPercent averages the optimal-action curves of runs with
// equal length.
func AverageOptimalPercent(histories []History) ([]float64, error) {
	if len(histories) == 0 {
		return nil, ErrNoHistories
	}

	steps := len(histories[0].OptimalPercent)
	for _, h := range histories {
		if len(h.OptimalPercent) != steps {
			return nil, fmt.Errorf("%w: %d != %d", ErrLengthMismatch, len(h.OptimalPercent), steps)
		}
	}

	y := make([]float64, steps)
	for _, h := range histories {
		for t, v := range h.OptimalPercent {
			y[t] += v
		}
	}

	for t := range y {
		y[t] /= float64(len(histories))
	}
	return y, nil
}
