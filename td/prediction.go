package td

import (
	"math"
	"math/rand/v2"

	"github.com/sw965/omw/mathx/randx"
	"github.com/sw965/sparrow/tabular"
)

// Prediction estimates the state-value function of the uniformly random
// policy. The value table is owned by the learner; the environment's reward
// signal is read-only and never doubles as value storage.
type Prediction[S, A comparable] struct {
	Logic  Logic[S, A]
	Config Config

	// Start fixes the initial state of every epoch. When nil, an epoch
	// starts from a uniformly random available state.
	Start *S

	ProgressFunc     ProgressFunc
	ProgressInterval int
}

func (p *Prediction[S, A]) progressInterval() int {
	if p.ProgressInterval > 0 {
		return p.ProgressInterval
	}
	return defaultProgressInterval
}

func (p *Prediction[S, A]) validate() error {
	if err := p.Logic.Validate(); err != nil {
		return err
	}
	if err := p.Config.Validate(); err != nil {
		return err
	}
	if err := validateStart(p.Logic, p.Start); err != nil {
		return err
	}
	if len(p.Logic.PossibleActionsFunc()) == 0 {
		return ErrEmptyActions
	}
	if len(p.Logic.AllStatesFunc()) == 0 {
		return ErrEmptyStates
	}
	return nil
}

// RunTD0 applies V(S) <- V(S) + α[R + γV(S') - V(S)] along random-policy
// trajectories.
func (p *Prediction[S, A]) RunTD0(rng *rand.Rand) (tabular.StateValue[S], error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	v := tabular.NewStateValue(p.Logic.AllStatesFunc())
	actions := p.Logic.PossibleActionsFunc()
	interval := p.progressInterval()

	for epoch := 0; epoch < p.Config.Epochs; epoch++ {
		if p.ProgressFunc != nil && epoch%interval == 0 {
			p.ProgressFunc(epoch)
		}

		state, err := startState(p.Logic, p.Start, rng)
		if err != nil {
			return nil, err
		}

		steps := 0
		for !p.Logic.IsTerminalFunc(state) && steps < p.Config.StepLimit {
			action, err := randx.Choice(actions, rng)
			if err != nil {
				return nil, err
			}

			next, err := p.Logic.TransitionFunc(state, action)
			if err != nil {
				return nil, err
			}

			reward := p.Logic.RewardFunc(next) + p.Config.StepCost
			// V(terminal) = 0 のままなので、終端でもそのままブートストラップ出来る。
			target := reward + p.Config.Gamma*v[next]
			if err := v.Update(state, target, p.Config.Alpha); err != nil {
				return nil, err
			}

			state = next
			steps += 1
		}
	}
	return v, nil
}

// RunNStep applies the n-step TD update with Config.NStep. The bootstrap
// term is dropped once the trajectory has terminated within the window.
// With NStep == 1 the updates are identical to RunTD0 under the same seed.
func (p *Prediction[S, A]) RunNStep(rng *rand.Rand) (tabular.StateValue[S], error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	n := p.Config.NStep
	if n < 1 {
		return nil, ErrInvalidConfig
	}

	v := tabular.NewStateValue(p.Logic.AllStatesFunc())
	actions := p.Logic.PossibleActionsFunc()
	interval := p.progressInterval()
	gamma := p.Config.Gamma

	for epoch := 0; epoch < p.Config.Epochs; epoch++ {
		if p.ProgressFunc != nil && epoch%interval == 0 {
			p.ProgressFunc(epoch)
		}

		init, err := startState(p.Logic, p.Start, rng)
		if err != nil {
			return nil, err
		}

		if p.Logic.IsTerminalFunc(init) {
			continue
		}

		states := []S{init}
		// rewards[i] は states[i-1] から states[i] への遷移報酬。
		rewards := []float64{0.0}
		T := math.MaxInt

		for t := 0; ; t++ {
			if t < T {
				action, err := randx.Choice(actions, rng)
				if err != nil {
					return nil, err
				}

				next, err := p.Logic.TransitionFunc(states[t], action)
				if err != nil {
					return nil, err
				}

				reward := p.Logic.RewardFunc(next) + p.Config.StepCost
				states = append(states, next)
				rewards = append(rewards, reward)

				if p.Logic.IsTerminalFunc(next) || t+1 >= p.Config.StepLimit {
					T = t + 1
				}
			}

			tau := t - n + 1
			if tau >= 0 {
				end := tau + n
				if T < end {
					end = T
				}

				g := 0.0
				for i := tau + 1; i <= end; i++ {
					g += math.Pow(gamma, float64(i-tau-1)) * rewards[i]
				}
				if tau+n < T {
					g += math.Pow(gamma, float64(n)) * v[states[tau+n]]
				}

				if err := v.Update(states[tau], g, p.Config.Alpha); err != nil {
					return nil, err
				}
			}

			if tau >= T-1 {
				break
			}
		}
	}
	return v, nil
}
