package td

import (
	"math/rand/v2"

	"github.com/sw965/omw/mathx/randx"
	"github.com/sw965/sparrow/policy"
	"github.com/sw965/sparrow/tabular"
)

// Control runs on-policy / off-policy TD control with the update rule
// selected by Rule. The learned action-value table is owned by Control's
// rule instance and mutated exclusively by its own update step.
type Control[S, A comparable] struct {
	Logic  Logic[S, A]
	Config Config
	Rule   RuleKind

	// Start fixes the initial state of every epoch. When nil, an epoch
	// starts from a uniformly random available state.
	Start *S

	// Selector overrides the exploration policy. When nil, epsilon-greedy
	// with Config.Epsilon is used.
	Selector policy.Selector[S, A]

	// ProgressFunc, when set, is called every ProgressInterval epochs.
	ProgressFunc     ProgressFunc
	ProgressInterval int
}

func (c *Control[S, A]) selector() policy.Selector[S, A] {
	if c.Selector != nil {
		return c.Selector
	}
	return policy.EpsilonGreedy[S, A]{Epsilon: c.Config.Epsilon}
}

func (c *Control[S, A]) progressInterval() int {
	if c.ProgressInterval > 0 {
		return c.ProgressInterval
	}
	return defaultProgressInterval
}

// Run executes Config.Epochs trajectories and returns the learned table.
// Each epoch walks Start → Stepping → Terminal, where Terminal is reached
// on a terminal state or after Config.StepLimit steps.
func (c *Control[S, A]) Run(rng *rand.Rand) (tabular.ActionValue[S, A], error) {
	if err := c.Logic.Validate(); err != nil {
		return nil, err
	}
	if err := c.Config.Validate(); err != nil {
		return nil, err
	}
	if err := validateStart(c.Logic, c.Start); err != nil {
		return nil, err
	}

	r, err := newRule(c.Rule, c.Logic)
	if err != nil {
		return nil, err
	}

	selector := c.selector()
	interval := c.progressInterval()

	selectAction := func(state S) (A, error) {
		var zero A
		row, err := r.behaviorRow(state)
		if err != nil {
			return zero, err
		}
		return selector.Select(state, row, rng)
	}

	for epoch := 0; epoch < c.Config.Epochs; epoch++ {
		if c.ProgressFunc != nil && epoch%interval == 0 {
			c.ProgressFunc(epoch)
		}

		state, err := startState(c.Logic, c.Start, rng)
		if err != nil {
			return nil, err
		}

		action, err := selectAction(state)
		if err != nil {
			return nil, err
		}

		steps := 0
		for !c.Logic.IsTerminalFunc(state) && steps < c.Config.StepLimit {
			nextState, err := c.Logic.TransitionFunc(state, action)
			if err != nil {
				return nil, err
			}

			nextAction, err := selectAction(nextState)
			if err != nil {
				return nil, err
			}

			reward := c.Logic.RewardFunc(nextState) + c.Config.StepCost

			tr := transition[S, A]{
				state:      state,
				action:     action,
				reward:     reward,
				nextState:  nextState,
				nextAction: nextAction,
			}
			if err := r.update(c.Config, tr, rng); err != nil {
				return nil, err
			}

			state = nextState
			action = nextAction
			steps += 1
		}
	}

	return r.result()
}

// GreedyActions reduces a learned table to one maximizing action per
// non-terminal state, ties broken uniformly.
func GreedyActions[S, A comparable](logic Logic[S, A], q tabular.ActionValue[S, A], rng *rand.Rand) (map[S]A, error) {
	if err := logic.Validate(); err != nil {
		return nil, err
	}

	y := map[S]A{}
	for _, s := range logic.AvailableStatesFunc() {
		as, err := q.MaxActions(s)
		if err != nil {
			return nil, err
		}

		a, err := randx.Choice(as, rng)
		if err != nil {
			return nil, err
		}
		y[s] = a
	}
	return y, nil
}
