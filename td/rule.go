package td

import (
	"fmt"
	"math/rand/v2"

	"github.com/sw965/omw/mathx/randx"
	"github.com/sw965/sparrow/tabular"
)

// RuleKind tags the bootstrapped update rule run by Control.
type RuleKind int

const (
	Sarsa RuleKind = iota
	QLearning
	DoubleQLearning
	DynaQ
)

func (k RuleKind) String() string {
	switch k {
	case Sarsa:
		return "sarsa"
	case QLearning:
		return "q-learning"
	case DoubleQLearning:
		return "double-q-learning"
	case DynaQ:
		return "dyna-q"
	}
	return fmt.Sprintf("rule-kind(%d)", int(k))
}

// transition is one observed (S, A, R, S', A') step.
type transition[S, A comparable] struct {
	state      S
	action     A
	reward     float64
	nextState  S
	nextAction A
}

// rule is the single dispatch point for the update-rule variants.
// 更新則はenumで指定され、種類毎に一つの実装を持ちます。
type rule[S, A comparable] interface {
	// behaviorRow returns the table row used for action selection at state.
	behaviorRow(state S) (map[A]float64, error)
	update(cfg Config, tr transition[S, A], rng *rand.Rand) error
	result() (tabular.ActionValue[S, A], error)
}

func newRule[S, A comparable](kind RuleKind, logic Logic[S, A]) (rule[S, A], error) {
	states := logic.AllStatesFunc()
	if len(states) == 0 {
		return nil, ErrEmptyStates
	}

	actions := logic.PossibleActionsFunc()
	if len(actions) == 0 {
		return nil, ErrEmptyActions
	}

	switch kind {
	case Sarsa:
		return &sarsa[S, A]{q: tabular.NewActionValue(states, actions)}, nil
	case QLearning:
		return &qLearning[S, A]{q: tabular.NewActionValue(states, actions)}, nil
	case DoubleQLearning:
		return &doubleQ[S, A]{
			q1: tabular.NewActionValue(states, actions),
			q2: tabular.NewActionValue(states, actions),
		}, nil
	case DynaQ:
		return &dynaQ[S, A]{
			q:           tabular.NewActionValue(states, actions),
			model:       map[S]map[A]outcome[S]{},
			seenActions: map[S][]A{},
		}, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownRuleKind, int(kind))
}

// sarsa: Q(S,A) <- Q(S,A) + α[R + γQ(S',A') - Q(S,A)]
type sarsa[S, A comparable] struct {
	q tabular.ActionValue[S, A]
}

func (r *sarsa[S, A]) behaviorRow(state S) (map[A]float64, error) {
	return r.q.Row(state)
}

func (r *sarsa[S, A]) update(cfg Config, tr transition[S, A], _ *rand.Rand) error {
	next, err := r.q.Get(tr.nextState, tr.nextAction)
	if err != nil {
		return err
	}
	target := tr.reward + cfg.Gamma*next
	return r.q.Update(tr.state, tr.action, target, cfg.Alpha)
}

func (r *sarsa[S, A]) result() (tabular.ActionValue[S, A], error) {
	return r.q, nil
}

// qLearning: Q(S,A) <- Q(S,A) + α[R + γ max_a Q(S',a) - Q(S,A)]
// 実際に次に取る行動とは無関係に、最大値でブートストラップする。
type qLearning[S, A comparable] struct {
	q tabular.ActionValue[S, A]
}

func (r *qLearning[S, A]) behaviorRow(state S) (map[A]float64, error) {
	return r.q.Row(state)
}

func (r *qLearning[S, A]) update(cfg Config, tr transition[S, A], _ *rand.Rand) error {
	max, err := r.q.Max(tr.nextState)
	if err != nil {
		return err
	}
	target := tr.reward + cfg.Gamma*max
	return r.q.Update(tr.state, tr.action, target, cfg.Alpha)
}

func (r *qLearning[S, A]) result() (tabular.ActionValue[S, A], error) {
	return r.q, nil
}

// doubleQ keeps two independent tables. A fair coin decides which table is
// updated; the other table evaluates the greedily chosen bootstrap action.
// Behavior selection uses (Q1+Q2)/2.
type doubleQ[S, A comparable] struct {
	q1 tabular.ActionValue[S, A]
	q2 tabular.ActionValue[S, A]
}

func (r *doubleQ[S, A]) behaviorRow(state S) (map[A]float64, error) {
	row1, err := r.q1.Row(state)
	if err != nil {
		return nil, err
	}
	row2, err := r.q2.Row(state)
	if err != nil {
		return nil, err
	}

	row := map[A]float64{}
	for a, v := range row1 {
		v2, ok := row2[a]
		if !ok {
			return nil, fmt.Errorf("%w: %v", tabular.ErrActionNotFound, a)
		}
		row[a] = (v + v2) / 2.0
	}
	return row, nil
}

func (r *doubleQ[S, A]) updateOne(cfg Config, tr transition[S, A], own, other tabular.ActionValue[S, A], rng *rand.Rand) error {
	bestActions, err := own.MaxActions(tr.state)
	if err != nil {
		return err
	}

	best, err := randx.Choice(bestActions, rng)
	if err != nil {
		return err
	}

	bootstrap, err := other.Get(tr.nextState, best)
	if err != nil {
		return err
	}

	target := tr.reward + cfg.Gamma*bootstrap
	return own.Update(tr.state, tr.action, target, cfg.Alpha)
}

func (r *doubleQ[S, A]) update(cfg Config, tr transition[S, A], rng *rand.Rand) error {
	if randx.Bool(rng) {
		return r.updateOne(cfg, tr, r.q1, r.q2, rng)
	}
	return r.updateOne(cfg, tr, r.q2, r.q1, rng)
}

func (r *doubleQ[S, A]) result() (tabular.ActionValue[S, A], error) {
	return r.q1.Mean(r.q2)
}

// outcome is the model entry of Dyna-Q's deterministic one-step model.
type outcome[S comparable] struct {
	reward float64
	next   S
}

// dynaQ performs the direct Q-learning update, records the observed
// transition in its model, and then replays PlanningSteps model
// transitions drawn uniformly from previously observed state-action pairs.
//
// Sutton & Barto 2nd ed., p.164 (Tabular Dyna-Q).
type dynaQ[S, A comparable] struct {
	q           tabular.ActionValue[S, A]
	model       map[S]map[A]outcome[S]
	seen        []S
	seenActions map[S][]A
}

func (r *dynaQ[S, A]) behaviorRow(state S) (map[A]float64, error) {
	return r.q.Row(state)
}

func (r *dynaQ[S, A]) applyQ(cfg Config, state S, action A, reward float64, next S) error {
	max, err := r.q.Max(next)
	if err != nil {
		return err
	}
	target := reward + cfg.Gamma*max
	return r.q.Update(state, action, target, cfg.Alpha)
}

func (r *dynaQ[S, A]) record(tr transition[S, A]) {
	byAction, ok := r.model[tr.state]
	if !ok {
		byAction = map[A]outcome[S]{}
		r.model[tr.state] = byAction
		r.seen = append(r.seen, tr.state)
	}

	if _, ok := byAction[tr.action]; !ok {
		r.seenActions[tr.state] = append(r.seenActions[tr.state], tr.action)
	}
	byAction[tr.action] = outcome[S]{reward: tr.reward, next: tr.nextState}
}

func (r *dynaQ[S, A]) update(cfg Config, tr transition[S, A], rng *rand.Rand) error {
	if err := r.applyQ(cfg, tr.state, tr.action, tr.reward, tr.nextState); err != nil {
		return err
	}

	r.record(tr)

	for i := 0; i < cfg.PlanningSteps; i++ {
		ps, err := randx.Choice(r.seen, rng)
		if err != nil {
			return err
		}

		pa, err := randx.Choice(r.seenActions[ps], rng)
		if err != nil {
			return err
		}

		o := r.model[ps][pa]
		if err := r.applyQ(cfg, ps, pa, o.reward, o.next); err != nil {
			return err
		}
	}
	return nil
}

func (r *dynaQ[S, A]) result() (tabular.ActionValue[S, A], error) {
	return r.q, nil
}
