// Package td implements the tabular temporal-difference family:
// TD(0) and n-step TD prediction, and SARSA / Q-learning / double
// Q-learning / Dyna-Q control. Value tables are owned by the learner and
// are kept separate from the environment's reward signal.
//
// Package td は表形式TD法の一族を実装します。
// TD(0)とnステップTDによる予測、SARSA・Q学習・ダブルQ学習・Dyna-Qによる制御。
// 価値テーブルは学習器が所有し、環境の報酬とは分離されています。
package td

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/sw965/omw/mathx/randx"
)

var (
	ErrNilLogicFunc    = errors.New("Logicエラー: フィールドの関数がnilです")
	ErrInvalidConfig   = errors.New("Configエラー: 値が不正です")
	ErrEmptyStates     = errors.New("状態集合が空です")
	ErrEmptyActions    = errors.New("行動集合が空です")
	ErrUnknownRuleKind = errors.New("未知の更新則です")
	ErrStartNotFound   = errors.New("開始状態が状態集合に存在しません")
)

type TransitionFunc[S, A comparable] func(S, A) (S, error)

// Logic is the environment contract consumed by the learners.
// The environment is a shared, read-mostly collaborator; learners never
// write into it.
type Logic[S, A comparable] struct {
	PossibleActionsFunc func() []A
	AllStatesFunc       func() []S
	AvailableStatesFunc func() []S
	InitialStateFunc    func() S
	IsTerminalFunc      func(S) bool
	TransitionFunc      TransitionFunc[S, A]
	RewardFunc          func(S) float64
}

func (l Logic[S, A]) Validate() error {
	if l.PossibleActionsFunc == nil {
		return fmt.Errorf("%w: PossibleActionsFunc", ErrNilLogicFunc)
	}
	if l.AllStatesFunc == nil {
		return fmt.Errorf("%w: AllStatesFunc", ErrNilLogicFunc)
	}
	if l.AvailableStatesFunc == nil {
		return fmt.Errorf("%w: AvailableStatesFunc", ErrNilLogicFunc)
	}
	if l.InitialStateFunc == nil {
		return fmt.Errorf("%w: InitialStateFunc", ErrNilLogicFunc)
	}
	if l.IsTerminalFunc == nil {
		return fmt.Errorf("%w: IsTerminalFunc", ErrNilLogicFunc)
	}
	if l.TransitionFunc == nil {
		return fmt.Errorf("%w: TransitionFunc", ErrNilLogicFunc)
	}
	if l.RewardFunc == nil {
		return fmt.Errorf("%w: RewardFunc", ErrNilLogicFunc)
	}
	return nil
}

// Config holds the run parameters. It is set once before learning begins
// and is read-only thereafter; every operation receives it explicitly.
type Config struct {
	// Alpha is the learning rate, in (0, 1].
	Alpha float64
	// Gamma is the discount factor, in [0, 1].
	Gamma float64
	// Epsilon is the exploration rate of the default policy, in [0, 1].
	Epsilon float64
	// Epochs is the number of simulated trajectories.
	Epochs int
	// StepLimit bounds the steps of one epoch, guarding against
	// non-terminating trajectories.
	StepLimit int
	// NStep is the return length of n-step TD prediction. NStep == 1 is TD(0).
	NStep int
	// PlanningSteps is the number of model-based updates Dyna-Q performs
	// after every real step.
	PlanningSteps int
	// StepCost is added to the environment reward on every transition.
	StepCost float64
}

func (c Config) Validate() error {
	if c.Alpha <= 0.0 || c.Alpha > 1.0 || math.IsNaN(c.Alpha) {
		return fmt.Errorf("%w: Alpha=%.6g", ErrInvalidConfig, c.Alpha)
	}
	if c.Gamma < 0.0 || c.Gamma > 1.0 || math.IsNaN(c.Gamma) {
		return fmt.Errorf("%w: Gamma=%.6g", ErrInvalidConfig, c.Gamma)
	}
	if c.Epsilon < 0.0 || c.Epsilon > 1.0 || math.IsNaN(c.Epsilon) {
		return fmt.Errorf("%w: Epsilon=%.6g", ErrInvalidConfig, c.Epsilon)
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("%w: Epochs=%d", ErrInvalidConfig, c.Epochs)
	}
	if c.StepLimit <= 0 {
		return fmt.Errorf("%w: StepLimit=%d", ErrInvalidConfig, c.StepLimit)
	}
	if c.NStep < 0 {
		return fmt.Errorf("%w: NStep=%d", ErrInvalidConfig, c.NStep)
	}
	if c.PlanningSteps < 0 {
		return fmt.Errorf("%w: PlanningSteps=%d", ErrInvalidConfig, c.PlanningSteps)
	}
	if math.IsNaN(c.StepCost) || math.IsInf(c.StepCost, 0) {
		return fmt.Errorf("%w: StepCost=%.6g", ErrInvalidConfig, c.StepCost)
	}
	return nil
}

// ProgressFunc reports the current epoch. It is called before the epoch runs.
type ProgressFunc func(epoch int)

const defaultProgressInterval = 100

// startState resolves the initial state of an epoch: the configured fixed
// start if any, otherwise a uniformly random available state.
func startState[S, A comparable](logic Logic[S, A], start *S, rng *rand.Rand) (S, error) {
	if start != nil {
		return *start, nil
	}

	var zero S
	states := logic.AvailableStatesFunc()
	if len(states) == 0 {
		return zero, ErrEmptyStates
	}
	return randx.Choice(states, rng)
}

// validateStart checks that a fixed start state belongs to the state set.
func validateStart[S, A comparable](logic Logic[S, A], start *S) error {
	if start == nil {
		return nil
	}
	for _, s := range logic.AllStatesFunc() {
		if s == *start {
			return nil
		}
	}
	return fmt.Errorf("%w: %v", ErrStartNotFound, *start)
}
