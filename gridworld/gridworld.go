// Package gridworld provides small deterministic grid environments for the
// tabular learners: coordinate states, four clamped moves, per-state
// rewards and a terminal set.
//
// Package gridworld は表形式学習器の為の小さな決定論的グリッド環境を提供します。
package gridworld

import (
	"errors"
	"fmt"

	"github.com/sw965/sparrow/td"
)

var (
	ErrInvalidSize   = errors.New("グリッドサイズが不正です")
	ErrOutOfBounds   = errors.New("グリッドの範囲外です")
	ErrUnknownAction = errors.New("未知の行動です")
)

type State struct {
	Row int
	Col int
}

type Action int

const (
	Up Action = iota
	Down
	Left
	Right
)

func (a Action) String() string {
	switch a {
	case Up:
		return "↑"
	case Down:
		return "↓"
	case Left:
		return "←"
	case Right:
		return "→"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// World is a Rows×Cols grid. Moves that would leave the grid keep the
// agent in place. The reward grid is a read-only environment signal;
// learners keep their value tables elsewhere.
type World struct {
	Rows    int
	Cols    int
	Actions []Action

	Start     State
	rewards   map[State]float64
	terminals map[State]bool
}

func New(rows, cols int) (*World, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, rows, cols)
	}

	return &World{
		Rows:      rows,
		Cols:      cols,
		Actions:   []Action{Up, Down, Left, Right},
		rewards:   map[State]float64{},
		terminals: map[State]bool{},
	}, nil
}

// NewCorridor builds a 1×n corridor whose only action is Right, with the
// terminal state at the right end. Rewards are all zero; a per-step cost
// is supplied by the learner's Config.StepCost.
func NewCorridor(n int) (*World, error) {
	w, err := New(1, n)
	if err != nil {
		return nil, err
	}
	w.Actions = []Action{Right}
	if err := w.SetTerminal(State{Row: 0, Col: n - 1}); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *World) Contains(s State) bool {
	return s.Row >= 0 && s.Row < w.Rows && s.Col >= 0 && s.Col < w.Cols
}

func (w *World) SetReward(s State, reward float64) error {
	if !w.Contains(s) {
		return fmt.Errorf("%w: %v", ErrOutOfBounds, s)
	}
	w.rewards[s] = reward
	return nil
}

func (w *World) SetTerminal(s State) error {
	if !w.Contains(s) {
		return fmt.Errorf("%w: %v", ErrOutOfBounds, s)
	}
	w.terminals[s] = true
	return nil
}

func (w *World) Reward(s State) float64 {
	return w.rewards[s]
}

func (w *World) IsTerminal(s State) bool {
	return w.terminals[s]
}

// AllStates enumerates the grid in row-major order.
func (w *World) AllStates() []State {
	states := make([]State, 0, w.Rows*w.Cols)
	for row := 0; row < w.Rows; row++ {
		for col := 0; col < w.Cols; col++ {
			states = append(states, State{Row: row, Col: col})
		}
	}
	return states
}

// AvailableStates enumerates the non-terminal states.
func (w *World) AvailableStates() []State {
	states := make([]State, 0, w.Rows*w.Cols)
	for _, s := range w.AllStates() {
		if !w.terminals[s] {
			states = append(states, s)
		}
	}
	return states
}

// Move applies an action, clamping at the grid edges.
func (w *World) Move(s State, a Action) (State, error) {
	if !w.Contains(s) {
		return State{}, fmt.Errorf("%w: %v", ErrOutOfBounds, s)
	}

	next := s
	switch a {
	case Up:
		next.Row -= 1
	case Down:
		next.Row += 1
	case Left:
		next.Col -= 1
	case Right:
		next.Col += 1
	default:
		return State{}, fmt.Errorf("%w: %v", ErrUnknownAction, a)
	}

	if !w.Contains(next) {
		return s, nil
	}
	return next, nil
}

// Logic adapts the world to the environment contract consumed by td.
func (w *World) Logic() td.Logic[State, Action] {
	return td.Logic[State, Action]{
		PossibleActionsFunc: func() []Action { return w.Actions },
		AllStatesFunc:       w.AllStates,
		AvailableStatesFunc: w.AvailableStates,
		InitialStateFunc:    func() State { return w.Start },
		IsTerminalFunc:      w.IsTerminal,
		TransitionFunc:      w.Move,
		RewardFunc:          w.Reward,
	}
}
