// Package policy provides exploration policies over the rows of a value table.
// Ties among maximizing actions are always broken by uniform random choice.
//
// Package policy は価値テーブルの行に対する探索方策を提供します。
// 最大値で同率の行動は、常に一様ランダムに選ばれます。
package policy

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/sw965/omw/mathx/randx"
	"github.com/sw965/sparrow/tabular"
	"github.com/sw965/sparrow/ucb"
)

var (
	ErrInvalidEpsilon = errors.New("epsilonが不正(0.0～1.0の範囲外)")
	ErrEmptyRow       = errors.New("行が空です")
)

// Selector chooses an action for a state from the current table row.
type Selector[S, A comparable] interface {
	Select(state S, row map[A]float64, rng *rand.Rand) (A, error)
}

// EpsilonGreedy explores uniformly with probability Epsilon and otherwise
// exploits a maximizing action.
type EpsilonGreedy[S, A comparable] struct {
	Epsilon float64
}

func (e EpsilonGreedy[S, A]) Validate() error {
	if e.Epsilon < 0.0 || e.Epsilon > 1.0 || math.IsNaN(e.Epsilon) {
		return fmt.Errorf("%w: epsilon=%.6g", ErrInvalidEpsilon, e.Epsilon)
	}
	return nil
}

func (e EpsilonGreedy[S, A]) Select(_ S, row map[A]float64, rng *rand.Rand) (A, error) {
	var zero A
	if err := e.Validate(); err != nil {
		return zero, err
	}

	if len(row) == 0 {
		return zero, ErrEmptyRow
	}

	if rng.Float64() < e.Epsilon {
		ks := slices.Collect(maps.Keys(row))
		return randx.Choice(ks, rng)
	}

	ks, err := tabular.MaxKeys(row)
	if err != nil {
		return zero, err
	}
	return randx.Choice(ks, rng)
}

// NewGreedy returns an EpsilonGreedy that never explores.
func NewGreedy[S, A comparable]() EpsilonGreedy[S, A] {
	return EpsilonGreedy[S, A]{Epsilon: 0.0}
}

// UpperConfidence selects by UCB score over the current row, keeping a
// per-state visit count for every action. Counts grow on selection.
//
// UpperConfidenceは現在の行のUCBスコアで行動を選択します。
// 訪問回数は状態毎に保持され、選択時に加算されます。
type UpperConfidence[S, A comparable] struct {
	fn       ucb.Func
	managers map[S]ucb.Manager[[]A, A]
}

func NewUpperConfidence[S, A comparable](c float64) (*UpperConfidence[S, A], error) {
	fn, err := ucb.NewStandardFunc(c)
	if err != nil {
		return nil, err
	}
	return &UpperConfidence[S, A]{
		fn:       fn,
		managers: map[S]ucb.Manager[[]A, A]{},
	}, nil
}

func (u *UpperConfidence[S, A]) Select(state S, row map[A]float64, rng *rand.Rand) (A, error) {
	var zero A
	if len(row) == 0 {
		return zero, ErrEmptyRow
	}

	m, ok := u.managers[state]
	if !ok {
		m = ucb.Manager[[]A, A]{}
		for a := range row {
			m[a] = &ucb.Calculator{Func: u.fn}
		}
		u.managers[state] = m
	}

	// テーブル側が更新されている可能性がある為、毎回推定値を同期する。
	for a, c := range m {
		c.Estimate = row[a]
	}

	a, err := randx.Choice(m.MaxKeys(), rng)
	if err != nil {
		return zero, err
	}
	m[a].Trial += 1
	return a, nil
}

// Trials returns the visit counts recorded for state.
func (u *UpperConfidence[S, A]) Trials(state S) map[A]int {
	m, ok := u.managers[state]
	if !ok {
		return map[A]int{}
	}
	return m.Trials()
}
