// Package tabular provides value tables for tabular reinforcement learning.
// Every reachable state (and every legal action in the control case) has an
// entry; terminal entries are initialized to zero and are never updated.
//
// Package tabular は表形式強化学習の為の価値テーブルを提供します。
// 到達可能な全ての状態（制御の場合は全ての合法行動も）がエントリーを持ち、
// 終端状態のエントリーは0で初期化され、更新されない事を想定しています。
package tabular

import (
	"errors"
	"fmt"
)

var (
	ErrStateNotFound  = errors.New("テーブルに状態が存在しません")
	ErrActionNotFound = errors.New("テーブルに行動が存在しません")
	ErrEmptyRow       = errors.New("行が空です")
	ErrTableMismatch  = errors.New("テーブルの形が一致しません")
)

// Interpolate moves old toward target by the step size alpha.
// old + α(target - old) は全ての更新式の共通形。
func Interpolate(old, target, alpha float64) float64 {
	return old + alpha*(target-old)
}

// 同率最大の判定に使う許容誤差。
const eps = 1e-9

// MaxValue returns the greatest value in the row.
func MaxValue[A comparable](row map[A]float64) (float64, error) {
	if len(row) == 0 {
		return 0.0, ErrEmptyRow
	}

	var max float64
	first := true
	for _, v := range row {
		if first || v > max {
			max = v
			first = false
		}
	}
	return max, nil
}

// MaxKeys returns every key whose value ties (within eps) for the maximum.
//
// MaxKeysは、最大値と同率（誤差eps以内）の全てのキーを返します。
func MaxKeys[A comparable](row map[A]float64) ([]A, error) {
	if len(row) == 0 {
		return nil, ErrEmptyRow
	}

	ks := make([]A, 0, len(row))
	var max float64
	first := true

	for k, v := range row {
		if first {
			max = v
			ks = append(ks, k)
			first = false
			continue
		}

		// 「明確に」最大更新
		if v > max+eps {
			max = v
			ks = ks[:0]
			ks = append(ks, k)
			continue
		}

		// 誤差 eps 以内なら同率扱い
		if v >= max-eps {
			ks = append(ks, k)
		}
	}
	return ks, nil
}

// StateValue maps a state to its value estimate (the prediction case).
type StateValue[S comparable] map[S]float64

func NewStateValue[S comparable](states []S) StateValue[S] {
	v := StateValue[S]{}
	for _, s := range states {
		v[s] = 0.0
	}
	return v
}

func (v StateValue[S]) Update(s S, target, alpha float64) error {
	old, ok := v[s]
	if !ok {
		return fmt.Errorf("%w: %v", ErrStateNotFound, s)
	}
	v[s] = Interpolate(old, target, alpha)
	return nil
}

func (v StateValue[S]) Clone() StateValue[S] {
	y := StateValue[S]{}
	for s, value := range v {
		y[s] = value
	}
	return y
}

// ActionValue maps a state-action pair to its value estimate (the control case).
type ActionValue[S, A comparable] map[S]map[A]float64

func NewActionValue[S, A comparable](states []S, actions []A) ActionValue[S, A] {
	q := ActionValue[S, A]{}
	for _, s := range states {
		row := map[A]float64{}
		for _, a := range actions {
			row[a] = 0.0
		}
		q[s] = row
	}
	return q
}

func (q ActionValue[S, A]) Row(s S) (map[A]float64, error) {
	row, ok := q[s]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrStateNotFound, s)
	}
	return row, nil
}

func (q ActionValue[S, A]) Get(s S, a A) (float64, error) {
	row, err := q.Row(s)
	if err != nil {
		return 0.0, err
	}

	v, ok := row[a]
	if !ok {
		return 0.0, fmt.Errorf("%w: %v", ErrActionNotFound, a)
	}
	return v, nil
}

func (q ActionValue[S, A]) Update(s S, a A, target, alpha float64) error {
	old, err := q.Get(s, a)
	if err != nil {
		return err
	}
	q[s][a] = Interpolate(old, target, alpha)
	return nil
}

// Max returns the greatest action value at s, over all legal actions.
func (q ActionValue[S, A]) Max(s S) (float64, error) {
	row, err := q.Row(s)
	if err != nil {
		return 0.0, err
	}
	return MaxValue(row)
}

// MaxActions returns every action tying for the greatest value at s.
func (q ActionValue[S, A]) MaxActions(s S) ([]A, error) {
	row, err := q.Row(s)
	if err != nil {
		return nil, err
	}
	return MaxKeys(row)
}

// Mean returns (q + other) / 2 as a new table.
// 行動選択にQ1とQ2の平均を使うダブルQ学習の為のヘルパー。
func (q ActionValue[S, A]) Mean(other ActionValue[S, A]) (ActionValue[S, A], error) {
	if len(q) != len(other) {
		return nil, fmt.Errorf("%w: 状態数 %d != %d", ErrTableMismatch, len(q), len(other))
	}

	y := ActionValue[S, A]{}
	for s, row := range q {
		otherRow, ok := other[s]
		if !ok {
			return nil, fmt.Errorf("%w: %v", ErrStateNotFound, s)
		}
		if len(row) != len(otherRow) {
			return nil, fmt.Errorf("%w: 行動数 %d != %d", ErrTableMismatch, len(row), len(otherRow))
		}

		yRow := map[A]float64{}
		for a, v := range row {
			otherV, ok := otherRow[a]
			if !ok {
				return nil, fmt.Errorf("%w: %v", ErrActionNotFound, a)
			}
			yRow[a] = (v + otherV) / 2.0
		}
		y[s] = yRow
	}
	return y, nil
}

func (q ActionValue[S, A]) Clone() ActionValue[S, A] {
	y := ActionValue[S, A]{}
	for s, row := range q {
		yRow := map[A]float64{}
		for a, v := range row {
			yRow[a] = v
		}
		y[s] = yRow
	}
	return y
}
