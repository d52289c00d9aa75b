// Package ucb provides upper-confidence-bound utilities for action selection.
// The bonus term dominates for unvisited actions, so they are tried first.
//
// Package ucb は行動選択の為のUCB（上側信頼区間）ユーティリティを提供します。
// 未訪問の行動はボーナス項が支配的になる為、先に試されます。
package ucb

import (
	"fmt"
	"math"
)

// CountFloor keeps the bonus finite for actions that were never tried.
const CountFloor = 1e-5

type Func func(estimate float64, totalTrial, trial int) float64

// NewStandardFunc builds the standard UCB score:
// estimate + c*sqrt(ln(totalTrial+1) / (trial + CountFloor)).
func NewStandardFunc(c float64) (Func, error) {
	if c < 0 || math.IsNaN(c) || math.IsInf(c, 0) {
		return nil, fmt.Errorf("cが不正(負/NaN/Inf): c=%.6g", c)
	}

	return func(estimate float64, totalTrial, trial int) float64 {
		bonus := c * math.Sqrt(math.Log(float64(totalTrial)+1.0)/(float64(trial)+CountFloor))
		return estimate + bonus
	}, nil
}

type Calculator struct {
	Func     Func
	Estimate float64
	Trial    int
}

func (c *Calculator) Calculation(totalTrial int) float64 {
	return c.Func(c.Estimate, totalTrial, c.Trial)
}

type Manager[KS ~[]K, K comparable] map[K]*Calculator

func (m Manager[KS, K]) TotalTrial() int {
	t := 0
	for _, v := range m {
		t += v.Trial
	}
	return t
}

func (m Manager[KS, K]) Max() float64 {
	total := m.TotalTrial()
	var max float64
	first := true
	for _, v := range m {
		u := v.Calculation(total)
		if first || u > max {
			max = u
			first = false
		}
	}
	return max
}

func (m Manager[KS, K]) MaxKeys() KS {
	max := m.Max()
	total := m.TotalTrial()
	ks := make(KS, 0, len(m))
	for k, v := range m {
		if v.Calculation(total) == max {
			ks = append(ks, k)
		}
	}
	return ks
}

func (m Manager[KS, K]) Trials() map[K]int {
	y := map[K]int{}
	for k, v := range m {
		y[k] = v.Trial
	}
	return y
}

func (m Manager[KS, K]) Validate() error {
	for k, v := range m {
		if v == nil {
			return fmt.Errorf("Calculatorが未初期化(nil): key=%v", k)
		}
		if v.Func == nil {
			return fmt.Errorf("Funcが未初期化(nil): key=%v", k)
		}
	}
	return nil
}
