// Package bandit implements the classic multi-armed bandit testbed:
// stationary arms with normal reward distributions, and greedy /
// epsilon-greedy / UCB / gradient (softmax) agents.
//
// Package bandit は古典的な多腕バンディットのテストベッドを実装します。
// 各腕は固定の正規分布から報酬を返し、エージェントは
// greedy / ε-greedy / UCB / 勾配（ソフトマックス）から選べます。
package bandit

import (
	"errors"
	"fmt"
	"math/rand/v2"

	xrand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	ErrArmCountMismatch    = errors.New("腕の数が一致しません")
	ErrInvalidArm          = errors.New("腕の添字が不正です")
	ErrInvalidStepSize     = errors.New("ステップサイズが不正(0.0より大きく1.0以下である必要があります)")
	ErrInvalidSd           = errors.New("標準偏差が不正(0.0より大きい必要があります)")
	ErrNoArms              = errors.New("腕が存在しません")
	ErrSelectBeforeObserve = errors.New("Observeの前にSelectを呼ぶ必要があります")
	ErrNoHistories         = errors.New("履歴が空です")
	ErrLengthMismatch      = errors.New("履歴の長さが一致しません")
)

// Arm returns rewards drawn from a fixed normal distribution.
type Arm struct {
	dist distuv.Normal
}

func (a Arm) Mean() float64 {
	return a.dist.Mu
}

func (a Arm) Sample() float64 {
	return a.dist.Rand()
}

type Arms []Arm

// NewNormalArms builds one arm per mean/sd pair. All arms share a single
// source seeded with seed.
func NewNormalArms(means, sds []float64, seed uint64) (Arms, error) {
	if len(means) == 0 {
		return nil, ErrNoArms
	}

	if len(means) != len(sds) {
		return nil, fmt.Errorf("%w: means=%d sds=%d", ErrArmCountMismatch, len(means), len(sds))
	}

	src := xrand.NewSource(seed)
	arms := make(Arms, len(means))
	for i, mean := range means {
		if sds[i] <= 0.0 {
			return nil, fmt.Errorf("%w: sds[%d]=%.6g", ErrInvalidSd, i, sds[i])
		}
		arms[i] = Arm{dist: distuv.Normal{Mu: mean, Sigma: sds[i], Src: src}}
	}
	return arms, nil
}

// Best returns the index of the objectively best arm (greatest true mean).
func (as Arms) Best() (int, error) {
	if len(as) == 0 {
		return -1, ErrNoArms
	}

	best := 0
	for i, a := range as[1:] {
		if a.Mean() > as[best].Mean() {
			best = i + 1
		}
	}
	return best, nil
}

// StepFunc maps the visit count of an arm to the update step size.
type StepFunc func(count int) float64

// NewSampleAverageStep yields estimate += (reward - estimate)/count.
func NewSampleAverageStep() StepFunc {
	return func(count int) float64 {
		return 1.0 / float64(count)
	}
}

// NewConstantStep yields estimate += size*(reward - estimate).
func NewConstantStep(size float64) (StepFunc, error) {
	if size <= 0.0 || size > 1.0 {
		return nil, fmt.Errorf("%w: size=%.6g", ErrInvalidStepSize, size)
	}
	return func(_ int) float64 {
		return size
	}, nil
}

// Agent selects an arm at step t and learns from the observed reward.
// Select and Observe are called alternately by Simulate.
type Agent interface {
	Select(t int, rng *rand.Rand) (int, error)
	Observe(arm int, reward float64) error
}

// 同率最大の判定に使う許容誤差。
const eps = 1e-9

func maxIndices(xs []float64) []int {
	idxs := make([]int, 0, len(xs))
	var max float64
	first := true

	for i, x := range xs {
		if first {
			max = x
			idxs = append(idxs, i)
			first = false
			continue
		}

		if x > max+eps {
			max = x
			idxs = idxs[:0]
			idxs = append(idxs, i)
			continue
		}

		if x >= max-eps {
			idxs = append(idxs, i)
		}
	}
	return idxs
}
