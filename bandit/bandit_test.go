package bandit_test

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/sw965/sparrow/bandit"
)

func TestNewNormalArms(t *testing.T) {
	tests := []struct {
		name    string
		means   []float64
		sds     []float64
		wantErr error
	}{
		{
			name:  "正常",
			means: []float64{0.0, 1.0},
			sds:   []float64{1.0, 1.0},
		},
		{
			name:    "準正常_空",
			means:   []float64{},
			sds:     []float64{},
			wantErr: bandit.ErrNoArms,
		},
		{
			name:    "準正常_長さ不一致",
			means:   []float64{0.0, 1.0},
			sds:     []float64{1.0},
			wantErr: bandit.ErrArmCountMismatch,
		},
		{
			name:    "準正常_標準偏差がゼロ",
			means:   []float64{0.0},
			sds:     []float64{0.0},
			wantErr: bandit.ErrInvalidSd,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := bandit.NewNormalArms(tc.means, tc.sds, 1)
			if tc.wantErr == nil {
				if err != nil {
					t.Errorf("想定外のエラー: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("want: %v, got: %v", tc.wantErr, err)
			}
		})
	}
}

func TestArmsBest(t *testing.T) {
	arms, err := bandit.NewNormalArms([]float64{0.5, 2.0, -1.0}, []float64{1.0, 1.0, 1.0}, 1)
	if err != nil {
		t.Fatal(err)
	}

	best, err := arms.Best()
	if err != nil {
		t.Fatal(err)
	}
	if best != 1 {
		t.Errorf("want: 1, got: %d", best)
	}
}

func TestStepFuncs(t *testing.T) {
	sampleAverage := bandit.NewSampleAverageStep()
	if got := sampleAverage(4); got != 0.25 {
		t.Errorf("want: 0.25, got: %v", got)
	}

	constant, err := bandit.NewConstantStep(0.1)
	if err != nil {
		t.Fatal(err)
	}
	if got := constant(100); got != 0.1 {
		t.Errorf("want: 0.1, got: %v", got)
	}

	_, err = bandit.NewConstantStep(0.0)
	if !errors.Is(err, bandit.ErrInvalidStepSize) {
		t.Errorf("want: ErrInvalidStepSize, got: %v", err)
	}
}

func TestEpsilonGreedyObserve(t *testing.T) {
	agent, err := bandit.NewEpsilonGreedy(2, 0.0, bandit.NewSampleAverageStep())
	if err != nil {
		t.Fatal(err)
	}

	// 標本平均なので、推定値は観測した報酬の平均になる。
	if err := agent.Observe(0, 2.0); err != nil {
		t.Fatal(err)
	}
	if err := agent.Observe(0, 4.0); err != nil {
		t.Fatal(err)
	}

	got := agent.Estimates()
	if got[0] != 3.0 {
		t.Errorf("want: 3.0, got: %v", got[0])
	}
	if got[1] != 0.0 {
		t.Errorf("観測していない腕の推定値が動いた: %v", got[1])
	}

	err = agent.Observe(9, 1.0)
	if !errors.Is(err, bandit.ErrInvalidArm) {
		t.Errorf("want: ErrInvalidArm, got: %v", err)
	}
}

func TestEpsilonGreedyExploits(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	agent, err := bandit.NewEpsilonGreedy(3, 0.0, bandit.NewSampleAverageStep())
	if err != nil {
		t.Fatal(err)
	}

	if err := agent.Observe(1, 5.0); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 50; i++ {
		arm, err := agent.Select(i, rng)
		if err != nil {
			t.Fatal(err)
		}
		if arm != 1 {
			t.Fatalf("ε=0なのに最大推定値以外が選ばれた: arm=%d", arm)
		}
	}
}

func TestUCBTriesAllArmsFirst(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	arms := 4
	agent, err := bandit.NewUCB(arms, 2.0, nil)
	if err != nil {
		t.Fatal(err)
	}

	// 未訪問のボーナスが支配的なので、最初のarms回で全腕が1回ずつ選ばれる。
	for i := 0; i < arms; i++ {
		arm, err := agent.Select(i, rng)
		if err != nil {
			t.Fatal(err)
		}
		if err := agent.Observe(arm, 0.0); err != nil {
			t.Fatal(err)
		}
	}

	for arm, n := range agent.Trials() {
		if n != 1 {
			t.Errorf("訪問回数が1ではない: arm=%d trial=%d", arm, n)
		}
	}
}

func TestGradientPolicy(t *testing.T) {
	agent, err := bandit.NewGradient(4, 0.1, true)
	if err != nil {
		t.Fatal(err)
	}

	probs := agent.Policy()
	var sum float32
	for _, p := range probs {
		sum += p
		if p <= 0.0 {
			t.Errorf("確率が正ではない: %v", p)
		}
	}
	if math.Abs(float64(sum)-1.0) > 1e-5 {
		t.Errorf("確率の合計が1ではない: %v", sum)
	}
}

func TestGradientPrefersRewardedArm(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	agent, err := bandit.NewGradient(3, 0.2, false)
	if err != nil {
		t.Fatal(err)
	}

	// 腕1だけが正の報酬を返す。
	for i := 0; i < 300; i++ {
		arm, err := agent.Select(i, rng)
		if err != nil {
			t.Fatal(err)
		}

		reward := 0.0
		if arm == 1 {
			reward = 1.0
		}
		if err := agent.Observe(arm, reward); err != nil {
			t.Fatal(err)
		}
	}

	probs := agent.Policy()
	if probs[1] <= probs[0] || probs[1] <= probs[2] {
		t.Errorf("報酬を返す腕の確率が最大ではない: %v", probs)
	}
}

func TestGradientObserveBeforeSelect(t *testing.T) {
	agent, err := bandit.NewGradient(2, 0.1, true)
	if err != nil {
		t.Fatal(err)
	}

	err = agent.Observe(0, 1.0)
	if !errors.Is(err, bandit.ErrSelectBeforeObserve) {
		t.Errorf("want: ErrSelectBeforeObserve, got: %v", err)
	}
}

func TestSimulateEpsilonGreedy(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 8))

	// 最適な腕の平均が明確に離れたテストベッド。
	arms, err := bandit.NewNormalArms(
		[]float64{0.0, 0.2, 0.1, 3.0, -0.5},
		[]float64{1.0, 1.0, 1.0, 1.0, 1.0},
		42,
	)
	if err != nil {
		t.Fatal(err)
	}

	agent, err := bandit.NewEpsilonGreedy(5, 0.1, bandit.NewSampleAverageStep())
	if err != nil {
		t.Fatal(err)
	}

	steps := 1000
	h, err := bandit.Simulate(agent, arms, steps, rng)
	if err != nil {
		t.Fatal(err)
	}

	if len(h.Rewards) != steps || len(h.OptimalPercent) != steps {
		t.Fatalf("履歴の長さが不正: rewards=%d optimal=%d", len(h.Rewards), len(h.OptimalPercent))
	}

	final := h.OptimalPercent[steps-1]
	if final < 0.5 {
		t.Errorf("最適腕の選択率が低すぎる: %.3f", final)
	}
}

func TestSimulateMany(t *testing.T) {
	runs := 8
	agents := make([]bandit.Agent, runs)
	armss := make([]bandit.Arms, runs)

	for i := 0; i < runs; i++ {
		agent, err := bandit.NewEpsilonGreedy(3, 0.1, bandit.NewSampleAverageStep())
		if err != nil {
			t.Fatal(err)
		}
		agents[i] = agent

		arms, err := bandit.NewNormalArms([]float64{0.0, 2.0, 0.5}, []float64{1.0, 1.0, 1.0}, uint64(i+1))
		if err != nil {
			t.Fatal(err)
		}
		armss[i] = arms
	}

	rngs := []*rand.Rand{
		rand.New(rand.NewPCG(9, 10)),
		rand.New(rand.NewPCG(11, 12)),
	}

	histories, err := bandit.SimulateMany(agents, armss, 100, rngs)
	if err != nil {
		t.Fatal(err)
	}
	if len(histories) != runs {
		t.Fatalf("want: %d, got: %d", runs, len(histories))
	}

	avg, err := bandit.AverageOptimalPercent(histories)
	if err != nil {
		t.Fatal(err)
	}
	if len(avg) != 100 {
		t.Errorf("want: 100, got: %d", len(avg))
	}
	for _, v := range avg {
		if v < 0.0 || v > 1.0 {
			t.Errorf("選択率が範囲外: %v", v)
		}
	}
}

func TestAverageOptimalPercentErrors(t *testing.T) {
	_, err := bandit.AverageOptimalPercent(nil)
	if !errors.Is(err, bandit.ErrNoHistories) {
		t.Errorf("want: ErrNoHistories, got: %v", err)
	}

	histories := []bandit.History{
		{OptimalPercent: []float64{1.0, 1.0}},
		{OptimalPercent: []float64{1.0}},
	}
	_, err = bandit.AverageOptimalPercent(histories)
	if !errors.Is(err, bandit.ErrLengthMismatch) {
		t.Errorf("want: ErrLengthMismatch, got: %v", err)
	}
}
