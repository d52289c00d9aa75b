package td_test

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/sw965/sparrow/gridworld"
	"github.com/sw965/sparrow/td"
)

func newGoalWorld(t *testing.T) *gridworld.World {
	t.Helper()

	w, err := gridworld.New(4, 4)
	if err != nil {
		t.Fatal(err)
	}

	goal := gridworld.State{Row: 0, Col: 3}
	if err := w.SetTerminal(goal); err != nil {
		t.Fatal(err)
	}
	if err := w.SetReward(goal, 1.0); err != nil {
		t.Fatal(err)
	}
	w.Start = gridworld.State{Row: 3, Col: 0}
	return w
}

func TestConfigValidate(t *testing.T) {
	valid := td.Config{Alpha: 0.5, Gamma: 0.9, Epsilon: 0.1, Epochs: 10, StepLimit: 100}

	tests := []struct {
		name   string
		mutate func(c *td.Config)
		ok     bool
	}{
		{
			name:   "正常",
			mutate: func(c *td.Config) {},
			ok:     true,
		},
		{
			name:   "準正常_Alphaがゼロ",
			mutate: func(c *td.Config) { c.Alpha = 0.0 },
		},
		{
			name:   "準正常_Gammaが1超え",
			mutate: func(c *td.Config) { c.Gamma = 1.1 },
		},
		{
			name:   "準正常_Epochsがゼロ",
			mutate: func(c *td.Config) { c.Epochs = 0 },
		},
		{
			name:   "準正常_StepLimitが負",
			mutate: func(c *td.Config) { c.StepLimit = -1 },
		},
		{
			name:   "準正常_StepCostがNaN",
			mutate: func(c *td.Config) { c.StepCost = math.NaN() },
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := valid
			tc.mutate(&c)
			err := c.Validate()
			if tc.ok && err != nil {
				t.Errorf("想定外のエラー: %v", err)
			}
			if !tc.ok && !errors.Is(err, td.ErrInvalidConfig) {
				t.Errorf("want: ErrInvalidConfig, got: %v", err)
			}
		})
	}
}

func TestLogicValidate(t *testing.T) {
	w := newGoalWorld(t)
	logic := w.Logic()
	if err := logic.Validate(); err != nil {
		t.Fatal(err)
	}

	logic.RewardFunc = nil
	if err := logic.Validate(); !errors.Is(err, td.ErrNilLogicFunc) {
		t.Errorf("want: ErrNilLogicFunc, got: %v", err)
	}
}

func TestControlStartNotFound(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	w := newGoalWorld(t)

	outside := gridworld.State{Row: 99, Col: 99}
	control := td.Control[gridworld.State, gridworld.Action]{
		Logic:  w.Logic(),
		Config: td.Config{Alpha: 0.5, Gamma: 0.9, Epochs: 1, StepLimit: 10},
		Rule:   td.QLearning,
		Start:  &outside,
	}

	_, err := control.Run(rng)
	if !errors.Is(err, td.ErrStartNotFound) {
		t.Errorf("want: ErrStartNotFound, got: %v", err)
	}
}

// 学習した貪欲方策に従って歩き、終端に到達出来るかを確かめる。
func reachesTerminal(t *testing.T, w *gridworld.World, greedy map[gridworld.State]gridworld.Action) bool {
	t.Helper()

	s := w.Start
	for i := 0; i < 100; i++ {
		if w.IsTerminal(s) {
			return true
		}

		next, err := w.Move(s, greedy[s])
		if err != nil {
			t.Fatal(err)
		}
		if next == s {
			return false
		}
		s = next
	}
	return w.IsTerminal(s)
}

func TestControlLearnsGoal(t *testing.T) {
	tests := []struct {
		name string
		rule td.RuleKind
	}{
		{name: "正常_sarsa", rule: td.Sarsa},
		{name: "正常_q学習", rule: td.QLearning},
		{name: "正常_ダブルq学習", rule: td.DoubleQLearning},
		{name: "正常_dynaQ", rule: td.DynaQ},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rng := rand.New(rand.NewPCG(3, 4))
			w := newGoalWorld(t)
			start := w.Start

			control := td.Control[gridworld.State, gridworld.Action]{
				Logic: w.Logic(),
				Config: td.Config{
					Alpha:         0.5,
					Gamma:         0.9,
					Epsilon:       0.2,
					Epochs:        2000,
					StepLimit:     1000,
					PlanningSteps: 5,
					StepCost:      -0.04,
				},
				Rule:  tc.rule,
				Start: &start,
			}

			q, err := control.Run(rng)
			if err != nil {
				t.Fatal(err)
			}

			greedy, err := td.GreedyActions(w.Logic(), q, rng)
			if err != nil {
				t.Fatal(err)
			}
			if !reachesTerminal(t, w, greedy) {
				t.Errorf("貪欲方策がゴールに到達しない")
			}

			// 終端状態の行は更新されず、0のまま。
			goal := gridworld.State{Row: 0, Col: 3}
			row, err := q.Row(goal)
			if err != nil {
				t.Fatal(err)
			}
			for a, v := range row {
				if v != 0.0 {
					t.Errorf("終端状態の行が更新された: action=%v value=%v", a, v)
				}
			}
		})
	}
}

func TestTD0CorridorConvergence(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))

	n := 6
	w, err := gridworld.NewCorridor(n)
	if err != nil {
		t.Fatal(err)
	}
	start := gridworld.State{Row: 0, Col: 0}

	prediction := td.Prediction[gridworld.State, gridworld.Action]{
		Logic: w.Logic(),
		Config: td.Config{
			Alpha:     0.5,
			Gamma:     1.0,
			Epochs:    1000,
			StepLimit: 1000,
			StepCost:  -1.0,
		},
		Start: &start,
	}

	v, err := prediction.RunTD0(rng)
	if err != nil {
		t.Fatal(err)
	}

	// 行動はRightのみの決定論的な環境なので、γ=1・1歩毎に-1の下で
	// V[s] = -(残り歩数) に収束する。
	for col := 0; col < n; col++ {
		want := -float64(n - 1 - col)
		got := v[gridworld.State{Row: 0, Col: col}]
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("col=%d want: %v, got: %v", col, want, got)
		}
	}
}

func TestNStepOneMatchesTD0(t *testing.T) {
	n := 6
	w, err := gridworld.NewCorridor(n)
	if err != nil {
		t.Fatal(err)
	}
	start := gridworld.State{Row: 0, Col: 0}

	newPrediction := func(nStep int) td.Prediction[gridworld.State, gridworld.Action] {
		return td.Prediction[gridworld.State, gridworld.Action]{
			Logic: w.Logic(),
			Config: td.Config{
				Alpha:     0.3,
				Gamma:     0.9,
				Epochs:    50,
				StepLimit: 1000,
				NStep:     nStep,
				StepCost:  -1.0,
			},
			Start: &start,
		}
	}

	td0Prediction := newPrediction(0)
	v0, err := td0Prediction.RunTD0(rand.New(rand.NewPCG(7, 8)))
	if err != nil {
		t.Fatal(err)
	}

	nStepPrediction := newPrediction(1)
	v1, err := nStepPrediction.RunNStep(rand.New(rand.NewPCG(7, 8)))
	if err != nil {
		t.Fatal(err)
	}

	// 同じ乱数系列の下で、1ステップTDはTD(0)とビット単位で一致する。
	for s, want := range v0 {
		if got := v1[s]; got != want {
			t.Errorf("state=%v want: %v, got: %v", s, want, got)
		}
	}
}

func TestNStepShortensError(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 10))

	n := 6
	w, err := gridworld.NewCorridor(n)
	if err != nil {
		t.Fatal(err)
	}
	start := gridworld.State{Row: 0, Col: 0}

	prediction := td.Prediction[gridworld.State, gridworld.Action]{
		Logic: w.Logic(),
		Config: td.Config{
			Alpha:     0.5,
			Gamma:     1.0,
			Epochs:    1000,
			StepLimit: 1000,
			NStep:     3,
			StepCost:  -1.0,
		},
		Start: &start,
	}

	v, err := prediction.RunNStep(rng)
	if err != nil {
		t.Fatal(err)
	}

	for col := 0; col < n; col++ {
		want := -float64(n - 1 - col)
		got := v[gridworld.State{Row: 0, Col: col}]
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("col=%d want: %v, got: %v", col, want, got)
		}
	}
}
