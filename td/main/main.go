package main

import (
	"fmt"
	"log"
	"os"

	"github.com/logrusorgru/aurora"
	"github.com/sw965/omw/mathx/randx"
	"github.com/sw965/sparrow/gridworld"
	"github.com/sw965/sparrow/render"
	"github.com/sw965/sparrow/tabular"
	"github.com/sw965/sparrow/td"
)

func newWorld() (*gridworld.World, error) {
	w, err := gridworld.New(4, 4)
	if err != nil {
		return nil, err
	}

	goal := gridworld.State{Row: 0, Col: 3}
	pit := gridworld.State{Row: 1, Col: 3}

	if err := w.SetTerminal(goal); err != nil {
		return nil, err
	}
	if err := w.SetReward(goal, 1.0); err != nil {
		return nil, err
	}
	if err := w.SetTerminal(pit); err != nil {
		return nil, err
	}
	if err := w.SetReward(pit, -1.0); err != nil {
		return nil, err
	}

	w.Start = gridworld.State{Row: 3, Col: 0}
	return w, nil
}

func printPolicy(w *gridworld.World, actions map[gridworld.State]gridworld.Action) {
	for row := 0; row < w.Rows; row++ {
		for col := 0; col < w.Cols; col++ {
			s := gridworld.State{Row: row, Col: col}
			if w.IsTerminal(s) {
				fmt.Print(aurora.Green(fmt.Sprintf("%3s", "◎")))
				continue
			}
			fmt.Print(aurora.Blue(fmt.Sprintf("%3s", actions[s].String())))
		}
		fmt.Println()
	}
}

func main() {
	rng := randx.NewPCGFromGlobalSeed()

	w, err := newWorld()
	if err != nil {
		log.Fatal(err)
	}
	logic := w.Logic()
	start := w.Start

	cfg := td.Config{
		Alpha:         0.5,
		Gamma:         0.9,
		Epsilon:       0.1,
		Epochs:        2000,
		StepLimit:     10000,
		PlanningSteps: 10,
		StepCost:      -0.04,
	}

	progress := func(epoch int) {
		fmt.Println(aurora.Cyan(fmt.Sprintf("\tepoch %d", epoch)))
	}

	if err := os.MkdirAll("images", 0o755); err != nil {
		log.Fatal(err)
	}

	for _, kind := range []td.RuleKind{td.Sarsa, td.QLearning, td.DoubleQLearning, td.DynaQ} {
		fmt.Println(aurora.Yellow(kind.String()))

		control := td.Control[gridworld.State, gridworld.Action]{
			Logic:            logic,
			Config:           cfg,
			Rule:             kind,
			Start:            &start,
			ProgressFunc:     progress,
			ProgressInterval: 500,
		}

		q, err := control.Run(rng)
		if err != nil {
			log.Fatal(err)
		}

		greedy, err := td.GreedyActions(logic, q, rng)
		if err != nil {
			log.Fatal(err)
		}
		printPolicy(w, greedy)

		path := fmt.Sprintf("images/%s_value.html", kind)
		err = render.ValueGridHTML(path, kind.String(), w.Rows, w.Cols, func(row, col int) float64 {
			s := gridworld.State{Row: row, Col: col}
			max, err := q.Max(s)
			if err != nil {
				return 0.0
			}
			return max
		})
		if err != nil {
			log.Fatal(err)
		}
	}

	fmt.Println(aurora.Yellow("td(0) / nステップtd (コリドー)"))

	corridor, err := gridworld.NewCorridor(8)
	if err != nil {
		log.Fatal(err)
	}

	corridorStart := gridworld.State{Row: 0, Col: 0}
	prediction := td.Prediction[gridworld.State, gridworld.Action]{
		Logic: corridor.Logic(),
		Config: td.Config{
			Alpha:     0.5,
			Gamma:     1.0,
			Epochs:    300,
			StepLimit: 10000,
			NStep:     4,
			StepCost:  -1.0,
		},
		Start:            &corridorStart,
		ProgressFunc:     progress,
		ProgressInterval: 100,
	}

	v, err := prediction.RunTD0(rng)
	if err != nil {
		log.Fatal(err)
	}
	printCorridor("td(0)", corridor, v)

	vn, err := prediction.RunNStep(rng)
	if err != nil {
		log.Fatal(err)
	}
	printCorridor("4-step td", corridor, vn)

	fmt.Println(aurora.Green("images/*_value.html を出力しました"))
}

func printCorridor(name string, w *gridworld.World, v tabular.StateValue[gridworld.State]) {
	fmt.Printf("%s: ", name)
	for col := 0; col < w.Cols; col++ {
		fmt.Print(aurora.Blue(fmt.Sprintf("%6.2f ", v[gridworld.State{Row: 0, Col: col}])))
	}
	fmt.Println()
}
