package main

import (
	"fmt"
	"log"
	"math/rand/v2"
	"os"

	"github.com/logrusorgru/aurora"
	"github.com/sw965/omw/mathx/randx"
	"github.com/sw965/sparrow/bandit"
	"github.com/sw965/sparrow/render"
)

const (
	armN  = 10
	steps = 1000
	runs  = 64
)

func newArms(rng *rand.Rand, seed uint64) (bandit.Arms, error) {
	means := make([]float64, armN)
	sds := make([]float64, armN)
	for i := range means {
		means[i] = rng.NormFloat64()
		sds[i] = 1.0
	}
	return bandit.NewNormalArms(means, sds, seed)
}

func averageCurve(name string, newAgent func() (bandit.Agent, error), rng *rand.Rand) (render.Curve, error) {
	agents := make([]bandit.Agent, runs)
	armss := make([]bandit.Arms, runs)

	for i := 0; i < runs; i++ {
		agent, err := newAgent()
		if err != nil {
			return render.Curve{}, err
		}
		agents[i] = agent

		arms, err := newArms(rng, rng.Uint64())
		if err != nil {
			return render.Curve{}, err
		}
		armss[i] = arms
	}

	rngs := make([]*rand.Rand, 4)
	for i := range rngs {
		rngs[i] = randx.NewPCGFromGlobalSeed()
	}

	histories, err := bandit.SimulateMany(agents, armss, steps, rngs)
	if err != nil {
		return render.Curve{}, err
	}

	ys, err := bandit.AverageOptimalPercent(histories)
	if err != nil {
		return render.Curve{}, err
	}

	fmt.Println(aurora.Green(fmt.Sprintf("%-24s 最終最適腕選択率: %.3f", name, ys[len(ys)-1])))
	return render.Curve{Name: name, Ys: ys}, nil
}

func main() {
	rng := randx.NewPCGFromGlobalSeed()

	sampleAverage := bandit.NewSampleAverageStep()
	constant, err := bandit.NewConstantStep(0.1)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(aurora.Cyan(fmt.Sprintf("%d本腕バンディット: %dステップ × %d回", armN, steps, runs)))

	curves := make([]render.Curve, 0, 5)
	for _, entry := range []struct {
		name     string
		newAgent func() (bandit.Agent, error)
	}{
		{"greedy", func() (bandit.Agent, error) { return bandit.NewEpsilonGreedy(armN, 0.0, sampleAverage) }},
		{"ε-greedy(0.1)", func() (bandit.Agent, error) { return bandit.NewEpsilonGreedy(armN, 0.1, sampleAverage) }},
		{"ε-greedy(0.1, α=0.1)", func() (bandit.Agent, error) { return bandit.NewEpsilonGreedy(armN, 0.1, constant) }},
		{"ucb(c=2)", func() (bandit.Agent, error) { return bandit.NewUCB(armN, 2.0, sampleAverage) }},
		{"gradient(α=0.1)", func() (bandit.Agent, error) { return bandit.NewGradient(armN, 0.1, true) }},
	} {
		curve, err := averageCurve(entry.name, entry.newAgent, rng)
		if err != nil {
			log.Fatal(err)
		}
		curves = append(curves, curve)
	}

	if err := os.MkdirAll("images", 0o755); err != nil {
		log.Fatal(err)
	}

	if err := render.CurvePNG("images/bandit_testbed.png", "10-armed testbed", "step", "% optimal action", curves...); err != nil {
		log.Fatal(err)
	}
	if err := render.CurvesHTML("images/bandit_testbed.html", "10-armed testbed", curves...); err != nil {
		log.Fatal(err)
	}

	fmt.Println(aurora.Green("images/bandit_testbed.{png,html} を出力しました"))
}
