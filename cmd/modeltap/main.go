// Command modeltap runs a synthetic training loop against a configured
// instrumentation runtime. It exists to exercise the full pipeline end to
// end: exporter hooks, round synchronization, metric subscribers, and
// backends.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math"
	"math/rand"
	"os"

	"github.com/modeltap/modeltap"
	"github.com/modeltap/modeltap/backend"
	"github.com/modeltap/modeltap/export"
	"github.com/modeltap/modeltap/messaging"
	"github.com/modeltap/modeltap/tensor"
)

// linearUnit is a toy parameterized layer for the synthetic model.
type linearUnit struct {
	kind   string
	weight *tensor.Tensor
	bias   *tensor.Tensor
}

func (u *linearUnit) UnitKind() string       { return u.kind }
func (u *linearUnit) Weight() *tensor.Tensor { return u.weight }
func (u *linearUnit) Bias() *tensor.Tensor   { return u.bias }

func main() {
	var (
		configFile = flag.String("config", "", "Path to config JSON file (optional; a demo setup is used without it)")
		epochs     = flag.Int("epochs", 2, "Number of training epochs")
		steps      = flag.Int("steps", 50, "Training steps per epoch")
		seed       = flag.Int64("seed", 1, "Seed for the synthetic gradients")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging to stderr")
	)
	flag.Parse()

	var cfg *modeltap.Config
	if *configFile != "" {
		loaded, err := modeltap.LoadConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	} else {
		cfg = demoConfig()
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	runtime, err := modeltap.NewRuntime(cfg, modeltap.WithLogger(logger))
	if err != nil {
		log.Fatalf("Failed to create runtime: %v", err)
	}
	defer runtime.Close()

	for _, warning := range runtime.Validate() {
		fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
	}

	if err := train(runtime.Exporter(), *epochs, *steps, *seed); err != nil {
		log.Fatalf("Training loop failed: %v", err)
	}

	fmt.Printf("Run %s: %d epochs, %d steps each\n", runtime.Exporter().RunID(), *epochs, *steps)
	printSeries(runtime.Backends())
}

func demoConfig() *modeltap.Config {
	cfg := modeltap.DefaultConfig()
	cfg.Backend = "memory"
	cfg.Subscribers = []modeltap.SubscriberSpec{
		{Type: "ratio", Kinds: []string{"weight_updates", "weights"}},
		{Type: "variance", Kinds: []string{"gradients"}},
		{Type: "train_accuracy"},
	}
	return &cfg
}

// train drives the exporter the way a real training loop would: one Step
// per iteration, forward and backward hooks per unit, then the batch meta
// values.
func train(e *export.Exporter, epochs, steps int, seed int64) error {
	const (
		batchSize = 8
		classes   = 4
		lr        = 0.1
	)

	rng := rand.New(rand.NewSource(seed))
	units := []*linearUnit{
		{kind: "Linear", weight: randomTensor(rng, 16), bias: randomTensor(rng, 4)},
		{kind: "Linear", weight: randomTensor(rng, 8), bias: randomTensor(rng, 2)},
	}

	for epoch := 0; epoch < epochs; epoch++ {
		for step := 0; step < steps; step++ {
			e.Step()

			for _, unit := range units {
				grad := randomTensor(rng, unit.weight.Len())
				// Plain gradient descent keeps the update/weight ratio
				// shrinking as weights grow, which the ratio subscriber
				// should show.
				for i := range unit.weight.Data {
					unit.weight.Data[i] -= lr * grad.Data[i]
				}

				if err := e.ObserveActivations(unit, randomTensor(rng, batchSize)); err != nil {
					return err
				}
				if err := e.ObserveGradients(unit, grad); err != nil {
					return err
				}
			}

			output, labels := syntheticBatch(rng, batchSize, classes, epoch, epochs)
			if err := e.PublishMeta("network", messaging.KindNetworkOutput, output); err != nil {
				return err
			}
			if err := e.PublishMeta("network", messaging.KindInputLabels, labels); err != nil {
				return err
			}
		}
		if err := e.EpochFinished(); err != nil {
			return err
		}
	}
	return nil
}

func randomTensor(rng *rand.Rand, n int) *tensor.Tensor {
	data := make([]float64, n)
	for i := range data {
		data[i] = rng.NormFloat64()
	}
	return tensor.FromSlice(data)
}

// syntheticBatch fabricates network output whose accuracy improves over
// the run, so the accuracy series has a visible trend.
func syntheticBatch(rng *rand.Rand, batchSize, classes, epoch, epochs int) (*tensor.Tensor, *tensor.Tensor) {
	rows := make([][]float64, batchSize)
	labels := make([]float64, batchSize)
	correctChance := 0.5 + 0.4*float64(epoch)/math.Max(1, float64(epochs-1))

	for i := range rows {
		label := rng.Intn(classes)
		labels[i] = float64(label)

		row := make([]float64, classes)
		for j := range row {
			row[j] = rng.Float64()
		}
		if rng.Float64() < correctChance {
			row[label] = 2
		}
		rows[i] = row
	}

	output, err := tensor.FromRows(rows...)
	if err != nil {
		panic(err)
	}
	return output, tensor.FromSlice(labels)
}

func printSeries(backends []backend.Backend) {
	for _, b := range backends {
		mem, ok := b.(*backend.MemoryBackend)
		if !ok {
			continue
		}
		fmt.Printf("\n%s\n", mem.Config().Title)
		for _, id := range mem.Identifiers() {
			points := mem.Series(id)
			first, last := points[0], points[len(points)-1]
			fmt.Printf("  %-12s %4d points  first %.4f  last %.4f\n",
				id, len(points), first.Value, last.Value)
		}
	}
}
