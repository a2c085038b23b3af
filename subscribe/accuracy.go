package subscribe

import (
	"fmt"

	"github.com/modeltap/modeltap/backend"
	"github.com/modeltap/modeltap/messaging"
)

// TrainAccuracySubscriber computes the fraction of argmax predictions
// matching the batch labels. It subscribes to the fixed kind pair
// (network_output, input_labels); the producer publishes both as meta
// messages under a shared key once per step.
type TrainAccuracySubscriber struct {
	*PlotSubscriber
	subscription *SynchronizedSubscription
}

// NewTrainAccuracySubscriber creates a train-accuracy subscriber.
func NewTrainAccuracySubscriber(opts ...Option) (*TrainAccuracySubscriber, error) {
	kinds := []messaging.Kind{messaging.KindNetworkOutput, messaging.KindInputLabels}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	plot := backend.PlotConfig{
		Title:  "Train batch accuracy",
		XLabel: "Step",
		YLabel: "Accuracy",
	}
	b, err := openBackend(cfg, plot)
	if err != nil {
		return nil, err
	}

	a := &TrainAccuracySubscriber{}
	a.PlotSubscriber, err = NewPlotSubscriber(b, a.accuracy, nil)
	if err != nil {
		return nil, err
	}
	a.subscription, err = newSynchronized(a, kinds, cfg)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Subscription returns the synchronized subscription to register on a bus.
func (a *TrainAccuracySubscriber) Subscription() *SynchronizedSubscription {
	return a.subscription
}

func (a *TrainAccuracySubscriber) accuracy(bundle *messaging.Bundle) (float64, error) {
	output, ok := bundle.Payload(messaging.KindNetworkOutput)
	if !ok {
		return 0, fmt.Errorf("%w: network_output missing", messaging.ErrIncompleteBundle)
	}
	labels, ok := bundle.Payload(messaging.KindInputLabels)
	if !ok {
		return 0, fmt.Errorf("%w: input_labels missing", messaging.ErrIncompleteBundle)
	}

	predictions, err := output.ArgmaxRows()
	if err != nil {
		return 0, err
	}
	if labels.Len() != len(predictions) {
		return 0, fmt.Errorf("label count %d does not match batch size %d", labels.Len(), len(predictions))
	}

	correct := 0
	for i, p := range predictions {
		if p == int(labels.Data[i]) {
			correct++
		}
	}
	return float64(correct) / float64(len(predictions)), nil
}
