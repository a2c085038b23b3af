package export

import "github.com/modeltap/modeltap/tensor"

// Unit is a tracked model component: a layer, block, or any other named
// producer of artifacts. UnitKind is the human-readable type name used to
// derive auto-generated labels ("Linear-0", "Conv2d-1", ...).
type Unit interface {
	UnitKind() string
}

// Parameterized units expose a weight tensor; the exporter snapshots it to
// publish per-step weight deltas. A nil weight is treated as absent.
type Parameterized interface {
	Unit
	Weight() *tensor.Tensor
}

// Biased units expose a bias tensor. Bias can be present but nil (a layer
// constructed without bias), in which case no bias artifacts are
// published.
type Biased interface {
	Unit
	Bias() *tensor.Tensor
}
