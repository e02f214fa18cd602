package losses

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// Classification computes the sigmoid cross-entropy loss per anchor.
//
// Cross-entropy with logits is applied independently to every class channel
// (background included) using the numerically stable formulation
// max(x, 0) - x*z + log(1 + exp(-|x|)), then summed over channels and scaled
// by the anchor weight. Because the formulation is elementwise, soft
// (non-one-hot) targets are supported.
//
// Arguments:
//   - logits: Predicted class logits, float32, shape
//     [batch, anchors, classes+1] with channel 0 the background class.
//   - targets: One-hot or soft classification targets with the same shape as
//     logits.
//   - weights: Per-anchor weights, float32, shape [batch, anchors], broadcast
//     across the class dimension.
//
// Returns:
//   - A float32 tensor with shape [batch, anchors].
//   - An error on shape or dtype mismatch.
func Classification(logits, targets, weights *tensor.Dense) (*tensor.Dense, error) {
	batch, anchors, depth, err := anchorwiseShape(logits, targets, weights, 0)
	if err != nil {
		return nil, errors.Wrap(err, "classification loss")
	}

	lg := logits.Data().([]float32)
	targ := targets.Data().([]float32)
	w := weights.Data().([]float32)

	out := make([]float32, batch*anchors)
	for i := range out {
		var sum float32
		for c := 0; c < depth; c++ {
			x := lg[i*depth+c]
			z := targ[i*depth+c]
			sum += math32.Max(x, 0) - x*z + math32.Log1p(math32.Exp(-math32.Abs(x)))
		}
		out[i] = w[i] * sum
	}
	return tensor.New(tensor.WithShape(batch, anchors), tensor.WithBacking(out)), nil
}
