// Package losses - per-anchor training losses for SSD-style detection heads.
//
// Both losses are pure elementwise arithmetic over the input tensors: they
// produce one scalar per anchor per image and leave all selection and
// aggregation to the mining stage. An anchor with weight 0 contributes
// exactly 0 through multiplication, not filtering.
package losses

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// Localization computes the smooth-L1 (Huber) regression loss per anchor.
//
// For each of the four box coordinates the loss is 0.5*d*d when |d| < 1 and
// |d| - 0.5 otherwise, where d is the prediction/target difference. The four
// coordinate losses are summed and scaled by the anchor weight. Weights are
// not clamped; a negative weight inverts the anchor's contribution.
//
// Arguments:
//   - predictions: Encoded box predictions, float32, shape [batch, anchors, 4].
//   - targets: Regression targets, float32, shape [batch, anchors, 4].
//   - weights: Per-anchor weights, float32, shape [batch, anchors].
//
// Returns:
//   - A float32 tensor with shape [batch, anchors].
//   - An error on shape or dtype mismatch.
func Localization(predictions, targets, weights *tensor.Dense) (*tensor.Dense, error) {
	batch, anchors, _, err := anchorwiseShape(predictions, targets, weights, 4)
	if err != nil {
		return nil, errors.Wrap(err, "localization loss")
	}

	preds := predictions.Data().([]float32)
	targ := targets.Data().([]float32)
	w := weights.Data().([]float32)

	out := make([]float32, batch*anchors)
	for i := range out {
		var sum float32
		for c := 0; c < 4; c++ {
			d := math32.Abs(preds[i*4+c] - targ[i*4+c])
			if d < 1 {
				sum += 0.5 * d * d
			} else {
				sum += d - 0.5
			}
		}
		out[i] = w[i] * sum
	}
	return tensor.New(tensor.WithShape(batch, anchors), tensor.WithBacking(out)), nil
}
