package losses

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// anchorwiseShape validates the prediction/target/weight triple shared by the
// loss functions. wantDepth pins the channel dimension; 0 accepts any.
func anchorwiseShape(predictions, targets, weights *tensor.Dense, wantDepth int) (batch, anchors, depth int, err error) {
	if predictions.Dtype() != tensor.Float32 {
		return 0, 0, 0, errors.Errorf("predictions must be float32, got %v", predictions.Dtype())
	}
	if targets.Dtype() != tensor.Float32 {
		return 0, 0, 0, errors.Errorf("targets must be float32, got %v", targets.Dtype())
	}
	if weights.Dtype() != tensor.Float32 {
		return 0, 0, 0, errors.Errorf("weights must be float32, got %v", weights.Dtype())
	}

	ps := predictions.Shape()
	if len(ps) != 3 {
		return 0, 0, 0, errors.Errorf("predictions must have shape [batch, anchors, channels], got %v", ps)
	}
	batch, anchors, depth = ps[0], ps[1], ps[2]
	if wantDepth > 0 && depth != wantDepth {
		return 0, 0, 0, errors.Errorf("predictions must have %d channels, got %d", wantDepth, depth)
	}
	if ts := targets.Shape(); !ts.Eq(ps) {
		return 0, 0, 0, errors.Errorf("targets shape %v does not match predictions shape %v", ts, ps)
	}
	if ws := weights.Shape(); len(ws) != 2 || ws[0] != batch || ws[1] != anchors {
		return 0, 0, 0, errors.Errorf("weights must have shape [%d, %d], got %v", batch, anchors, ws)
	}
	return batch, anchors, depth, nil
}
