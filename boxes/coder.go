package boxes

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// Coder converts between corner-form boxes and the center-size regression
// parameterization used by SSD detection heads. An encoding is the 4-vector
// [tx, ty, tw, th]: the center offsets relative to the anchor size and the
// log-space width/height ratios, each multiplied by its scale factor.
type Coder struct {
	// ScaleFactors multiply the raw offsets during encoding and divide them
	// during decoding, in the order tx, ty, tw, th. They are trusted values;
	// a zero factor is the caller's bug.
	ScaleFactors [4]float32
}

// DefaultCoder returns a Coder with the standard SSD scale factors
// (10, 10, 5, 5).
func DefaultCoder() Coder {
	return Coder{ScaleFactors: [4]float32{10, 10, 5, 5}}
}

// Decode converts one encoded regression vector into an absolute box.
//
// Arguments:
//   - encoding: The [tx, ty, tw, th] regression vector.
//   - anchor: The anchor box the encoding is relative to.
//
// Returns:
//   - The decoded box in corner form.
func (c Coder) Decode(encoding [4]float32, anchor Box) Box {
	wa := anchor.Width()
	ha := anchor.Height()
	cxa := anchor.X1 + wa/2
	cya := anchor.Y1 + ha/2

	tx := encoding[0] / c.ScaleFactors[0]
	ty := encoding[1] / c.ScaleFactors[1]
	tw := encoding[2] / c.ScaleFactors[2]
	th := encoding[3] / c.ScaleFactors[3]

	cx := tx*wa + cxa
	cy := ty*ha + cya
	w := math32.Exp(tw) * wa
	h := math32.Exp(th) * ha

	return Box{
		X1: cx - w/2,
		Y1: cy - h/2,
		X2: cx + w/2,
		Y2: cy + h/2,
	}
}

// Encode is the inverse of Decode: it converts an absolute box into the
// regression vector relative to the given anchor. Training pipelines use it
// to produce the localization targets this library's losses consume.
//
// Arguments:
//   - box: The absolute box in corner form.
//   - anchor: The anchor box to encode against.
//
// Returns:
//   - The [tx, ty, tw, th] regression vector.
func (c Coder) Encode(box, anchor Box) [4]float32 {
	wa := anchor.Width()
	ha := anchor.Height()
	cxa := anchor.X1 + wa/2
	cya := anchor.Y1 + ha/2

	w := box.Width()
	h := box.Height()
	cx := box.X1 + w/2
	cy := box.Y1 + h/2

	return [4]float32{
		(cx - cxa) / wa * c.ScaleFactors[0],
		(cy - cya) / ha * c.ScaleFactors[1],
		math32.Log(w/wa) * c.ScaleFactors[2],
		math32.Log(h/ha) * c.ScaleFactors[3],
	}
}

// DecodeBatch decodes a whole batch of box encodings against a shared anchor
// set.
//
// Arguments:
//   - encodings: A float32 tensor with shape [batch, anchors, 4].
//   - anchors: A float32 tensor with shape [anchors, 4], corner form, shared
//     across the batch.
//
// Returns:
//   - A float32 tensor with shape [batch, anchors, 4] holding the decoded
//     boxes as [x1, y1, x2, y2] rows.
//   - An error if shapes or dtypes do not line up.
func (c Coder) DecodeBatch(encodings, anchors *tensor.Dense) (*tensor.Dense, error) {
	anchorBoxes, err := AnchorsFromTensor(anchors)
	if err != nil {
		return nil, errors.Wrap(err, "decode batch")
	}
	if encodings.Dtype() != tensor.Float32 {
		return nil, errors.Errorf("decode batch: encodings must be float32, got %v", encodings.Dtype())
	}
	es := encodings.Shape()
	if len(es) != 3 || es[2] != 4 {
		return nil, errors.Errorf("decode batch: encodings must have shape [batch, anchors, 4], got %v", es)
	}
	if es[1] != len(anchorBoxes) {
		return nil, errors.Errorf("decode batch: encodings carry %d anchors but %d anchor boxes were given", es[1], len(anchorBoxes))
	}

	enc := encodings.Data().([]float32)
	out := make([]float32, len(enc))
	for i := 0; i < es[0]*es[1]; i++ {
		var e [4]float32
		copy(e[:], enc[i*4:i*4+4])
		decoded := c.Decode(e, anchorBoxes[i%es[1]])
		out[i*4+0] = decoded.X1
		out[i*4+1] = decoded.Y1
		out[i*4+2] = decoded.X2
		out[i*4+3] = decoded.Y2
	}
	return tensor.New(tensor.WithShape(es[0], es[1], 4), tensor.WithBacking(out)), nil
}

// AnchorsFromTensor converts an [anchors, 4] float32 tensor of corner-form
// rows into a slice of boxes.
func AnchorsFromTensor(anchors *tensor.Dense) ([]Box, error) {
	if anchors.Dtype() != tensor.Float32 {
		return nil, errors.Errorf("anchors must be float32, got %v", anchors.Dtype())
	}
	as := anchors.Shape()
	if len(as) != 2 || as[1] != 4 {
		return nil, errors.Errorf("anchors must have shape [anchors, 4], got %v", as)
	}

	data := anchors.Data().([]float32)
	out := make([]Box, as[0])
	for i := range out {
		out[i] = Box{
			X1: data[i*4+0],
			Y1: data[i*4+1],
			X2: data[i*4+2],
			Y2: data[i*4+3],
		}
	}
	return out, nil
}
