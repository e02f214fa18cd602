package mining

import (
	"sync"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-ssd/boxes"
)

// Inputs bundles the per-batch tensors consumed by Mine. All tensors must
// agree on the batch and anchor dimensions.
type Inputs struct {
	// LocalizationLosses are the pre-mining per-anchor localization losses,
	// float32, shape [batch, anchors].
	LocalizationLosses *tensor.Dense
	// ClassificationLosses are the pre-mining per-anchor classification
	// losses, float32, shape [batch, anchors].
	ClassificationLosses *tensor.Dense
	// ClassLogits are the raw class predictions including the background
	// channel at index 0, float32, shape [batch, anchors, classes+1].
	// Ranking is driven by the loss tensors, so only the shape is checked
	// here; the background channel carries no information for mining.
	ClassLogits *tensor.Dense
	// BoxEncodings are the predicted box regressions, float32, shape
	// [batch, anchors, 4].
	BoxEncodings *tensor.Dense
	// Anchors are the corner-form anchor boxes shared across the batch,
	// float32, shape [anchors, 4].
	Anchors *tensor.Dense
	// Matches are the per-anchor assignment labels, int, shape
	// [batch, anchors]; >= 0 is the matched ground-truth index, < 0 means
	// background.
	Matches *tensor.Dense
}

// Result carries the mined batch losses and per-image selection counts.
type Result struct {
	// LocalizationLoss is the localization loss summed over every selected
	// anchor in the batch.
	LocalizationLoss float32
	// ClassificationLoss is the classification loss summed over every
	// selected anchor in the batch.
	ClassificationLoss float32
	// NumPositives holds, per image, how many positive anchors survived
	// suppression. Mining never drops a positive.
	NumPositives []int
	// NumNegatives holds, per image, how many negative anchors were kept
	// within the budget.
	NumNegatives []int
}

// Miner applies hard-negative mining to anchorwise losses.
type Miner struct {
	// Coder decodes the predicted box encodings for the suppression stage.
	// NewMiner installs the default SSD coder; override before mining to
	// match a head with different scale factors.
	Coder boxes.Coder

	cfg Config
}

// NewMiner returns a Miner using the given configuration and the default box
// coder.
func NewMiner(cfg Config) *Miner {
	return &Miner{Coder: boxes.DefaultCoder(), cfg: cfg}
}

// Mine selects hard examples for each image of a batch and sums the original
// per-anchor losses over the selected anchors.
//
// Per image: the predicted boxes are decoded, every anchor is scored with
// cls_weight*cls_loss + loc_weight*loc_loss, the scored boxes go through
// greedy overlap suppression, and the surviving candidates are subsampled to
// the configured negative:positive ratio. The per-image sums are accumulated
// into one localization and one classification scalar for the whole batch.
//
// Images are independent, so with Config.NumWorkers > 1 they are mined
// concurrently.
//
// Arguments:
//   - in: The batch tensors; see Inputs for shapes.
//
// Returns:
//   - The mined batch losses and selection counts.
//   - An error if the input tensors disagree on shape or dtype.
func (m *Miner) Mine(in Inputs) (*Result, error) {
	batch, anchors, err := in.validate()
	if err != nil {
		return nil, errors.Wrap(err, "mine")
	}

	anchorBoxes, err := boxes.AnchorsFromTensor(in.Anchors)
	if err != nil {
		return nil, errors.Wrap(err, "mine")
	}

	locLosses := in.LocalizationLosses.Data().([]float32)
	clsLosses := in.ClassificationLosses.Data().([]float32)
	encodings := in.BoxEncodings.Data().([]float32)
	matches := in.Matches.Data().([]int)

	res := &Result{
		NumPositives: make([]int, batch),
		NumNegatives: make([]int, batch),
	}
	locSums := make([]float32, batch)
	clsSums := make([]float32, batch)

	mineOne := func(img int) {
		off := img * anchors
		decoded := make([]boxes.Box, anchors)
		for a := range decoded {
			var e [4]float32
			copy(e[:], encodings[(off+a)*4:(off+a)*4+4])
			decoded[a] = m.Coder.Decode(e, anchorBoxes[a])
		}
		locSums[img], clsSums[img], res.NumPositives[img], res.NumNegatives[img] = m.mineImage(
			locLosses[off:off+anchors],
			clsLosses[off:off+anchors],
			matches[off:off+anchors],
			decoded,
		)
	}

	if workers := m.workerCount(batch); workers > 1 {
		images := make(chan int)
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for img := range images {
					mineOne(img)
				}
			}()
		}
		for img := 0; img < batch; img++ {
			images <- img
		}
		close(images)
		wg.Wait()
	} else {
		for img := 0; img < batch; img++ {
			mineOne(img)
		}
	}

	for img := 0; img < batch; img++ {
		res.LocalizationLoss += locSums[img]
		res.ClassificationLoss += clsSums[img]
	}
	return res, nil
}

// mineImage selects the hard examples of a single image and sums its
// pre-mining losses over the selection.
func (m *Miner) mineImage(locLosses, clsLosses []float32, matches []int, decoded []boxes.Box) (locSum, clsSum float32, numPositives, numNegatives int) {
	combined := make([]float32, len(locLosses))
	for i := range combined {
		combined[i] = m.cfg.ClsLossWeight*clsLosses[i] + m.cfg.LocLossWeight*locLosses[i]
	}

	candidates := suppress(decoded, combined, m.cfg.MaxHardExamples, m.cfg.IoUThreshold)
	selected, numPositives, numNegatives := subsampleToRatio(
		candidates, matches, m.cfg.MaxNegativesPerPositive, m.cfg.MinNegativesPerImage)

	for _, idx := range selected {
		locSum += locLosses[idx]
		clsSum += clsLosses[idx]
	}
	return locSum, clsSum, numPositives, numNegatives
}

func (m *Miner) workerCount(batch int) int {
	workers := m.cfg.NumWorkers
	if workers < 1 {
		workers = 1
	}
	if workers > batch {
		workers = batch
	}
	return workers
}

// validate cross-checks every input tensor against the batch and anchor
// dimensions of the localization losses.
func (in *Inputs) validate() (batch, anchors int, err error) {
	ls := in.LocalizationLosses.Shape()
	if len(ls) != 2 {
		return 0, 0, errors.Errorf("localization losses must have shape [batch, anchors], got %v", ls)
	}
	batch, anchors = ls[0], ls[1]

	if in.LocalizationLosses.Dtype() != tensor.Float32 {
		return 0, 0, errors.Errorf("localization losses must be float32, got %v", in.LocalizationLosses.Dtype())
	}
	if in.ClassificationLosses.Dtype() != tensor.Float32 {
		return 0, 0, errors.Errorf("classification losses must be float32, got %v", in.ClassificationLosses.Dtype())
	}
	if cs := in.ClassificationLosses.Shape(); !cs.Eq(ls) {
		return 0, 0, errors.Errorf("classification losses shape %v does not match localization losses shape %v", cs, ls)
	}

	if in.ClassLogits.Dtype() != tensor.Float32 {
		return 0, 0, errors.Errorf("class logits must be float32, got %v", in.ClassLogits.Dtype())
	}
	if ps := in.ClassLogits.Shape(); len(ps) != 3 || ps[0] != batch || ps[1] != anchors || ps[2] < 2 {
		return 0, 0, errors.Errorf("class logits must have shape [%d, %d, classes+1], got %v", batch, anchors, ps)
	}

	if in.BoxEncodings.Dtype() != tensor.Float32 {
		return 0, 0, errors.Errorf("box encodings must be float32, got %v", in.BoxEncodings.Dtype())
	}
	if bs := in.BoxEncodings.Shape(); len(bs) != 3 || bs[0] != batch || bs[1] != anchors || bs[2] != 4 {
		return 0, 0, errors.Errorf("box encodings must have shape [%d, %d, 4], got %v", batch, anchors, bs)
	}

	if as := in.Anchors.Shape(); len(as) != 2 || as[0] != anchors || as[1] != 4 {
		return 0, 0, errors.Errorf("anchors must have shape [%d, 4], got %v", anchors, as)
	}

	if in.Matches.Dtype() != tensor.Int {
		return 0, 0, errors.Errorf("matches must be int, got %v", in.Matches.Dtype())
	}
	if ms := in.Matches.Shape(); !ms.Eq(ls) {
		return 0, 0, errors.Errorf("matches shape %v does not match losses shape %v", ms, ls)
	}

	return batch, anchors, nil
}
