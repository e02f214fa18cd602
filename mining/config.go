// Package mining - hard-negative mining over per-anchor detection losses.
//
// Mining selects, per image, a bounded and ratio-balanced subset of anchors
// to backpropagate through: candidates are ranked by a weighted combination
// of their localization and classification losses, deduplicated by greedy
// box-overlap suppression, then subsampled so negatives never outnumber
// positives beyond the configured ratio. The selection itself is plain
// integer logic over already-computed loss values, so a caller embedding
// this stage in an autodiff graph can treat the selected indices as
// constants.
package mining

// Config holds the mining parameters. Values are trusted once constructed;
// nonsensical settings (negative thresholds, zero ratios) are the caller's
// responsibility.
type Config struct {
	// LocLossWeight scales the localization loss when ranking anchors for
	// suppression.
	LocLossWeight float32 `json:"loc_loss_weight" yaml:"loc_loss_weight"`
	// ClsLossWeight scales the classification loss when ranking anchors for
	// suppression.
	ClsLossWeight float32 `json:"cls_loss_weight" yaml:"cls_loss_weight"`
	// MaxHardExamples caps the number of candidates kept by suppression per
	// image.
	MaxHardExamples int `json:"max_hard_examples" yaml:"max_hard_examples"`
	// IoUThreshold is the box overlap above which a lower-ranked candidate is
	// suppressed by a kept one.
	IoUThreshold float32 `json:"iou_threshold" yaml:"iou_threshold"`
	// MaxNegativesPerPositive bounds how many negative anchors are kept for
	// each positive anchor that survived suppression. The budget uses a
	// truncating multiply, not rounding.
	MaxNegativesPerPositive float32 `json:"max_negatives_per_positive" yaml:"max_negatives_per_positive"`
	// MinNegativesPerImage is a floor on the negative budget, so negatives
	// can still be mined in images without any positive anchors.
	MinNegativesPerImage int `json:"min_negatives_per_image" yaml:"min_negatives_per_image"`
	// NumWorkers is the number of goroutines mining images of a batch in
	// parallel. Images are independent, so any split is safe. Zero or one
	// mines sequentially.
	NumWorkers int `json:"num_workers" yaml:"num_workers"`
}

// DefaultConfig returns the mining parameters of the standard SSD training
// recipe: equal loss weighting, 3000 hard examples, a 0.99 suppression
// threshold and at most 3 negatives per positive.
func DefaultConfig() Config {
	return Config{
		LocLossWeight:           1.0,
		ClsLossWeight:           1.0,
		MaxHardExamples:         3000,
		IoUThreshold:            0.99,
		MaxNegativesPerPositive: 3.0,
		MinNegativesPerImage:    0,
	}
}
