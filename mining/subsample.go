package mining

// subsampleToRatio filters post-suppression candidates down to the configured
// negative:positive ratio.
//
// Every positive candidate (match >= 0) is kept. The negative budget is
// max(minNegPerImage, floor(maxNegPerPos * numPositives)); the first budget
// negatives in candidate order are kept and the rest dropped. The returned
// selection preserves candidate order.
//
// Arguments:
//   - candidates: Anchor indices in suppression order.
//   - matches: Per-anchor match labels for the whole image; >= 0 is the
//     matched ground-truth index, < 0 means background.
//   - maxNegPerPos: Maximum negatives kept per kept positive.
//   - minNegPerImage: Floor on the negative budget.
//
// Returns:
//   - The filtered anchor indices, plus the counts of positives and
//     negatives retained.
func subsampleToRatio(candidates []int, matches []int, maxNegPerPos float32, minNegPerImage int) (selected []int, numPositives, numNegatives int) {
	for _, idx := range candidates {
		if matches[idx] >= 0 {
			numPositives++
		}
	}

	budget := minNegPerImage
	if n := int(maxNegPerPos * float32(numPositives)); n > budget {
		budget = n
	}

	selected = make([]int, 0, len(candidates))
	for _, idx := range candidates {
		if matches[idx] >= 0 {
			selected = append(selected, idx)
			continue
		}
		if numNegatives < budget {
			selected = append(selected, idx)
			numNegatives++
		}
	}
	return selected, numPositives, numNegatives
}
