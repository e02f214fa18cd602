package mining

import (
	"sort"

	"github.com/nvr-ai/go-ssd/boxes"
)

// suppress runs greedy overlap suppression over one image's decoded boxes.
//
// Candidates are visited in descending score order (ties keep ascending
// anchor index). Each kept candidate suppresses every remaining one whose
// IoU with it exceeds the threshold. Suppression stops once limit candidates
// have been kept.
//
// Returns the kept anchor indices in keep order, highest score first.
func suppress(candidates []boxes.Box, scores []float32, limit int, threshold float32) []int {
	n := len(candidates)
	if n == 0 || limit <= 0 {
		return nil
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]] > scores[order[j]]
	})

	kept := make([]int, 0, min(n, limit))
	used := make([]bool, n)

	for i := 0; i < n && len(kept) < limit; i++ {
		idx := order[i]
		if used[idx] {
			continue
		}
		kept = append(kept, idx)
		used[idx] = true

		for j := i + 1; j < n; j++ {
			other := order[j]
			if used[other] {
				continue
			}
			if candidates[idx].IoU(candidates[other]) > threshold {
				used[other] = true
			}
		}
	}

	return kept
}
