package mining

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestSubsampleKeepsAllPositives verifies no positive candidate is ever
// dropped, whatever the ratio settings.
func TestSubsampleKeepsAllPositives(t *testing.T) {
	matches := []int{0, -1, 3, -1, 1}
	candidates := []int{4, 1, 0, 3, 2} // suppression order

	selected, numPos, numNeg := subsampleToRatio(candidates, matches, 0, 0)

	assert.Equal(t, 3, numPos, "all positive candidates should be counted")
	assert.Equal(t, 0, numNeg, "zero ratio and zero floor keep no negatives")
	assert.Equal(t, []int{4, 0, 2}, selected, "positives keep candidate order")
}

// TestSubsampleNegativeBudget verifies the budget formula
// max(minNegPerImage, floor(maxNegPerPos * numPositives)) and that negatives
// are kept in candidate order.
func TestSubsampleNegativeBudget(t *testing.T) {
	tests := []struct {
		name           string
		matches        []int
		candidates     []int
		maxNegPerPos   float32
		minNegPerImage int
		wantSelected   []int
		wantPos        int
		wantNeg        int
	}{
		{
			name:         "ratio bounds negatives",
			matches:      []int{0, -1, -1, -1, -1},
			candidates:   []int{1, 2, 0, 3, 4},
			maxNegPerPos: 2,
			wantSelected: []int{1, 2, 0},
			wantPos:      1,
			wantNeg:      2,
		},
		{
			name:         "fractional ratio floors",
			matches:      []int{0, 1, 2, -1, -1},
			candidates:   []int{0, 1, 2, 3, 4},
			maxNegPerPos: 0.5, // floor(0.5*3) = 1
			wantSelected: []int{0, 1, 2, 3},
			wantPos:      3,
			wantNeg:      1,
		},
		{
			name:           "floor allows negatives without positives",
			matches:        []int{-1, -1, -1},
			candidates:     []int{2, 0, 1},
			maxNegPerPos:   3,
			minNegPerImage: 2,
			wantSelected:   []int{2, 0},
			wantPos:        0,
			wantNeg:        2,
		},
		{
			name:         "no positives and no floor keeps nothing",
			matches:      []int{-1, -1, -1},
			candidates:   []int{0, 1, 2},
			maxNegPerPos: 3,
			wantSelected: []int{},
			wantPos:      0,
			wantNeg:      0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			selected, numPos, numNeg := subsampleToRatio(
				tt.candidates, tt.matches, tt.maxNegPerPos, tt.minNegPerImage)

			assert.Equal(t, tt.wantSelected, selected)
			assert.Equal(t, tt.wantPos, numPos)
			assert.Equal(t, tt.wantNeg, numNeg)

			budget := tt.minNegPerImage
			if n := int(tt.maxNegPerPos * float32(numPos)); n > budget {
				budget = n
			}
			assert.LessOrEqual(t, numNeg, budget,
				"negatives must never exceed the budget")
		})
	}
}

// TestSubsamplePreservesCandidateOrder verifies positives and kept negatives
// interleave in their original suppression order.
func TestSubsamplePreservesCandidateOrder(t *testing.T) {
	matches := []int{-1, 0, -1, 1, -1, -1}
	candidates := []int{4, 1, 0, 3, 5, 2}

	selected, numPos, numNeg := subsampleToRatio(candidates, matches, 1, 0)

	assert.Equal(t, 2, numPos)
	assert.Equal(t, 2, numNeg)
	// Positives 1 and 3 always kept; negatives 4 and 0 are the first two in
	// candidate order, 5 and 2 exceed the budget.
	assert.Equal(t, []int{4, 1, 0, 3}, selected)
}
