// Package boxes - axis-aligned box geometry and the SSD box coding scheme.
package boxes

// Box is an axis-aligned box in corner form, with (X1, Y1) the top-left and
// (X2, Y2) the bottom-right corner.
type Box struct {
	X1, Y1, X2, Y2 float32
}

// Width returns the horizontal extent of the box.
func (b Box) Width() float32 { return b.X2 - b.X1 }

// Height returns the vertical extent of the box.
func (b Box) Height() float32 { return b.Y2 - b.Y1 }

// Area returns the area of the box.
func (b Box) Area() float32 { return b.Width() * b.Height() }

// Intersection calculates the intersection area between two boxes.
//
// Arguments:
//   - o: The other box to calculate intersection with.
//
// Returns:
//   - The area of intersection as float32. Boxes that only touch at an edge
//     intersect with area 0.
func (b Box) Intersection(o Box) float32 {
	// The overlap starts at the later of the two top-left corners and ends at
	// the earlier of the two bottom-right corners.
	ix1 := max(b.X1, o.X1)
	iy1 := max(b.Y1, o.Y1)
	ix2 := min(b.X2, o.X2)
	iy2 := min(b.Y2, o.Y2)

	interW := ix2 - ix1
	interH := iy2 - iy1
	if interW <= 0 || interH <= 0 {
		return 0
	}
	return interW * interH
}

// Union calculates the union area between two boxes, using
// inclusion-exclusion so the overlapping region is not double-counted.
//
// Arguments:
//   - o: The other box to calculate union with.
//
// Returns:
//   - The area of union as float32.
func (b Box) Union(o Box) float32 {
	return b.Area() + o.Area() - b.Intersection(o)
}

// IoU calculates the Intersection over Union between two boxes.
//
// IoU is the overlap metric used by the suppression stage of hard-negative
// mining: candidates whose IoU with an already-kept candidate exceeds the
// configured threshold are dropped.
//
// Arguments:
//   - o: The other box to calculate IoU with.
//
// Returns:
//   - The IoU value between 0 and 1. Disjoint boxes return 0.
func (b Box) IoU(o Box) float32 {
	inter := b.Intersection(o)
	if inter <= 0 {
		return 0
	}
	return inter / (b.Area() + o.Area() - inter)
}
