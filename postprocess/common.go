package postprocess

import (
	"image"
	"math"
	"sort"
)

// ToBox converts a unit normalized box given by its center point and extent
// into pixel coordinates of an image with the given size
func ToBox(centerX, centerY, height, width float64, size image.Point) image.Rectangle {

	x := int(math.Round((centerX - width/2) * float64(size.X)))
	y := int(math.Round((centerY - height/2) * float64(size.Y)))
	w := int(math.Round(width * float64(size.X)))
	h := int(math.Round(height * float64(size.Y)))

	return image.Rect(x, y, x+w, y+h)
}

// rectArea returns the number of pixels covered by the rectangle
func rectArea(r image.Rectangle) int {
	return r.Dx() * r.Dy()
}

// jaccardDistance returns one minus the Intersection over Union of the two
// rectangles.  Two empty rectangles are considered identical
func jaccardDistance(a, b image.Rectangle) float64 {

	areaA := rectArea(a)
	areaB := rectArea(b)

	if areaA+areaB <= 0 {
		return 0
	}

	inter := rectArea(a.Intersect(b))

	return 1.0 - float64(inter)/float64(areaA+areaB-inter)
}

// Overlap returns the Intersection over Union (IoU) of two rectangles.  It is
// symmetric, 0 for disjoint rectangles and 1 for identical ones
func Overlap(a, b image.Rectangle) float32 {
	return 1 - float32(jaccardDistance(a, b))
}

// sortByConfidence orders the candidates by descending confidence.  The sort
// is stable so candidates of equal confidence keep their proposal order,
// which decides the survivor of two equally scored overlapping boxes
func sortByConfidence(candidates []Detection) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})
}

// GreedyNMS implements greedy Non-Maximum Suppression over candidates already
// sorted by descending confidence.  A candidate is kept only if its overlap
// with every previously kept box is no more than threshold.  A threshold of
// 1.0 or more disables suppression and all candidates are returned in order
func GreedyNMS(candidates []Detection, threshold float32) DetectionSet {

	var set DetectionSet

	if threshold >= 1.0 {
		for _, c := range candidates {
			set.add(c)
		}
		return set
	}

	for _, c := range candidates {

		keep := true

		for _, kept := range set.Boxes {
			if Overlap(kept, c.Rect) > threshold {
				keep = false
				break
			}
		}

		if keep {
			set.add(c)
		}
	}

	return set
}
