package postprocess

import "image"

// rootPixel marks a pixel that has no parent
const rootPixel = -1

// pixelGroups is a union-find over the linear indexes (y*width + x) of the
// foreground pixels of a mask.  Only foreground pixels are ever added, so a
// map is used rather than an array covering the whole image
type pixelGroups map[int]int

// newPixelGroups returns an empty set of pixel groups
func newPixelGroups() pixelGroups {
	return make(pixelGroups)
}

// add registers pixel p as the root of its own group
func (g pixelGroups) add(p int) {
	g[p] = rootPixel
}

// findRoot follows the parent links of p to the root of its group, then
// points every pixel visited along the way directly at that root
func (g pixelGroups) findRoot(p int) int {

	root := p

	for {
		parent, ok := g[root]

		if !ok || parent == rootPixel {
			break
		}

		root = parent
	}

	// path compression
	for p != root {
		next := g[p]
		g[p] = root
		p = next
	}

	return root
}

// join merges the groups of p1 and p2.  The root of p1 is always attached
// under the root of p2, which fixes the order component labels are handed out
func (g pixelGroups) join(p1, p2 int) {

	root1 := g.findRoot(p1)
	root2 := g.findRoot(p2)

	if root1 != root2 {
		g[root1] = root2
	}
}

// labelComponents returns a height*width row major image where each of the
// given points holds the label of its group and all other pixels are 0.
// Labels start at 1 and are assigned in the order each group is first seen
// while walking points.  The number of labels is also returned
func (g pixelGroups) labelComponents(points []image.Point, width, height int) ([]int, int) {

	labels := make([]int, width*height)
	rootLabels := make(map[int]int)

	for _, pt := range points {

		p := pt.Y*width + pt.X
		root := g.findRoot(p)

		label, ok := rootLabels[root]

		if !ok {
			label = len(rootLabels) + 1
			rootLabels[root] = label
		}

		labels[p] = label
	}

	return labels, len(rootLabels)
}
