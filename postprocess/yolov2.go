package postprocess

import (
	"fmt"
	"image"
	"math"

	"github.com/swdee/go-detparse"
)

const (
	// yoloSide is the number of grid cells along each side of the image
	yoloSide = 13
	// yoloBoxes is the number of anchor boxes predicted per grid cell
	yoloBoxes = 5
	// yoloCoords is the number of box coordinates per anchor (x, y, w, h)
	yoloCoords = 4
)

// YOLOv2 defines the struct for YOLOv2 (Tiny YOLO) region layer post
// processing
type YOLOv2 struct {
	// Params are the Model configuration parameters
	Params YOLOv2Params
}

// YOLOv2Params defines the struct containing the YOLOv2 parameters to use
// for post processing operations
type YOLOv2Params struct {
	// ConfidenceThreshold is the minimum objectness and class probability
	// required for a box to be considered
	ConfidenceThreshold float32
	// NMSThreshold is the Non-Maximum Suppression threshold used for defining
	// the maximum allowed Intersection Over Union (IoU) between two
	// bounding boxes for both to be kept.  Must be in the range (0, 1]
	NMSThreshold float32
	// Anchors are the width and height pairs of each anchor box in grid cell
	// units
	Anchors []float32
}

// YOLOv2DefaultAnchors returns the anchor boxes the Custom Vision exported
// YOLOv2 models are trained with
func YOLOv2DefaultAnchors() []float32 {
	return []float32{
		0.57273, 0.677385,
		1.87446, 2.06253,
		3.33843, 5.47434,
		7.88282, 3.52778,
		9.77052, 9.16828,
	}
}

// YOLOv2DefaultParams returns an instance of YOLOv2Params configured with
// default values featuring:
// - Confidence Threshold: 0.5
// - NMS Threshold: 0.5
// - Anchor Boxes: YOLOv2DefaultAnchors
func YOLOv2DefaultParams() YOLOv2Params {
	return YOLOv2Params{
		ConfidenceThreshold: 0.5,
		NMSThreshold:        0.5,
		Anchors:             YOLOv2DefaultAnchors(),
	}
}

// NewYOLOv2 returns an instance of the YOLOv2 post processor
func NewYOLOv2(p YOLOv2Params) *YOLOv2 {
	return &YOLOv2{
		Params: p,
	}
}

// yoloRegion addresses the values of a [1, 13, 13, 5*(5+classes)] output
// which is laid out channel major per anchor box
type yoloRegion struct {
	out     []float32
	side    int
	coords  int
	classes int
}

// index returns the buffer offset of entry for grid cell i and anchor box b
func (r *yoloRegion) index(i, b, entry int) int {
	return b*r.side*r.side*(r.coords+r.classes+1) + entry*r.side*r.side + i
}

// objectness returns the object score of anchor box b in cell i
func (r *yoloRegion) objectness(i, b int) float32 {
	return r.out[r.index(i, b, r.coords)]
}

// x returns the relative box center x coordinate.  The raw value is used
// without a logistic activation
func (r *yoloRegion) x(i, b int) float64 {
	col := i % r.side
	return (float64(col) + float64(r.out[r.index(i, b, 0)])) / float64(r.side)
}

// y returns the relative box center y coordinate
func (r *yoloRegion) y(i, b int) float64 {
	row := i / r.side
	return (float64(row) + float64(r.out[r.index(i, b, 1)])) / float64(r.side)
}

// width returns the relative box width scaled by the anchor width
func (r *yoloRegion) width(i, b int, anchor float32) float64 {
	return math.Exp(float64(r.out[r.index(i, b, 2)])) * float64(anchor) / float64(r.side)
}

// height returns the relative box height scaled by the anchor height
func (r *yoloRegion) height(i, b int, anchor float32) float64 {
	return math.Exp(float64(r.out[r.index(i, b, 3)])) * float64(anchor) / float64(r.side)
}

// classConf returns the class confidence for label
func (r *yoloRegion) classConf(i, b, label int) float32 {
	return r.out[r.index(i, b, r.coords+1+label)]
}

// checkShape validates the output tensor and returns the number of classes
func (y *YOLOv2) checkShape(out *detparse.Tensor) (int, error) {

	if err := out.ExpectRank(4); err != nil {
		return 0, err
	}

	if out.Dim(0) != 1 || out.Dim(1) != yoloSide || out.Dim(2) != yoloSide ||
		out.Dim(3)%yoloBoxes != 0 {
		return 0, fmt.Errorf("%w: expected [1 x %d x %d x %d*(5+classes)], got %s",
			detparse.ErrShape, yoloSide, yoloSide, yoloBoxes, out.ShapeString())
	}

	classes := out.Dim(3)/yoloBoxes - (yoloCoords + 1)

	if classes <= 0 {
		return 0, fmt.Errorf("%w: no class channels in %s", detparse.ErrShape,
			out.ShapeString())
	}

	return classes, nil
}

// DetectObjects takes the region layer output tensor and returns the objects
// detected scaled to an image of the given size, sorted by confidence and
// filtered by NMS
func (y *YOLOv2) DetectObjects(out *detparse.Tensor, size image.Point) (DetectionSet, error) {

	classes, err := y.checkShape(out)

	if err != nil {
		return DetectionSet{}, err
	}

	if y.Params.NMSThreshold <= 0 || y.Params.NMSThreshold > 1 {
		return DetectionSet{}, fmt.Errorf("%w: NMS threshold %v outside (0, 1]",
			detparse.ErrParams, y.Params.NMSThreshold)
	}

	if len(y.Params.Anchors) < 2*yoloBoxes {
		return DetectionSet{}, fmt.Errorf("%w: need %d anchor values, got %d",
			detparse.ErrParams, 2*yoloBoxes, len(y.Params.Anchors))
	}

	region := &yoloRegion{
		out:     out.Data,
		side:    yoloSide,
		coords:  yoloCoords,
		classes: classes,
	}

	thresh := y.Params.ConfidenceThreshold
	candidates := make([]Detection, 0)

	for i := 0; i < yoloSide*yoloSide; i++ {
		for b := 0; b < yoloBoxes; b++ {

			scale := region.objectness(i, b)

			if scale < thresh {
				continue
			}

			x := region.x(i, b)
			yy := region.y(i, b)
			height := region.height(i, b, y.Params.Anchors[2*b+1])
			width := region.width(i, b, y.Params.Anchors[2*b])

			for label := 0; label < classes; label++ {

				prob := scale * region.classConf(i, b, label)

				if prob < thresh {
					continue
				}

				candidates = append(candidates, Detection{
					Rect:       ToBox(x, yy, height, width, size),
					Confidence: prob,
					Label:      label,
				})
			}
		}
	}

	sortByConfidence(candidates)

	return GreedyNMS(candidates, y.Params.NMSThreshold), nil
}

// Parse implements the Parser interface
func (y *YOLOv2) Parse(outputs []*detparse.Tensor, size image.Point) (DetectionSet, error) {

	if err := expectOutputs(outputs, 1); err != nil {
		return DetectionSet{}, err
	}

	return y.DetectObjects(outputs[0], size)
}
