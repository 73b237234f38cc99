package postprocess

import (
	"fmt"
	"image"
	"math"

	clipper "github.com/ctessum/go.clipper"
	"github.com/swdee/go-detparse"
	"gocv.io/x/gocv"
)

// linkNeighbours is the number of neighbours a pixel can be linked to
const linkNeighbours = 8

// neighbourOffsets are the positions of the 8 neighbours of a pixel, in the
// order their link scores appear in the link tensor
var neighbourOffsets = [linkNeighbours]image.Point{
	{X: -1, Y: -1}, {X: 0, Y: -1}, {X: 1, Y: -1},
	{X: -1, Y: 0}, {X: 1, Y: 0},
	{X: -1, Y: 1}, {X: 0, Y: 1}, {X: 1, Y: 1},
}

// TextDetection defines the struct for PixelLink text detection post
// processing
type TextDetection struct {
	Params TextDetectionParams
}

// TextDetectionParams defines the struct containing the TextDetection
// parameters to use for post processing operations
type TextDetectionParams struct {
	// PixelThreshold is the minimum text score for a pixel to be foreground
	PixelThreshold float32
	// LinkThreshold is the minimum score for two neighbouring pixels to be
	// linked
	LinkThreshold float32
	// MinArea is the minimum area in pixels of the rotated rectangle around
	// a text region
	MinArea float32
	// MinHeight is the minimum length of the shorter side of the rotated
	// rectangle around a text region
	MinHeight float32
	// UnclipRatio expands each region by area*ratio/perimeter before its
	// bounding box is taken.  Zero leaves regions as found
	UnclipRatio float32
}

// TextDetectionDefaultParams returns an instance of TextDetectionParams
// configured with default values featuring:
// - Pixel Threshold: 0.5
// - Link Threshold: 0.5
// - Min Area: 300
// - Min Height: 10
// - Unclip Ratio: 0 (disabled)
func TextDetectionDefaultParams() TextDetectionParams {
	return TextDetectionParams{
		PixelThreshold: 0.5,
		LinkThreshold:  0.5,
		MinArea:        300,
		MinHeight:      10,
	}
}

// NewTextDetection returns an instance of the TextDetection post processor
func NewTextDetection(p TextDetectionParams) *TextDetection {
	return &TextDetection{
		Params: p,
	}
}

// checkShape validates the pixel and link tensors and returns the grid size
func (t *TextDetection) checkShape(cls, link *detparse.Tensor) (int, int, error) {

	if err := link.ExpectRank(4); err != nil {
		return 0, 0, fmt.Errorf("link tensor: %w", err)
	}

	if err := cls.ExpectRank(4); err != nil {
		return 0, 0, fmt.Errorf("pixel tensor: %w", err)
	}

	if link.Dim(1) != 2*linkNeighbours {
		return 0, 0, fmt.Errorf("%w: expected %d link channels, got %s",
			detparse.ErrShape, 2*linkNeighbours, link.ShapeString())
	}

	h := link.Dim(2)
	w := link.Dim(3)

	if cls.Dim(2) != h || cls.Dim(3) != w {
		return 0, 0, fmt.Errorf("%w: pixel tensor %s does not match link tensor %s",
			detparse.ErrShape, cls.ShapeString(), link.ShapeString())
	}

	return h, w, nil
}

// DetectText takes the pixel classification tensor [1, 2, H, W] and the
// neighbour link tensor [1, 16, H, W] and returns the bounding box of each
// text region found, scaled to an image of the given size.  Text detection
// has a single class and no score so every box has label 0 and confidence 0
func (t *TextDetection) DetectText(cls, link *detparse.Tensor, size image.Point) (DetectionSet, error) {

	h, w, err := t.checkShape(cls, link)

	if err != nil {
		return DetectionSet{}, err
	}

	if size.X <= 0 || size.Y <= 0 {
		return DetectionSet{}, fmt.Errorf("%w: invalid image size %v", detparse.ErrParams, size)
	}

	labels, count := decodeImageByJoin(cls.Data, link.Data, h, w,
		t.Params.PixelThreshold, t.Params.LinkThreshold)

	boxes, err := t.maskToBoxes(labels, count, w, h, size)

	if err != nil {
		return DetectionSet{}, err
	}

	var set DetectionSet

	for _, box := range boxes {
		set.add(Detection{Rect: box})
	}

	return set, nil
}

// Parse implements the Parser interface
func (t *TextDetection) Parse(outputs []*detparse.Tensor, size image.Point) (DetectionSet, error) {

	if err := expectOutputs(outputs, 2); err != nil {
		return DetectionSet{}, err
	}

	return t.DetectText(outputs[0], outputs[1], size)
}

// decodeImageByJoin thresholds the pixel and link scores then groups linked
// foreground pixels into components.  It returns the component label image
// of size h*w and the number of components
func decodeImageByJoin(cls, link []float32, h, w int, pixelThresh,
	linkThresh float32) ([]int, int) {

	gridLen := h * w
	pixelMask := make([]bool, gridLen)
	groups := newPixelGroups()
	points := make([]image.Point, 0)

	for i := 0; i < gridLen; i++ {
		if cls[i] >= pixelThresh {
			pixelMask[i] = true
			points = append(points, image.Pt(i%w, i/w))
			groups.add(i)
		}
	}

	// only the first of the two channels of each neighbour holds the
	// positive link score
	linkMask := make([]bool, linkNeighbours*gridLen)

	for n := 0; n < linkNeighbours; n++ {
		for j := 0; j < gridLen; j++ {
			linkMask[n*gridLen+j] = link[n*2*gridLen+j] >= linkThresh
		}
	}

	for _, pt := range points {

		p := pt.Y*w + pt.X

		for n, off := range neighbourOffsets {

			nx := pt.X + off.X
			ny := pt.Y + off.Y

			if nx < 0 || nx >= w || ny < 0 || ny >= h {
				continue
			}

			q := ny*w + nx

			if pixelMask[q] && linkMask[n*gridLen+p] {
				groups.join(p, q)
			}
		}
	}

	return groups.labelComponents(points, w, h)
}

// maskToBoxes resizes the component label image to the output size and
// returns the bounding box of the minimum area rectangle around each
// component that passes the minimum height and area checks
func (t *TextDetection) maskToBoxes(labels []int, count, w, h int,
	size image.Point) ([]image.Rectangle, error) {

	boxes := make([]image.Rectangle, 0, count)

	if count == 0 {
		return boxes, nil
	}

	mask := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), h, w,
		gocv.MatTypeCV32S)
	defer mask.Close()

	for i, v := range labels {
		if v != 0 {
			mask.SetIntAt(i/w, i%w, int32(v))
		}
	}

	resized := gocv.NewMat()
	defer resized.Close()

	gocv.Resize(mask, &resized, size, 0, 0, gocv.InterpolationNearestNeighbor)

	if resized.Empty() {
		return nil, fmt.Errorf("error resizing label mask to %v", size)
	}

	bboxMask := gocv.NewMat()
	defer bboxMask.Close()

	for i := 1; i <= count; i++ {

		v := float64(i)
		gocv.InRangeWithScalar(resized, gocv.NewScalar(v, v, v, v),
			gocv.NewScalar(v, v, v, v), &bboxMask)

		if box, ok := t.componentBox(bboxMask); ok {
			boxes = append(boxes, box)
		}
	}

	return boxes, nil
}

// componentBox returns the bounding box of the first contour found in the
// binary mask.  False is returned when no contour is found, which happens
// when resizing removed the component, or the region is too small
func (t *TextDetection) componentBox(bboxMask gocv.Mat) (image.Rectangle, bool) {

	contours := gocv.FindContours(bboxMask, gocv.RetrievalCComp, gocv.ChainApproxSimple)
	defer contours.Close()

	if contours.Size() == 0 {
		return image.Rectangle{}, false
	}

	rect := gocv.MinAreaRect2(contours.At(0))

	if math.Min(float64(rect.Width), float64(rect.Height)) < float64(t.Params.MinHeight) {
		return image.Rectangle{}, false
	}

	if rect.Width*rect.Height < t.Params.MinArea {
		return image.Rectangle{}, false
	}

	if t.Params.UnclipRatio > 0 {
		return t.unClip(rect), true
	}

	return rect.BoundingRect, true
}

// unClip expands the rotated rectangle outwards by a distance derived from its
// area and perimeter and returns the bounding box of the expanded polygon
func (t *TextDetection) unClip(rect gocv.RotatedRect2f) image.Rectangle {

	area := float64(rect.Width) * float64(rect.Height)
	perimeter := 2 * (float64(rect.Width) + float64(rect.Height))

	if perimeter == 0 {
		return rect.BoundingRect
	}

	distance := area * float64(t.Params.UnclipRatio) / perimeter

	var path clipper.Path

	for _, pt := range rect.Points {
		path = append(path, &clipper.IntPoint{
			X: clipper.CInt(math.Round(float64(pt.X))),
			Y: clipper.CInt(math.Round(float64(pt.Y))),
		})
	}

	co := clipper.NewClipperOffset()
	co.AddPath(path, clipper.JtRound, clipper.EtClosedPolygon)

	solution := co.Execute(distance)

	var points []image.Point

	for _, sol := range solution {
		for _, pt := range sol {
			points = append(points, image.Pt(int(pt.X), int(pt.Y)))
		}
	}

	if len(points) == 0 {
		return rect.BoundingRect
	}

	pointVector := gocv.NewPointVectorFromPoints(points)
	defer pointVector.Close()

	return gocv.BoundingRect(pointVector)
}
