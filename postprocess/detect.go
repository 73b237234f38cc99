package postprocess

import (
	"errors"
	"fmt"
	"image"

	"github.com/swdee/go-detparse"
)

// Detection defines the attributes of a single object detected
type Detection struct {
	// Rect is the bounding box in pixel coordinates of the target image
	Rect image.Rectangle
	// Confidence is the score of the detection in the range 0 to 1
	Confidence float32
	// Label is the class index, the line number in the labels file the Model
	// was trained on
	Label int
}

// DetectionSet is the result of a single decode call.  Boxes, Labels and
// Confidences are index aligned, with the exception of classification results
// which carry no Boxes.
type DetectionSet struct {
	Boxes       []image.Rectangle
	Labels      []int
	Confidences []float32
}

// add appends a detection to the set
func (d *DetectionSet) add(det Detection) {
	d.Boxes = append(d.Boxes, det.Rect)
	d.Labels = append(d.Labels, det.Label)
	d.Confidences = append(d.Confidences, det.Confidence)
}

// Len returns the number of results in the set
func (d DetectionSet) Len() int {
	return len(d.Labels)
}

// HasBoxes reports whether the results carry bounding boxes
func (d DetectionSet) HasBoxes() bool {
	return len(d.Boxes) > 0
}

// Detections returns the set as a slice of Detection.  Results without a box
// have a zero Rect
func (d DetectionSet) Detections() []Detection {

	dets := make([]Detection, d.Len())

	for i := range dets {
		dets[i].Label = d.Labels[i]
		dets[i].Confidence = d.Confidences[i]

		if i < len(d.Boxes) {
			dets[i].Rect = d.Boxes[i]
		}
	}

	return dets
}

// ErrOutputCount is returned when a parser is given the wrong number of
// output tensors
var ErrOutputCount = errors.New("unexpected number of output tensors")

// expectOutputs checks the number of tensors handed to a parser
func expectOutputs(outputs []*detparse.Tensor, n int) error {

	if len(outputs) != n {
		return fmt.Errorf("%w: expected %d, got %d", ErrOutputCount, n, len(outputs))
	}

	return nil
}
