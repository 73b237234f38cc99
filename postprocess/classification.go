package postprocess

import (
	"fmt"
	"image"

	"github.com/swdee/go-detparse"
	"gonum.org/v1/gonum/floats"
)

// Classification defines the struct for image classification post processing
type Classification struct{}

// NewClassification returns an instance of the Classification post processor
func NewClassification() *Classification {
	return &Classification{}
}

// Classify takes a [1, C] score tensor and returns the single class with the
// highest score.  On ties the first class wins.  The result carries no box
func (c *Classification) Classify(out *detparse.Tensor) (DetectionSet, error) {

	if err := out.ExpectRank(2); err != nil {
		return DetectionSet{}, err
	}

	numClasses := out.Dim(1)

	if numClasses <= 0 {
		return DetectionSet{}, fmt.Errorf("%w: no classes in %s", detparse.ErrShape,
			out.ShapeString())
	}

	scores := make([]float64, numClasses)

	for i, v := range out.Data[:numClasses] {
		scores[i] = float64(v)
	}

	label := floats.MaxIdx(scores)

	return DetectionSet{
		Labels:      []int{label},
		Confidences: []float32{out.Data[label]},
	}, nil
}

// Parse implements the Parser interface.  The image size is not used
func (c *Classification) Parse(outputs []*detparse.Tensor, _ image.Point) (DetectionSet, error) {

	if err := expectOutputs(outputs, 1); err != nil {
		return DetectionSet{}, err
	}

	return c.Classify(outputs[0])
}
