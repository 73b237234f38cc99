package postprocess

import (
	"fmt"
	"image"

	"github.com/swdee/go-detparse"
)

// S1 defines the struct for post processing of the anchor box and softmax
// outputs of MobileNetV2 SSDLite models exported by Custom Vision
type S1 struct {
	Params S1Params
}

// S1Params defines the struct containing the S1 parameters to use for post
// processing operations
type S1Params struct {
	// ConfidenceThreshold is the minimum class probability of a proposal to
	// be considered
	ConfidenceThreshold float32
	// NMSThreshold is the maximum overlap allowed between two kept boxes.
	// A value of 1.0 or more disables suppression
	NMSThreshold float32
}

// S1DefaultParams returns an instance of S1Params with confidence and NMS
// thresholds of 0.5
func S1DefaultParams() S1Params {
	return S1Params{
		ConfidenceThreshold: 0.5,
		NMSThreshold:        0.5,
	}
}

// NewS1 returns an instance of the S1 post processor
func NewS1(p S1Params) *S1 {
	return &S1{
		Params: p,
	}
}

// DetectObjects takes the [1, P, 4] box regression and [1, P, C] class
// probability tensors and returns the objects detected scaled to an image of
// the given size.  Class 0 is the background class and is never returned, so
// the label of a result is its class index minus one
func (s *S1) DetectObjects(boxes, probs *detparse.Tensor, size image.Point) (DetectionSet, error) {

	if err := boxes.ExpectRank(3); err != nil {
		return DetectionSet{}, fmt.Errorf("box tensor: %w", err)
	}

	if err := probs.ExpectRank(3); err != nil {
		return DetectionSet{}, fmt.Errorf("probability tensor: %w", err)
	}

	proposals := probs.Dim(1)
	numClasses := probs.Dim(2)
	objectSize := boxes.Dim(2)

	if objectSize < 4 || boxes.Dim(1) < proposals {
		return DetectionSet{}, fmt.Errorf("%w: box tensor %s does not cover %d proposals",
			detparse.ErrShape, boxes.ShapeString(), proposals)
	}

	candidates := make([]Detection, 0)

	for i := 0; i < proposals; i++ {
		for label := 1; label < numClasses; label++ {

			confidence := probs.Data[i*numClasses+label]

			if confidence < s.Params.ConfidenceThreshold {
				continue
			}

			box := boxes.Data[i*objectSize : i*objectSize+4]
			centerX := float64(box[0])
			centerY := float64(box[1])
			w := float64(box[2])
			h := float64(box[3])

			candidates = append(candidates, Detection{
				Rect:       ToBox(centerX, centerY, h, w, size),
				Confidence: confidence,
				Label:      label - 1,
			})
		}
	}

	sortByConfidence(candidates)

	return GreedyNMS(candidates, s.Params.NMSThreshold), nil
}

// Parse implements the Parser interface
func (s *S1) Parse(outputs []*detparse.Tensor, size image.Point) (DetectionSet, error) {

	if err := expectOutputs(outputs, 2); err != nil {
		return DetectionSet{}, err
	}

	return s.DetectObjects(outputs[0], outputs[1], size)
}
