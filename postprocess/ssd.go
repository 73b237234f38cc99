package postprocess

import (
	"fmt"
	"image"
	"math"

	"github.com/swdee/go-detparse"
)

// ssdObjectSize is the number of values describing each SSD detection row,
// being [image_id, label, confidence, left, top, right, bottom]
const ssdObjectSize = 7

// NoLabelFilter disables filtering of SSD results by class
const NoLabelFilter = -1

// SSD defines the struct for SSD DetectionOutput layer post processing
type SSD struct {
	Params SSDParams
}

// SSDParams defines the struct containing the SSD parameters to use for post
// processing operations
type SSDParams struct {
	// ConfidenceThreshold is the minimum confidence of a row to be returned
	ConfidenceThreshold float32
	// FilterLabel restricts results to a single class.  Set to NoLabelFilter
	// to return all classes
	FilterLabel int
}

// SSDDefaultParams returns an instance of SSDParams configured with a
// confidence threshold of 0.5 and no label filter
func SSDDefaultParams() SSDParams {
	return SSDParams{
		ConfidenceThreshold: 0.5,
		FilterLabel:         NoLabelFilter,
	}
}

// NewSSD returns an instance of the SSD post processor
func NewSSD(p SSDParams) *SSD {
	return &SSD{
		Params: p,
	}
}

// DetectObjects takes a [1, 1, N, 7] DetectionOutput tensor and returns the
// objects detected scaled to, and clipped by, an image of the given size.
// The network has already sorted and deduplicated its proposals so no NMS is
// applied.  Processing stops at the first row with a negative image id
func (s *SSD) DetectObjects(out *detparse.Tensor, size image.Point) (DetectionSet, error) {

	if err := out.ExpectRank(4); err != nil {
		return DetectionSet{}, err
	}

	if out.Dim(3) != ssdObjectSize {
		return DetectionSet{}, fmt.Errorf("%w: expected SSD rows of %d values, got %s",
			detparse.ErrShape, ssdObjectSize, out.ShapeString())
	}

	var set DetectionSet

	proposals := out.Dim(2)
	surface := image.Rect(0, 0, size.X, size.Y)
	w := float64(size.X)
	h := float64(size.Y)

	for i := 0; i < proposals; i++ {

		row := out.Data[i*ssdObjectSize : (i+1)*ssdObjectSize]

		imageID := row[0]
		label := int(row[1])
		confidence := row[2]

		if imageID < 0 {
			// marks end of detections
			break
		}

		if confidence < s.Params.ConfidenceThreshold {
			continue
		}

		if s.Params.FilterLabel != NoLabelFilter && label != s.Params.FilterLabel {
			continue
		}

		// map relative coordinates to the image scale
		x := int(math.Round(float64(row[3]) * w))
		y := int(math.Round(float64(row[4]) * h))
		right := int(math.Round(float64(row[5]) * w))
		bottom := int(math.Round(float64(row[6]) * h))

		// inverted corners give an empty box rather than a flipped one
		right = max(right, x)
		bottom = max(bottom, y)

		set.add(Detection{
			Rect:       image.Rect(x, y, right, bottom).Intersect(surface),
			Confidence: confidence,
			Label:      label,
		})
	}

	return set, nil
}

// Parse implements the Parser interface
func (s *SSD) Parse(outputs []*detparse.Tensor, size image.Point) (DetectionSet, error) {

	if err := expectOutputs(outputs, 1); err != nil {
		return DetectionSet{}, err
	}

	return s.DetectObjects(outputs[0], size)
}
