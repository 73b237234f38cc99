// Package report builds the per frame inference message sent to telemetry
// consumers from a decoded DetectionSet
package report

import (
	"encoding/json"
	"image"
	"math"

	"github.com/swdee/go-detparse"
	"github.com/swdee/go-detparse/postprocess"
)

// Inference is a single result of a frame
type Inference struct {
	// BBox is [x1, y1, x2, y2] relative to the frame size.  It is omitted for
	// classification results
	BBox []float64 `json:"bbox,omitempty"`
	// Label is the class name
	Label string `json:"label"`
	// Confidence is the score of the result
	Confidence float32 `json:"confidence"`
	// Timestamp is the inference timestamp of the frame
	Timestamp int64 `json:"timestamp"`
}

// Report holds all results of a frame
type Report struct {
	Inferences []Inference `json:"inferences"`
}

// Build converts the detections of a frame of the given size into a Report.
// Labels are mapped to their names with labels
func Build(set postprocess.DetectionSet, labels detparse.Labels,
	size image.Point, timestamp int64) Report {

	r := Report{
		Inferences: make([]Inference, 0, set.Len()),
	}

	for i := 0; i < set.Len(); i++ {

		inf := Inference{
			Label:      labels.Name(set.Labels[i]),
			Confidence: set.Confidences[i],
			Timestamp:  timestamp,
		}

		if i < len(set.Boxes) && size.X > 0 && size.Y > 0 {
			inf.BBox = relativeBox(set.Boxes[i], size)
		}

		r.Inferences = append(r.Inferences, inf)
	}

	return r
}

// relativeBox returns the corners of box as fractions of the image size,
// rounded to three decimal places
func relativeBox(box image.Rectangle, size image.Point) []float64 {

	w := float64(size.X)
	h := float64(size.Y)

	return []float64{
		round3(float64(box.Min.X) / w),
		round3(float64(box.Min.Y) / h),
		round3(float64(box.Max.X) / w),
		round3(float64(box.Max.Y) / h),
	}
}

// round3 rounds v to three decimal places
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// JSON returns the report encoded as JSON
func (r Report) JSON() ([]byte, error) {
	return json.Marshal(r)
}
