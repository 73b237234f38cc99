package postprocess

import (
	"errors"
	"image"
	"testing"

	"github.com/swdee/go-detparse"
)

// yoloTensor returns a zeroed single class region output along with a setter
// for entry of anchor b in grid cell i
func yoloTensor(t *testing.T) (*detparse.Tensor, func(i, b, entry int, v float32)) {

	channels := yoloCoords + 1 + 1
	data := make([]float32, yoloSide*yoloSide*yoloBoxes*channels)

	out, err := detparse.NewTensor(data, 1, yoloSide, yoloSide, yoloBoxes*channels)

	if err != nil {
		t.Fatalf("Error creating tensor: %v", err)
	}

	set := func(i, b, entry int, v float32) {
		data[b*yoloSide*yoloSide*channels+entry*yoloSide*yoloSide+i] = v
	}

	return out, set
}

func TestYOLOv2SingleDetection(t *testing.T) {

	out, set := yoloTensor(t)

	// grid cell at row 2, column 3 using anchor 1
	cell := 2*yoloSide + 3
	set(cell, 1, 0, 0.5)  // x
	set(cell, 1, 1, 0.25) // y
	set(cell, 1, 2, 0)    // w, exp(0) = 1
	set(cell, 1, 3, 0)    // h
	set(cell, 1, 4, 0.8)  // objectness
	set(cell, 1, 5, 0.9)  // class 0

	yolo := NewYOLOv2(YOLOv2DefaultParams())
	res, err := yolo.DetectObjects(out, image.Pt(416, 416))

	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if res.Len() != 1 {
		t.Fatalf("Expected 1 detection, got %d", res.Len())
	}

	// x = (3+0.5)/13, y = (2+0.25)/13, w = 1.87446/13, h = 2.06253/13
	// left = round((x-w/2)*416) = 82, top = round((y-h/2)*416) = 39,
	// width = round(w*416) = 60, height = round(h*416) = 66
	want := image.Rect(82, 39, 142, 105)

	if res.Boxes[0] != want {
		t.Errorf("Expected box %v, got %v", want, res.Boxes[0])
	}

	if res.Labels[0] != 0 {
		t.Errorf("Expected label 0, got %d", res.Labels[0])
	}

	wantConf := float32(0.8) * float32(0.9)

	if res.Confidences[0] != wantConf {
		t.Errorf("Expected confidence %v, got %v", wantConf, res.Confidences[0])
	}
}

func TestYOLOv2BelowThreshold(t *testing.T) {

	out, set := yoloTensor(t)

	// objectness passes but objectness*class does not
	set(0, 0, 4, 0.6)
	set(0, 0, 5, 0.6)

	// objectness fails
	set(1, 0, 4, 0.4)
	set(1, 0, 5, 1.0)

	res, err := NewYOLOv2(YOLOv2DefaultParams()).DetectObjects(out, image.Pt(416, 416))

	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if res.Len() != 0 {
		t.Errorf("Expected no detections, got %d", res.Len())
	}
}

func TestYOLOv2NMS(t *testing.T) {

	out, set := yoloTensor(t)

	// same cell, anchors 0 and 1 with matching extent, different scores
	for b, obj := range []float32{0.9, 0.7} {
		set(0, b, 4, obj)
		set(0, b, 5, 1)
	}

	p := YOLOv2DefaultParams()
	p.Anchors = []float32{2, 2, 2, 2, 1, 1, 1, 1, 1, 1}

	res, err := NewYOLOv2(p).DetectObjects(out, image.Pt(416, 416))

	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if res.Len() != 1 || res.Confidences[0] != 0.9 {
		t.Errorf("Expected the 0.9 detection to suppress its duplicate, got %v",
			res.Confidences)
	}

	p.NMSThreshold = 1.0
	res, _ = NewYOLOv2(p).DetectObjects(out, image.Pt(416, 416))

	if res.Len() != 2 {
		t.Errorf("Expected 2 detections with NMS disabled, got %d", res.Len())
	}
}

func TestYOLOv2InvalidInput(t *testing.T) {

	out, _ := yoloTensor(t)

	tests := []struct {
		name   string
		params YOLOv2Params
		out    *detparse.Tensor
		want   error
	}{
		{"zero nms", YOLOv2Params{ConfidenceThreshold: 0.5, NMSThreshold: 0,
			Anchors: YOLOv2DefaultAnchors()}, out, detparse.ErrParams},
		{"nms above 1", YOLOv2Params{ConfidenceThreshold: 0.5, NMSThreshold: 1.5,
			Anchors: YOLOv2DefaultAnchors()}, out, detparse.ErrParams},
		{"short anchors", YOLOv2Params{ConfidenceThreshold: 0.5, NMSThreshold: 0.5,
			Anchors: []float32{1, 1}}, out, detparse.ErrParams},
		{"wrong grid", YOLOv2DefaultParams(),
			&detparse.Tensor{Data: make([]float32, 12*12*30), Shape: []int{1, 12, 12, 30}},
			detparse.ErrShape},
		{"no classes", YOLOv2DefaultParams(),
			&detparse.Tensor{Data: make([]float32, 13*13*25), Shape: []int{1, 13, 13, 25}},
			detparse.ErrShape},
		{"wrong rank", YOLOv2DefaultParams(),
			&detparse.Tensor{Data: make([]float32, 13*30), Shape: []int{13, 30}},
			detparse.ErrShape},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {

			res, err := NewYOLOv2(tc.params).DetectObjects(tc.out, image.Pt(416, 416))

			if !errors.Is(err, tc.want) {
				t.Errorf("Expected %v, got %v", tc.want, err)
			}

			if res.Len() != 0 {
				t.Errorf("Expected empty result on error, got %d", res.Len())
			}
		})
	}
}
