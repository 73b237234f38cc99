package postprocess

import (
	"errors"
	"image"
	"testing"

	"github.com/swdee/go-detparse"
)

// s1Tensors returns box and probability tensors for two proposals sharing
// the same box
func s1Tensors(t *testing.T, probs []float32, classes int) (*detparse.Tensor, *detparse.Tensor) {

	proposals := len(probs) / classes

	boxData := make([]float32, 0, proposals*4)

	for i := 0; i < proposals; i++ {
		boxData = append(boxData, 0.5, 0.5, 0.2, 0.2)
	}

	boxes, err := detparse.NewTensor(boxData, 1, proposals, 4)

	if err != nil {
		t.Fatalf("Error creating box tensor: %v", err)
	}

	probT, err := detparse.NewTensor(probs, 1, proposals, classes)

	if err != nil {
		t.Fatalf("Error creating probability tensor: %v", err)
	}

	return boxes, probT
}

func TestS1DetectObjects(t *testing.T) {

	boxes, probs := s1Tensors(t, []float32{
		0.1, 0.7, 0.2,
		0.05, 0.1, 0.85,
	}, 3)

	p := S1DefaultParams()
	p.NMSThreshold = 1.0

	res, err := NewS1(p).DetectObjects(boxes, probs, image.Pt(100, 100))

	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if res.Len() != 2 {
		t.Fatalf("Expected 2 detections, got %d", res.Len())
	}

	// sorted by confidence, labels offset past the background class
	wantLabels := []int{1, 0}
	wantConf := []float32{0.85, 0.7}

	for i := range wantLabels {
		if res.Labels[i] != wantLabels[i] {
			t.Errorf("Expected label %d = %d, got %d", i, wantLabels[i], res.Labels[i])
		}
		if res.Confidences[i] != wantConf[i] {
			t.Errorf("Expected confidence %d = %v, got %v", i, wantConf[i], res.Confidences[i])
		}
		if want := image.Rect(40, 40, 60, 60); res.Boxes[i] != want {
			t.Errorf("Expected box %v, got %v", want, res.Boxes[i])
		}
	}

	// identical boxes are reduced to one with NMS enabled
	res, err = NewS1(S1DefaultParams()).DetectObjects(boxes, probs, image.Pt(100, 100))

	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if res.Len() != 1 || res.Labels[0] != 1 {
		t.Errorf("Expected single label 1 detection, got %v", res.Labels)
	}
}

func TestS1SkipsBackground(t *testing.T) {

	boxes, probs := s1Tensors(t, []float32{0.99, 0.01, 0}, 3)

	res, err := NewS1(S1DefaultParams()).DetectObjects(boxes, probs, image.Pt(100, 100))

	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if res.Len() != 0 {
		t.Errorf("Expected background to be ignored, got %d detections", res.Len())
	}
}

func TestS1Shape(t *testing.T) {

	boxes, _ := detparse.NewTensor(make([]float32, 4), 1, 1, 4)
	probs, _ := detparse.NewTensor(make([]float32, 6), 1, 2, 3)

	if _, err := NewS1(S1DefaultParams()).DetectObjects(boxes, probs, image.Pt(100, 100)); !errors.Is(err, detparse.ErrShape) {
		t.Errorf("Expected ErrShape for too few boxes, got %v", err)
	}

	flat, _ := detparse.NewTensor(make([]float32, 6), 2, 3)

	if _, err := NewS1(S1DefaultParams()).DetectObjects(boxes, flat, image.Pt(100, 100)); !errors.Is(err, detparse.ErrShape) {
		t.Errorf("Expected ErrShape for rank 2 probabilities, got %v", err)
	}

	noBoxes, _ := detparse.NewTensor(nil, 0, 4, 4)
	noProbs, _ := detparse.NewTensor(nil, 0, 4, 3)

	if _, err := NewS1(S1DefaultParams()).DetectObjects(noBoxes, noProbs, image.Pt(100, 100)); !errors.Is(err, detparse.ErrShape) {
		t.Errorf("Expected ErrShape for zero batch, got %v", err)
	}
}
