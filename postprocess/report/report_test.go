package report

import (
	"encoding/json"
	"image"
	"testing"

	"github.com/swdee/go-detparse"
	"github.com/swdee/go-detparse/postprocess"
)

func TestBuildDetections(t *testing.T) {

	set := postprocess.DetectionSet{
		Boxes:       []image.Rectangle{image.Rect(64, 48, 320, 240)},
		Labels:      []int{1},
		Confidences: []float32{0.75},
	}

	r := Build(set, detparse.Labels{"cat", "dog"}, image.Pt(640, 480), 1234)

	if len(r.Inferences) != 1 {
		t.Fatalf("Expected 1 inference, got %d", len(r.Inferences))
	}

	inf := r.Inferences[0]
	want := []float64{0.1, 0.1, 0.5, 0.5}

	for i, w := range want {
		if inf.BBox[i] != w {
			t.Errorf("Expected bbox[%d] = %v, got %v", i, w, inf.BBox[i])
		}
	}

	if inf.Label != "dog" || inf.Confidence != 0.75 || inf.Timestamp != 1234 {
		t.Errorf("Expected dog 0.75 @1234, got %s %v @%d", inf.Label, inf.Confidence,
			inf.Timestamp)
	}
}

func TestBuildRounding(t *testing.T) {

	set := postprocess.DetectionSet{
		Boxes:       []image.Rectangle{image.Rect(1, 2, 3, 3)},
		Labels:      []int{5},
		Confidences: []float32{0.5},
	}

	r := Build(set, nil, image.Pt(3, 3), 0)
	want := []float64{0.333, 0.667, 1, 1}

	for i, w := range want {
		if r.Inferences[0].BBox[i] != w {
			t.Errorf("Expected bbox[%d] = %v, got %v", i, w, r.Inferences[0].BBox[i])
		}
	}

	// labels missing from the list are reported by index
	if r.Inferences[0].Label != "5" {
		t.Errorf("Expected label 5, got %q", r.Inferences[0].Label)
	}
}

func TestReportJSON(t *testing.T) {

	set := postprocess.DetectionSet{
		Labels:      []int{0},
		Confidences: []float32{0.9},
	}

	data, err := Build(set, detparse.Labels{"hotdog"}, image.Pt(100, 100), 42).JSON()

	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var decoded map[string][]map[string]any

	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Error decoding report: %v", err)
	}

	infs := decoded["inferences"]

	if len(infs) != 1 {
		t.Fatalf("Expected 1 inference, got %d", len(infs))
	}

	// classification results have no box
	if _, ok := infs[0]["bbox"]; ok {
		t.Errorf("Expected no bbox key, got %v", infs[0]["bbox"])
	}

	if infs[0]["label"] != "hotdog" {
		t.Errorf("Expected label hotdog, got %v", infs[0]["label"])
	}
}

func TestReportEmpty(t *testing.T) {

	data, err := Build(postprocess.DetectionSet{}, nil, image.Pt(10, 10), 0).JSON()

	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if string(data) != `{"inferences":[]}` {
		t.Errorf("Expected empty inference list, got %s", data)
	}
}
