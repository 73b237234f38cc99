package render

import (
	"image"
	"testing"

	"github.com/swdee/go-detparse"
	"github.com/swdee/go-detparse/postprocess"
	"gocv.io/x/gocv"
)

func TestLabelColor(t *testing.T) {

	if LabelColor(0) != classColors[0] {
		t.Errorf("Expected first palette color for label 0")
	}

	if LabelColor(len(classColors)+2) != classColors[2] {
		t.Errorf("Expected palette to wrap around")
	}

	if LabelColor(-1) != classColors[1] {
		t.Errorf("Expected negative labels to map into the palette")
	}
}

func TestDetectionBoxes(t *testing.T) {

	img := gocv.NewMatWithSize(100, 100, gocv.MatTypeCV8UC3)
	defer img.Close()

	set := postprocess.DetectionSet{
		Boxes:       []image.Rectangle{image.Rect(20, 40, 80, 90)},
		Labels:      []int{0},
		Confidences: []float32{0.8},
	}

	DetectionBoxes(&img, set, detparse.Labels{"person"}, DefaultFont(), 2)

	// box outline is painted in the label color
	clr := LabelColor(0)
	v := img.GetVecbAt(65, 20)

	if v[0] != clr.B || v[1] != clr.G || v[2] != clr.R {
		t.Errorf("Expected box color %v at left edge, got %v", clr, v)
	}
}

func TestClassificationBanner(t *testing.T) {

	img := gocv.NewMatWithSize(100, 200, gocv.MatTypeCV8UC3)
	defer img.Close()

	set := postprocess.DetectionSet{
		Labels:      []int{1},
		Confidences: []float32{0.9},
	}

	Classification(&img, set, detparse.Labels{"cat", "dog"}, DefaultFont())

	clr := LabelColor(1)
	v := img.GetVecbAt(1, 1)

	if v[0] != clr.B || v[1] != clr.G || v[2] != clr.R {
		t.Errorf("Expected banner color %v in corner, got %v", clr, v)
	}
}

func TestDefaultFont(t *testing.T) {

	f := DefaultFont()

	if f.Face != gocv.FontHersheySimplex || f.Scale != 0.7 || f.Thickness != 2 {
		t.Errorf("Expected Hershey Simplex at scale 0.7 thickness 2, got %v %v %v",
			f.Face, f.Scale, f.Thickness)
	}
}

func TestFontText(t *testing.T) {

	tests := []struct {
		name       string
		confidence float32
		want       string
	}{
		{"person", 0.8765, "person: 0.88"},
		{"dog", 1, "dog: 1.00"},
		{"text", 0, "text"},
	}

	f := DefaultFont()

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {

			if got := f.Text(tc.name, tc.confidence); got != tc.want {
				t.Errorf("Expected label %q, got %q", tc.want, got)
			}
		})
	}
}
