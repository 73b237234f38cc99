package render

import (
	"fmt"
	"image/color"

	"gocv.io/x/gocv"
)

// Alignment is the horizontal placement of a text label over its box
type Alignment int

const (
	Left   Alignment = 1
	Center Alignment = 2
	Right  Alignment = 3
)

// Font defines the parameters for rendering text on an image using GoCV
type Font struct {
	Face      gocv.HersheyFont
	Scale     float64
	Color     color.RGBA
	Thickness int
	LineType  gocv.LineType
	// Padding to place around text
	LeftPad   int
	RightPad  int
	TopPad    int
	BottomPad int
	// Alignment of the text label to the bounding box
	Alignment Alignment
	// Precision is the number of decimals a confidence is printed with
	Precision int
}

// DefaultFont returns the overlay font of the deployment preview, Hershey
// Simplex at scale 0.7 and thickness 2 with confidences to two decimals
func DefaultFont() Font {
	return Font{
		Face:      gocv.FontHersheySimplex,
		Scale:     0.7,
		Color:     White,
		Thickness: 2,
		LineType:  gocv.LineAA,
		LeftPad:   4,
		RightPad:  4,
		TopPad:    4,
		BottomPad: 6,
		Alignment: Left,
		Precision: 2,
	}
}

// Text returns the label drawn for a result in the form "name: 0.87".  A
// confidence of zero or less, as produced by text detection, prints the name only
func (f Font) Text(name string, confidence float32) string {

	if confidence <= 0 {
		return name
	}

	return fmt.Sprintf("%s: %.*f", name, f.Precision, confidence)
}
