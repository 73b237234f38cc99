package render

import (
	"image"
	"image/color"

	"github.com/swdee/go-detparse"
	"github.com/swdee/go-detparse/postprocess"
	"gocv.io/x/gocv"
)

// boxLabel holds the precalculated details of a text label drawn above a
// bounding box
type boxLabel struct {
	rect    image.Rectangle
	clr     color.RGBA
	text    string
	textPos image.Point
}

// LabelColor returns the color used to paint results of the given class
func LabelColor(label int) color.RGBA {

	if label < 0 {
		label = -label
	}

	return classColors[label%len(classColors)]
}

// DetectionBoxes renders the bounding boxes of the detection set along with a
// label of the class name and confidence.  Boxes of text detection results
// carry no score so only the class name is written
func DetectionBoxes(img *gocv.Mat, set postprocess.DetectionSet,
	labels detparse.Labels, font Font, lineThickness int) {

	// keep a record of all box labels for later rendering
	boxLabels := make([]boxLabel, 0, len(set.Boxes))

	for i, box := range set.Boxes {

		if i >= set.Len() {
			break
		}

		useClr := LabelColor(set.Labels[i])

		gocv.Rectangle(img, box, useClr, lineThickness)

		text := font.Text(labels.Name(set.Labels[i]), set.Confidences[i])

		boxLabels = append(boxLabels, newBoxLabel(box, useClr, text, font, lineThickness))
	}

	// draw labels last so they are the top most layer and are not overlapped
	// by neighbouring boxes
	drawLabels(img, boxLabels, font)
}

// Classification renders the class name and confidence of each classification
// result as a banner in the top left corner of the image
func Classification(img *gocv.Mat, set postprocess.DetectionSet,
	labels detparse.Labels, font Font) {

	y := 0

	for i := 0; i < set.Len(); i++ {

		text := font.Text(labels.Name(set.Labels[i]), set.Confidences[i])
		textSize := gocv.GetTextSize(text, font.Face, font.Scale, font.Thickness)

		bRect := image.Rect(0, y, textSize.X+font.LeftPad+font.RightPad,
			y+textSize.Y+font.TopPad+font.BottomPad)

		gocv.Rectangle(img, bRect, LabelColor(set.Labels[i]), -1)

		gocv.PutTextWithParams(img, text,
			image.Pt(font.LeftPad, y+textSize.Y+font.TopPad),
			font.Face, font.Scale, font.Color, font.Thickness,
			font.LineType, false)

		y = bRect.Max.Y
	}
}

// newBoxLabel calculates the position of a text label placed on top of box
func newBoxLabel(box image.Rectangle, clr color.RGBA, text string, font Font,
	lineThickness int) boxLabel {

	textSize := gocv.GetTextSize(text, font.Face, font.Scale, font.Thickness)

	// Calculate the alignment of text label
	var centerX int

	switch font.Alignment {
	case Center:
		centerX = (box.Min.X + box.Max.X) / 2

	case Right:
		centerX = box.Max.X - (textSize.X / 2) - font.RightPad + (lineThickness / 2)

	case Left:
		fallthrough
	default:
		centerX = box.Min.X + (textSize.X / 2) + font.LeftPad - (lineThickness / 2)
	}

	return boxLabel{
		rect: image.Rect(centerX-textSize.X/2-font.LeftPad,
			box.Min.Y-textSize.Y-font.TopPad-font.BottomPad,
			centerX+textSize.X/2+font.RightPad, box.Min.Y),
		clr:     clr,
		text:    text,
		textPos: image.Pt(centerX-textSize.X/2, box.Min.Y-font.BottomPad),
	}
}

// drawLabels paints the precalculated box labels
func drawLabels(img *gocv.Mat, boxLabels []boxLabel, font Font) {

	for _, box := range boxLabels {
		// draw box text gets written on
		gocv.Rectangle(img, box.rect, box.clr, -1)

		gocv.PutTextWithParams(img, box.text, box.textPos,
			font.Face, font.Scale, font.Color, font.Thickness,
			font.LineType, false)
	}
}
