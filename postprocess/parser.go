package postprocess

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/swdee/go-detparse"
)

// ErrUnknownParser is returned when a parser name or kind is not recognised
var ErrUnknownParser = errors.New("unknown parser")

// Parser is implemented by every model family post processor.  Parse takes
// the output tensors of one frame along with the size of the image the
// results are scaled to
type Parser interface {
	Parse(outputs []*detparse.Tensor, size image.Point) (DetectionSet, error)
}

// ParserKind identifies the model family a parser decodes
type ParserKind int

const (
	ParserSSD100 ParserKind = iota
	ParserSSD200
	ParserYOLO
	ParserS1
	ParserClassification
	ParserTextDetection
)

var parserNames = map[ParserKind]string{
	ParserSSD100:         "ssd100",
	ParserSSD200:         "ssd200",
	ParserYOLO:           "yolo",
	ParserS1:             "s1",
	ParserClassification: "classification",
	ParserTextDetection:  "textdetection",
}

// ParseKind returns the ParserKind for a name such as "yolo" or "S1".  Names
// are not case sensitive
func ParseKind(name string) (ParserKind, error) {

	name = strings.ToLower(strings.TrimSpace(name))

	for kind, n := range parserNames {
		if n == name {
			return kind, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownParser, name)
}

// String returns the name of the parser kind
func (k ParserKind) String() string {

	if n, ok := parserNames[k]; ok {
		return n
	}

	return fmt.Sprintf("ParserKind(%d)", int(k))
}

// Outputs returns the number of output tensors the parser consumes
func (k ParserKind) Outputs() int {

	switch k {
	case ParserS1, ParserTextDetection:
		return 2
	default:
		return 1
	}
}

// HasBoxes reports whether the parser returns bounding boxes
func (k ParserKind) HasBoxes() bool {
	return k != ParserClassification
}

// ParserParams are the caller supplied settings used to build a Parser
type ParserParams struct {
	// ConfidenceThreshold is the minimum score of a result.  Not used by
	// classification or text detection
	ConfidenceThreshold float32
	// NMSThreshold is the overlap threshold for YOLO and S1
	NMSThreshold float32
	// FilterLabel restricts SSD results to a single class, or NoLabelFilter
	FilterLabel int
	// Anchors are the YOLO anchor boxes.  Nil uses YOLOv2DefaultAnchors
	Anchors []float32
	// Text are the text detection settings
	Text TextDetectionParams
}

// DefaultParserParams returns the settings used by the deployed models
func DefaultParserParams() ParserParams {
	return ParserParams{
		ConfidenceThreshold: 0.5,
		NMSThreshold:        0.5,
		FilterLabel:         NoLabelFilter,
		Text:                TextDetectionDefaultParams(),
	}
}

// NewParser returns the post processor for the given model family
func NewParser(kind ParserKind, p ParserParams) (Parser, error) {

	switch kind {
	case ParserSSD100, ParserSSD200:
		return NewSSD(SSDParams{
			ConfidenceThreshold: p.ConfidenceThreshold,
			FilterLabel:         p.FilterLabel,
		}), nil

	case ParserYOLO:
		anchors := p.Anchors

		if anchors == nil {
			anchors = YOLOv2DefaultAnchors()
		}

		return NewYOLOv2(YOLOv2Params{
			ConfidenceThreshold: p.ConfidenceThreshold,
			NMSThreshold:        p.NMSThreshold,
			Anchors:             anchors,
		}), nil

	case ParserS1:
		return NewS1(S1Params{
			ConfidenceThreshold: p.ConfidenceThreshold,
			NMSThreshold:        p.NMSThreshold,
		}), nil

	case ParserClassification:
		return NewClassification(), nil

	case ParserTextDetection:
		return NewTextDetection(p.Text), nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownParser, kind)
}
