package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/swdee/go-detparse/postprocess"
)

const (
	// ConfigFile is the model package configuration file name
	ConfigFile = "config.json"
	// ManifestFile is the configuration file name of Custom Vision exports
	ManifestFile = "cvexport.manifest"
	// ModelDescription is the OpenVINO model description of Custom Vision
	// exports, searched to tell apart object detection architectures
	ModelDescription = "model.xml"

	// objectDetection is the generic domain type of Custom Vision object
	// detection exports
	objectDetection = "objectdetection"
	// ssdLiteKeyword identifies MobileNetV2 SSDLite exports which use the S1
	// parser, other object detection exports use YOLO
	ssdLiteKeyword = "mobilenetv2ssdlitev2_pytorch"
)

// ErrNoConfig is returned when a model directory has neither a config.json
// nor a cvexport.manifest
var ErrNoConfig = errors.New("no config.json or cvexport.manifest")

// Model holds the configuration of a deployed model package
type Model struct {
	// ModelFileName is the model file relative to the package directory
	ModelFileName string `json:"ModelFileName"`
	// DomainType is the parser name, one of ssd100, ssd200, yolo, s1,
	// classification, textdetection or objectdetection
	DomainType string `json:"DomainType"`
	// LabelFileName is the labels file relative to the package directory
	LabelFileName string `json:"LabelFileName"`
	// ConfidenceThreshold is the minimum score of a result
	ConfidenceThreshold float32 `json:"ConfidenceThreshold"`
	// NMSThreshold is the overlap threshold for YOLO and S1
	NMSThreshold float32 `json:"NMSThreshold"`
	// FilterLabel restricts SSD results to a single class, -1 for all
	FilterLabel int `json:"FilterLabel"`
	// Anchors override the default YOLO anchor boxes
	Anchors []float32 `json:"Anchors,omitempty"`
	// Text holds the text detection settings
	Text TextConfig `json:"Text"`

	// dir is the directory the configuration was loaded from
	dir string
}

// TextConfig holds the text detection settings
type TextConfig struct {
	PixelThreshold float32 `json:"PixelThreshold"`
	LinkThreshold  float32 `json:"LinkThreshold"`
	MinArea        float32 `json:"MinArea"`
	MinHeight      float32 `json:"MinHeight"`
	UnclipRatio    float32 `json:"UnclipRatio"`
}

// Default returns the configuration of the bundled SSD MobileNet v2 model
func Default() *Model {

	text := postprocess.TextDetectionDefaultParams()

	return &Model{
		ModelFileName:       "ssd-mobilenet-v2-fp32.blob",
		DomainType:          "ssd100",
		LabelFileName:       "labels.txt",
		ConfidenceThreshold: 0.5,
		NMSThreshold:        0.5,
		FilterLabel:         postprocess.NoLabelFilter,
		Text: TextConfig{
			PixelThreshold: text.PixelThreshold,
			LinkThreshold:  text.LinkThreshold,
			MinArea:        text.MinArea,
			MinHeight:      text.MinHeight,
			UnclipRatio:    text.UnclipRatio,
		},
	}
}

// LoadFromFile loads configuration from a JSON file.  Fields missing from the
// file keep their default values
func LoadFromFile(path string) (*Model, error) {

	data, err := os.ReadFile(path)

	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	m := Default()

	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("error parsing config file %s: %w", path, err)
	}

	m.dir = filepath.Dir(path)

	return m, nil
}

// LoadDir loads the configuration of the model package extracted to dir.
// A config.json takes precedence over a cvexport.manifest.  For manifests the
// generic objectdetection domain type is resolved to s1 or yolo by
// inspecting the model description
func LoadDir(dir string) (*Model, error) {

	cfgPath := filepath.Join(dir, ConfigFile)

	if _, err := os.Stat(cfgPath); err == nil {
		return LoadFromFile(cfgPath)
	}

	manifestPath := filepath.Join(dir, ManifestFile)

	if _, err := os.Stat(manifestPath); err != nil {
		return nil, fmt.Errorf("%w in %s", ErrNoConfig, dir)
	}

	m, err := LoadFromFile(manifestPath)

	if err != nil {
		return nil, err
	}

	if normalize(m.DomainType) == objectDetection {

		isSSDLite, err := fileContains(filepath.Join(dir, ModelDescription), ssdLiteKeyword)

		if err != nil {
			return nil, err
		}

		if isSSDLite {
			m.DomainType = postprocess.ParserS1.String()
		} else {
			m.DomainType = postprocess.ParserYOLO.String()
		}
	}

	return m, nil
}

// fileContains reports whether the file contains keyword.  A missing file
// does not contain it
func fileContains(path, keyword string) (bool, error) {

	data, err := os.ReadFile(path)

	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("error reading model description: %w", err)
	}

	return bytes.Contains(data, []byte(keyword)), nil
}

// normalize lower cases a domain type for comparison
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Validate checks the configuration values are in range
func (m *Model) Validate() error {

	if _, err := m.ParserKind(); err != nil {
		return err
	}

	if m.ConfidenceThreshold < 0 || m.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence threshold %v outside [0, 1]", m.ConfidenceThreshold)
	}

	if m.NMSThreshold <= 0 {
		return fmt.Errorf("NMS threshold %v must be above 0", m.NMSThreshold)
	}

	if m.Anchors != nil && len(m.Anchors) < 10 {
		return fmt.Errorf("need 10 anchor values, got %d", len(m.Anchors))
	}

	return nil
}

// ParserKind returns the parser selected by DomainType
func (m *Model) ParserKind() (postprocess.ParserKind, error) {
	return postprocess.ParseKind(m.DomainType)
}

// ParserParams returns the parser settings of the configuration
func (m *Model) ParserParams() postprocess.ParserParams {
	return postprocess.ParserParams{
		ConfidenceThreshold: m.ConfidenceThreshold,
		NMSThreshold:        m.NMSThreshold,
		FilterLabel:         m.FilterLabel,
		Anchors:             m.Anchors,
		Text: postprocess.TextDetectionParams{
			PixelThreshold: m.Text.PixelThreshold,
			LinkThreshold:  m.Text.LinkThreshold,
			MinArea:        m.Text.MinArea,
			MinHeight:      m.Text.MinHeight,
			UnclipRatio:    m.Text.UnclipRatio,
		},
	}
}

// NewParser returns the parser described by the configuration
func (m *Model) NewParser() (postprocess.Parser, error) {

	kind, err := m.ParserKind()

	if err != nil {
		return nil, err
	}

	return postprocess.NewParser(kind, m.ParserParams())
}

// ModelPath returns the path of the model file
func (m *Model) ModelPath() string {
	return filepath.Join(m.dir, m.ModelFileName)
}

// LabelPath returns the path of the labels file
func (m *Model) LabelPath() string {
	return filepath.Join(m.dir, m.LabelFileName)
}
