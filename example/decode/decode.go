package main

import (
	"flag"
	"fmt"
	"image"
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/swdee/go-detparse"
	"github.com/swdee/go-detparse/config"
	"github.com/swdee/go-detparse/postprocess/report"
	"github.com/swdee/go-detparse/render"
	"gocv.io/x/gocv"
)

func main() {

	// read in cli flags
	parserName := flag.String("p", "", "Parser to decode outputs with: ssd100, ssd200, yolo, s1, classification, textdetection")
	modelDir := flag.String("d", "", "Model package directory holding a config.json or cvexport.manifest")
	labelFile := flag.String("l", "", "Labels file, one class name per line")
	tensorFiles := flag.String("t", "", "Comma separated output tensor files (.npy, .f32, .f16)")
	shapes := flag.String("s", "", "Comma separated shapes of raw tensor files, eg: 1x13x13x30")
	width := flag.Int("w", 0, "Width of the image results are scaled to")
	height := flag.Int("h", 0, "Height of the image results are scaled to")
	conf := flag.Float64("conf", -1, "Confidence threshold, overrides the model configuration")
	nms := flag.Float64("nms", -1, "NMS threshold, overrides the model configuration")
	imgFile := flag.String("i", "", "Optional image file to render results on")
	outFile := flag.String("o", "out.jpg", "Output file of the rendered image")
	verbose := flag.Bool("v", false, "Enable debug logging")

	flag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	cfg, err := loadConfig(*modelDir, *parserName)

	if err != nil {
		log.WithError(err).Fatal("Error loading model configuration")
	}

	if *conf >= 0 {
		cfg.ConfidenceThreshold = float32(*conf)
	}

	if *nms >= 0 {
		cfg.NMSThreshold = float32(*nms)
	}

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("Invalid model configuration")
	}

	parser, err := cfg.NewParser()

	if err != nil {
		log.WithError(err).Fatal("Error creating parser")
	}

	labels, err := loadLabels(cfg, *modelDir, *labelFile)

	if err != nil {
		log.WithError(err).Fatal("Error loading labels")
	}

	outputs, err := loadTensors(*tensorFiles, *shapes)

	if err != nil {
		log.WithError(err).Fatal("Error loading output tensors")
	}

	// load optional image, its size is used when no size is given
	var img gocv.Mat

	if *imgFile != "" {
		img = gocv.IMRead(*imgFile, gocv.IMReadColor)

		if img.Empty() {
			log.Fatal("Error reading image from: ", *imgFile)
		}

		defer img.Close()

		if *width == 0 && *height == 0 {
			*width = img.Cols()
			*height = img.Rows()
		}
	}

	size := image.Pt(*width, *height)

	log.WithFields(log.Fields{
		"parser":  cfg.DomainType,
		"outputs": len(outputs),
		"size":    size,
	}).Debug("Decoding outputs")

	start := time.Now()

	set, err := parser.Parse(outputs, size)

	if err != nil {
		log.WithError(err).Fatal("Error decoding outputs")
	}

	log.WithFields(log.Fields{
		"parser":     cfg.DomainType,
		"detections": set.Len(),
		"duration":   time.Since(start),
	}).Info("Decoded outputs")

	rpt := report.Build(set, labels, size, time.Now().UnixNano())

	data, err := rpt.JSON()

	if err != nil {
		log.WithError(err).Fatal("Error encoding report")
	}

	fmt.Println(string(data))

	if *imgFile == "" {
		return
	}

	if set.HasBoxes() {
		render.DetectionBoxes(&img, set, labels, render.DefaultFont(), 2)
	} else {
		render.Classification(&img, set, labels, render.DefaultFont())
	}

	if ok := gocv.IMWrite(*outFile, img); !ok {
		log.Error("Failed to save the image")
		return
	}

	log.WithField("file", *outFile).Info("Saved rendered image")
}

// loadConfig returns the model package configuration of dir, or the default
// configuration when no directory is given.  A parser name given on the
// command line overrides the configured one
func loadConfig(dir, parserName string) (*config.Model, error) {

	cfg := config.Default()

	if dir != "" {
		var err error
		cfg, err = config.LoadDir(dir)

		if err != nil {
			return nil, err
		}
	}

	if parserName != "" {
		cfg.DomainType = parserName
	}

	return cfg, nil
}

// loadLabels loads the labels file named on the command line, or the one of
// the model package.  Without either, class indexes are reported as labels
func loadLabels(cfg *config.Model, dir, file string) (detparse.Labels, error) {

	if file == "" && dir != "" {
		file = cfg.LabelPath()

		if _, err := os.Stat(file); err != nil {
			log.WithField("file", file).Warn("Model package has no labels file")
			return nil, nil
		}
	}

	if file == "" {
		return nil, nil
	}

	return detparse.LoadLabels(file)
}

// loadTensors loads each of the comma separated tensor files.  Raw files take
// their shape from the matching entry of shapes
func loadTensors(files, shapes string) ([]*detparse.Tensor, error) {

	if files == "" {
		return nil, fmt.Errorf("no tensor files given")
	}

	names := strings.Split(files, ",")

	var dims []string

	if shapes != "" {
		dims = strings.Split(shapes, ",")
	}

	outputs := make([]*detparse.Tensor, 0, len(names))

	for i, name := range names {

		var shape []int

		if i < len(dims) {
			var err error
			shape, err = parseShape(dims[i])

			if err != nil {
				return nil, err
			}
		}

		t, err := detparse.LoadTensor(strings.TrimSpace(name), shape...)

		if err != nil {
			return nil, err
		}

		log.WithFields(log.Fields{
			"file":  name,
			"shape": t.ShapeString(),
		}).Debug("Loaded tensor")

		outputs = append(outputs, t)
	}

	return outputs, nil
}

// parseShape parses a shape such as 1x13x13x30
func parseShape(s string) ([]int, error) {

	parts := strings.Split(strings.TrimSpace(s), "x")
	shape := make([]int, 0, len(parts))

	for _, p := range parts {

		d, err := strconv.Atoi(p)

		if err != nil {
			return nil, fmt.Errorf("invalid shape %q: %w", s, err)
		}

		shape = append(shape, d)
	}

	return shape, nil
}
