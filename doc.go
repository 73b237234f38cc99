/*
go-detparse converts the raw output tensors of object detection, text
detection and classification models into a unified result of bounding boxes,
integer labels and confidence scores.

The root package holds the Tensor input type along with helpers to load
tensors and label files.  The decoders for each model family (SSD, S1, YOLO,
PixelLink style text detection and classification) live in the postprocess
subpackage, overlay rendering in render, and model package configuration in
config.

All parsers are pure functions of their inputs.  They do not block, perform
I/O or keep state between calls so can be run concurrently on the outputs of
different frames.

See example code and usage in the example subdirectory.
*/
package detparse
