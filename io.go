package detparse

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gorgonia.org/tensor"
)

// LoadTensor reads a model output tensor from file.  The format is picked
// from the file extension:
//
//   - .npy  numpy array of float32 or float64, shape read from the header
//   - .f32  raw little endian float32 values, shape must be given
//   - .f16  raw little endian IEEE 754 half precision values, shape must be
//     given
func LoadTensor(file string, shape ...int) (*Tensor, error) {

	f, err := os.Open(file)

	if err != nil {
		return nil, fmt.Errorf("error opening tensor file: %w", err)
	}

	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(file)); ext {
	case ".npy":
		return ReadNpy(f)

	case ".f32", ".bin":
		return ReadFloat32(f, shape...)

	case ".f16":
		return ReadFloat16(f, shape...)

	default:
		return nil, fmt.Errorf("unsupported tensor file extension %q", ext)
	}
}

// ReadNpy decodes a numpy .npy stream into a Tensor
func ReadNpy(r io.Reader) (*Tensor, error) {

	dense := new(tensor.Dense)

	if err := dense.ReadNpy(r); err != nil {
		return nil, fmt.Errorf("error reading npy data: %w", err)
	}

	shape := []int(dense.Shape().Clone())

	switch dense.Dtype() {
	case tensor.Float32:
		data, ok := dense.Data().([]float32)

		if !ok {
			// scalar arrays hold a single value
			data = []float32{dense.Data().(float32)}
		}

		return NewTensor(append([]float32(nil), data...), shape...)

	case tensor.Float64:
		src, ok := dense.Data().([]float64)

		if !ok {
			src = []float64{dense.Data().(float64)}
		}

		data := make([]float32, len(src))

		for i, v := range src {
			data[i] = float32(v)
		}

		return NewTensor(data, shape...)

	default:
		return nil, fmt.Errorf("unsupported npy dtype %v", dense.Dtype())
	}
}

// ReadFloat32 reads raw little endian float32 values into a Tensor of the
// given shape
func ReadFloat32(r io.Reader, shape ...int) (*Tensor, error) {

	if len(shape) == 0 {
		return nil, fmt.Errorf("%w: raw tensor data needs a shape", ErrShape)
	}

	if err := checkDims(shape, 0); err != nil {
		return nil, err
	}

	t := &Tensor{Shape: shape}
	data := make([]float32, t.Elems())

	if err := binary.Read(r, binary.LittleEndian, data); err != nil {
		return nil, fmt.Errorf("error reading float32 data: %w", err)
	}

	return NewTensor(data, shape...)
}

// ReadFloat16 reads raw little endian half precision values into a Tensor of
// the given shape
func ReadFloat16(r io.Reader, shape ...int) (*Tensor, error) {

	if len(shape) == 0 {
		return nil, fmt.Errorf("%w: raw tensor data needs a shape", ErrShape)
	}

	if err := checkDims(shape, 0); err != nil {
		return nil, err
	}

	t := &Tensor{Shape: shape}
	bits := make([]uint16, t.Elems())

	if err := binary.Read(r, binary.LittleEndian, bits); err != nil {
		return nil, fmt.Errorf("error reading float16 data: %w", err)
	}

	return NewTensorFromFloat16(bits, shape...)
}
