package detparse

import "github.com/x448/float16"

var f16LookupTable [65536]float32

func init() {
	// precompute float16 lookup table for faster conversion to float32
	for i := range f16LookupTable {
		f16 := float16.Frombits(uint16(i))
		f16LookupTable[i] = f16.Float32()
	}
}

// NewTensorFromFloat16 converts a buffer of IEEE 754 half precision values
// into a float32 Tensor with the given shape.  Models compiled for fp16
// output hand their results over in this form
func NewTensorFromFloat16(bits []uint16, shape ...int) (*Tensor, error) {

	data := make([]float32, len(bits))

	for i, b := range bits {
		data[i] = f16LookupTable[b]
	}

	return NewTensor(data, shape...)
}
