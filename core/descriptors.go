package core

import "fmt"

// Descriptors is an ordered set of fixed-length local feature vectors, stored
// row-major in a single flat slice. Row i describes the i-th detected
// keypoint of an image.
//
// The zero value is an empty descriptor set with no dimension.
type Descriptors struct {
	Dim  int
	Data []float32
}

// NewDescriptors creates a descriptor set from a flat row-major slice.
func NewDescriptors(dim int, data []float32) (Descriptors, error) {
	d := Descriptors{Dim: dim, Data: data}
	if err := d.Validate(); err != nil {
		return Descriptors{}, err
	}
	return d, nil
}

// Validate checks dimensional consistency.
func (d Descriptors) Validate() error {
	if len(d.Data) == 0 {
		return nil
	}
	if d.Dim <= 0 {
		return fmt.Errorf("descriptors: invalid dimension %d", d.Dim)
	}
	if len(d.Data)%d.Dim != 0 {
		return fmt.Errorf("descriptors: data length %d is not a multiple of dimension %d", len(d.Data), d.Dim)
	}
	return nil
}

// Count returns the number of descriptor rows.
func (d Descriptors) Count() int {
	if d.Dim <= 0 {
		return 0
	}
	return len(d.Data) / d.Dim
}

// Empty reports whether the set contains no descriptors.
func (d Descriptors) Empty() bool { return d.Count() == 0 }

// At returns the i-th descriptor row. The returned slice aliases the
// underlying storage and must not be modified.
func (d Descriptors) At(i int) []float32 {
	return d.Data[i*d.Dim : (i+1)*d.Dim]
}

// Clone returns a deep copy.
func (d Descriptors) Clone() Descriptors {
	data := make([]float32, len(d.Data))
	copy(data, d.Data)
	return Descriptors{Dim: d.Dim, Data: data}
}
