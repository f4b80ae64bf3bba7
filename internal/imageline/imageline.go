// Package imageline defines the scanner image line: three parallel byte
// channels of equal length, one per colour component.
package imageline

// Line is one horizontal scan of the external sensor: three parallel byte
// arrays of equal length P. A Line is only ever safe to read while it is
// not concurrently being written into by a producer — ownership rules
// live in package ldb.
type Line struct {
	R []byte
	G []byte
	B []byte
}

// New allocates a Line of the given pixel count with all channels zeroed.
func New(pixelCount int) Line {
	return Line{
		R: make([]byte, pixelCount),
		G: make([]byte, pixelCount),
		B: make([]byte, pixelCount),
	}
}

// Len reports the pixel count P of the line.
func (l Line) Len() int {
	return len(l.R)
}
