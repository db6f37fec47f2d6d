package dto

import (
	"encoding/json"
)

// Point is a single vertex of a token's bounding polygon.
type Point struct {
	X float64
	Y float64
}

// Box is the bounding polygon reported by an OCR engine for one token.
// Decoding is lenient: a box with any vertex that is not a numeric pair, or a
// box that is not a list at all, decodes to an empty box. The token is then
// positionless and a noisy OCR payload never fails a whole request.
type Box []Point

// UnmarshalJSON accepts [[x,y], ...]. Anything malformed leaves the box empty.
func (b *Box) UnmarshalJSON(data []byte) error {
	*b = nil

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	points := make(Box, 0, len(raw))
	for _, r := range raw {
		var coords []float64
		if err := json.Unmarshal(r, &coords); err != nil || len(coords) < 2 {
			return nil
		}
		points = append(points, Point{X: coords[0], Y: coords[1]})
	}
	if len(points) > 0 {
		*b = points
	}
	return nil
}

// MarshalJSON writes the box back in the [[x,y], ...] shape OCR engines emit.
func (b Box) MarshalJSON() ([]byte, error) {
	pairs := make([][2]float64, len(b))
	for i, p := range b {
		pairs[i] = [2]float64{p.X, p.Y}
	}
	return json.Marshal(pairs)
}

// MarshalYAML mirrors MarshalJSON for CLI output.
func (b Box) MarshalYAML() (interface{}, error) {
	pairs := make([][]float64, len(b))
	for i, p := range b {
		pairs[i] = []float64{p.X, p.Y}
	}
	return pairs, nil
}

// Token is one OCR-recognized text span. Tokens are read-only once produced.
type Token struct {
	Text string   `json:"text" yaml:"text"`
	Box  Box      `json:"box,omitempty" yaml:"box,omitempty"`
	Conf *float64 `json:"conf,omitempty" yaml:"conf,omitempty"`
}

// Centroid returns the mean of the box vertices. ok is false when the token
// carries no usable geometry.
func (t Token) Centroid() (p Point, ok bool) {
	if len(t.Box) == 0 {
		return Point{}, false
	}
	var sx, sy float64
	for _, v := range t.Box {
		sx += v.X
		sy += v.Y
	}
	n := float64(len(t.Box))
	return Point{X: sx / n, Y: sy / n}, true
}

// RectBox builds the four-corner polygon of an axis-aligned rectangle.
func RectBox(left, top, width, height float64) Box {
	return Box{
		{X: left, Y: top},
		{X: left + width, Y: top},
		{X: left + width, Y: top + height},
		{X: left, Y: top + height},
	}
}
