// Package detect holds object-detection results for the bound media and the
// external service that produces them.
package detect

// Capacity is the most boxes a Set carries.
const Capacity = 1024

// Detection is one raw result from a service, in source pixels.
type Detection struct {
	// BBox is x, y, width, height.
	BBox  [4]float64 `json:"bbox"`
	Class string     `json:"class"`
	Score float64    `json:"score"`
}

// Box is a bounding box normalized to the source size.
type Box struct {
	X, Y, W, H float64
}

// Set is an ordered, bounded collection of boxes.
type Set struct {
	boxes   []Box
	dropped int
}

// NewSet clamps every box into the unit square and keeps at most Capacity.
func NewSet(boxes []Box) Set {
	n := min(len(boxes), Capacity)
	s := Set{boxes: make([]Box, n), dropped: len(boxes) - n}
	for i, b := range boxes[:n] {
		s.boxes[i] = b.clamp()
	}
	return s
}

// Normalize converts raw detections on a w×h source into a Set.
// Detections scoring below minScore are skipped.
func Normalize(raw []Detection, w, h int, minScore float64) Set {
	if w <= 0 || h <= 0 {
		return Set{}
	}
	fw, fh := float64(w), float64(h)
	boxes := make([]Box, 0, len(raw))
	for _, d := range raw {
		if d.Score < minScore {
			continue
		}
		boxes = append(boxes, Box{
			X: d.BBox[0] / fw,
			Y: d.BBox[1] / fh,
			W: d.BBox[2] / fw,
			H: d.BBox[3] / fh,
		})
	}
	return NewSet(boxes)
}

// Len is the number of boxes held.
func (s Set) Len() int { return len(s.boxes) }

// Dropped is how many boxes exceeded Capacity.
func (s Set) Dropped() int { return s.dropped }

// Boxes returns a copy of the boxes.
func (s Set) Boxes() []Box {
	out := make([]Box, len(s.boxes))
	copy(out, s.boxes)
	return out
}

// Texture packs the set as Capacity RGBA texels (x, y, w, h), zero padded,
// for upload as a Capacity×1 float texture.
func (s Set) Texture() []float32 {
	tex := make([]float32, Capacity*4)
	for i, b := range s.boxes {
		tex[i*4] = float32(b.X)
		tex[i*4+1] = float32(b.Y)
		tex[i*4+2] = float32(b.W)
		tex[i*4+3] = float32(b.H)
	}
	return tex
}

// TextureRGBA8 quantizes Texture to bytes for backends without float
// textures.
func (s Set) TextureRGBA8() []byte {
	tex := make([]byte, Capacity*4)
	for i, v := range s.Texture() {
		tex[i] = uint8(v*255 + 0.5)
	}
	return tex
}

func (b Box) clamp() Box {
	b.X = clamp01(b.X)
	b.Y = clamp01(b.Y)
	b.W = min(clamp01(b.W), 1-b.X)
	b.H = min(clamp01(b.H), 1-b.Y)
	return b
}

func clamp01(v float64) float64 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
