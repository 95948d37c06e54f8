package protocol

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
)

// Encoding selects how outbound camera frames are put on the wire.
type Encoding string

const (
	// EncodingRGBA sends the capture surface as an opaque binary message of
	// width*height*4 bytes. This is the canonical encoding.
	EncodingRGBA Encoding = "rgba"

	// EncodingJSONJPEG sends {"frame": "<base64 jpeg>"} as a text message.
	// Kept for backends that only accept structured text.
	EncodingJSONJPEG Encoding = "json-jpeg"
)

// Valid reports whether e is a known encoding.
func (e Encoding) Valid() bool {
	return e == EncodingRGBA || e == EncodingJSONJPEG
}

// Binary reports whether frames in this encoding travel as binary messages.
func (e Encoding) Binary() bool {
	return e == EncodingRGBA
}

// FrameSize returns the raw RGBA byte length for the given dimensions.
func FrameSize(width, height int) int {
	return width * height * 4
}

// EncodeRGBA returns the raw pixel buffer of img. The returned slice is a copy
// so the caller may reuse img for the next capture.
func EncodeRGBA(img *image.RGBA) []byte {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]byte, FrameSize(w, h))
	if img.Stride == w*4 {
		copy(out, img.Pix[:len(out)])
		return out
	}
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		copy(out[y*w*4:], row)
	}
	return out
}

// DecodeRGBA wraps a raw pixel buffer as an image of the given size.
func DecodeRGBA(buf []byte, width, height int) (*image.RGBA, error) {
	if want := FrameSize(width, height); len(buf) != want {
		return nil, fmt.Errorf("%w: got %d bytes, want %d (%dx%d)", ErrFrameSize, len(buf), want, width, height)
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	copy(img.Pix, buf)
	return img, nil
}

// JSONFrame is the structured outbound frame.
type JSONFrame struct {
	Frame string `json:"frame"`
}

// EncodeJSONFrame wraps an encoded image blob as {"frame": base64}.
func EncodeJSONFrame(blob []byte) ([]byte, error) {
	return json.Marshal(JSONFrame{Frame: base64.StdEncoding.EncodeToString(blob)})
}

// DecodeJSONFrame extracts the encoded image blob from a structured frame.
func DecodeJSONFrame(data []byte) ([]byte, error) {
	var f JSONFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if f.Frame == "" {
		return nil, fmt.Errorf("%w: missing frame", ErrMalformed)
	}
	blob, err := base64.StdEncoding.DecodeString(f.Frame)
	if err != nil {
		return nil, fmt.Errorf("%w: frame base64: %v", ErrMalformed, err)
	}
	return blob, nil
}
