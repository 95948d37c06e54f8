package drawing

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sync"
)

// Brush limits.
const (
	MinBrushWidth = 1.0
	MaxBrushWidth = 50.0
)

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// Brush holds the stroke settings read at the moment each segment is drawn.
type Brush struct {
	Color string  `yaml:"color" json:"color"` // hex, e.g. "#000000"
	Width float64 `yaml:"width" json:"width"` // pixels
}

// DefaultBrush returns a 5px black brush.
func DefaultBrush() Brush {
	return Brush{Color: "#000000", Width: 5}
}

// Validate checks if the brush values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (b *Brush) Validate() []string {
	var errors []string
	if !hexColor.MatchString(b.Color) {
		errors = append(errors, "color must be a hex string like #rrggbb")
	}
	if b.Width < MinBrushWidth || b.Width > MaxBrushWidth {
		errors = append(errors, fmt.Sprintf("width must be between %.0f and %.0f", MinBrushWidth, MaxBrushWidth))
	}
	return errors
}

// BrushSource supplies the current brush on demand.
type BrushSource interface {
	Brush() Brush
}

// StaticBrush is a BrushSource that never changes.
type StaticBrush Brush

// Brush returns b.
func (b StaticBrush) Brush() Brush { return Brush(b) }

// BrushStore holds the current brush and handles updates from controls.
type BrushStore struct {
	brush Brush
	mu    sync.RWMutex

	// Callback when the brush changes
	OnChange func(b Brush)
}

// NewBrushStore creates a store holding initial.
func NewBrushStore(initial Brush) *BrushStore {
	return &BrushStore{brush: initial}
}

// Brush returns the current brush.
func (s *BrushStore) Brush() Brush {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.brush
}

// Set replaces the brush after validation.
func (s *BrushStore) Set(b Brush) error {
	s.mu.Lock()
	callback, err := s.storeLocked(b)
	s.mu.Unlock()
	return s.notify(callback, b, err)
}

// Update applies a partial change. Accepts "color", "width" and "preset"
// (a palette color name) keys. The read, merge and write happen under one
// lock so concurrent partial updates do not overwrite each other.
func (s *BrushStore) Update(params map[string]interface{}) error {
	s.mu.Lock()
	b := s.brush

	if name, ok := params["preset"].(string); ok {
		c, ok := LookupColor(name)
		if !ok {
			s.mu.Unlock()
			return fmt.Errorf("unknown color preset: %s", name)
		}
		b.Color = c
	}
	for key, value := range params {
		switch key {
		case "color":
			if v, ok := value.(string); ok {
				b.Color = v
			}
		case "width":
			if v, ok := toFloat(value); ok {
				b.Width = v
			}
		}
	}
	callback, err := s.storeLocked(b)
	s.mu.Unlock()
	return s.notify(callback, b, err)
}

// storeLocked validates and stores b. Caller holds s.mu.
func (s *BrushStore) storeLocked(b Brush) (func(Brush), error) {
	if errors := b.Validate(); len(errors) > 0 {
		return nil, fmt.Errorf("validation failed: %v", errors)
	}
	s.brush = b
	return s.OnChange, nil
}

func (s *BrushStore) notify(callback func(Brush), b Brush, err error) error {
	if err != nil {
		return err
	}
	if callback != nil {
		callback(b)
	}
	return nil
}

func toFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		if err == nil {
			return f, true
		}
	}
	return 0, false
}
