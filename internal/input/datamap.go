package input

import "github.com/go-gl/mathgl/mgl32"

// Datamap field names.
const (
	FieldGrab         = "grab"
	FieldGrabStrength = "grab_strength"
	FieldScroll       = "scroll"
)

// Datamap holds named auxiliary fields. Values are float32 scalars or
// mgl32.Vec2 vectors; missing or mistyped fields read as zero.
type Datamap map[string]any

// Float reads a scalar field.
func (m Datamap) Float(key string) float32 {
	switch v := m[key].(type) {
	case float32:
		return v
	case float64:
		return float32(v)
	case int:
		return float32(v)
	}
	return 0
}

// Vector reads a two-component vector field.
func (m Datamap) Vector(key string) mgl32.Vec2 {
	switch v := m[key].(type) {
	case mgl32.Vec2:
		return v
	case [2]float32:
		return mgl32.Vec2(v)
	case []float32:
		if len(v) >= 2 {
			return mgl32.Vec2{v[0], v[1]}
		}
	case []float64:
		if len(v) >= 2 {
			return mgl32.Vec2{float32(v[0]), float32(v[1])}
		}
	}
	return mgl32.Vec2{}
}
