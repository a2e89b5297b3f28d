package spatial

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Circle returns a closed ring of segments points in the local XY plane.
func Circle(segments int, radius, thickness float32, color mgl32.Vec4) []LinePoint {
	points := make([]LinePoint, 0, segments)
	for i := 0; i < segments; i++ {
		angle := float64(i) / float64(segments) * 2 * math.Pi
		points = append(points, LinePoint{
			Point:     mgl32.Vec3{float32(math.Cos(angle)) * radius, float32(math.Sin(angle)) * radius, 0},
			Thickness: thickness,
			Color:     color,
		})
	}
	return points
}
