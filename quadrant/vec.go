package quadrant

import "math"

// Vec3 is a world-space position.
type Vec3 struct {
	X, Y, Z float64
}

func V3Add(a, b Vec3) Vec3 {
	return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z}
}

func V3Sub(a, b Vec3) Vec3 {
	return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z}
}

func V3DistSq(a, b Vec3) float64 {
	d := V3Sub(a, b)
	return d.X*d.X + d.Y*d.Y + d.Z*d.Z
}

func V3Dist(a, b Vec3) float64 {
	return math.Sqrt(V3DistSq(a, b))
}

// finite reports whether no component is NaN or infinite.
func (v Vec3) finite() bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
