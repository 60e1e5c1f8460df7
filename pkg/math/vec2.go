package math

// Vec2 is a 2D vector, used for texture coordinates.
type Vec2 struct {
	X, Y float32
}

// Vec2sFromFloats unpacks a flat uv array.
func Vec2sFromFloats(f []float32) []Vec2 {
	out := make([]Vec2, len(f)/2)
	for i := range out {
		out[i] = Vec2{f[i*2], f[i*2+1]}
	}
	return out
}

// FloatsFromVec2s packs vectors into a flat uv array.
func FloatsFromVec2s(v []Vec2) []float32 {
	out := make([]float32, len(v)*2)
	for i, p := range v {
		out[i*2] = p.X
		out[i*2+1] = p.Y
	}
	return out
}
