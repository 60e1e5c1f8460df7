package math

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// Rigid fit errors.
var (
	ErrTooFewCorrespondences = errors.New("rigid fit needs at least 4 correspondences")
	ErrCorrespondenceLength  = errors.New("rigid fit point sets differ in length")
	ErrRigidFitDegenerate    = errors.New("rigid fit did not converge")
)

// MinRigidCorrespondences is the fewest point pairs FitRigid accepts.
const MinRigidCorrespondences = 4

// FitRigid returns the rotation+translation matrix M minimising
// sum |M*src[i] - dst[i]|^2 (Kabsch). Reflections are never returned.
func FitRigid(src, dst []Vec3) (Mat4, error) {
	if len(src) != len(dst) {
		return Identity(), ErrCorrespondenceLength
	}
	n := len(src)
	if n < MinRigidCorrespondences {
		return Identity(), ErrTooFewCorrespondences
	}

	var cs, cd [3]float64
	for i := 0; i < n; i++ {
		cs[0] += float64(src[i].X)
		cs[1] += float64(src[i].Y)
		cs[2] += float64(src[i].Z)
		cd[0] += float64(dst[i].X)
		cd[1] += float64(dst[i].Y)
		cd[2] += float64(dst[i].Z)
	}
	for k := 0; k < 3; k++ {
		cs[k] /= float64(n)
		cd[k] /= float64(n)
	}

	// Cross-covariance H = sum (s - cs)(d - cd)^T, row-major.
	h := make([]float64, 9)
	for i := 0; i < n; i++ {
		s := [3]float64{float64(src[i].X) - cs[0], float64(src[i].Y) - cs[1], float64(src[i].Z) - cs[2]}
		d := [3]float64{float64(dst[i].X) - cd[0], float64(dst[i].Y) - cd[1], float64(dst[i].Z) - cd[2]}
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				h[r*3+c] += s[r] * d[c]
			}
		}
	}

	var svd mat.SVD
	if !svd.Factorize(mat.NewDense(3, 3, h), mat.SVDFull) {
		return Identity(), ErrRigidFitDegenerate
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	sign := 1.0
	if mat.Det(&u)*mat.Det(&v) < 0 {
		sign = -1
	}

	// R = V * diag(1, 1, sign) * U^T
	var vd, r mat.Dense
	vd.Mul(&v, mat.NewDiagDense(3, []float64{1, 1, sign}))
	r.Mul(&vd, u.T())

	var t [3]float64
	for row := 0; row < 3; row++ {
		t[row] = cd[row] - (r.At(row, 0)*cs[0] + r.At(row, 1)*cs[1] + r.At(row, 2)*cs[2])
	}

	m := Identity()
	for col := 0; col < 3; col++ {
		for row := 0; row < 3; row++ {
			m[col*4+row] = float32(r.At(row, col))
		}
	}
	m[12] = float32(t[0])
	m[13] = float32(t[1])
	m[14] = float32(t[2])
	return m, nil
}
