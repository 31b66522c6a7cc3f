package stats

import (
	"errors"
	"math"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// ErrNoEigenvalues is returned when a companion matrix has non-finite
// entries or its eigen decomposition does not converge.
var ErrNoEigenvalues = errors.New("stats: eigenvalues unavailable")

// LagPolyRoots returns the roots of 1 - c_1 z - ... - c_k z^k, sorted by
// modulus. For an AR polynomial pass the AR coefficients; for an MA
// polynomial 1 + t_1 z + ... pass the negated MA coefficients.
//
// The roots are the reciprocals of the eigenvalues of the companion matrix
// of c. Zero eigenvalues, which arise from trailing zero coefficients, have no
// finite root and are skipped.
func LagPolyRoots(c []float64) ([]complex128, error) {
	k := len(c)
	for k > 0 && c[k-1] == 0 {
		k--
	}
	if k == 0 {
		return nil, nil
	}

	eig, err := CompanionEigenvalues(c[:k])
	if err != nil {
		return nil, err
	}
	roots := make([]complex128, 0, len(eig))
	for _, l := range eig {
		if cmplx.Abs(l) == 0 {
			continue
		}
		roots = append(roots, 1/l)
	}
	sort.Slice(roots, func(i, j int) bool {
		return cmplx.Abs(roots[i]) < cmplx.Abs(roots[j])
	})
	return roots, nil
}

// CompanionEigenvalues returns the eigenvalues of the companion matrix whose
// first row is c and whose subdiagonal is the identity.
func CompanionEigenvalues(c []float64) ([]complex128, error) {
	k := len(c)
	if k == 0 {
		return nil, nil
	}
	for _, v := range c {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, ErrNoEigenvalues
		}
	}
	if k == 1 {
		return []complex128{complex(c[0], 0)}, nil
	}

	a := mat.NewDense(k, k, nil)
	for j := 0; j < k; j++ {
		a.Set(0, j, c[j])
	}
	for i := 1; i < k; i++ {
		a.Set(i, i-1, 1)
	}

	return Eigenvalues(a)
}

// Eigenvalues returns the eigenvalues of a square matrix. Non-finite entries
// and a failed factorization give ErrNoEigenvalues.
func Eigenvalues(a mat.Matrix) ([]complex128, error) {
	r, c := a.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := a.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, ErrNoEigenvalues
			}
		}
	}
	var eig mat.Eigen
	if !eig.Factorize(a, mat.EigenNone) {
		return nil, ErrNoEigenvalues
	}
	return eig.Values(nil), nil
}

// OutsideUnitCircle reports whether every root has modulus greater than one.
// An empty root set is trivially outside.
func OutsideUnitCircle(roots []complex128) bool {
	for _, r := range roots {
		if cmplx.Abs(r) <= 1 {
			return false
		}
	}
	return true
}

// MinModulus returns the smallest modulus among roots, or +Inf when empty.
func MinModulus(roots []complex128) float64 {
	m := math.Inf(1)
	for _, r := range roots {
		m = math.Min(m, cmplx.Abs(r))
	}
	return m
}
