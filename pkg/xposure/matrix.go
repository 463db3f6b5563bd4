package xposure

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
)

// DistanceMatrix computes the n×m Euclidean distance matrix between the track
// points and the exposure sites using the expanded identity
// |a-b|² = |a|² + |b|² - 2a·b, so the pairwise cross terms come from a single
// matrix multiplication instead of a nested per-pair loop. Distances are in
// meters, rounded to 2 decimal places. Returns nil when either input is empty.
func DistanceMatrix(tracks []TrackPoint, sites []ExposureSite) *mat.Dense {
	n, m := len(tracks), len(sites)
	if n == 0 || m == 0 {
		return nil
	}

	a := mat.NewDense(n, 2, nil)
	for i, p := range tracks {
		a.Set(i, 0, p.X)
		a.Set(i, 1, p.Y)
	}
	b := mat.NewDense(m, 2, nil)
	for j, s := range sites {
		b.Set(j, 0, s.X)
		b.Set(j, 1, s.Y)
	}

	var cross mat.Dense
	cross.Mul(a, b.T())

	trackNorm := make([]float64, n)
	for i, p := range tracks {
		trackNorm[i] = p.X*p.X + p.Y*p.Y
	}
	siteNorm := make([]float64, m)
	for j, s := range sites {
		siteNorm[j] = s.X*s.X + s.Y*s.Y
	}

	d := mat.NewDense(n, m, nil)
	for i := range n {
		for j := range m {
			sq := trackNorm[i] + siteNorm[j] - 2*cross.At(i, j)
			// Cancellation can leave a tiny negative residue when a point
			// coincides with a site; clamp before the root.
			if sq < 0 {
				sq = 0
			}
			d.Set(i, j, scalar.Round(math.Sqrt(sq), 2))
		}
	}
	return d
}

// TemporalMatrices computes the n×m arrival and departure offset matrices:
// pre[i][j] = arrival[j] - t[i] and post[i][j] = departure[j] - t[i], both in
// seconds. Track point i is inside window j iff pre < 0 and post > 0; points
// exactly at an arrival or departure instant do not count as inside.
func TemporalMatrices(tracks []TrackPoint, sites []ExposureSite) (pre, post *mat.Dense) {
	n, m := len(tracks), len(sites)
	if n == 0 || m == 0 {
		return nil, nil
	}
	pre = mat.NewDense(n, m, nil)
	post = mat.NewDense(n, m, nil)
	for i, p := range tracks {
		for j, s := range sites {
			pre.Set(i, j, s.ArrivalEpoch-p.Epoch)
			post.Set(i, j, s.DepartureEpoch-p.Epoch)
		}
	}
	return pre, post
}
