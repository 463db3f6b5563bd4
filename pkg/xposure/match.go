package xposure

import (
	"log/slog"

	"gonum.org/v1/gonum/mat"
)

// Candidates scans every cell of the distance and temporal matrices and
// returns the index pairs satisfying the joint predicate: distance strictly
// under minimumDistance and track time strictly inside the exposure window.
// The scan is row-major (track index outer, site index inner), which fixes the
// deterministic order the reduction step's tie-break depends on.
func Candidates(d, pre, post *mat.Dense, minimumDistance float64) []Candidate {
	if d == nil {
		return nil
	}
	n, m := d.Dims()
	var pairs []Candidate
	for i := range n {
		for j := range m {
			if d.At(i, j) < minimumDistance && pre.At(i, j) < 0 && post.At(i, j) > 0 {
				pairs = append(pairs, Candidate{Track: i, Site: j})
			}
		}
	}
	return pairs
}

// Reduce keeps the first-encountered candidate per distinct site index and
// drops the rest. First-in-scan-order is an arbitrary but contractual
// tie-break: it is not the closest candidate nor the earliest by timestamp,
// and must not be "improved" without breaking output compatibility.
func Reduce(pairs []Candidate) []Candidate {
	seen := make(map[int]bool, len(pairs))
	var out []Candidate
	for _, p := range pairs {
		if seen[p.Site] {
			continue
		}
		seen[p.Site] = true
		out = append(out, p)
	}
	return out
}

// MatchDatasets runs the full matching engine over two prepared datasets and
// returns at most one Match per distinct exposure-site entry. It is a pure
// function of its inputs: identical datasets and threshold always produce the
// identical ordered result.
func MatchDatasets(tracks []TrackPoint, sites []ExposureSite, minimumDistance float64, logger *slog.Logger) []Match {
	for j, s := range sites {
		if s.ArrivalEpoch > s.DepartureEpoch {
			// Kept in the run so indices stay stable, but an inverted window
			// can never satisfy the temporal predicate.
			logger.Warn("exposure site has arrival after departure, it can never match",
				"site", s.Name, "index", j, "arrival", s.Arrival, "departure", s.Departure)
		}
	}

	d := DistanceMatrix(tracks, sites)
	pre, post := TemporalMatrices(tracks, sites)

	var matches []Match
	for _, p := range Reduce(Candidates(d, pre, post, minimumDistance)) {
		matches = append(matches, Match{Point: tracks[p.Track], Site: sites[p.Site]})
	}
	return matches
}
