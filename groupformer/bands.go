package groupformer

import (
	"math"
	"sort"
)

// GSBand is one overlapping gear-score coverage band (spec §4.G stage 1).
type GSBand struct {
	Min, Max int
}

// computeGSBands produces up to 5 overlapping bands covering [min, max]
// with per-band step tolerance*0.9, using a pool-size-dependent tolerance
// formula (spec §4.G stage 1).
func computeGSBands(gsValues []int) []GSBand {
	if len(gsValues) < 2 {
		return []GSBand{{Min: 0, Max: 10000}}
	}

	sorted := append([]int(nil), gsValues...)
	sort.Ints(sorted)
	minGS, maxGS := sorted[0], sorted[len(sorted)-1]
	if minGS == maxGS {
		return []GSBand{{Min: minGS, Max: maxGS}}
	}
	spread := float64(maxGS - minGS)
	n := len(sorted)

	var tolerance float64
	switch {
	case n < 10:
		tolerance = math.Max(spread*0.4, 200)
	case n < 30:
		tolerance = math.Max(spread*0.25, 150)
	default:
		tolerance = math.Min(stdev(sorted)*1.2, 200)
	}

	var bands []GSBand
	current := float64(minGS)
	for current < float64(maxGS) && len(bands) < 5 {
		rangeMax := math.Min(current+tolerance, float64(maxGS))
		bands = append(bands, GSBand{Min: int(current), Max: int(rangeMax)})
		current = rangeMax - tolerance*0.1
	}
	return bands
}

func stdev(values []int) float64 {
	if len(values) < 2 {
		return 100
	}
	var sum float64
	for _, v := range values {
		sum += float64(v)
	}
	mean := sum / float64(len(values))

	var sqDiff float64
	for _, v := range values {
		d := float64(v) - mean
		sqDiff += d * d
	}
	return math.Sqrt(sqDiff / float64(len(values)-1))
}

// bandIndex returns the index of the band gs falls into, or the nearest
// band when gs falls outside every band (spec's original
// _get_member_gs_range fallback behavior).
func bandIndex(gs int, bands []GSBand) int {
	for i, b := range bands {
		if gs >= b.Min && gs <= b.Max {
			return i
		}
	}
	for i, b := range bands {
		if gs < b.Min {
			return i
		}
	}
	if len(bands) > 0 {
		return len(bands) - 1
	}
	return 0
}
