package pivot

import (
	"math"
	"sort"
)

const toleranceFactor = 0.005

// Levels are deduplicated price levels: supports ascending, resistances
// descending.
type Levels struct {
	Supports    []float64 `json:"supports"`
	Resistances []float64 `json:"resistances"`
}

// Detect finds local extrema of the series using a centered rolling window and
// collapses near-duplicates into merged levels. The window is forced odd with
// a minimum of 3 (even values are incremented); edge points use a shrunk
// window. A series shorter than the window yields empty level lists.
func Detect(series []float64, window int) Levels {
	if window%2 == 0 {
		window++
	}
	if window < 3 {
		window = 3
	}
	if len(series) == 0 || len(series) < window {
		return Levels{Supports: []float64{}, Resistances: []float64{}}
	}

	half := window / 2
	var rawSupports, rawResistances []float64
	for i, v := range series {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half
		if hi > len(series)-1 {
			hi = len(series) - 1
		}
		winMin, winMax := windowMinMax(series[lo : hi+1])
		if v == winMin {
			rawSupports = append(rawSupports, v)
		}
		if v == winMax {
			rawResistances = append(rawResistances, v)
		}
	}

	mean := seriesMean(series)
	return Levels{
		Supports:    mergeLevels(uniqueSorted(rawSupports, false), mean),
		Resistances: mergeLevels(uniqueSorted(rawResistances, true), mean),
	}
}

func windowMinMax(win []float64) (float64, float64) {
	lo, hi := win[0], win[0]
	for _, v := range win[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

func seriesMean(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range series {
		sum += v
	}
	return sum / float64(len(series))
}

func uniqueSorted(values []float64, descending bool) []float64 {
	seen := make(map[float64]struct{}, len(values))
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Float64s(out)
	if descending {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

// mergeLevels is a running left-to-right reduction, not a clustering pass:
// each candidate either opens a new level or is averaged into the last
// accepted one, with the tolerance taken from the last accepted level (series
// mean when that level is zero). Processing order matters and is preserved by
// the caller.
func mergeLevels(sortedVals []float64, mean float64) []float64 {
	if len(sortedVals) == 0 {
		return []float64{}
	}
	merged := []float64{sortedVals[0]}
	for _, v := range sortedVals[1:] {
		last := merged[len(merged)-1]
		ref := last
		if ref == 0 {
			ref = mean
		}
		threshold := ref * toleranceFactor
		if math.Abs(v-last) > threshold {
			merged = append(merged, v)
			continue
		}
		merged[len(merged)-1] = (last + v) / 2
	}
	return merged
}
