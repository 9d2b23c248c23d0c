package similarity

import "math"

// Bin is one fixed-width histogram bucket over [Lower, Upper).
// The last bin also includes 1.0.
type Bin struct {
	Lower float64
	Upper float64
	Count int
}

// Histogram is an ordered sequence of equal-width bins spanning [-1, 1].
type Histogram struct {
	Bins []Bin
}

// Total returns the sum of all bin counts.
func (h Histogram) Total() int {
	total := 0
	for _, bin := range h.Bins {
		total += bin.Count
	}
	return total
}

func newHistogram(binCount int) Histogram {
	width := 2.0 / float64(binCount)
	bins := make([]Bin, binCount)
	for binIndex := range bins {
		bins[binIndex] = Bin{
			Lower: -1 + float64(binIndex)*width,
			Upper: -1 + float64(binIndex+1)*width,
		}
	}
	return Histogram{Bins: bins}
}

func (h Histogram) add(similarity float64) {
	h.Bins[binIndex(similarity, len(h.Bins))].Count++
}

// binIndex maps a similarity to clamp(floor((s+1)/2 * binCount), 0, binCount-1).
func binIndex(similarity float64, binCount int) int {
	index := int(math.Floor((similarity + 1) / 2 * float64(binCount)))
	if index < 0 {
		return 0
	}
	if index >= binCount {
		return binCount - 1
	}
	return index
}
