package srs

import "math"

// Histogram counts students per current-streak value.
type Histogram map[int]int

func BuildHistogram(streaks []int) Histogram {
	h := make(Histogram, len(streaks))
	for _, s := range streaks {
		h[s]++
	}
	return h
}

func (h Histogram) Total() int {
	n := 0
	for _, c := range h {
		n += c
	}
	return n
}

// Below counts students whose streak is strictly lower than s.
func (h Histogram) Below(s int) int {
	n := 0
	for v, c := range h {
		if v < s {
			n += c
		}
	}
	return n
}

// Percentile is the share of the population with a strictly lower streak,
// as a percentage rounded to the nearest integer.
func Percentile(h Histogram, own int) int {
	total := h.Total()
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(h.Below(own)) * 100 / float64(total)))
}
