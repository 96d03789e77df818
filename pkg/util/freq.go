package util

import "math"

// FrequencyRange returns the lowest and highest of freqs.  Zero means unknown
// and is skipped; ok is false when no frequency is known.
func FrequencyRange(freqs ...int) (low, high int, ok bool) {
	low = math.MaxInt
	high = math.MinInt

	for _, freq := range freqs {
		if freq == 0 {
			continue
		}
		ok = true
		if freq < low {
			low = freq
		}
		if freq > high {
			high = freq
		}
	}

	if !ok {
		return 0, 0, false
	}
	return
}
