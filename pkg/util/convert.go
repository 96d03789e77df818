package util

func Float32SliceToFloat64(f []float32) []float64 {
	ret := make([]float64, len(f))
	for i := 0; i < len(f); i++ {
		ret[i] = float64(f[i])
	}
	return ret
}
