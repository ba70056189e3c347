package pivot

// Highs возвращает индексы и цены pivot high: series[i] строго больше
// всех значений в [i-left, i) и (i, i+right]. Равенство не считается.
func Highs(series []float64, left, right int) map[int]float64 {
	return detect(series, left, right, func(a, b float64) bool { return a > b })
}

// Lows — симметрично, строго меньше с обеих сторон.
func Lows(series []float64, left, right int) map[int]float64 {
	return detect(series, left, right, func(a, b float64) bool { return a < b })
}

func detect(series []float64, left, right int, beats func(a, b float64) bool) map[int]float64 {
	out := make(map[int]float64)
	if left < 1 || right < 1 || len(series) < left+right+1 {
		return out
	}
	for i := left; i < len(series)-right; i++ {
		v := series[i]
		ok := true
		for j := i - left; j <= i+right; j++ {
			if j == i {
				continue
			}
			if !beats(v, series[j]) {
				ok = false
				break
			}
		}
		if ok {
			out[i] = v
		}
	}
	return out
}
