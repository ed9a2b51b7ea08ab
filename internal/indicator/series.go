package indicator

import "math"

// nanSeries returns a slice of n NaNs.
func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}

	return out
}

// firstValid returns the index of the first non-NaN value or -1.
func firstValid(x []float64) int {
	for i, v := range x {
		if !math.IsNaN(v) {
			return i
		}
	}

	return -1
}

// SMA over the last p points; returns a slice aligned to input length with NaNs for warmup.
// Any NaN inside the window makes the output NaN.
func SMA(x []float64, p int) []float64 {
	out := nanSeries(len(x))
	if p <= 0 {
		return out
	}

	var (
		sum   float64
		nanIn int
	)

	for i := range x {
		if math.IsNaN(x[i]) {
			nanIn++
		} else {
			sum += x[i]
		}

		if i >= p {
			if math.IsNaN(x[i-p]) {
				nanIn--
			} else {
				sum -= x[i-p]
			}
		}

		if i >= p-1 && nanIn == 0 {
			out[i] = sum / float64(p)
		}
	}

	return out
}

// EMA (standard smoothing 2/(p+1)), seeded with the SMA of the first p valid values.
// Leading NaNs of the input are skipped so EMA can be chained on another indicator.
func EMA(x []float64, p int) []float64 {
	return smoothed(x, p, 2.0/float64(p+1))
}

// Wilder applies Wilder's smoothing (alpha 1/p), seeded with the SMA of the first p valid values.
func Wilder(x []float64, p int) []float64 {
	return smoothed(x, p, 1.0/float64(p))
}

func smoothed(x []float64, p int, alpha float64) []float64 {
	out := nanSeries(len(x))
	if p <= 0 {
		return out
	}

	start := firstValid(x)
	if start < 0 || len(x)-start < p {
		return out
	}

	var seed float64
	for i := start; i < start+p; i++ {
		if math.IsNaN(x[i]) {
			return out
		}

		seed += x[i]
	}

	prev := seed / float64(p)
	out[start+p-1] = prev

	for i := start + p; i < len(x); i++ {
		if math.IsNaN(x[i]) {
			continue
		}

		prev = alpha*x[i] + (1-alpha)*prev
		out[i] = prev
	}

	return out
}

// RollingStd is the population standard deviation over window p; NaNs for warmup.
func RollingStd(x []float64, p int) []float64 {
	out := nanSeries(len(x))
	if p <= 0 {
		return out
	}

	for i := p - 1; i < len(x); i++ {
		window := x[i-p+1 : i+1]

		var mean float64
		for _, v := range window {
			mean += v
		}

		mean /= float64(p)

		var variance float64
		for _, v := range window {
			variance += (v - mean) * (v - mean)
		}

		out[i] = math.Sqrt(variance / float64(p))
	}

	return out
}

// RollingMax is the highest value over window p; NaNs for warmup.
func RollingMax(x []float64, p int) []float64 {
	return rollingExtreme(x, p, math.Max)
}

// RollingMin is the lowest value over window p; NaNs for warmup.
func RollingMin(x []float64, p int) []float64 {
	return rollingExtreme(x, p, math.Min)
}

func rollingExtreme(x []float64, p int, pick func(a, b float64) float64) []float64 {
	out := nanSeries(len(x))
	if p <= 0 {
		return out
	}

	for i := p - 1; i < len(x); i++ {
		value := x[i-p+1]
		for _, v := range x[i-p+2 : i+1] {
			value = pick(value, v)
		}

		out[i] = value
	}

	return out
}

// TrueRange returns max(high-low, |high-prevClose|, |low-prevClose|). The first bar has
// no previous close and uses high-low.
func TrueRange(high, low, close []float64) []float64 {
	out := make([]float64, len(close))
	for i := range close {
		tr := high[i] - low[i]
		if i > 0 {
			tr = math.Max(tr, math.Abs(high[i]-close[i-1]))
			tr = math.Max(tr, math.Abs(low[i]-close[i-1]))
		}

		out[i] = tr
	}

	return out
}
