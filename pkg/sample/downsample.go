package sample

// Downsample decimates src to at most maxPoints values for display, always
// keeping the first and the newest value so a live trend ends at "now".
// dst is reused when it has enough capacity.
func Downsample[T any](dst, src []T, maxPoints int) []T {
	n := len(src)
	if maxPoints <= 0 || n <= maxPoints {
		dst = grow(dst, n)
		copy(dst, src)
		return dst
	}

	dst = grow(dst, maxPoints)
	if maxPoints == 1 {
		dst[0] = src[n-1]
		return dst
	}

	// Spread maxPoints indices evenly over [0, n-1]
	last := maxPoints - 1
	for i := range maxPoints {
		dst[i] = src[i*(n-1)/last]
	}
	return dst
}

// DownsampleSamples is Downsample for samples.
func DownsampleSamples(dst, samples []Sample, maxPoints int) []Sample {
	return Downsample(dst, samples, maxPoints)
}

func grow[T any](dst []T, n int) []T {
	if cap(dst) >= n {
		return dst[:n]
	}
	return make([]T, n)
}
