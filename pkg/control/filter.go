package control

// FilterDepth is the number of RPM estimates averaged by Filter.
const FilterDepth = 4

// Filter is a moving average over the last FilterDepth RPM estimates.
// Until the history has wrapped once only the entries written so far are
// averaged, so the first estimate is reported as-is instead of being diluted by zeros.
// The zero value is ready to use.
type Filter struct {
	history [FilterDepth]uint32
	index   int
	full    bool
}

// Push stores rpm, overwriting the oldest entry, and returns the current average.
func (f *Filter) Push(rpm uint32) uint32 {
	f.history[f.index] = rpm
	f.index = (f.index + 1) % FilterDepth
	if f.index == 0 {
		f.full = true
	}

	n := f.index
	if f.full {
		n = FilterDepth
	}

	var sum uint64
	for i := range n {
		sum += uint64(f.history[i])
	}
	return uint32(sum / uint64(n))
}
