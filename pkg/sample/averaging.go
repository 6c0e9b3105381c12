package sample

// NewAveragingConverter creates a converter that replaces RPM with the average
// of the last windowSize samples. Duty, target and timestamp come from the
// newest sample. One sample is emitted per input sample.
func NewAveragingConverter(windowSize int, bufSize int) func(in <-chan Sample) <-chan Sample {
	if windowSize <= 0 {
		windowSize = 1
	}
	if bufSize <= 0 {
		bufSize = 100
	}

	return func(in <-chan Sample) <-chan Sample {
		out := make(chan Sample, bufSize)

		go func() {
			defer close(out)

			buffer := make([]Sample, 0, windowSize)
			for s := range in {
				buffer = append(buffer, s)
				if len(buffer) > windowSize {
					buffer = buffer[1:] // Remove oldest
				}
				out <- averageSamples(buffer)
			}
		}()

		return out
	}
}

// averageSamples averages RPM and expected RPM over samples and keeps the
// newest sample's other fields.
func averageSamples(samples []Sample) Sample {
	if len(samples) == 0 {
		return Sample{}
	}

	var sumRPM, sumExpected float64
	for _, s := range samples {
		sumRPM += s.RPM
		sumExpected += s.Expected
	}

	n := float64(len(samples))
	avg := samples[len(samples)-1]
	avg.RPM = sumRPM / n
	avg.Expected = sumExpected / n
	return avg
}
