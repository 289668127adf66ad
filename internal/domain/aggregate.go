package domain

// WindowStats holds rolling statistics over one mine's readings inside a
// look-back window. Count distinguishes an empty window from a quiet one:
// when Count is zero the other fields are zero, never NaN or -Inf.
type WindowStats struct {
	Count           int
	MeanRainfall    float64
	MaxDisplacement float64
}

// AggregateReadings computes window statistics over the given readings.
// The caller is responsible for having selected the window (timestamp
// strictly newer than now−window, newest first, capped).
func AggregateReadings(readings []EnvironmentalReading) WindowStats {
	if len(readings) == 0 {
		return WindowStats{}
	}

	var rainfallSum, maxDisplacement float64
	for _, r := range readings {
		rainfallSum += r.Rainfall
		if r.Displacement > maxDisplacement {
			maxDisplacement = r.Displacement
		}
	}

	return WindowStats{
		Count:           len(readings),
		MeanRainfall:    rainfallSum / float64(len(readings)),
		MaxDisplacement: maxDisplacement,
	}
}
