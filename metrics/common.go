package metrics

// DurationBuckets covers operation durations from 100ms to 5 minutes,
// sized for the publish/gate/confirm cycle rather than sub-second RPCs.
var DurationBuckets = []float64{
	0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300,
}
