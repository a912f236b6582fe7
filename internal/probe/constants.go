package probe

import "time"

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Runner configuration constants.
const (
	PercentageMultiplier = 100
	ProgressInterval     = time.Second

	// FloatTolerance bounds the difference between the service's numbers
	// and the locally recomputed ones.
	FloatTolerance = 1e-9
)
