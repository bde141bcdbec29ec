package testrolls

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Runner configuration constants.
const (
	PercentageMultiplier = 100
	maxViolationsLogged  = 20
)

// Distribution check constants.
const (
	// chiSquareCritical is the 0.999 quantile of chi-square with 5 degrees of freedom.
	chiSquareCritical = 20.515
	// minExpectedPerFace is the smallest expected count for which the check is meaningful.
	minExpectedPerFace = 5
)
