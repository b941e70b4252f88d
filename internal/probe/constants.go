package probe

// Request outcome constants.
const (
	outcomeOK       = "ok"
	outcomeUpstream = "upstream"
	outcomeFailed   = "failed"
)

// Worker configuration constants.
const (
	workerChannelMultiplier = 2
	percentageMultiplier    = 100
)
