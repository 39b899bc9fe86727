package crons

// Sweeper drops expired in-memory state
type Sweeper interface {
	SweepPending()
}

// CronSweepPending godoc
func CronSweepPending(sweeper Sweeper) {
	if sweeper == nil {
		return
	}
	sweeper.SweepPending()
}
