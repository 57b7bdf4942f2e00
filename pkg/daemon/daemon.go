package daemon

// Please add the dependencies if you add your own priority here.
// Otherwise investigating deadlocks at shutdown is much more complicated.

const (
	PriorityCloseFundingDatabase = iota // no dependencies
	PriorityStopDeadlineSweeper         // depends on the funding database
	PriorityStopFundingAPI              // depends on the funding database
)
