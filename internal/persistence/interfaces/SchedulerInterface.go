package interfaces

// SchedulerInterface drives snapshot persistence of the ledger.
type SchedulerInterface interface {
	Init()
	Stop()
	Restore() error
	Persist() error
}
