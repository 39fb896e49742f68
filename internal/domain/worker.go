package domain

// WorkerState represents the lifecycle state of a worker version.
type WorkerState string

const (
	WorkerStateParsed     WorkerState = "parsed"
	WorkerStateInstalling WorkerState = "installing"
	WorkerStateInstalled  WorkerState = "installed"
	WorkerStateActivating WorkerState = "activating"
	WorkerStateActivated  WorkerState = "activated"
	WorkerStateRedundant  WorkerState = "redundant"
)

// IsTerminal returns true if no further transitions are possible.
func (s WorkerState) IsTerminal() bool {
	return s == WorkerStateRedundant
}

// CanServe returns true if a worker in this state handles fetches.
func (s WorkerState) CanServe() bool {
	return s == WorkerStateActivated
}

// Control messages accepted by a worker.
const (
	MessageSkipWaiting     = "skipWaiting"
	MessageDownloadOffline = "downloadOffline"
)

// WorkerStatus is a point-in-time snapshot of a worker.
type WorkerStatus struct {
	ID            string
	Origin        string
	State         WorkerState
	ManifestSize  int
	CoreShellSize int
	Corrupted     bool
}
