package constants

// RunStatus is the canonical status for rows in extract_run.
type RunStatus string

// Stable values (store these exact strings in DB).
const (
	RunStatusRunning     RunStatus = "RUNNING"     // in progress
	RunStatusOK          RunStatus = "OK"          // records extracted (possibly zero)
	RunStatusUnsupported RunStatus = "UNSUPPORTED" // not a PDF nor a text archive
	RunStatusFailed      RunStatus = "FAILED"      // terminal failure
)
