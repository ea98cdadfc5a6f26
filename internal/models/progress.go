package models

// ProgressUpdate is broadcast over the websocket hub while the catalog syncs
// or an installation runs.
type ProgressUpdate struct {
	JobID    string  `json:"jobId"`
	Message  string  `json:"message"`
	Progress float64 `json:"progress"`
	Status   string  `json:"status"` // e.g. "in_progress", "completed", "failed", "reload"
	Done     bool    `json:"done"`
}
