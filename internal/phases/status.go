package phases

// Status is the resolved display state of one phase.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusCurrent   Status = "current"
	StatusPending   Status = "pending"
)

// CompleteFlag is the sub-record status value that marks a phase done.
const CompleteFlag = "complete"

// PhaseStatus pairs a phase with its resolved status.
type PhaseStatus struct {
	Info
	Status Status `json:"status"`
}

// Resolve computes the status of every phase. An explicit "complete" flag on
// a sub-record wins; otherwise phases before current are completed, current
// is current and the rest are pending. Missing or malformed sub-records are
// treated as absent.
func Resolve(current Phase, records map[string]map[string]any) []PhaseStatus {
	out := make([]PhaseStatus, 0, len(table))
	for _, info := range table {
		var st Status
		switch {
		case flaggedComplete(records, info.Key), info.Number < current:
			st = StatusCompleted
		case info.Number == current:
			st = StatusCurrent
		default:
			st = StatusPending
		}
		out = append(out, PhaseStatus{Info: info, Status: st})
	}
	return out
}

// Progress returns how many phases are completed and the rounded percentage.
func Progress(statuses []PhaseStatus) (completed int, percent int) {
	if len(statuses) == 0 {
		return 0, 0
	}
	for _, s := range statuses {
		if s.Status == StatusCompleted {
			completed++
		}
	}
	return completed, (completed*100 + len(statuses)/2) / len(statuses)
}

func flaggedComplete(records map[string]map[string]any, key string) bool {
	rec, ok := records[key]
	if !ok || rec == nil {
		return false
	}
	v, ok := rec["status"].(string)
	return ok && v == CompleteFlag
}
