package model

// MessageKind tags a ProgressMessage
type MessageKind string

const (
	KindProgress MessageKind = "progress"
	KindError    MessageKind = "error"
	KindDone     MessageKind = "done"
)

// ProgressMessage is the unit carried by the progress channel from a worker to the coordinator
type ProgressMessage struct {
	Kind     MessageKind    `json:"kind"`
	Phase    Phase          `json:"phase"`
	WorkerID int            `json:"worker_id"`
	Index    int            `json:"index"`
	N        int            `json:"n,omitempty"`
	Artifact *Artifact      `json:"artifact,omitempty"`
	Error    string         `json:"error,omitempty"`
	Summary  *WorkerSummary `json:"summary,omitempty"`
}

// ProgressMsg reports one completed item
func ProgressMsg(task Task, index int, art Artifact) ProgressMessage {
	return ProgressMessage{
		Kind:     KindProgress,
		Phase:    task.Phase,
		WorkerID: task.ID,
		Index:    index,
		N:        1,
		Artifact: &art,
	}
}

// ErrorMsg reports one failed item
func ErrorMsg(task Task, index int, err error) ProgressMessage {
	msg := ProgressMessage{
		Kind:     KindError,
		Phase:    task.Phase,
		WorkerID: task.ID,
		Index:    index,
		N:        1,
	}
	if err != nil {
		msg.Error = err.Error()
	}
	return msg
}

// DoneMsg carries a worker's final summary
func DoneMsg(summary WorkerSummary) ProgressMessage {
	return ProgressMessage{
		Kind:     KindDone,
		Phase:    summary.Phase,
		WorkerID: summary.WorkerID,
		Index:    -1,
		Summary:  &summary,
	}
}
