package models

// Task states.
const (
	TaskStateInProgress = "در حال انجام"
	TaskStateDone       = "اتمام"
	TaskStateCancelled  = "لغو"
)

// TaskStates lists every accepted Task.State value.
var TaskStates = []string{TaskStateInProgress, TaskStateDone, TaskStateCancelled}

// Task is a unit of work assigned between two staff members on a project.
type Task struct {
	ID         int64  `json:"id"`
	StartDate  string `json:"start_date,omitempty"`
	EndDate    string `json:"end_date,omitempty"`
	State      string `json:"state"`
	DedLine    string `json:"ded_line"`
	Body       string `json:"body"`
	Evaluation string `json:"evaluation"`
	Assignor   int64  `json:"assignor"`
	AssignedTo int64  `json:"assigned_to"`
	Project    int64  `json:"project"`
}

// RecordID implements Record.
func (t Task) RecordID() int64 { return t.ID }
