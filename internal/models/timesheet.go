package models

// TimeSheet is a worked time range. Date is assigned by the server.
type TimeSheet struct {
	ID                      int64  `json:"id"`
	Date                    string `json:"date,omitempty"`
	StartTime               string `json:"start_time"`
	EndTime                 string `json:"end_time"`
	Description             string `json:"description"`
	Mission                 bool   `json:"mission"`
	MissionDuration         string `json:"mission_duration,omitempty"`
	VerifiedDurationMission string `json:"verified_duration_mission,omitempty"`
	Project                 int64  `json:"project"`
	Manager                 int64  `json:"manager"`
	Task                    int64  `json:"task"`
}

// RecordID implements Record.
func (t TimeSheet) RecordID() int64 { return t.ID }
