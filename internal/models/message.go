package models

// Message is an internal note between staff. Date is assigned by the server.
type Message struct {
	ID       int64  `json:"id"`
	Date     string `json:"date,omitempty"`
	Body     string `json:"body"`
	Sender   int64  `json:"sender"`
	Receiver int64  `json:"receiver"`
	Project  int64  `json:"project"`
}

// RecordID implements Record.
func (m Message) RecordID() int64 { return m.ID }
