package models

import "encoding/json"

// Mail directions.
const (
	MailTypeOutgoing = "صادره"
	MailTypeIncoming = "دریافتی"
)

// Mail states.
const (
	MailStateReview   = "در حال بررسی"
	MailStateDone     = "انجام شده"
	MailStateArchived = "بایگانی"
	MailStateDeleted  = "حذف"
)

// MailTypes lists every accepted Mail.Type value.
var MailTypes = []string{MailTypeOutgoing, MailTypeIncoming}

// MailStates lists every accepted Mail.State value.
var MailStates = []string{MailStateReview, MailStateDone, MailStateArchived, MailStateDeleted}

// Mail is an official letter tracked against a project.
type Mail struct {
	ID         int64           `json:"id"`
	Employer   string          `json:"employer"`
	Subject    string          `json:"subject"`
	Body       string          `json:"body"`
	Type       string          `json:"type"`
	Attachment string          `json:"attachment,omitempty"`
	CC         json.RawMessage `json:"cc,omitempty"`
	State      string          `json:"state"`
	Sender     int64           `json:"sender"`
	Receiver   int64           `json:"receiver"`
	Project    int64           `json:"project"`
}

// RecordID implements Record.
func (m Mail) RecordID() int64 { return m.ID }
