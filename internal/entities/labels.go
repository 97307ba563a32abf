package entities

import (
	"strings"
	"time"

	"github.com/noah-isme/office-admin/internal/models"
	"github.com/noah-isme/office-admin/internal/records"
)

func staffName(s models.Staff) string { return s.FullName() }

func staffOption(s models.Staff) string { return s.FullName() + " - " + s.JobLabel }

func projectName(p models.Project) string { return p.ProjectName }

func projectOption(p models.Project) string { return p.ProjectName + " - " + p.Employer }

// taskSummary is the first 50 characters of the body, always followed by "...".
func taskSummary(t models.Task) string {
	runes := []rune(t.Body)
	if len(runes) > 50 {
		runes = runes[:50]
	}
	return string(runes) + "..."
}

func isManager(s models.Staff) bool { return strings.Contains(s.Role, "مدیر") }

// dateText shows the calendar date part of a date or timestamp.
func dateText(value interface{}) string {
	s := records.Text(value)
	if len(s) >= 10 {
		if _, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return s[:10]
		}
	}
	return s
}

// dateTimeText shows an RFC3339 timestamp as "2006-01-02 15:04".
func dateTimeText(value interface{}) string {
	s := records.Text(value)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Format("2006-01-02 15:04")
	}
	return s
}

func yesNo(value interface{}) string {
	if b, ok := value.(bool); ok && b {
		return "Yes"
	}
	return "No"
}

func deleteMessages(m records.Messages, deleted, failed, confirm string) records.Messages {
	m.Deleted = deleted
	m.DeleteFailed = failed
	m.ConfirmDelete = confirm
	return m
}

func options(values []string) []records.Option {
	out := make([]records.Option, len(values))
	for i, v := range values {
		out[i] = records.Option{Value: v, Label: v}
	}
	return out
}

func required(msg string) []records.Rule { return []records.Rule{records.Required(msg)} }

func requiredPositive(req, positive string) []records.Rule {
	return []records.Rule{records.Required(req), records.Positive(positive)}
}

func requiredMin(req string, n int, min string) []records.Rule {
	return []records.Rule{records.Required(req), records.MinLength(n, min)}
}
