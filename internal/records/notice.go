package records

import (
	"sync"

	appErrors "github.com/noah-isme/office-admin/pkg/errors"
)

// Level classifies a notice.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notice is a short message shown to the user once.
type Notice struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

func Success(text string) Notice { return Notice{Level: LevelSuccess, Text: text} }

func Failure(text string) Notice { return Notice{Level: LevelError, Text: text} }

// ErrorNotice surfaces an API error the way the server phrased it.
func ErrorNotice(err error) Notice {
	appErr := appErrors.FromError(err)
	if appErr == nil || appErr.Message == "" {
		return Failure(appErrors.ErrUpstream.Message)
	}
	return Failure(appErr.Message)
}

// Messages are the notices of one entity.
type Messages struct {
	Created       string
	CreateFailed  string
	Updated       string
	UpdateFailed  string
	Deleted       string
	DeleteFailed  string
	ConfirmDelete string
}

// NounMessages builds the usual Persian form notices for noun.
func NounMessages(noun string) Messages {
	return Messages{
		Created:      noun + " با موفقیت اضافه شد",
		CreateFailed: "خطا در افزودن " + noun,
		Updated:      noun + " با موفقیت ویرایش شد",
		UpdateFailed: "خطا در ویرایش " + noun,
	}
}

// Flash queues notices until the next page render.
type Flash struct {
	mu    sync.Mutex
	items []Notice
}

// Push appends notices.
func (f *Flash) Push(notices ...Notice) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, notices...)
}

// Drain returns and forgets the queued notices.
func (f *Flash) Drain() []Notice {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := f.items
	f.items = nil
	return items
}
