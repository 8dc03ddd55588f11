package focus

import (
	"time"

	"github.com/google/uuid"
)

// Session is a finished focus run in the stored record shape. StartTime is
// unix milliseconds of the moment the run completed, Duration is minutes.
type Session struct {
	ID        string `json:"id"`
	StartTime int64  `json:"startTime"`
	Duration  int    `json:"duration"`
	Completed bool   `json:"completed"`
}

// Started returns StartTime as a local time.
func (s Session) Started() time.Time {
	return time.UnixMilli(s.StartTime)
}

// Recorder receives finished sessions. Storage is up to the implementation.
type Recorder interface {
	RecordSession(Session) error
}

// NewSession builds the history record for c. Break modes produce none.
func NewSession(c Completion) (Session, bool) {
	if !c.Mode.Recorded() {
		return Session{}, false
	}
	return Session{
		ID:        uuid.NewString(),
		StartTime: c.At.UnixMilli(),
		Duration:  c.Minutes,
		Completed: true,
	}, true
}
