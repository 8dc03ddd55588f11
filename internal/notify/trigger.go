package notify

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sadopc/timetable/internal/schedule"
)

// LeadMinutes is how far ahead of a class the alert window opens.
const LeadMinutes = 5

// Permission mirrors the host notification permission.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// Alert is one notification request.
type Alert struct {
	Key     string
	BlockID string
	Title   string
	Body    string
	At      time.Time
}

// Sink delivers alerts to the host.
type Sink interface {
	Notify(Alert) error
}

// Permitter asks the host for permission to show notifications.
type Permitter interface {
	RequestPermission() (Permission, error)
}

// KeyStore remembers which (block, date) alerts were already used.
type KeyStore interface {
	Used(key string) (bool, error)
	Use(key string) error
}

// Key identifies one occurrence of a block on the calendar date of now.
func Key(blockID string, now time.Time) string {
	return blockID + "|" + now.Format("2006-01-02")
}

// BuildAlert formats the upcoming-class message.
func BuildAlert(b schedule.TimeBlock, minutes int, now time.Time) Alert {
	body := fmt.Sprintf("Class starts in %d minutes", minutes)
	if b.Location != "" {
		body += " at " + b.Location
	}
	return Alert{
		Key:     Key(b.ID, now),
		BlockID: b.ID,
		Title:   "Upcoming: " + b.Subject,
		Body:    body,
		At:      now,
	}
}

// Options configures a Trigger.
type Options struct {
	Sink       Sink
	Keys       KeyStore
	Permission Permission
	Logger     *logrus.Entry
}

// Trigger decides when the pre-class alert is due and fires it at most once
// per block and calendar date. Evaluate may be called on every tick.
type Trigger struct {
	sink Sink
	keys KeyStore
	log  *logrus.Entry

	mu         sync.Mutex
	permission Permission
}

func NewTrigger(opts Options) *Trigger {
	if opts.Keys == nil {
		opts.Keys = NewMemoryKeys()
	}
	if opts.Permission == "" {
		opts.Permission = PermissionDefault
	}
	if opts.Logger == nil {
		opts.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Trigger{
		sink:       opts.Sink,
		keys:       opts.Keys,
		log:        opts.Logger,
		permission: opts.Permission,
	}
}

func (t *Trigger) Permission() Permission {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.permission
}

func (t *Trigger) SetPermission(p Permission) {
	t.mu.Lock()
	t.permission = p
	t.mu.Unlock()
}

// RequestPermission asks p in the background unless the answer is already
// known. It never blocks the caller.
func (t *Trigger) RequestPermission(p Permitter) {
	if p == nil || t.Permission() != PermissionDefault {
		return
	}
	go func() {
		perm, err := p.RequestPermission()
		if err != nil {
			t.log.WithError(err).Warn("notification permission request failed")
			return
		}
		t.SetPermission(perm)
		t.log.WithField("permission", perm).Debug("notification permission updated")
	}()
}

// Evaluate checks st against the alert window. It returns the alert and
// true the first time a (block, date) pair enters the window; the key is
// consumed even when delivery is denied or fails.
func (t *Trigger) Evaluate(st schedule.Status, enabled bool) (Alert, bool) {
	if !enabled || st.Next == nil {
		return Alert{}, false
	}
	mins := st.MinutesToNext
	if mins < 0 || mins > LeadMinutes {
		return Alert{}, false
	}

	alert := BuildAlert(*st.Next, mins, st.Now)
	used, err := t.keys.Used(alert.Key)
	if err != nil {
		t.log.WithError(err).WithField("key", alert.Key).Warn("dedupe lookup failed, skipping alert")
		return Alert{}, false
	}
	if used {
		return Alert{}, false
	}
	if err := t.keys.Use(alert.Key); err != nil {
		t.log.WithError(err).WithField("key", alert.Key).Warn("could not record alert key")
	}

	t.deliver(alert)
	return alert, true
}

func (t *Trigger) deliver(a Alert) {
	entry := t.log.WithFields(logrus.Fields{"key": a.Key, "title": a.Title})
	if t.Permission() != PermissionGranted {
		entry.Debug("notification suppressed, permission not granted")
		return
	}
	if t.sink == nil {
		return
	}
	if err := t.sink.Notify(a); err != nil {
		entry.WithError(err).Warn("notification delivery failed")
		return
	}
	entry.Info("notification sent")
}

// MemoryKeys keeps used keys for the lifetime of the process.
type MemoryKeys struct {
	mu   sync.Mutex
	used map[string]struct{}
}

func NewMemoryKeys() *MemoryKeys {
	return &MemoryKeys{used: make(map[string]struct{})}
}

func (m *MemoryKeys) Used(key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.used[key]
	return ok, nil
}

func (m *MemoryKeys) Use(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.used[key] = struct{}{}
	return nil
}
