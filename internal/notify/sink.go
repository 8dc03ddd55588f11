package notify

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// SinkFunc adapts a function to Sink.
type SinkFunc func(Alert) error

func (f SinkFunc) Notify(a Alert) error { return f(a) }

// BellSink rings the terminal bell and prints the alert.
type BellSink struct {
	W io.Writer
}

func (b BellSink) Notify(a Alert) error {
	_, err := fmt.Fprintf(b.W, "\a%s: %s\n", a.Title, a.Body)
	return err
}

// LogSink records alerts in the log.
type LogSink struct {
	Log *logrus.Entry
}

func (l LogSink) Notify(a Alert) error {
	l.Log.WithFields(logrus.Fields{"block": a.BlockID, "body": a.Body}).Info(a.Title)
	return nil
}

// Multi fans an alert out to every sink and joins their errors.
type Multi []Sink

func (m Multi) Notify(a Alert) error {
	var errs []error
	for _, s := range m {
		if err := s.Notify(a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// TerminalPermitter grants notifications when the file is an interactive
// terminal, since the bell is the only delivery channel there.
type TerminalPermitter struct {
	File *os.File
}

func (p TerminalPermitter) RequestPermission() (Permission, error) {
	if p.File == nil {
		return PermissionDenied, nil
	}
	fd := p.File.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return PermissionGranted, nil
	}
	return PermissionDenied, nil
}
