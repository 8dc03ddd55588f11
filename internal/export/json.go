package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sadopc/timetable/internal/focus"
	"github.com/sadopc/timetable/internal/schedule"
)

// Bundle is the JSON export envelope. Blocks and sessions keep the record
// shapes used for import, so an export can be imported again.
type Bundle struct {
	ExportedAt string               `json:"exported_at"`
	Blocks     []schedule.TimeBlock `json:"blocks"`
	Sessions   []focus.Session      `json:"sessions"`
}

func ToJSON(blocks []schedule.TimeBlock, sessions []focus.Session, path string) error {
	export := Bundle{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Blocks:     blocks,
		Sessions:   sessions,
	}
	if export.Blocks == nil {
		export.Blocks = []schedule.TimeBlock{}
	}
	if export.Sessions == nil {
		export.Sessions = []focus.Session{}
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}

// ReadBlocks decodes blocks from either a bare JSON array of blocks or a
// Bundle.
func ReadBlocks(r io.Reader) ([]schedule.TimeBlock, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read blocks: %w", err)
	}
	if isArray(data) {
		var blocks []schedule.TimeBlock
		if err := json.Unmarshal(data, &blocks); err != nil {
			return nil, fmt.Errorf("decode blocks: %w", err)
		}
		return blocks, nil
	}
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	return b.Blocks, nil
}

// ReadSessions decodes sessions from either a bare JSON array or a Bundle.
func ReadSessions(r io.Reader) ([]focus.Session, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read sessions: %w", err)
	}
	if isArray(data) {
		var sessions []focus.Session
		if err := json.Unmarshal(data, &sessions); err != nil {
			return nil, fmt.Errorf("decode sessions: %w", err)
		}
		return sessions, nil
	}
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	return b.Sessions, nil
}

func isArray(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && data[0] == '['
}
