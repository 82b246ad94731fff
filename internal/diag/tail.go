package diag

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/aotc-build/aotc/internal/msg"
)

// ToolDataFilename is where the converter writes its diagnostics stream,
// relative to the generated-source output directory.
const ToolDataFilename = "ToolToEditorData.json"

const pollInterval = 100 * time.Millisecond

// Tailer incrementally reads a growing line-delimited JSON file. It tolerates
// the file not existing yet (the process may not have started writing) and
// holds partial trailing records until their newline arrives.
type Tailer struct {
	offset  int64
	pending []byte
}

// Tail follows the file at path until ctx is done, forwarding each complete
// record to sink. After cancellation it drains once more so records flushed
// right before process exit are not lost. The returned error is nil on a
// normal stop; only I/O problems on an existing file surface.
func (t *Tailer) Tail(ctx context.Context, path string, sink Sink) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		if err := t.drain(path, sink); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return t.drain(path, sink)
		case <-ticker.C:
		}
	}
}

// drain reads everything appended since the last call and emits complete
// records.
func (t *Tailer) drain(path string, sink Sink) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // not written yet, keep waiting
		}
		return err
	}
	defer f.Close()

	if _, err := f.Seek(t.offset, io.SeekStart); err != nil {
		return err
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return err
	}
	t.offset += int64(len(data))
	t.pending = append(t.pending, data...)

	for {
		idx := bytes.IndexByte(t.pending, '\n')
		if idx < 0 {
			return nil // incomplete trailing record, wait for the rest
		}
		line := bytes.TrimSpace(t.pending[:idx])
		t.pending = t.pending[idx+1:]
		if len(line) == 0 {
			continue
		}

		var d Diagnostic
		if err := json.Unmarshal(line, &d); err != nil {
			msg.Warn("skipping malformed diagnostic record: %v", err)
			continue
		}
		if d.Severity == "" {
			d.Severity = SeverityInfo
		}
		sink.Report(d)
	}
}
