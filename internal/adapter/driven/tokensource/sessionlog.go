package tokensource

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ericfisherdev/cursorswitch/internal/domain/port/driven"
)

const sessionLogExt = ".log"

var sessionTokenPattern = regexp.MustCompile(`"token":"([^"]+)"`)

// Compile-time interface satisfaction check.
var _ driven.TokenSource = (*SessionLog)(nil)

// SessionLog scans the editor's session log files for a serialized token.
type SessionLog struct {
	dir string
}

// NewSessionLog creates a SessionLog source over the directory dir.
func NewSessionLog(dir string) *SessionLog {
	return &SessionLog{dir: dir}
}

// Name returns the source name used in logs.
func (s *SessionLog) Name() string { return "session log" }

// Token returns the first `"token":"<value>"` match across the *.log files of
// the directory, in listing order. Files are decoded leniently: invalid UTF-8
// is dropped before matching. Unreadable files are skipped.
func (s *SessionLog) Token(ctx context.Context) (string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("list %s: %w", s.dir, err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), sessionLogExt) {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Debug("skipping unreadable session log", "path", path, "error", err)
			continue
		}

		text := strings.ToValidUTF8(string(data), "")
		if m := sessionTokenPattern.FindStringSubmatch(text); m != nil {
			return m[1], nil
		}
	}

	return "", nil
}
