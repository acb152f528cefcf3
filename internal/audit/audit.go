package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Archiver stores raw import payloads under Dir with UUID4 file names.
type Archiver struct {
	Dir    string
	logger *zap.Logger
}

func NewArchiver(dir string, logger *zap.Logger) *Archiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archiver{Dir: dir, logger: logger}
}

// Archive writes payload to <uuid>.<format> and returns the file name.
func (a *Archiver) Archive(format string, payload []byte) (string, error) {
	if err := a.ensureDir(); err != nil {
		return "", fmt.Errorf("failed to ensure audit directory: %w", err)
	}

	ext := strings.ToLower(strings.TrimSpace(format))
	if ext == "" {
		ext = "txt"
	}
	filename := fmt.Sprintf("%s.%s", uuid.New().String(), ext)
	path := filepath.Join(a.Dir, filename)

	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", fmt.Errorf("failed to write audit file: %w", err)
	}

	a.logger.Debug("saved import payload", zap.String("path", path), zap.Int("bytes", len(payload)))
	return filename, nil
}

func (a *Archiver) ensureDir() error {
	if _, err := os.Stat(a.Dir); os.IsNotExist(err) {
		if err := os.MkdirAll(a.Dir, 0o755); err != nil {
			return fmt.Errorf("failed to create audit directory: %w", err)
		}
	}
	return nil
}
