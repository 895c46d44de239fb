package printing

import (
	"os"
	"path/filepath"

	"github.com/Mugunth140/medical-billing/internal/domain/printing"
	"go.uber.org/zap"
)

// DefaultJobFileName is the fixed name of the bill handed to render engines
const DefaultJobFileName = "velan_medicals_bill.html"

// JobFile writes the markup of the job being printed to a fixed temp path.
// The path is reused by every job, so callers must serialize access.
type JobFile struct {
	path   string
	logger *zap.Logger
}

// NewJobFile creates a JobFile in dir. Empty values fall back to the OS temp
// directory and DefaultJobFileName.
func NewJobFile(dir, name string, logger *zap.Logger) *JobFile {
	if dir == "" {
		dir = os.TempDir()
	}
	if name == "" {
		name = DefaultJobFileName
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobFile{path: filepath.Join(dir, name), logger: logger}
}

// Path returns the absolute location of the job file
func (f *JobFile) Path() string {
	return f.path
}

// Write stores markup unmodified, replacing any previous content. The file
// is flushed and closed before Write returns.
func (f *JobFile) Write(markup string) (string, error) {
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return "", printing.NewPrintError(printing.KindTempFileIO, "create "+f.path, err)
	}

	if _, err := file.WriteString(markup); err != nil {
		file.Close()
		return "", printing.NewPrintError(printing.KindTempFileIO, "write "+f.path, err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return "", printing.NewPrintError(printing.KindTempFileIO, "flush "+f.path, err)
	}
	if err := file.Close(); err != nil {
		return "", printing.NewPrintError(printing.KindTempFileIO, "close "+f.path, err)
	}

	return f.path, nil
}

// Remove deletes the job file. Failures are logged and otherwise ignored.
func (f *JobFile) Remove() {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		f.logger.Warn("Failed to remove print job file",
			zap.String("path", f.path),
			zap.Error(err))
	}
}
