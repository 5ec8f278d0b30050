package validation

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"contestlens/internal/dataprocessing"
	"contestlens/internal/infrastructure"
)

// Path validation errors
var (
	ErrFileNotFound      = errors.New("file does not exist")
	ErrNotAFile          = errors.New("path is not a regular file")
	ErrFileTooLarge      = errors.New("file exceeds the size limit")
	ErrTemporaryFile     = errors.New("file is a spreadsheet lock file")
	ErrUnsupportedExport = errors.New("export path must end in .csv or .xlsx")
)

// FileValidator checks local paths handed to the command line tools
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	return &FileValidator{
		logger: infrastructure.WithComponent(logger, "file_validator"),
	}
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		v.logger.Error("File does not exist", slog.String("file", path))
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file", slog.String("path", path))
		return nil, fmt.Errorf("%w: %s", ErrNotAFile, path)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return info, nil
}

// ValidateContestHistory checks that path is a readable export in a
// supported format and no larger than maxBytes. A maxBytes of 0 disables
// the size check.
func (v *FileValidator) ValidateContestHistory(path string, maxBytes int64) error {
	info, err := v.ValidateFile(path)
	if err != nil {
		return err
	}

	if strings.HasPrefix(filepath.Base(path), "~$") {
		v.logger.Warn("Skipping temporary Excel file", slog.String("file", path))
		return fmt.Errorf("%w: %s", ErrTemporaryFile, path)
	}

	if _, err := dataprocessing.DetectFormat(path); err != nil {
		return err
	}

	if maxBytes > 0 && info.Size() > maxBytes {
		return fmt.Errorf("%w: %d > %d bytes", ErrFileTooLarge, info.Size(), maxBytes)
	}
	return nil
}

// ValidateExportPath checks the extension of an export target and that its
// parent, when it exists, is a directory.
func (v *FileValidator) ValidateExportPath(path string) (format string, err error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".csv" && ext != ".xlsx" {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedExport, path)
	}

	dir := filepath.Dir(path)
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotAFile, dir)
	}
	return strings.TrimPrefix(ext, "."), nil
}
