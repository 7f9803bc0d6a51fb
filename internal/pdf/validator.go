package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spherical/pdf-redactor/internal/domain"
	"github.com/spherical/pdf-redactor/internal/observability"
)

// DocumentExtension is the only file type accepted for loading.
const DocumentExtension = ".pdf"

const (
	minDPI = 36
	maxDPI = 1200
	// Files above this size are accepted with a warning.
	largeFileSize = 100 * 1024 * 1024
)

// IsDocumentPath reports whether path names a loadable document. Dropped or
// picked files failing this check are ignored rather than reported.
func IsDocumentPath(path string) bool {
	return strings.EqualFold(filepath.Ext(strings.TrimSpace(path)), DocumentExtension)
}

// FirstDocumentPath returns the first loadable path among paths.
func FirstDocumentPath(paths []string) (string, bool) {
	for _, p := range paths {
		if IsDocumentPath(p) {
			return p, true
		}
	}
	return "", false
}

// Validator provides input validation for PDF files
type Validator struct {
	logger *observability.Logger
}

// NewValidator creates a new validator instance
func NewValidator(logger *observability.Logger) *Validator {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Validator{logger: logger}
}

// ValidatePDFPath validates that a file path is valid and points to a PDF
func (v *Validator) ValidatePDFPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return domain.ValidationError("file path cannot be empty", nil)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.ValidationError(fmt.Sprintf("file does not exist: %s", path), err)
		}
		return domain.ValidationError(fmt.Sprintf("cannot access file: %s", path), err)
	}

	if info.IsDir() {
		return domain.ValidationError(fmt.Sprintf("path is a directory, not a file: %s", path), nil)
	}

	if !IsDocumentPath(path) {
		return domain.ValidationError(fmt.Sprintf("file is not a PDF (has extension %s)", filepath.Ext(path)), nil)
	}

	if info.Size() > largeFileSize {
		v.logger.Warn().
			Str("path", path).
			Int64("size_mb", info.Size()/(1024*1024)).
			Msg("PDF file is very large, rasterizing may take a while")
	}

	file, err := os.Open(path)
	if err != nil {
		return domain.ValidationError(fmt.Sprintf("cannot open file: %s", path), err)
	}
	file.Close()

	return nil
}

// ValidateDPI validates a rasterization or export resolution
func (v *Validator) ValidateDPI(dpi int) error {
	if dpi < minDPI || dpi > maxDPI {
		return domain.ValidationError(fmt.Sprintf("dpi must be between %d and %d, got %d", minDPI, maxDPI, dpi), nil)
	}
	return nil
}
