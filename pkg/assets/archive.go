package assets

import (
	"errors"
	"strings"
)

// MaxArchiveBytes is the upper bound for the zipped source archive.
const MaxArchiveBytes = 50 << 20

var (
	// ErrArchiveNameNotZip indicates the archive filename lacks a .zip suffix.
	ErrArchiveNameNotZip = errors.New("source archive must be a .zip file")
	// ErrArchiveTooLarge indicates the archive exceeds the size ceiling.
	ErrArchiveTooLarge = errors.New("source archive exceeds maximum allowed size")
)

// ValidateArchive checks the archive's filename suffix and declared size.
// Archive contents are deliberately not inspected; reviewing what is inside
// is the evaluator's job.
func ValidateArchive(name string, size int64) error {
	if !strings.HasSuffix(strings.ToLower(strings.TrimSpace(name)), ".zip") {
		return ErrArchiveNameNotZip
	}
	if size > MaxArchiveBytes {
		return ErrArchiveTooLarge
	}
	return nil
}
