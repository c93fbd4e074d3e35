// Package media stores uploaded audio and picture files by generated filename.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrObjectNotFound = errors.New("media object not found")
	ErrInvalidName    = errors.New("invalid media filename")
)

// Store is a flat namespace of binary objects. Open may return a value that
// also implements io.Seeker; callers can use it for range requests.
type Store interface {
	Save(ctx context.Context, name string, r io.Reader) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, name string) error
}

const fallbackName = "blob"

// NewFilename builds "<unix-millis>-<random>-<base>" from the client supplied
// name. Anything outside [A-Za-z0-9._-] is replaced so the result is always a
// single safe path segment. The random part keeps names unique when clients
// send the same name within one millisecond.
func NewFilename(original string, now time.Time) string {
	base := filepath.Base(strings.ReplaceAll(original, `\`, "/"))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '_', r == '-':
			return r
		}
		return '_'
	}, base)
	base = strings.TrimLeft(base, ".")
	if base == "" {
		base = fallbackName
	}
	return fmt.Sprintf("%d-%s-%s", now.UnixMilli(), uuid.NewString()[:8], base)
}

// ValidateName rejects names that could escape the store namespace.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
