package types

import (
	"errors"
	"fmt"
	"io/fs"
)

// Error sentinels. Resolvers wrap these so callers can use errors.Is.
var (
	// ErrNotFound marks a missing file or directory.
	ErrNotFound = errors.New("not found")

	// ErrParse marks a malformed key-value document.
	ErrParse = errors.New("malformed key-value document")

	// ErrIO marks a permission or device failure.
	ErrIO = errors.New("i/o failure")

	// ErrClientNotFound is returned when no Steam install root exists.
	ErrClientNotFound = errors.New("steam installation not found")

	// ErrInvalidInput marks a bad app ID or argument.
	ErrInvalidInput = errors.New("invalid input")
)

// Kind classifies a failure.
type Kind string

// Failure kinds.
const (
	KindNotFound             Kind = "not_found"
	KindParse                Kind = "parse"
	KindIO                   Kind = "io"
	KindConfigurationMissing Kind = "configuration_missing"
	KindKeyConflict          Kind = "key_conflict"
	KindInvalidInput         Kind = "invalid_input"
)

// Classify maps an error onto the failure taxonomy.
// Unknown errors are treated as I/O failures.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrClientNotFound):
		return KindConfigurationMissing
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrParse):
		return KindParse
	case errors.Is(err, ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return KindNotFound
	default:
		return KindIO
	}
}

// WrapFS converts a filesystem error into one wrapping ErrNotFound or ErrIO.
func WrapFS(op, path string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s %s: %w: %w", op, path, ErrNotFound, err)
	}
	return fmt.Errorf("%s %s: %w: %w", op, path, ErrIO, err)
}

// Warning records a failure that was absorbed into a partial result.
type Warning struct {
	Kind Kind   `json:"kind" yaml:"kind"`
	Root string `json:"root,omitempty" yaml:"root,omitempty"`
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
	Err  error  `json:"-" yaml:"-"`

	// Message is the rendered error, kept for serialization.
	Message string `json:"message" yaml:"message"`
}

// NewWarning builds a warning for a failure under root.
func NewWarning(root, path string, err error) Warning {
	w := Warning{
		Kind: Classify(err),
		Root: root,
		Path: path,
		Err:  err,
	}
	if err != nil {
		w.Message = err.Error()
	}
	return w
}

// String renders the warning for logs and plain output.
func (w Warning) String() string {
	if w.Path != "" {
		return fmt.Sprintf("%s: %s (%s)", w.Kind, w.Message, w.Path)
	}
	return fmt.Sprintf("%s: %s", w.Kind, w.Message)
}

// CountKind returns how many warnings have the given kind.
func CountKind(warnings []Warning, kind Kind) int {
	n := 0
	for _, w := range warnings {
		if w.Kind == kind {
			n++
		}
	}
	return n
}
