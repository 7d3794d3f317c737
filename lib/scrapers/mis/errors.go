package mis

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthenticationFailed means the portal did not accept the credentials.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrNavigationTimeout means a bounded wait (navigation, selector visibility or
	// option population) exceeded its deadline.
	ErrNavigationTimeout = errors.New("navigation timed out")
	// ErrTableNotFound means the attendance table was absent even though every wait
	// succeeded, the portal layout most likely changed.
	ErrTableNotFound = errors.New("attendance table not found")
	// ErrEmptyCatalog means no subjects were configured.
	ErrEmptyCatalog = errors.New("subject catalog is empty")
	// ErrInvalidLayout means a row reference of the layout points nowhere.
	ErrInvalidLayout = errors.New("invalid table layout")
)

// StepError records which step of a scrape failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %s", e.Step, e.Err.Error())
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// ExitCode maps the result of a scrape to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrAuthenticationFailed):
		return 2
	case errors.Is(err, ErrNavigationTimeout):
		return 3
	case errors.Is(err, ErrTableNotFound):
		return 4
	case errors.Is(err, ErrEmptyCatalog), errors.Is(err, ErrInvalidLayout):
		return 5
	default:
		return 1
	}
}
