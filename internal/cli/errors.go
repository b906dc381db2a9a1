package cli

import "errors"

var (
	ErrUsage = errors.New("cli usage error")
	// ErrNoDocuments is returned when none of the given files could be loaded.
	ErrNoDocuments = errors.New("no OpenAPI documents could be loaded")
	// ErrDifferences is returned by --fail-on-diff when some row is not present in every document.
	ErrDifferences = errors.New("documents differ")
)

type usageError struct {
	msg string
}

func newUsageError(msg string) error {
	return usageError{msg: msg}
}

func (e usageError) Error() string {
	return e.msg
}

func (e usageError) Is(target error) bool {
	return target == ErrUsage
}

// ExitCode maps an Execute error to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrDifferences):
		return 1
	case errors.Is(err, ErrUsage):
		return 2
	default:
		return 1
	}
}
