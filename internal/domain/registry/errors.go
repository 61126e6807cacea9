package registry

import (
	"errors"
	"fmt"

	"github.com/ffbrank/ffbrank/internal/domain/model"
)

// ErrDataIntegrity marks an unreadable or inconsistent registry, or merge
// input that cannot be ordered. It aborts the whole batch.
var ErrDataIntegrity = errors.New("data integrity")

// DataIntegrityError describes what was wrong and, when known, with which
// identity.
type DataIntegrityError struct {
	Reason   string
	Identity *model.Identity
	Err      error
}

// Integrity builds a *DataIntegrityError.
func Integrity(reason string, id *model.Identity, err error) *DataIntegrityError {
	return &DataIntegrityError{Reason: reason, Identity: id, Err: err}
}

func (e *DataIntegrityError) Error() string {
	msg := "data integrity: " + e.Reason
	if e.Identity != nil {
		msg += fmt.Sprintf(" (%s)", e.Identity)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DataIntegrityError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrDataIntegrity}
	}
	return []error{ErrDataIntegrity, e.Err}
}
