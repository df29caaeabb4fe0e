package attendance

import "errors"

var (
	// ErrDuplicate means the phone number already checked in today.
	ErrDuplicate = errors.New("already checked in today")
	// ErrNotFound means no record has the requested id.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidStatus means a status other than present or absent.
	ErrInvalidStatus = errors.New("invalid status")
)

// ValidationError carries the client-facing message for one bad field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// DuplicateError carries the record that already exists for today.
type DuplicateError struct {
	Existing Record
}

func (e *DuplicateError) Error() string { return ErrDuplicate.Error() }

// Is lets errors.Is(err, ErrDuplicate) match.
func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }
