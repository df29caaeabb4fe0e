package attendance

import (
	"fmt"
	"time"
)

// Policy decides what a repeated check-in for a known phone number does.
type Policy string

const (
	// PolicyRegister refreshes the existing row and keeps its registration id.
	PolicyRegister Policy = "register"
	// PolicyDaily rejects a second check-in on the same calendar day.
	PolicyDaily Policy = "daily"
)

// Status is the attendance state of a record.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
)

// ParseStatus accepts only present or absent.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPresent, StatusAbsent:
		return Status(s), nil
	}
	return "", ErrInvalidStatus
}

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

// TimeLayout is the wire format of recorded times.
const TimeLayout = "15:04:05"

// Record is one attendee's attendance row.
type Record struct {
	ID             int64     `json:"id"`
	RegistrationID string    `json:"registration_id,omitempty"`
	PhoneNumber    string    `json:"phone_number"`
	Name           string    `json:"name"`
	CollegeName    string    `json:"college_name"`
	Title          string    `json:"title"`
	Category       string    `json:"category"`
	DateRecorded   string    `json:"date_recorded"`
	TimeRecorded   string    `json:"time_recorded"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// CheckInInput is what an attendee submits.
type CheckInInput struct {
	PhoneNumber string
	Name        string
	CollegeName string
	Title       string
	Category    string
}

// CheckInResult reports the stored row and whether it was newly created.
type CheckInResult struct {
	Record  Record
	Created bool
}

// Summary aggregates a record set by status.
type Summary struct {
	Total   int `json:"total"`
	Present int `json:"present"`
	Absent  int `json:"absent"`
}

// Summarize counts the given rows. It never queries the store.
func Summarize(records []Record) Summary {
	s := Summary{Total: len(records)}
	for _, r := range records {
		switch r.Status {
		case StatusPresent:
			s.Present++
		case StatusAbsent:
			s.Absent++
		}
	}
	return s
}

// Listing is a record set together with its summary.
type Listing struct {
	Data    []Record `json:"data"`
	Summary Summary  `json:"summary"`
}

// FormatRegistrationID renders the n-th registration id, zero-padded to
// three digits. Numbers past 999 widen instead of wrapping.
func FormatRegistrationID(prefix string, n int64) string {
	return fmt.Sprintf("%s-%03d", prefix, n)
}

// ParseDate validates a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, &ValidationError{Field: "date", Message: "Invalid date, expected YYYY-MM-DD"}
	}
	return d, nil
}
