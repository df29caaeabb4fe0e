package attendance

import (
	"context"
	"time"
)

// Store is the persistence the service needs. *Repository implements it.
type Store interface {
	Register(ctx context.Context, rec Record, prefix string) (Record, bool, error)
	InsertDaily(ctx context.Context, rec Record) (Record, bool, error)
	List(ctx context.Context) ([]Record, error)
	ListByDate(ctx context.Context, date string) ([]Record, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
}

// Options configures a Service.
type Options struct {
	Policy             Policy
	RegistrationPrefix string
	// Location stamps date_recorded and time_recorded. Defaults to UTC.
	Location *time.Location
	// Now defaults to time.Now.
	Now func() time.Time
}

// Service coordinates check-ins, listings and status changes.
type Service struct {
	store  Store
	policy Policy
	prefix string
	loc    *time.Location
	now    func() time.Time
}

// NewService creates a service backed by a store.
func NewService(store Store, opts Options) *Service {
	if opts.Policy == "" {
		opts.Policy = PolicyRegister
	}
	if opts.RegistrationPrefix == "" {
		opts.RegistrationPrefix = "AICTE"
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		store:  store,
		policy: opts.Policy,
		prefix: opts.RegistrationPrefix,
		loc:    opts.Location,
		now:    opts.Now,
	}
}

// Policy reports the deployment's check-in policy.
func (s *Service) Policy() Policy { return s.policy }

// CheckIn validates the input and records attendance for the phone number.
// Under PolicyDaily a same-day repeat returns a *DuplicateError and writes
// nothing.
func (s *Service) CheckIn(ctx context.Context, in CheckInInput) (CheckInResult, error) {
	in, err := validate(normalize(in), s.policy)
	if err != nil {
		return CheckInResult{}, err
	}

	now := s.now().In(s.loc)
	rec := Record{
		PhoneNumber:  in.PhoneNumber,
		Name:         in.Name,
		CollegeName:  in.CollegeName,
		Title:        in.Title,
		Category:     in.Category,
		DateRecorded: now.Format(DateLayout),
		TimeRecorded: now.Format(TimeLayout),
		Status:       StatusPresent,
	}

	if s.policy == PolicyDaily {
		if rec.Name == "" {
			rec.Name = PlaceholderName
		}
		stored, inserted, err := s.store.InsertDaily(ctx, rec)
		if err != nil {
			return CheckInResult{}, err
		}
		if !inserted {
			return CheckInResult{}, &DuplicateError{Existing: stored}
		}
		return CheckInResult{Record: stored, Created: true}, nil
	}

	stored, inserted, err := s.store.Register(ctx, rec, s.prefix)
	if err != nil {
		return CheckInResult{}, err
	}
	return CheckInResult{Record: stored, Created: inserted}, nil
}

// List returns all records with their summary.
func (s *Service) List(ctx context.Context) (Listing, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return Listing{}, err
	}
	return listing(records), nil
}

// ListByDate returns the records of one YYYY-MM-DD date with their summary.
func (s *Service) ListByDate(ctx context.Context, date string) (Listing, error) {
	d, err := ParseDate(date)
	if err != nil {
		return Listing{}, err
	}
	records, err := s.store.ListByDate(ctx, d.Format(DateLayout))
	if err != nil {
		return Listing{}, err
	}
	return listing(records), nil
}

// Today returns the current date in the event timezone.
func (s *Service) Today() string {
	return s.now().In(s.loc).Format(DateLayout)
}

// UpdateStatus sets a record's status. Values other than present and absent
// are rejected before the store is touched.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) error {
	if id <= 0 {
		return &ValidationError{Field: "id", Message: "Invalid record id"}
	}
	st, err := ParseStatus(status)
	if err != nil {
		return err
	}
	return s.store.UpdateStatus(ctx, id, st)
}

func listing(records []Record) Listing {
	if records == nil {
		records = []Record{}
	}
	return Listing{Data: records, Summary: Summarize(records)}
}
