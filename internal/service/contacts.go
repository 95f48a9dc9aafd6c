package service

import (
	"context"
	"time"

	"github.com/contacthub/contacthub/internal/domain/contact"
)

const (
	defaultPageLimit = 100
	maxPageLimit     = 500

	defaultBirthdayDays = 7
	maxBirthdayDays     = 366
)

// ContactStore is the persistence capability ContactsService needs. The
// postgres repo and the in-memory repo both satisfy it.
type ContactStore interface {
	Create(ctx context.Context, ownerID string, req contact.CreateContactRequest) (contact.Contact, error)
	List(ctx context.Context, ownerID string, f contact.ListFilter) ([]contact.Contact, int, error)
	GetByID(ctx context.Context, ownerID, id string) (contact.Contact, error)
	Update(ctx context.Context, ownerID, id string, req contact.UpdateContactRequest) (contact.Contact, error)
	Delete(ctx context.Context, ownerID, id string) error
	Search(ctx context.Context, ownerID, query string, limit, offset int) ([]contact.Contact, int, error)
	UpcomingBirthdays(ctx context.Context, ownerID string, w contact.BirthdayWindow, limit, offset int) ([]contact.Contact, int, error)
}

// Page is the list envelope: one page of items plus the unpaginated total.
type Page struct {
	TotalCount int               `json:"totalCount"`
	Skip       int               `json:"skip"`
	Limit      int               `json:"limit"`
	Items      []contact.Contact `json:"items"`
}

type ContactsService struct {
	repo ContactStore
	now  func() time.Time
}

func NewContactsService(repo ContactStore) *ContactsService {
	return &ContactsService{
		repo: repo,
		now:  time.Now,
	}
}

func (s *ContactsService) Create(ctx context.Context, ownerID string, req contact.CreateContactRequest) (contact.Contact, error) {
	return s.repo.Create(ctx, ownerID, req)
}

func (s *ContactsService) List(ctx context.Context, ownerID string, f contact.ListFilter) (Page, error) {
	f.Limit = clampLimit(f.Limit)
	f.Offset = clampOffset(f.Offset)

	items, total, err := s.repo.List(ctx, ownerID, f)

	if err != nil {
		return Page{}, err
	}

	return Page{TotalCount: total, Skip: f.Offset, Limit: f.Limit, Items: items}, nil
}

func (s *ContactsService) Get(ctx context.Context, ownerID, id string) (contact.Contact, error) {
	return s.repo.GetByID(ctx, ownerID, id)
}

func (s *ContactsService) Update(ctx context.Context, ownerID, id string, req contact.UpdateContactRequest) (contact.Contact, error) {
	return s.repo.Update(ctx, ownerID, id, req)
}

func (s *ContactsService) Delete(ctx context.Context, ownerID, id string) error {
	return s.repo.Delete(ctx, ownerID, id)
}

func (s *ContactsService) Search(ctx context.Context, ownerID, query string, limit, offset int) (Page, error) {
	limit = clampLimit(limit)
	offset = clampOffset(offset)

	items, total, err := s.repo.Search(ctx, ownerID, query, limit, offset)

	if err != nil {
		return Page{}, err
	}

	return Page{TotalCount: total, Skip: offset, Limit: limit, Items: items}, nil
}

// UpcomingBirthdays selects the owner's contacts whose birthday falls within
// the next withinDays days, counting today, wrapping the year boundary.
func (s *ContactsService) UpcomingBirthdays(ctx context.Context, ownerID string, withinDays, limit, offset int) (Page, error) {
	if withinDays <= 0 {
		withinDays = defaultBirthdayDays
	}
	if withinDays > maxBirthdayDays {
		withinDays = maxBirthdayDays
	}

	limit = clampLimit(limit)
	offset = clampOffset(offset)

	w := contact.NewBirthdayWindow(s.now().UTC(), withinDays)

	items, total, err := s.repo.UpcomingBirthdays(ctx, ownerID, w, limit, offset)

	if err != nil {
		return Page{}, err
	}

	return Page{TotalCount: total, Skip: offset, Limit: limit, Items: items}, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultPageLimit
	}
	if limit > maxPageLimit {
		return maxPageLimit
	}
	return limit
}

func clampOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
