package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/contacthub/contacthub/internal/domain/contact"
)

// ContactsRepo is an in-memory store with the same semantics as the postgres
// repo: owner-scoped, per-owner unique email, atomic full-field updates.
// Used by service tests and local development.
type ContactsRepo struct {
	mu    sync.RWMutex
	items map[string]contact.Contact
}

func NewContactsRepo() *ContactsRepo {
	return &ContactsRepo{
		items: make(map[string]contact.Contact),
	}
}

func (r *ContactsRepo) Create(ctx context.Context, ownerID string, req contact.CreateContactRequest) (contact.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.OwnerID == ownerID && strings.EqualFold(existing.Email, req.Email) {
			return contact.Contact{}, contact.ErrEmailTaken
		}
	}

	c := contact.NewFromCreateRequest(ownerID, req)
	r.items[c.ID] = c

	return c, nil
}

func (r *ContactsRepo) List(ctx context.Context, ownerID string, f contact.ListFilter) ([]contact.Contact, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := r.collect(ownerID, func(c contact.Contact) bool {
		if f.FirstName != nil && !containsFold(c.FirstName, *f.FirstName) {
			return false
		}
		if f.LastName != nil && !containsFold(c.LastName, *f.LastName) {
			return false
		}
		if f.Email != nil && !containsFold(c.Email, *f.Email) {
			return false
		}
		return true
	})

	return page(matched, f.Limit, f.Offset)
}

func (r *ContactsRepo) GetByID(ctx context.Context, ownerID, id string) (contact.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.items[id]

	if !ok || c.OwnerID != ownerID {
		return contact.Contact{}, contact.ErrNotFound
	}

	return c, nil
}

func (r *ContactsRepo) Update(ctx context.Context, ownerID, id string, req contact.UpdateContactRequest) (contact.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.items[id]

	if !ok || c.OwnerID != ownerID {
		return contact.Contact{}, contact.ErrNotFound
	}

	for otherID, other := range r.items {
		if otherID != id && other.OwnerID == ownerID && strings.EqualFold(other.Email, req.Email) {
			return contact.Contact{}, contact.ErrEmailTaken
		}
	}

	c.FirstName = req.FirstName
	c.LastName = req.LastName
	c.Email = req.Email
	c.Phone = req.Phone
	c.Birthday = req.Birthday
	c.Notes = req.Notes
	c.UpdatedAt = time.Now().UTC()

	r.items[id] = c

	return c, nil
}

func (r *ContactsRepo) Delete(ctx context.Context, ownerID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.items[id]

	if !ok || c.OwnerID != ownerID {
		return contact.ErrNotFound
	}

	delete(r.items, id)

	return nil
}

func (r *ContactsRepo) Search(ctx context.Context, ownerID, query string, limit, offset int) ([]contact.Contact, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := r.collect(ownerID, func(c contact.Contact) bool {
		return containsFold(c.FirstName, query) ||
			containsFold(c.LastName, query) ||
			containsFold(c.Email, query)
	})

	return page(matched, limit, offset)
}

func (r *ContactsRepo) UpcomingBirthdays(ctx context.Context, ownerID string, w contact.BirthdayWindow, limit, offset int) ([]contact.Contact, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := r.collect(ownerID, func(c contact.Contact) bool {
		return c.Birthday != nil && w.Contains(*c.Birthday)
	})

	return page(matched, limit, offset)
}

func (r *ContactsRepo) collect(ownerID string, keep func(contact.Contact) bool) []contact.Contact {
	var out []contact.Contact

	for _, c := range r.items {
		if c.OwnerID == ownerID && keep(c) {
			out = append(out, c)
		}
	}

	// map iteration order is random; sort for stable pagination
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		if out[i].FirstName != out[j].FirstName {
			return out[i].FirstName < out[j].FirstName
		}
		return out[i].ID < out[j].ID
	})

	return out
}

func page(items []contact.Contact, limit, offset int) ([]contact.Contact, int, error) {
	total := len(items)

	if offset >= total {
		return []contact.Contact{}, total, nil
	}

	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}

	return items[offset:end], total, nil
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
