package contact

import (
	"errors"
	"time"
)

type Contact struct {
	ID        string     `json:"id"`
	OwnerID   string     `json:"-"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	Birthday  *time.Time `json:"birthday,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

var (
	ErrNotFound   = errors.New("contact not found")
	ErrEmailTaken = errors.New("contact email already exists for this owner")
)

// with pointers if optional, it will be nil
type ListFilter struct {
	FirstName *string
	LastName  *string
	Email     *string
	Limit     int
	Offset    int
}

type CreateContactRequest struct {
	FirstName string     `json:"firstName" binding:"required,min=1,max=80"`
	LastName  string     `json:"lastName" binding:"required,min=1,max=80"`
	Email     string     `json:"email" binding:"required,email"`
	Phone     string     `json:"phone" binding:"required,min=3,max=32"`
	Birthday  *time.Time `json:"birthday" binding:"omitempty"`
	Notes     string     `json:"notes" binding:"omitempty,max=2000"`
}

// a full update payload; every field is applied in one statement so two
// concurrent updates can never interleave field-by-field.
type UpdateContactRequest struct {
	FirstName string     `json:"firstName" binding:"required,min=1,max=80"`
	LastName  string     `json:"lastName" binding:"required,min=1,max=80"`
	Email     string     `json:"email" binding:"required,email"`
	Phone     string     `json:"phone" binding:"required,min=3,max=32"`
	Birthday  *time.Time `json:"birthday" binding:"omitempty"`
	Notes     string     `json:"notes" binding:"omitempty,max=2000"`
}
