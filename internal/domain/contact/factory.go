package contact

import (
	"time"

	"github.com/google/uuid"
)

func NewFromCreateRequest(ownerID string, req CreateContactRequest) Contact {
	now := time.Now().UTC()

	return Contact{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Birthday:  req.Birthday,
		Notes:     req.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
