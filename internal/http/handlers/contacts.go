package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/contacthub/contacthub/internal/domain/contact"
	"github.com/contacthub/contacthub/internal/http/middlewares"
	"github.com/contacthub/contacthub/internal/service"
	"github.com/gin-gonic/gin"
)

// ContactsService is the slice of service.ContactsService this handler needs.
type ContactsService interface {
	Create(ctx context.Context, ownerID string, req contact.CreateContactRequest) (contact.Contact, error)
	List(ctx context.Context, ownerID string, f contact.ListFilter) (service.Page, error)
	Get(ctx context.Context, ownerID, id string) (contact.Contact, error)
	Update(ctx context.Context, ownerID, id string, req contact.UpdateContactRequest) (contact.Contact, error)
	Delete(ctx context.Context, ownerID, id string) error
	Search(ctx context.Context, ownerID, query string, limit, offset int) (service.Page, error)
	UpcomingBirthdays(ctx context.Context, ownerID string, withinDays, limit, offset int) (service.Page, error)
}

type ContactsHandler struct {
	svc ContactsService
}

func NewContactsHandler(svc ContactsService) *ContactsHandler {
	return &ContactsHandler{svc: svc}
}

func (h *ContactsHandler) CreateContact(ctx *gin.Context) {
	ownerID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	var req contact.CreateContactRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	c, err := h.svc.Create(cctx, ownerID, req)

	if err != nil {
		if errors.Is(err, contact.ErrEmailTaken) {
			RespondConflict(ctx, "contact_email_taken", "A contact with this email already exists.")
			return
		}
		RespondStoreError(ctx, err, "Could not create contact")
		return
	}

	ctx.JSON(http.StatusCreated, c)
}

func (h *ContactsHandler) ListContacts(ctx *gin.Context) {
	ownerID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	filter := contact.ListFilter{
		FirstName: optionalQuery(ctx, "firstName"),
		LastName:  optionalQuery(ctx, "lastName"),
		Email:     optionalQuery(ctx, "email"),
		Limit:     queryInt(ctx, "limit", 0),
		Offset:    queryInt(ctx, "skip", 0),
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	page, err := h.svc.List(cctx, ownerID, filter)

	if err != nil {
		RespondStoreError(ctx, err, "Could not list contacts")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, page)
}

func (h *ContactsHandler) GetContactById(ctx *gin.Context) {
	ownerID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	id := ctx.Param("id")

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	c, err := h.svc.Get(cctx, ownerID, id)

	if err != nil {
		// Another owner's contact answers exactly like a missing one.
		if errors.Is(err, contact.ErrNotFound) {
			RespondNotFound(ctx, "Contact not found")
			return
		}
		RespondStoreError(ctx, err, "Could not fetch contact")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, c)
}

func (h *ContactsHandler) UpdateContact(ctx *gin.Context) {
	ownerID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	id := ctx.Param("id")

	var req contact.UpdateContactRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	c, err := h.svc.Update(cctx, ownerID, id, req)

	if err != nil {
		switch {
		case errors.Is(err, contact.ErrNotFound):
			RespondNotFound(ctx, "Contact not found")
		case errors.Is(err, contact.ErrEmailTaken):
			RespondConflict(ctx, "contact_email_taken", "A contact with this email already exists.")
		default:
			RespondStoreError(ctx, err, "Could not update contact")
		}
		return
	}

	ctx.JSON(http.StatusOK, c)
}

func (h *ContactsHandler) DeleteContact(ctx *gin.Context) {
	ownerID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	id := ctx.Param("id")

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	err := h.svc.Delete(cctx, ownerID, id)

	if err != nil {
		if errors.Is(err, contact.ErrNotFound) {
			RespondNotFound(ctx, "Contact not found")
			return
		}
		RespondStoreError(ctx, err, "Could not delete contact")
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *ContactsHandler) SearchContacts(ctx *gin.Context) {
	ownerID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	query := strings.TrimSpace(ctx.Query("q"))

	if query == "" {
		RespondBadRequest(ctx, "Missing search query", gin.H{
			"fields": []FieldError{{Field: "q", Rule: "required", Message: "is required"}},
		})
		return
	}

	limit := queryInt(ctx, "limit", 0)
	skip := queryInt(ctx, "skip", 0)

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	page, err := h.svc.Search(cctx, ownerID, query, limit, skip)

	if err != nil {
		RespondStoreError(ctx, err, "Could not search contacts")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, page)
}

func (h *ContactsHandler) UpcomingBirthdays(ctx *gin.Context) {
	ownerID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	days := queryInt(ctx, "days", 0)
	limit := queryInt(ctx, "limit", 0)
	skip := queryInt(ctx, "skip", 0)

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	page, err := h.svc.UpcomingBirthdays(cctx, ownerID, days, limit, skip)

	if err != nil {
		RespondStoreError(ctx, err, "Could not list upcoming birthdays")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, page)
}
