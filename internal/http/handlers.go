package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tazhibayda/foodshare-service/internal/domain"
	"github.com/tazhibayda/foodshare-service/internal/hub"
	"github.com/tazhibayda/foodshare-service/internal/listing"
)

type Handler struct {
	Svc *listing.Service
	Hub *hub.Hub

	// Ping reports storage health for /healthz; nil when the memory store
	// is in use (nothing to probe).
	Ping func(ctx context.Context) error
}

func NewHandler(svc *listing.Service, h *hub.Hub) *Handler {
	return &Handler{Svc: svc, Hub: h}
}

// writeErr maps the orchestrator's typed outcomes onto HTTP statuses.
func writeErr(c *gin.Context, err error) {
	var verr *listing.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": verr.Fields})
	case errors.Is(err, listing.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "listing not found"})
	case errors.Is(err, listing.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, listing.ErrExpired):
		c.JSON(http.StatusConflict, gin.H{"error": "listing expired"})
	case errors.Is(err, listing.ErrNotAvailable):
		c.JSON(http.StatusConflict, gin.H{"error": "listing not available"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// CreateListing godoc
// @Summary Create a food donation listing (helper role)
// @Tags listings
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body listing.CreateInput true "listing fields"
// @Success 201 {object} domain.Listing
// @Failure 400 {object} map[string]any
// @Failure 403 {object} map[string]string
// @Router /api/listings [post]
func (h *Handler) CreateListing(c *gin.Context) {
	var in listing.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	l, err := h.Svc.Create(c.Request.Context(), actorFrom(c), in)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, l)
}

// ListActive godoc
// @Summary Active listings, optionally sorted
// @Tags listings
// @Security BearerAuth
// @Produce json
// @Param sort query string false "created_at | quantity"
// @Param order query string false "asc | desc"
// @Success 200 {array} domain.Listing
// @Router /api/listings [get]
func (h *Handler) ListActive(c *gin.Context) {
	srt := domain.Sort{
		Key:   domain.SortKey(c.Query("sort")),
		Order: domain.SortOrder(c.Query("order")),
	}
	ls, err := h.Svc.Active(c.Request.Context(), srt)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, ls)
}

// AcceptListing godoc
// @Summary Claim a listing (ngo role); exactly one claimant wins
// @Tags listings
// @Security BearerAuth
// @Produce json
// @Param id path int true "listing id"
// @Success 200 {object} domain.Listing
// @Failure 404 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/listings/{id}/accept [post]
func (h *Handler) AcceptListing(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "listing not found"})
		return
	}
	l, err := h.Svc.Accept(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

// MyDonations godoc
// @Summary The helper's own listings, newest first
// @Tags listings
// @Security BearerAuth
// @Produce json
// @Success 200 {array} domain.Listing
// @Router /api/listings/my-donations [get]
func (h *Handler) MyDonations(c *gin.Context) {
	ls, err := h.Svc.Mine(c.Request.Context(), actorFrom(c))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, ls)
}

// AcceptedListings godoc
// @Summary Listings the ngo has claimed, most recent first
// @Tags listings
// @Security BearerAuth
// @Produce json
// @Success 200 {array} domain.Listing
// @Router /api/listings/accepted [get]
func (h *Handler) AcceptedListings(c *gin.Context) {
	ls, err := h.Svc.Claimed(c.Request.Context(), actorFrom(c))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, ls)
}

// Events streams hub broadcasts to the client as server-sent events,
// each one `{"type": "...", "listing": {...}}`. No backlog: a late joiner
// refreshes via GET /api/listings instead.
func (h *Handler) Events(c *gin.Context) {
	sub := h.Hub.Subscribe()
	defer h.Hub.Unsubscribe(sub)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return false
			}
			c.SSEvent("message", ev)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (h *Handler) Healthz(c *gin.Context) {
	if h.Ping != nil {
		if err := h.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
