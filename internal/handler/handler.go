// Package handler exposes the ledger services over HTTP/JSON with gin.
// The core stays a library contract; this package only translates requests,
// responses, and error codes.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tallyhq/tally/internal/auth"
	"github.com/tallyhq/tally/internal/service"
	"github.com/tallyhq/tally/internal/storage"
)

// Handler bundles the services behind the HTTP surface.
type Handler struct {
	auth        *auth.PasswordAuthenticator
	jwt         *auth.JWTManager
	groups      *service.GroupService
	ledger      *service.LedgerService
	settlements *service.SettlementService
	store       storage.Store
}

// New creates a Handler over the given services.
func New(
	authenticator *auth.PasswordAuthenticator,
	jwtManager *auth.JWTManager,
	groups *service.GroupService,
	ledger *service.LedgerService,
	settlements *service.SettlementService,
	store storage.Store,
) *Handler {
	return &Handler{
		auth:        authenticator,
		jwt:         jwtManager,
		groups:      groups,
		ledger:      ledger,
		settlements: settlements,
		store:       store,
	}
}

// writeError maps domain errors onto HTTP status codes.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrNotAuthorized):
		status = http.StatusForbidden
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrMissingToken):
		status = http.StatusUnauthorized
	case errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrEmailExists):
		status = http.StatusBadRequest
	}
	c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
