package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/profdocs/internal/common"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error            string `json:"error"`
	Message          string `json:"message"`
	RequiresPassword bool   `json:"requiresPassword,omitempty"`
}

// statusTable is checked in order: more specific errors come before the
// ones they wrap.
var statusTable = []struct {
	err    error
	status int
	code   string
}{
	{common.ErrPasswordRequired, http.StatusUnauthorized, "password_required"},
	{common.ErrWrongPassword, http.StatusUnauthorized, "wrong_password"},
	{common.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{common.ErrUnlockTicketExpired, http.StatusUnauthorized, "ticket_expired"},
	{common.ErrInvalidToken, http.StatusUnauthorized, "invalid_token"},
	{common.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	{common.ErrInvalidPassphrase, http.StatusForbidden, "invalid_passphrase"},
	{common.ErrForbidden, http.StatusForbidden, "forbidden"},
	{common.ErrNotFound, http.StatusNotFound, "not_found"},
	{common.ErrConflict, http.StatusConflict, "conflict"},
	{common.ErrLimitExceeded, http.StatusConflict, "limit_exceeded"},
	{common.ErrDocumentTooLarge, http.StatusRequestEntityTooLarge, "document_too_large"},
	{common.ErrInvalidType, http.StatusUnprocessableEntity, "invalid_type"},
	{common.ErrProtectedChapter, http.StatusUnprocessableEntity, "protected_chapter"},
	{common.ErrTooManyPages, http.StatusUnprocessableEntity, "too_many_pages"},
	{common.ErrInvariantViolation, http.StatusUnprocessableEntity, "invariant_violation"},
	{common.ErrMalformedDocument, http.StatusUnprocessableEntity, "malformed_document"},
	{common.ErrValidation, http.StatusBadRequest, "validation"},
	{common.ErrUpstreamUnavailable, http.StatusBadGateway, "upstream_unavailable"},
	{common.ErrMissingSettings, http.StatusInternalServerError, "missing_settings"},
}

// statusOf maps a service error to a status code and a stable error code.
func statusOf(err error) (int, string) {
	for _, e := range statusTable {
		if errors.Is(err, e.err) {
			return e.status, e.code
		}
	}
	return http.StatusInternalServerError, "internal"
}

// writeError renders err. Messages of 5xx responses are not echoed to the
// client.
func writeError(c *gin.Context, err error) {
	status, code := statusOf(err)
	_ = c.Error(err)

	resp := errorResponse{Error: code, Message: err.Error()}
	if status >= http.StatusInternalServerError {
		resp.Message = http.StatusText(status)
	}
	if errors.Is(err, common.ErrPasswordRequired) {
		resp.RequiresPassword = true
	}
	c.AbortWithStatusJSON(status, resp)
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "validation", Message: msg})
}
