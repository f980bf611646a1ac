package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{Unauthenticated(nil), http.StatusUnauthorized},
		{InvalidCredentials(), http.StatusUnauthorized},
		{Forbidden("no"), http.StatusForbidden},
		{NotFound("gone"), http.StatusNotFound},
		{Conflict("dup"), http.StatusConflict},
		{Fulfillment("https://report", nil), http.StatusInternalServerError},
		{Internal("boom", nil), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.err.Kind), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus())
		})
	}
}

func TestFromUnwrapsWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("loading franchise: %w", NotFound("franchise not found"))

	got := From(wrapped)
	assert.Equal(t, KindNotFound, got.Kind)
	assert.True(t, Is(wrapped, KindNotFound))
	assert.False(t, Is(wrapped, KindConflict))
}

func TestFromPlainErrorIsInternal(t *testing.T) {
	cause := errors.New("disk full")

	got := From(cause)
	assert.Equal(t, KindInternal, got.Kind)
	assert.ErrorIs(t, got, cause)
}

func TestFulfillmentCarriesReportURL(t *testing.T) {
	err := Fulfillment("https://chaos", errors.New("503"))
	assert.Equal(t, "https://chaos", err.ReportURL)
	assert.Contains(t, err.Message, "Failed to fulfill")
}
