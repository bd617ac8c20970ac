package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"tokenup/internal/services"
	"tokenup/internal/store"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		message string
	}{
		{&services.ValidationError{Field: "content", Message: "is required"}, http.StatusBadRequest, "content: is required"},
		{services.ErrUnauthenticated, http.StatusUnauthorized, "authentication required"},
		{services.ErrInvalidCredentials, http.StatusUnauthorized, "invalid username or password"},
		{services.ErrForbidden, http.StatusForbidden, "forbidden"},
		{fmt.Errorf("certificate 7: %w", store.ErrNotFound), http.StatusNotFound, "certificate 7: not found"},
		{store.ErrAlreadyAwarded, http.StatusConflict, store.ErrAlreadyAwarded.Error()},
		{errors.New("pq: connection refused"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		status, message := classify(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
		assert.Equal(t, tt.message, message)
	}
}
