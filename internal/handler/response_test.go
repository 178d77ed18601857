package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/jwalitptl/clinic-portal/pkg/errors"
)

func TestBindErrorMapsSizeLimitTo413(t *testing.T) {
	rec := httptest.NewRecorder()
	body := http.MaxBytesReader(rec, io.NopCloser(strings.NewReader(strings.Repeat("x", 32))), 16)
	_, readErr := io.ReadAll(body)

	err := BindError(fmt.Errorf("decode: %w", readErr), "invalid request")
	assert.ErrorIs(t, err, apperrors.TooLargeError)
	assert.Equal(t, http.StatusRequestEntityTooLarge, apperrors.StatusCode(err))
	assert.Equal(t, "request body exceeds 16 bytes", apperrors.PublicMessage(err))
}

func TestBindErrorKeepsValidationMessage(t *testing.T) {
	err := BindError(errors.New("unexpected EOF"), "status is required")
	assert.ErrorIs(t, err, apperrors.ValidationError)
	assert.Equal(t, http.StatusBadRequest, apperrors.StatusCode(err))
	assert.Equal(t, "status is required", apperrors.PublicMessage(err))
}
