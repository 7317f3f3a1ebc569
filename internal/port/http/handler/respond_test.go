package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AlphaIsYour/creanomic-sub002/internal/platform/logger"
	"github.com/AlphaIsYour/creanomic-sub002/internal/service"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		err    error
		status int
		kind   string
	}{
		{service.ErrInvalidEmail, http.StatusBadRequest, KindValidation},
		{service.ErrInvalidCode, http.StatusBadRequest, KindValidation},
		{service.ErrEmptyQuery, http.StatusBadRequest, KindValidation},
		{service.ErrInvalidStatus, http.StatusBadRequest, KindValidation},
		{fmt.Errorf("%w: name is required", service.ErrValidation), http.StatusBadRequest, KindValidation},
		{service.ErrCodeExpired, http.StatusBadRequest, KindExpired},
		{service.ErrEmailAlreadyRegistered, http.StatusBadRequest, KindConflict},
		{service.ErrQuotaExceeded, http.StatusBadRequest, KindConflict},
		{service.ErrImageLimitReached, http.StatusBadRequest, KindConflict},
		{service.ErrConflict, http.StatusConflict, KindConflict},
		{service.ErrInvalidCredentials, http.StatusUnauthorized, KindUnauthenticated},
		{service.ErrNotVerified, http.StatusUnauthorized, KindUnauthenticated},
		{service.ErrForbidden, http.StatusForbidden, KindForbidden},
		{service.ErrNotFound, http.StatusNotFound, KindNotFound},
		{service.ErrDeliveryFailure, http.StatusBadGateway, KindDependency},
		{errors.New("mongo: socket was unexpectedly closed"), http.StatusInternalServerError, KindInternal},
	}

	for _, tc := range cases {
		status, kind, _ := classify(tc.err)
		assert.Equal(t, tc.status, status, "error %v", tc.err)
		assert.Equal(t, tc.kind, kind, "error %v", tc.err)
	}
}

func TestWriteError_MasksInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, logger.NewNop(), nil, "CreateOffer", errors.New("connection string with password leaked"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body errorBody
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, KindInternal, body.Error.Kind)
	assert.Equal(t, "internal server error", body.Error.Message)
}

func TestWriteError_KeepsClientFacingMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, logger.NewNop(), nil, "RequestCode", service.ErrInvalidEmail)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body errorBody
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, KindValidation, body.Error.Kind)
	assert.NotEmpty(t, body.Error.Message)
}
