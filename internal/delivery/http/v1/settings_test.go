package v1

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/avelkov/quadboard/internal/models"
	"github.com/avelkov/quadboard/internal/services"
)

type settingsServiceStub struct {
	saveErr error
}

func (s *settingsServiceStub) GetSettings(context.Context) (models.SystemSettings, error) {
	return models.DefaultSettings(), nil
}

func (s *settingsServiceStub) SaveSettings(_ context.Context, params services.SaveSettingsParams) (models.SystemSettings, error) {
	if s.saveErr != nil {
		return models.SystemSettings{}, s.saveErr
	}
	return params.Settings, nil
}

func performSaveSettings(t *testing.T, saveErr error) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	const body = `{"threshold_critical":2,"threshold_medium":5,"threshold_low":5,"tasks_per_page":10,"mark_overdue_days":3,"warning_days":2}`
	c.Request = httptest.NewRequest(http.MethodPut, "/api/v1/settings", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(currentUserCtxKey, models.User{ID: "u1", Role: models.RoleAdmin})

	h := &handlerImpl{
		logger:   zerolog.Nop(),
		settings: &settingsServiceStub{saveErr: saveErr},
	}
	h.HandleSaveSettings(c)
	return w
}

func TestHandleSaveSettingsStatusMapping(t *testing.T) {
	tests := []struct {
		name        string
		saveErr     error
		wantStatus  int
		wantMessage string
	}{
		{"success", nil, http.StatusOK, ""},
		{"permission denied", services.ErrPermissionDenied, http.StatusForbidden, services.ErrPermissionDenied.Error()},
		{"invalid thresholds", services.ErrInvalidThresholds, http.StatusBadRequest, services.ErrInvalidThresholds.Error()},
		// Storage failures must not leak database error text to the
		// client, and they are server faults, not bad requests.
		{"storage failure", errors.New("ERROR: deadlock detected (SQLSTATE 40P01)"), http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performSaveSettings(t, tt.saveErr)
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.saveErr != nil {
				assert.JSONEq(t, `{"error":"`+tt.wantMessage+`"}`, w.Body.String())
				assert.NotContains(t, w.Body.String(), "SQLSTATE")
			}
		})
	}
}
