package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/blogauth-server/internal/api/http/cookie"
	"github.com/dtroode/blogauth-server/internal/mocks"
	"github.com/dtroode/blogauth-server/internal/model"
	"github.com/dtroode/blogauth-server/internal/testutil"
)

func withRefresh(req *http.Request, token string) *http.Request {
	req.AddCookie(&http.Cookie{Name: cookie.RefreshTokenName, Value: token})
	return req
}

func withDeviceParam(req *http.Request, deviceID string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("deviceId", deviceID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestDevices_List(t *testing.T) {
	t.Parallel()

	active := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	svc := mocks.NewAuthService(t)
	svc.On("ListDevices", mock.Anything, "rt").Return([]model.DeviceSession{
		{UserID: uuid.New(), DeviceID: "d1", Title: "Chrome on Windows", IP: "10.0.0.1", LastActiveAt: active},
	}, nil).Once()
	h := NewDevices(svc, testutil.MakeNoopLogger())

	rec := httptest.NewRecorder()
	h.List(rec, withRefresh(httptest.NewRequest(http.MethodGet, "/security/devices", nil), "rt"))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp []deviceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []deviceResponse{{IP: "10.0.0.1", Title: "Chrome on Windows", LastActiveDate: active, DeviceID: "d1"}}, resp)

	rec = httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/security/devices", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDevices_TerminateOthers(t *testing.T) {
	t.Parallel()

	svc := mocks.NewAuthService(t)
	svc.On("TerminateOtherDevices", mock.Anything, "rt").Return(nil).Once()
	svc.On("TerminateOtherDevices", mock.Anything, "stale").Return(model.ErrUnauthorized).Once()
	h := NewDevices(svc, testutil.MakeNoopLogger())

	rec := httptest.NewRecorder()
	h.TerminateOthers(rec, withRefresh(httptest.NewRequest(http.MethodDelete, "/security/devices", nil), "rt"))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.TerminateOthers(rec, withRefresh(httptest.NewRequest(http.MethodDelete, "/security/devices", nil), "stale"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDevices_Terminate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		svcErr     error
		wantStatus int
	}{
		{name: "own device", wantStatus: http.StatusNoContent},
		{name: "foreign device", svcErr: model.ErrForbidden, wantStatus: http.StatusForbidden},
		{name: "unknown device", svcErr: model.ErrNotFound, wantStatus: http.StatusNotFound},
		{name: "stale token", svcErr: model.ErrUnauthorized, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := mocks.NewAuthService(t)
			svc.On("TerminateDevice", mock.Anything, "rt", "d2").Return(tt.svcErr).Once()

			req := withDeviceParam(withRefresh(httptest.NewRequest(http.MethodDelete, "/security/devices/d2", nil), "rt"), "d2")
			rec := httptest.NewRecorder()
			NewDevices(svc, testutil.MakeNoopLogger()).Terminate(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
