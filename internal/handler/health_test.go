package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

func newHealthEcho(t *testing.T, cache Pinger, dbErr error) *echo.Echo {
	t.Helper()
	sqlDB, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	gormDB, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)

	ping := dbMock.ExpectPing()
	if dbErr != nil {
		ping.WillReturnError(dbErr)
	}

	h := NewHealthHandler(gormDB, cache)
	e := newTestEcho(nil)
	e.GET("/healthz", h.Liveness)
	e.GET("/readyz", h.Readiness)
	return e
}

func TestHealthHandler_Liveness(t *testing.T) {
	e := newHealthEcho(t, stubPinger{}, nil)

	rec := do(e, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestHealthHandler_Readiness(t *testing.T) {
	tests := []struct {
		name       string
		cacheErr   error
		dbErr      error
		wantStatus int
		wantBody   string
	}{
		{"all up", nil, nil, http.StatusOK, "ok"},
		{"redis down", errors.New("dial tcp: refused"), nil, http.StatusServiceUnavailable, "degraded"},
		{"mysql down", nil, errors.New("bad connection"), http.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newHealthEcho(t, stubPinger{err: tt.cacheErr}, tt.dbErr)

			rec := do(e, http.MethodGet, "/readyz", "")

			assert.Equal(t, tt.wantStatus, rec.Code)
			var resp readinessResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantBody, resp.Status)
			assert.Len(t, resp.Dependencies, 2)
		})
	}
}
