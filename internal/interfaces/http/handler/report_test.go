package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	reportapp "github.com/invoicer/backend/internal/application/report"
	"github.com/invoicer/backend/internal/domain/report"
	"github.com/invoicer/backend/internal/domain/shared"
)

func setupReportRoutes(userID string, svc ReportService) http.Handler {
	h := NewReportHandler(NewBaseHandler(false), svc)
	r := newTestRouter(userID)
	r.GET("/api/reports/overview", h.Overview)
	r.GET("/api/reports/revenue", h.Revenue)
	r.GET("/api/reports/clients", h.TopClients)
	return r
}

func TestReportHandler_Revenue(t *testing.T) {
	ownerID := uuid.New()
	svc := new(mockReportService)
	svc.On("Revenue", mock.Anything, ownerID, 0).Return(&reportapp.RevenueResponse{From: "2024-08", To: "2025-07"}, nil)
	svc.On("Revenue", mock.Anything, ownerID, 48).
		Return(nil, shared.NewDomainError("INVALID_MONTHS", "months must not exceed 36"))
	r := setupReportRoutes(ownerID.String(), svc)

	w := perform(t, r, http.MethodGet, "/api/reports/revenue", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "2024-08")

	w = perform(t, r, http.MethodGet, "/api/reports/revenue?months=48", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ERR_INVALID_MONTHS", decode(t, w).Error)
}

func TestReportHandler_TopClients(t *testing.T) {
	ownerID := uuid.New()
	svc := new(mockReportService)
	svc.On("TopClients", mock.Anything, ownerID, 5).Return([]report.ClientTotals{{
		ClientID:   uuid.New(),
		ClientName: "Acme",
		Currency:   "EUR",
		Invoiced:   decimal.NewFromInt(1200),
	}}, nil)

	w := perform(t, setupReportRoutes(ownerID.String(), svc), http.MethodGet, "/api/reports/clients?limit=5", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"client_name":"Acme"`)
}

func TestReportHandler_Overview(t *testing.T) {
	ownerID := uuid.New()
	svc := new(mockReportService)
	svc.On("Overview", mock.Anything, ownerID).Return(&reportapp.OverviewResponse{
		Clients:          3,
		InvoicesByStatus: map[string]int64{"PAID": 2},
	}, nil)

	w := perform(t, setupReportRoutes(ownerID.String(), svc), http.MethodGet, "/api/reports/overview", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"PAID":2`)
}

func TestHealthHandler(t *testing.T) {
	healthy := NewHealthHandler(map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
	})
	failing := NewHealthHandler(map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("dial tcp: refused") },
	})

	r := gin.New()
	r.GET("/health", healthy.Health)
	r.GET("/health/failing", failing.Health)

	w := perform(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"ok"`)

	w = perform(t, r, http.MethodGet, "/health/failing", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	env := decode(t, w)
	assert.Equal(t, "ERR_SERVICE_UNAVAILABLE", env.Error)
	assert.Contains(t, string(env.Details), "refused")
}
