package handler

import (
	"github.com/gin-gonic/gin"
)

// ReportHandler serves the dashboard reports under /api/reports
type ReportHandler struct {
	BaseHandler
	reportService ReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(base BaseHandler, reportService ReportService) *ReportHandler {
	return &ReportHandler{BaseHandler: base, reportService: reportService}
}

type revenueQuery struct {
	Months int `form:"months" binding:"omitempty,min=1"`
}

type topClientsQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1"`
}

// Overview godoc
// @ID           getReportOverview
// @Summary      Dashboard overview
// @Description  Totals of invoiced, paid and outstanding amounts with counts per status
// @Tags         reports
// @Produce      json
// @Success      200 {object} dto.Response{data=reportapp.OverviewResponse}
// @Failure      401 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /reports/overview [get]
func (h *ReportHandler) Overview(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	overview, err := h.reportService.Overview(c.Request.Context(), ownerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Overview retrieved", overview)
}

// Revenue godoc
// @ID           getRevenueReport
// @Summary      Monthly revenue
// @Description  Paid amounts per month for the last months
// @Tags         reports
// @Produce      json
// @Param        months query int false "Number of months" default(12) minimum(1)
// @Success      200 {object} dto.Response{data=reportapp.RevenueResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /reports/revenue [get]
func (h *ReportHandler) Revenue(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	var q revenueQuery
	if !h.bindQuery(c, &q) {
		return
	}
	revenue, err := h.reportService.Revenue(c.Request.Context(), ownerID, q.Months)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Revenue retrieved", revenue)
}

// TopClients godoc
// @ID           getTopClients
// @Summary      Top clients
// @Description  Clients ranked by invoiced amount
// @Tags         reports
// @Produce      json
// @Param        limit query int false "Number of clients" default(10) minimum(1)
// @Success      200 {object} dto.Response{data=[]report.ClientTotals}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /reports/clients [get]
func (h *ReportHandler) TopClients(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	var q topClientsQuery
	if !h.bindQuery(c, &q) {
		return
	}
	clients, err := h.reportService.TopClients(c.Request.Context(), ownerID, q.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Top clients retrieved", clients)
}
