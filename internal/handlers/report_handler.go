package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tailor-billing-api/internal/models"
	"tailor-billing-api/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler serves dashboard statistics and bill reports
type ReportHandler struct {
	dashboardService services.DashboardService
	reportService    services.ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(dashboardService services.DashboardService, reportService services.ReportService) *ReportHandler {
	return &ReportHandler{
		dashboardService: dashboardService,
		reportService:    reportService,
	}
}

// @Summary Dashboard statistics
// @Description Bill counts and totals for bills ordered in the window; receipts collected in the window
// @Tags reports
// @Produce json
// @Param fromDate query string false "Lower bound"
// @Param toDate query string false "Upper bound, inclusive"
// @Success 200 {object} models.DashboardStats
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /dashboard/stats [get]
func (h *ReportHandler) GetStats(c *gin.Context) {
	window, err := parseWindow(c)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	stats, err := h.dashboardService.GetStats(c.Request.Context(), window)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// @Summary Export bills as XLSX
// @Tags reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param fromDate query string false "Order date lower bound"
// @Param toDate query string false "Order date upper bound, inclusive"
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /reports/bills.xlsx [get]
func (h *ReportHandler) ExportBills(c *gin.Context) {
	window, err := parseWindow(c)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := h.reportService.ExportBillsXLSX(c.Request.Context(), window, &buf); err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("bills-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ArchiveRequest selects the order-date window of an archived export
type ArchiveRequest struct {
	FromDate string `json:"fromDate"`
	ToDate   string `json:"toDate"`
}

// @Summary Archive a bill export
// @Description Exports bills ordered in the window and keeps the workbook in the report archive
// @Tags reports
// @Accept json
// @Produce json
// @Param request body ArchiveRequest true "Order date window"
// @Success 201 {object} services.ArchivedReport
// @Failure 400 {object} ErrorResponse
// @Failure 501 {object} ErrorResponse
// @Security BearerAuth
// @Router /reports/archive [post]
func (h *ReportHandler) ArchiveBills(c *gin.Context) {
	var req ArchiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid JSON body: "+err.Error())
		return
	}

	window, err := models.ParseDateRange(req.FromDate, req.ToDate)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	report, err := h.reportService.ArchiveBillsXLSX(c.Request.Context(), window)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, report)
}

// @Summary List archived bill exports
// @Tags reports
// @Produce json
// @Success 200 {array} services.ArchivedReport
// @Failure 501 {object} ErrorResponse
// @Security BearerAuth
// @Router /reports/archive [get]
func (h *ReportHandler) ListArchive(c *gin.Context) {
	reports, err := h.reportService.ListArchivedReports(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reports)
}

// @Summary Download an archived bill export
// @Tags reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param name path string true "Report name"
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /reports/archive/{name} [get]
func (h *ReportHandler) GetArchived(c *gin.Context) {
	name := c.Param("name")
	data, err := h.reportService.GetArchivedReport(c.Request.Context(), name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, xlsxContentType, data)
}
