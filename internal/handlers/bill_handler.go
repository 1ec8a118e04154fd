package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tailor-billing-api/internal/middleware"
	"tailor-billing-api/internal/models"
	"tailor-billing-api/internal/services"
)

// BillHandler handles bill-related HTTP requests
type BillHandler struct {
	billService services.BillService
}

// NewBillHandler creates a new bill handler
func NewBillHandler(billService services.BillService) *BillHandler {
	return &BillHandler{billService: billService}
}

// DeliveryRequest is the body of a delivery status change
type DeliveryRequest struct {
	DeliveryStatus models.DeliveryStatus `json:"deliveryStatus" binding:"required"`
}

// @Summary Create a bill
// @Tags bills
// @Accept json
// @Produce json
// @Param bill body services.CreateBillRequest true "Bill with orders"
// @Success 201 {object} services.BillDetails
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /bills [post]
func (h *BillHandler) CreateBill(c *gin.Context) {
	var req services.CreateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	req.CreatedBy = middleware.GetUsername(c)

	bill, err := h.billService.CreateBill(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, bill)
}

// @Summary List bills
// @Description Bills newest first with their reconciled aggregates, ten per page
// @Tags bills
// @Produce json
// @Param fromDate query string false "Order date lower bound"
// @Param toDate query string false "Order date upper bound, inclusive"
// @Param paymentStatus query string false "Filter by payment status" Enums(Unpaid, Partially Paid, Paid)
// @Param deliveryStatus query string false "Filter by delivery status" Enums(Pending, Delivered)
// @Param customer query string false "Customer name contains"
// @Param page query int false "Page number" default(1)
// @Success 200 {object} pagination.Result[services.BillDetails]
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /bills [get]
func (h *BillHandler) ListBills(c *gin.Context) {
	window, err := parseWindow(c)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	page, err := parsePage(c)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	status, err := parsePaymentStatus(c.Query("paymentStatus"))
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	delivery := models.DeliveryStatus(c.Query("deliveryStatus"))
	if delivery != "" && !delivery.IsValid() {
		respondBadRequest(c, "unknown delivery status "+string(delivery))
		return
	}

	filters := &services.BillFilters{Page: page}
	filters.DateRange = window
	filters.PaymentStatus = status
	filters.DeliveryStatus = delivery
	filters.CustomerName = c.Query("customer")

	result, err := h.billService.ListBills(c.Request.Context(), filters)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// @Summary Get a bill
// @Description Bill with a freshly computed aggregate and every receipt
// @Tags bills
// @Produce json
// @Param billNumber path int true "Bill number"
// @Success 200 {object} services.BillDetails
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /bills/{billNumber} [get]
func (h *BillHandler) GetBill(c *gin.Context) {
	number, err := parseNumberParam(c, "billNumber")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	bill, err := h.billService.GetBill(c.Request.Context(), number)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bill)
}

// @Summary Update delivery status
// @Tags bills
// @Accept json
// @Produce json
// @Param billNumber path int true "Bill number"
// @Param status body DeliveryRequest true "New delivery status"
// @Success 200 {object} services.BillDetails
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /bills/{billNumber}/delivery [patch]
func (h *BillHandler) UpdateDeliveryStatus(c *gin.Context) {
	number, err := parseNumberParam(c, "billNumber")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	var req DeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if !req.DeliveryStatus.IsValid() {
		respondBadRequest(c, "unknown delivery status "+string(req.DeliveryStatus))
		return
	}

	bill, err := h.billService.UpdateDeliveryStatus(c.Request.Context(), number, req.DeliveryStatus)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bill)
}
