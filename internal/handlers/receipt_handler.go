package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tailor-billing-api/internal/middleware"
	"tailor-billing-api/internal/services"
)

// ReceiptHandler handles receipt-related HTTP requests
type ReceiptHandler struct {
	receiptService services.ReceiptService
}

// NewReceiptHandler creates a new receipt handler
func NewReceiptHandler(receiptService services.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{
		receiptService: receiptService,
	}
}

// @Summary Record a payment
// @Description Validate a payment against the bill balance and issue a receipt
// @Tags receipts
// @Accept json
// @Produce json
// @Param receipt body services.CreateReceiptRequest true "Payment"
// @Success 201 {object} models.Receipt
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /receipts [post]
func (h *ReceiptHandler) CreateReceipt(c *gin.Context) {
	var req services.CreateReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	req.IssuedBy = middleware.GetUsername(c)

	receipt, err := h.receiptService.CreateReceipt(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, receipt)
}

// @Summary List receipts
// @Description Receipts newest first, ten per page
// @Tags receipts
// @Produce json
// @Param fromDate query string false "Payment date lower bound (YYYY-MM-DD or RFC3339)"
// @Param toDate query string false "Payment date upper bound, inclusive"
// @Param billNumber query int false "Only receipts of this bill"
// @Param page query int false "Page number" default(1)
// @Success 200 {object} pagination.Result[models.Receipt]
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /receipts [get]
func (h *ReceiptHandler) ListReceipts(c *gin.Context) {
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

	filters := &services.ReceiptFilters{Page: page}
	filters.DateRange = window
	if raw := c.Query("billNumber"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 {
			respondBadRequest(c, "billNumber must be a positive integer")
			return
		}
		filters.BillNumber = n
	}

	result, err := h.receiptService.ListReceipts(c.Request.Context(), filters)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// @Summary Get a receipt
// @Tags receipts
// @Produce json
// @Param receiptNumber path int true "Receipt number"
// @Success 200 {object} models.Receipt
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /receipts/{receiptNumber} [get]
func (h *ReceiptHandler) GetReceipt(c *gin.Context) {
	number, err := parseNumberParam(c, "receiptNumber")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	receipt, err := h.receiptService.GetReceipt(c.Request.Context(), number)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, receipt)
}

// @Summary Print-ready receipt
// @Description Receipt with shop header, orders, tax lines and the bill balance after the payment
// @Tags receipts
// @Produce json
// @Param receiptNumber path int true "Receipt number"
// @Success 200 {object} services.PrintableReceipt
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /receipts/{receiptNumber}/print [get]
func (h *ReceiptHandler) PrintReceipt(c *gin.Context) {
	number, err := parseNumberParam(c, "receiptNumber")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	printable, err := h.receiptService.FormatReceiptForPrint(c.Request.Context(), number)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, printable)
}
