package handlers

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"tailor-billing-api/internal/models"
	"tailor-billing-api/pkg/pagination"
)

func parseNumberParam(c *gin.Context, name string) (int64, error) {
	n, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return n, nil
}

func parseWindow(c *gin.Context) (models.DateRange, error) {
	return models.ParseDateRange(c.Query("fromDate"), c.Query("toDate"))
}

func parsePage(c *gin.Context) (pagination.Params, error) {
	return pagination.ParsePage(c.Query("page"))
}

func parsePaymentStatus(raw string) (models.PaymentStatus, error) {
	switch status := models.PaymentStatus(raw); status {
	case "", models.PaymentStatusUnpaid, models.PaymentStatusPartiallyPaid, models.PaymentStatusPaid:
		return status, nil
	default:
		return "", fmt.Errorf("unknown payment status %q", raw)
	}
}
