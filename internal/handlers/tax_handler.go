package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tailor-billing-api/internal/services"
)

// TaxHandler handles tax definition requests
type TaxHandler struct {
	taxService services.TaxService
}

// NewTaxHandler creates a new tax handler
func NewTaxHandler(taxService services.TaxService) *TaxHandler {
	return &TaxHandler{taxService: taxService}
}

// @Summary List tax definitions
// @Tags taxes
// @Produce json
// @Success 200 {array} models.TaxDefinition
// @Security BearerAuth
// @Router /taxes [get]
func (h *TaxHandler) ListTaxes(c *gin.Context) {
	taxes, err := h.taxService.ListTaxes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, taxes)
}

// @Summary Create a tax definition
// @Tags taxes
// @Accept json
// @Produce json
// @Param tax body services.TaxRequest true "Tax definition"
// @Success 201 {object} models.TaxDefinition
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /taxes [post]
func (h *TaxHandler) CreateTax(c *gin.Context) {
	var req services.TaxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	tax, err := h.taxService.CreateTax(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tax)
}

// @Summary Get a tax definition
// @Tags taxes
// @Produce json
// @Param name path string true "Tax name"
// @Success 200 {object} models.TaxDefinition
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /taxes/{name} [get]
func (h *TaxHandler) GetTax(c *gin.Context) {
	tax, err := h.taxService.GetTax(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tax)
}

// @Summary Update a tax definition
// @Description Existing receipts keep the definition they were issued with
// @Tags taxes
// @Accept json
// @Produce json
// @Param name path string true "Tax name"
// @Param tax body services.TaxRequest true "Tax definition"
// @Success 200 {object} models.TaxDefinition
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /taxes/{name} [put]
func (h *TaxHandler) UpdateTax(c *gin.Context) {
	var req services.TaxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	tax, err := h.taxService.UpdateTax(c.Request.Context(), c.Param("name"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tax)
}

// @Summary Delete a tax definition
// @Tags taxes
// @Param name path string true "Tax name"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /taxes/{name} [delete]
func (h *TaxHandler) DeleteTax(c *gin.Context) {
	if err := h.taxService.DeleteTax(c.Request.Context(), c.Param("name")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
