// internal/handlers/transporter.go
package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rodoaet/aet-backend/internal/i18n"
	"github.com/rodoaet/aet-backend/internal/middleware"
	"github.com/rodoaet/aet-backend/internal/receita"
	"github.com/rodoaet/aet-backend/internal/services"
	"github.com/rodoaet/aet-backend/internal/utils"
)

type TransporterHandler struct {
	transporterService *services.TransporterService
}

func NewTransporterHandler(transporterService *services.TransporterService) *TransporterHandler {
	return &TransporterHandler{
		transporterService: transporterService,
	}
}

// POST /transporters
func (h *TransporterHandler) CreateTransporter(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.CreateTransporterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	transporter, err := h.transporterService.CreateTransporter(userID, &req)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":     i18n.T(lang, i18n.KeyTransporterCreated),
		"transporter": transporter,
	})
}

// GET /transporters
func (h *TransporterHandler) ListTransporters(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	transporters, total, err := h.transporterService.ListTransporters(userID, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(transporters, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /transporters/:id
func (h *TransporterHandler) GetTransporter(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid transporter ID", nil)
		return
	}
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	transporter, err := h.transporterService.GetTransporter(id, userID)
	if err != nil {
		respondTransporterError(c, err)
		return
	}
	utils.SuccessResponse(c, transporter)
}

// PUT /transporters/:id
func (h *TransporterHandler) UpdateTransporter(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid transporter ID", nil)
		return
	}
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.UpdateTransporterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	transporter, err := h.transporterService.UpdateTransporter(id, userID, &req)
	if err != nil {
		respondTransporterError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":     i18n.T(lang, i18n.KeyTransporterUpdated),
		"transporter": transporter,
	})
}

// POST /transporters/:id/refresh-registry
func (h *TransporterHandler) RefreshRegistry(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid transporter ID", nil)
		return
	}
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	transporter, err := h.transporterService.RefreshRegistry(id, userID)
	if err != nil {
		respondTransporterError(c, err)
		return
	}
	utils.SuccessResponse(c, transporter)
}

// GET /transporters/cnpj/:cnpj
//
// Form autofill: the cached registry record for a CNPJ before the transporter
// exists.
func (h *TransporterHandler) LookupCNPJ(c *gin.Context) {
	record, err := h.transporterService.LookupCNPJ(c.Param("cnpj"))
	if err != nil {
		if errors.Is(err, receita.ErrInvalid) {
			utils.BadRequestResponse(c, "Invalid CNPJ", nil)
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}
	utils.SuccessResponse(c, record)
}

func respondTransporterError(c *gin.Context, err error) {
	switch {
	case strings.Contains(err.Error(), "not found"):
		utils.NotFoundResponse(c, "transporter")
	case strings.Contains(err.Error(), "unauthorized"):
		utils.ForbiddenResponse(c, "")
	default:
		utils.BadRequestResponse(c, err.Error(), nil)
	}
}
