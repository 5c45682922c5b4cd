// internal/handlers/vehicle.go
package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rodoaet/aet-backend/internal/i18n"
	"github.com/rodoaet/aet-backend/internal/middleware"
	"github.com/rodoaet/aet-backend/internal/models"
	"github.com/rodoaet/aet-backend/internal/services"
	"github.com/rodoaet/aet-backend/internal/utils"
)

type VehicleHandler struct {
	vehicleService *services.VehicleService
}

func NewVehicleHandler(vehicleService *services.VehicleService) *VehicleHandler {
	return &VehicleHandler{
		vehicleService: vehicleService,
	}
}

// POST /vehicles
func (h *VehicleHandler) CreateVehicle(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.CreateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	vehicle, err := h.vehicleService.CreateVehicle(userID, &req)
	if err != nil {
		if strings.Contains(err.Error(), "already registered") {
			utils.ConflictResponse(c, i18n.T(lang, i18n.KeyVehicleDuplicate))
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyVehicleCreated),
		"vehicle": vehicle,
	})
}

// GET /vehicles
func (h *VehicleHandler) ListVehicles(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	vehicleType := models.VehicleType(c.Query("type"))

	vehicles, total, err := h.vehicleService.ListVehicles(userID, vehicleType, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(vehicles, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /vehicles/:id
func (h *VehicleHandler) GetVehicle(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid vehicle ID", nil)
		return
	}
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	vehicle, err := h.vehicleService.GetVehicle(id, userID)
	if err != nil {
		respondVehicleError(c, err)
		return
	}
	utils.SuccessResponse(c, vehicle)
}

// PUT /vehicles/:id
func (h *VehicleHandler) UpdateVehicle(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid vehicle ID", nil)
		return
	}
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.UpdateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	vehicle, err := h.vehicleService.UpdateVehicle(id, userID, &req)
	if err != nil {
		respondVehicleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyVehicleUpdated),
		"vehicle": vehicle,
	})
}

// DELETE /vehicles/:id
func (h *VehicleHandler) DeleteVehicle(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid vehicle ID", nil)
		return
	}
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	if err := h.vehicleService.DeleteVehicle(id, userID); err != nil {
		if strings.Contains(err.Error(), "referenced by") {
			utils.ConflictResponse(c, i18n.T(lang, i18n.KeyVehicleInUse))
			return
		}
		respondVehicleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyVehicleDeleted),
	})
}

func respondVehicleError(c *gin.Context, err error) {
	switch {
	case strings.Contains(err.Error(), "not found"):
		utils.NotFoundResponse(c, "vehicle")
	case strings.Contains(err.Error(), "unauthorized"):
		utils.ForbiddenResponse(c, "")
	default:
		utils.BadRequestResponse(c, err.Error(), nil)
	}
}
