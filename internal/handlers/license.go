// internal/handlers/license.go
package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rodoaet/aet-backend/internal/i18n"
	"github.com/rodoaet/aet-backend/internal/middleware"
	"github.com/rodoaet/aet-backend/internal/models"
	"github.com/rodoaet/aet-backend/internal/services"
	"github.com/rodoaet/aet-backend/internal/store"
	"github.com/rodoaet/aet-backend/internal/utils"
)

type LicenseHandler struct {
	licenseService *services.LicenseService
}

func NewLicenseHandler(licenseService *services.LicenseService) *LicenseHandler {
	return &LicenseHandler{
		licenseService: licenseService,
	}
}

// POST /licenses
func (h *LicenseHandler) CreateLicenseRequest(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.CreateLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	request, err := h.licenseService.CreateLicenseRequest(userID, &req)
	if err != nil {
		respondLicenseError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyLicenseCreated),
		"request": request,
	})
}

// GET /licenses
func (h *LicenseHandler) ListLicenseRequests(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	filter := store.ListFilter{Pagination: params, Search: params.Search}

	if status := c.Query("status"); status != "" {
		filter.Status = models.LicenseStatus(status)
	}
	if state := c.Query("state"); state != "" {
		filter.State = strings.ToUpper(state)
	}
	if transporterIDStr := c.Query("transporter_id"); transporterIDStr != "" {
		if transporterID, err := uuid.Parse(transporterIDStr); err == nil {
			filter.TransporterID = &transporterID
		}
	}
	// Owner filter is only meaningful for staff; ListRequests pins it to the
	// caller for everyone else.
	if ownerIDStr := c.Query("user_id"); ownerIDStr != "" {
		if ownerID, err := uuid.Parse(ownerIDStr); err == nil {
			filter.UserID = &ownerID
		}
	}

	requests, total, err := h.licenseService.ListRequests(userID, middleware.IsStaff(c), filter)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(requests, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /licenses/drafts
func (h *LicenseHandler) ListDrafts(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	drafts, total, err := h.licenseService.ListDrafts(userID, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(drafts, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /licenses/:id
func (h *LicenseHandler) GetLicenseRequest(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid license request ID", nil)
		return
	}
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	request, err := h.licenseService.GetLicenseRequest(id, userID, middleware.IsStaff(c))
	if err != nil {
		respondLicenseError(c, err)
		return
	}
	utils.SuccessResponse(c, request)
}

// GET /licenses/:id/progress
func (h *LicenseHandler) GetProgress(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid license request ID", nil)
		return
	}
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	progress, err := h.licenseService.Progress(id, userID, middleware.IsStaff(c))
	if err != nil {
		respondLicenseError(c, err)
		return
	}
	utils.SuccessResponse(c, progress)
}

// PUT /licenses/:id
func (h *LicenseHandler) UpdateDraft(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid license request ID", nil)
		return
	}
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.UpdateLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	request, err := h.licenseService.UpdateDraft(id, userID, &req)
	if err != nil {
		respondLicenseError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyLicenseUpdated),
		"request": request,
	})
}

// POST /licenses/:id/submit
func (h *LicenseHandler) SubmitDraft(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid license request ID", nil)
		return
	}
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	request, err := h.licenseService.SubmitDraft(id, userID)
	if err != nil {
		respondLicenseError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyLicenseSubmitted),
		"request": request,
	})
}

// DELETE /licenses/:id
func (h *LicenseHandler) DeleteDraft(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid license request ID", nil)
		return
	}
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	if err := h.licenseService.DeleteDraft(id, userID); err != nil {
		respondLicenseError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyLicenseDeleted),
	})
}

// POST /licenses/:id/cancel
func (h *LicenseHandler) CancelRequest(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid license request ID", nil)
		return
	}
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	request, err := h.licenseService.CancelRequest(id, userID)
	if err != nil {
		respondLicenseError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyLicenseCanceled),
		"request": request,
	})
}

// POST /licenses/:id/renew
func (h *LicenseHandler) RenewLicense(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid license request ID", nil)
		return
	}
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.RenewLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	draft, err := h.licenseService.Renew(id, userID, &req)
	if err != nil {
		respondLicenseError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyLicenseRenewed),
		"request": draft,
	})
}

// PUT /staff/licenses/:id/states/:state
func (h *LicenseHandler) ApplyStateTransition(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid license request ID", nil)
		return
	}
	state := strings.ToUpper(c.Param("state"))
	if !models.ValidStateCode(state) {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyLicenseStateInvalid), nil)
		return
	}

	var req services.StateTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	request, err := h.licenseService.ApplyStateTransition(id, state, &req)
	if err != nil {
		respondLicenseError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyLicenseTransition),
		"request": request,
	})
}

// respondLicenseError maps domain errors to HTTP responses. Rule violations
// are conflicts, missing approval data is unprocessable, everything typed as
// not-found stays not-found.
func respondLicenseError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	var invalidState *models.InvalidStateError
	var notCovered *models.StateNotCoveredError
	var illegal *models.IllegalTransitionError
	var missing *models.MissingApprovalDataError

	switch {
	case errors.Is(err, store.ErrNotFound):
		utils.NotFoundResponse(c, "license")
	case errors.Is(err, store.ErrVersionConflict):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyLicenseConflict))
	case errors.Is(err, models.ErrRequestSubmitted):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyLicenseAlreadySubmitted))
	case errors.Is(err, models.ErrDraftNotSubmitted):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyLicenseNotSubmitted))
	case errors.As(err, &invalidState), errors.As(err, &notCovered):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyLicenseStateInvalid), err.Error())
	case errors.As(err, &illegal):
		utils.ConflictResponse(c, err.Error())
	case errors.As(err, &missing):
		utils.UnprocessableResponse(c, "MISSING_APPROVAL_DATA", err.Error(), missing.Missing)
	case strings.Contains(err.Error(), "unauthorized"):
		utils.ForbiddenResponse(c, "")
	case strings.Contains(err.Error(), "validation failed"):
		utils.BadRequestResponse(c, err.Error(), nil)
	default:
		utils.BadRequestResponse(c, err.Error(), nil)
	}
}
