// internal/handlers/verification.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/rodoaet/aet-backend/internal/services"
	"github.com/rodoaet/aet-backend/internal/store"
	"github.com/rodoaet/aet-backend/internal/utils"
)

type VerificationHandler struct {
	verificationService *services.VerificationService
}

func NewVerificationHandler(verificationService *services.VerificationService) *VerificationHandler {
	return &VerificationHandler{
		verificationService: verificationService,
	}
}

// GET /verify/:number
//
// Public, unauthenticated. Answers whether an AET request number is real and
// what it currently authorizes, state by state.
func (h *VerificationHandler) VerifyByNumber(c *gin.Context) {
	result, err := h.verificationService.VerifyByNumber(c.Param("number"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.NotFoundResponse(c, "verification")
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}
	utils.SuccessResponse(c, result)
}
