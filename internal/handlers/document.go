// internal/handlers/document.go
package handlers

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rodoaet/aet-backend/internal/i18n"
	"github.com/rodoaet/aet-backend/internal/models"
	"github.com/rodoaet/aet-backend/internal/services"
	"github.com/rodoaet/aet-backend/internal/utils"
)

type DocumentHandler struct {
	documentService *services.DocumentService
}

func NewDocumentHandler(documentService *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
	}
}

// POST /documents
//
// Multipart upload with a "file" part and a "category" field. Returns the
// stored URL the client then attaches to a vehicle, plate or transition.
func (h *DocumentHandler) UploadDocument(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileUploadFailed), err.Error())
		return
	}
	defer file.Close()

	category := models.DocumentCategory(c.PostForm("category"))

	result, err := h.documentService.UploadDocument(file, header, category)
	if err != nil {
		switch {
		case strings.Contains(err.Error(), "exceeds maximum"):
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileTooLarge), err.Error())
		case strings.Contains(err.Error(), "not allowed"):
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileInvalidType), err.Error())
		default:
			utils.InternalErrorResponse(c, i18n.T(lang, i18n.KeyFileUploadFailed))
		}
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyFileUploadSuccess),
		"document": result,
	})
}

// GET /documents/presign?key=...
func (h *DocumentHandler) GetPresignedURL(c *gin.Context) {
	key := c.Query("key")
	if key == "" || strings.Contains(key, "..") {
		utils.BadRequestResponse(c, "Invalid document key", nil)
		return
	}

	url, err := h.documentService.GeneratePresignedURL(key, 15*time.Minute)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"url":        url,
		"expires_in": int((15 * time.Minute).Seconds()),
	})
}
