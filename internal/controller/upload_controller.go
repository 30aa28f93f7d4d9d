package controller

import (
	"fmt"
	"path/filepath"
	"time"

	"medprep_backend/internal/service"
	"medprep_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxUploadSize = 5 << 20 // 5 MiB

type UploadController struct {
	StorageService *service.StorageService
}

func NewUploadController(storageService *service.StorageService) *UploadController {
	return &UploadController{StorageService: storageService}
}

// UploadImage godoc
// @Summary Upload an image
// @Description Stores a question figure or avatar and returns its URL
// @Tags uploads
// @Accept  mpfd
// @Produce  json
// @Security ApiKeyAuth
// @Param   file formData file true "Image file"
// @Success 201 {object} util.Response{data=object} "Created"
// @Failure 400 {object} util.Response "Not an image or too large"
// @Router /api/uploads/images [post]
func (c *UploadController) UploadImage(ctx *gin.Context) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file field is required")
		return
	}
	if fileHeader.Size > maxUploadSize {
		util.BadRequest(ctx, "file exceeds 5 MiB")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer file.Close()

	mimeType, err := util.ValidateMimeType(file, []string{util.MimeImage})
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if _, err := file.Seek(0, 0); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	filename := fmt.Sprintf("images/%s/%s%s",
		time.Now().Format("2006/01"),
		uuid.New().String(),
		filepath.Ext(fileHeader.Filename))
	url, err := c.StorageService.Upload(ctx.Request.Context(), filename, file, fileHeader.Size, mimeType)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, gin.H{"url": url})
}
