package controller

import (
	"io"

	"cognipath_backend/internal/service"
	"cognipath_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type UploadController struct {
	UploadService *service.UploadService
}

func NewUploadController(uploadService *service.UploadService) *UploadController {
	return &UploadController{UploadService: uploadService}
}

// Add godoc
// @Summary Stage reference documents for the next generation request
// @Description Accepted files start transferring immediately and report
// @Description per-file progress; files failing the type or size filter are
// @Description listed under rejected and never tracked.
// @Tags uploads
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param files formData file true "documents"
// @Success 200 {object} util.Response{data=object}
// @Failure 400 {object} util.Response
// @Router /api/uploads [post]
func (c *UploadController) Add(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	form, err := ctx.MultipartForm()
	if err != nil || len(form.File["files"]) == 0 {
		util.BadRequest(ctx, util.ErrNoAttachments.Error())
		return
	}

	var incoming []service.IncomingFile
	for _, fh := range form.File["files"] {
		f, err := fh.Open()
		if err != nil {
			util.LogInternalError(ctx, err)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			util.LogInternalError(ctx, err)
			return
		}
		incoming = append(incoming, service.IncomingFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	manager := c.UploadService.ForUser(claims.UserID)
	accepted, rejected := manager.Add(ctx.Request.Context(), incoming)
	util.Success(ctx, gin.H{
		"accepted": accepted,
		"rejected": rejected,
	})
}

// List godoc
// @Summary Snapshot of the staged uploads with progress
// @Tags uploads
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]service.UploadedFile}
// @Router /api/uploads [get]
func (c *UploadController) List(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	util.Success(ctx, c.UploadService.ForUser(claims.UserID).Files())
}

// Remove godoc
// @Summary Drop a staged upload
// @Description Removing an id is final: progress updates from a transfer
// @Description still running for it are discarded.
// @Tags uploads
// @Produce json
// @Security BearerAuth
// @Param fileId path string true "file id"
// @Success 200 {object} util.Response{data=object}
// @Router /api/uploads/{fileId} [delete]
func (c *UploadController) Remove(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	c.UploadService.ForUser(claims.UserID).Remove(ctx.Param("fileId"))
	util.Success(ctx, gin.H{"removed": true})
}
