package controller

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"cognipath_backend/internal/config"
	"cognipath_backend/internal/service"
	"cognipath_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type PathController struct {
	PathService   *service.PathService
	UploadService *service.UploadService
	UploadCfg     config.UploadConfig
}

func NewPathController(pathService *service.PathService, uploadService *service.UploadService, uploadCfg config.UploadConfig) *PathController {
	return &PathController{
		PathService:   pathService,
		UploadService: uploadService,
		UploadCfg:     uploadCfg,
	}
}

// GeneratePath godoc
// @Summary Generate a personalized learning path
// @Description Builds a syllabus from the student's name, goal and level,
// @Description optionally grounded in uploaded reference documents. Works
// @Description without authentication; anonymous results are not saved.
// @Tags paths
// @Accept mpfd
// @Produce json
// @Param name formData string true "student name"
// @Param goal formData string true "learning goal"
// @Param level formData string false "self-reported level"
// @Param files formData file false "reference documents"
// @Success 200 {object} util.Response{data=service.GenerationResult}
// @Failure 400 {object} util.Response
// @Failure 409 {object} util.Response "uploads still in progress"
// @Failure 502 {object} util.Response "generation failed"
// @Router /api/generate-path [post]
func (c *PathController) GeneratePath(ctx *gin.Context) {
	name := ctx.PostForm("name")
	goal := ctx.PostForm("goal")
	if name == "" || goal == "" {
		util.BadRequest(ctx, "name and goal are required")
		return
	}

	var userID uint
	if claims := util.GetUserFromContext(ctx); claims != nil {
		userID = claims.UserID
	}

	attachments, err := c.collectAttachments(ctx, userID)
	if err != nil {
		if err == util.ErrUploadsInFlight {
			util.Error(ctx, http.StatusConflict, err.Error())
		} else {
			util.BadRequest(ctx, err.Error())
		}
		return
	}

	result, err := c.PathService.GenerateAndSave(ctx.Request.Context(), userID, service.GeneratePathRequest{
		Name:        name,
		Goal:        goal,
		Level:       ctx.PostForm("level"),
		Attachments: attachments,
	})
	if err != nil {
		util.Error(ctx, http.StatusBadGateway, err.Error())
		return
	}

	util.Success(ctx, result)
}

// collectAttachments takes files from the multipart form when present,
// otherwise drains the user's completed pre-uploads. Pre-uploads cannot be
// consumed while any of them is still transferring.
func (c *PathController) collectAttachments(ctx *gin.Context, userID uint) ([]service.Attachment, error) {
	form, err := ctx.MultipartForm()
	if err == nil && len(form.File["files"]) > 0 {
		return c.readFormFiles(form.File["files"])
	}

	if userID == 0 {
		return nil, nil
	}

	manager := c.UploadService.ForUser(userID)
	if manager.Busy() {
		return nil, util.ErrUploadsInFlight
	}
	attachments := manager.Attachments()
	manager.Clear()
	return attachments, nil
}

func (c *PathController) readFormFiles(files []*multipart.FileHeader) ([]service.Attachment, error) {
	if len(files) > c.UploadCfg.MaxFiles {
		return nil, util.ErrTooManyFiles
	}

	maxSize := c.UploadCfg.MaxSizeMB * 1024 * 1024
	var attachments []service.Attachment
	for _, fh := range files {
		if !util.HasAllowedExt(fh.Filename, c.UploadCfg.AllowedExts) {
			return nil, fmt.Errorf("file type not allowed: %s", fh.Filename)
		}
		if fh.Size > maxSize {
			return nil, fmt.Errorf("file exceeds %d MB: %s", c.UploadCfg.MaxSizeMB, fh.Filename)
		}

		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(io.LimitReader(f, maxSize+1))
		f.Close()
		if err != nil {
			return nil, err
		}
		if int64(len(data)) > maxSize {
			return nil, fmt.Errorf("file exceeds %d MB: %s", c.UploadCfg.MaxSizeMB, fh.Filename)
		}
		attachments = append(attachments, service.Attachment{Name: fh.Filename, Data: data})
	}
	return attachments, nil
}

// ListPaths godoc
// @Summary List the user's learning paths, newest first
// @Tags paths
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.LearningPath}
// @Router /api/paths [get]
func (c *PathController) ListPaths(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	paths, err := c.PathService.List(ctx.Request.Context(), claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, paths)
}

// GetPath godoc
// @Summary Fetch one learning path with its syllabus
// @Tags paths
// @Produce json
// @Security BearerAuth
// @Param pathId path string true "path id"
// @Success 200 {object} util.Response{data=model.LearningPath}
// @Failure 404 {object} util.Response
// @Router /api/paths/{pathId} [get]
func (c *PathController) GetPath(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	path, err := c.PathService.Get(claims.UserID, ctx.Param("pathId"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	if path == nil {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, path)
}

// DeletePath godoc
// @Summary Delete a learning path and everything under it
// @Tags paths
// @Produce json
// @Security BearerAuth
// @Param pathId path string true "path id"
// @Success 200 {object} util.Response{data=object}
// @Router /api/paths/{pathId} [delete]
func (c *PathController) DeletePath(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	deleted := c.PathService.Delete(ctx.Request.Context(), claims.UserID, ctx.Param("pathId"))
	util.Success(ctx, gin.H{"deleted": deleted})
}
