package controller

import (
	"errors"
	"net/http"

	"cognipath_backend/internal/service"
	"cognipath_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ModuleController struct {
	ModuleService *service.ModuleService
}

func NewModuleController(moduleService *service.ModuleService) *ModuleController {
	return &ModuleController{ModuleService: moduleService}
}

// GetModule godoc
// @Summary Load a module's lesson view
// @Description Returns the path, the syllabus entry and the stored lesson
// @Description state. A module opened for the first time comes back with an
// @Description empty not_started record.
// @Tags modules
// @Produce json
// @Security BearerAuth
// @Param pathId path string true "path id"
// @Param moduleId path string true "module id"
// @Success 200 {object} util.Response{data=service.ModuleView}
// @Failure 404 {object} util.Response
// @Router /api/paths/{pathId}/modules/{moduleId} [get]
func (c *ModuleController) GetModule(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	view, err := c.ModuleService.Load(ctx.Request.Context(), claims.UserID, ctx.Param("pathId"), ctx.Param("moduleId"))
	if err != nil {
		c.renderError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// swagger:model GenerateLessonRequest
type GenerateLessonRequest struct {
	PathID       string `json:"pathId" binding:"required"`
	ModuleID     string `json:"moduleId" binding:"required"`
	RequestToken uint64 `json:"requestToken"`
}

// GenerateLesson godoc
// @Summary Generate the lesson body for a module
// @Tags modules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body GenerateLessonRequest true "module coordinates"
// @Success 200 {object} util.Response{data=model.ModuleContent}
// @Failure 404 {object} util.Response
// @Failure 502 {object} util.Response "generation failed"
// @Router /api/generate-lesson [post]
func (c *ModuleController) GenerateLesson(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req GenerateLessonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	content, err := c.ModuleService.GenerateLesson(ctx.Request.Context(), claims.UserID, req.PathID, req.ModuleID, req.RequestToken)
	if err != nil {
		c.renderError(ctx, err)
		return
	}
	util.Success(ctx, content)
}

// swagger:model RegenerateRequest
type RegenerateRequest struct {
	Feedback []string `json:"feedback"`
}

// Regenerate godoc
// @Summary Rewrite a lesson from student feedback
// @Description Requires at least one non-blank feedback note. The stored
// @Description lesson is replaced wholesale.
// @Tags modules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param pathId path string true "path id"
// @Param moduleId path string true "module id"
// @Param body body RegenerateRequest true "feedback notes"
// @Success 200 {object} util.Response{data=model.ModuleContent}
// @Failure 400 {object} util.Response "feedback required"
// @Failure 404 {object} util.Response
// @Router /api/paths/{pathId}/modules/{moduleId}/regenerate [post]
func (c *ModuleController) Regenerate(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req RegenerateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	content, err := c.ModuleService.Regenerate(ctx.Request.Context(), claims.UserID, ctx.Param("pathId"), ctx.Param("moduleId"), req.Feedback)
	if err != nil {
		c.renderError(ctx, err)
		return
	}
	util.Success(ctx, content)
}

// swagger:model UpdateModuleRequest
type UpdateModuleRequest struct {
	Status string `json:"status" binding:"required,oneof=not_started in_progress completed"`
}

// UpdateModule godoc
// @Summary Update a module's progress status
// @Tags modules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param pathId path string true "path id"
// @Param moduleId path string true "module id"
// @Param body body UpdateModuleRequest true "new status"
// @Success 200 {object} util.Response{data=model.ModuleContent}
// @Router /api/paths/{pathId}/modules/{moduleId} [put]
func (c *ModuleController) UpdateModule(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req UpdateModuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	content, err := c.ModuleService.UpdateStatus(ctx.Request.Context(), claims.UserID, ctx.Param("pathId"), ctx.Param("moduleId"), req.Status)
	if err != nil {
		c.renderError(ctx, err)
		return
	}
	util.Success(ctx, content)
}

func (c *ModuleController) renderError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrPathNotFound), errors.Is(err, util.ErrModuleNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrFeedbackRequired):
		util.BadRequest(ctx, err.Error())
	default:
		util.Error(ctx, http.StatusBadGateway, err.Error())
	}
}
