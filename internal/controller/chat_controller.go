package controller

import (
	"errors"

	"cognipath_backend/internal/service"
	"cognipath_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ChatController struct {
	ChatService *service.ChatService
}

func NewChatController(chatService *service.ChatService) *ChatController {
	return &ChatController{ChatService: chatService}
}

// swagger:model ChatRequest
type ChatRequest struct {
	PathID   string `json:"pathId" binding:"required"`
	ModuleID string `json:"moduleId"`
	Message  string `json:"message" binding:"required"`
}

// Send godoc
// @Summary Send one chat turn to the learning assistant
// @Description ModuleID selects the conversation scope: empty for the
// @Description path-wide chat, set for a module's lesson chat. The reply is
// @Description returned in the same call; a failed assistant call yields an
// @Description apologetic placeholder reply while the student's message is
// @Description kept.
// @Tags chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ChatRequest true "message and scope"
// @Success 200 {object} util.Response{data=service.ChatTurn}
// @Failure 404 {object} util.Response
// @Router /api/chat [post]
func (c *ChatController) Send(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req ChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	turn, err := c.ChatService.Send(ctx.Request.Context(), claims.UserID, req.PathID, req.ModuleID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrPathNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrEmptyMessage):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, turn)
}

// PathMessages godoc
// @Summary Path-wide chat history, oldest first
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Param pathId path string true "path id"
// @Success 200 {object} util.Response{data=[]model.ChatMessage}
// @Failure 404 {object} util.Response
// @Router /api/paths/{pathId}/messages [get]
func (c *ChatController) PathMessages(ctx *gin.Context) {
	c.history(ctx, "")
}

// ModuleMessages godoc
// @Summary A module's chat history, oldest first
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Param pathId path string true "path id"
// @Param moduleId path string true "module id"
// @Success 200 {object} util.Response{data=[]model.ChatMessage}
// @Failure 404 {object} util.Response
// @Router /api/paths/{pathId}/modules/{moduleId}/messages [get]
func (c *ChatController) ModuleMessages(ctx *gin.Context) {
	c.history(ctx, ctx.Param("moduleId"))
}

func (c *ChatController) history(ctx *gin.Context, moduleID string) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	messages, err := c.ChatService.History(ctx.Request.Context(), claims.UserID, ctx.Param("pathId"), moduleID)
	if err != nil {
		if errors.Is(err, util.ErrPathNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, messages)
}
