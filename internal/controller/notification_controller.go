package controller

import (
	"quizgate_backend/internal/service"
	"quizgate_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type NotificationController struct {
	Notifications *service.NotificationService
}

func NewNotificationController(notifications *service.NotificationService) *NotificationController {
	return &NotificationController{Notifications: notifications}
}

// List godoc
// @Summary My notifications
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param unread query bool false "unread only"
// @Success 200 {object} util.Response
// @Router /api/notifications [get]
func (c *NotificationController) List(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	unreadOnly := ctx.Query("unread") == "true"

	notifications, err := c.Notifications.ListForUser(claims.UserID, unreadOnly)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, notifications)
}

// MarkRead godoc
// @Summary Mark a notification read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param notificationId path string true "notification id"
// @Success 200 {object} util.Response
// @Router /api/notifications/{notificationId}/read [post]
func (c *NotificationController) MarkRead(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if err := c.Notifications.MarkRead(claims.UserID, ctx.Param("notificationId")); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// MarkAllRead godoc
// @Summary Mark all notifications read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/notifications/read-all [post]
func (c *NotificationController) MarkAllRead(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if err := c.Notifications.MarkAllRead(claims.UserID); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
