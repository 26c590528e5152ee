package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/freightdesk/backend/internal/application/notification"
	domainNotification "github.com/freightdesk/backend/internal/domain/notification"
	"github.com/freightdesk/backend/internal/infrastructure/log"
	"github.com/freightdesk/backend/internal/infrastructure/validation"
	"github.com/freightdesk/backend/internal/infrastructure/websocket"
	"github.com/freightdesk/backend/internal/interfaces/http/response"
)

// NotificationHandler 通知处理器
type NotificationHandler struct {
	service *notification.Service
	decoder *validation.FilterDecoder
	hub     *websocket.Hub
	logger  *slog.Logger
}

// NewNotificationHandler 创建通知处理器
func NewNotificationHandler(
	service *notification.Service,
	decoder *validation.FilterDecoder,
	hub *websocket.Hub,
) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		decoder: decoder,
		hub:     hub,
		logger:  log.NewModuleLogger("http", "notification_handler"),
	}
}

// List 分页查询通知
// @Summary 查询通知
// @Tags 通知
// @Produce json
// @Param page query int false "页码（从 1 开始）"
// @Param limit query int false "每页条数（1-100）"
// @Param status query string false "状态" Enums(read, unread, pending, sent)
// @Param unreadOnly query bool false "只看未读"
// @Param priority query string false "优先级" Enums(low, medium, high, critical)
// @Success 200 {object} response.ResponseWithPage
// @Failure 400 {object} response.ErrorResponse
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	filter, err := h.decoder.FromQuery(c.Request.URL.Query())
	if err != nil {
		h.writeError(c, err)
		return
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.SuccessWithPage(c, result.Items, result.Page, result.Limit, result.Total)
}

// Get 获取单条通知
// @Summary 获取通知
// @Tags 通知
// @Produce json
// @Param id path string true "通知 ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /notifications/{id} [get]
func (h *NotificationHandler) Get(c *gin.Context) {
	n, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, n)
}

// Create 创建并推送通知
// @Summary 创建通知
// @Tags 通知
// @Accept json
// @Produce json
// @Param body body notification.CreateNotificationDTO true "通知信息"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Router /notifications [post]
func (h *NotificationHandler) Create(c *gin.Context) {
	var dto notification.CreateNotificationDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.ErrorWithDetail(c, http.StatusBadRequest, response.CodeInvalidParams, "参数错误", err.Error())
		return
	}

	result, err := h.service.CreateAndPush(c.Request.Context(), &dto)
	if err != nil {
		var verr *domainNotification.ValidationError
		if errors.As(err, &verr) {
			h.writeError(c, err)
			return
		}
		h.logger.Error("failed to create notification",
			append(log.LogCtxFromContext(c.Request.Context()), "error", err)...,
		)
		response.Error(c, http.StatusInternalServerError, response.CodeCreateFailed, "创建失败")
		return
	}

	response.Success(c, result)
}

// MarkRead 标记单条已读
// @Summary 标记已读
// @Tags 通知
// @Produce json
// @Param id path string true "通知 ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	n, err := h.service.MarkRead(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, n)
}

// MarkAllRead 全部已读
// @Summary 全部已读
// @Description 返回本次新标记的回执，以及请求中已是已读状态的记录回执
// @Tags 通知
// @Accept json
// @Produce json
// @Param body body notification.MarkAllReadDTO false "客户端已乐观标记的 ID"
// @Success 200 {object} response.Response
// @Router /notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	var dto notification.MarkAllReadDTO
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&dto); err != nil {
			response.ErrorWithDetail(c, http.StatusBadRequest, response.CodeInvalidParams, "参数错误", err.Error())
			return
		}
	}

	receipts, err := h.service.MarkAllRead(c.Request.Context(), dto.IDs)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, receipts)
}

// UnreadCount 未读数
// @Summary 未读数
// @Tags 通知
// @Produce json
// @Success 200 {object} response.Response
// @Router /notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	count, err := h.service.UnreadCount(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, gin.H{"count": count})
}

// Subscribe 订阅实时推送
// @Summary 实时推送（WebSocket）
// @Tags 通知
// @Router /notifications/ws [get]
func (h *NotificationHandler) Subscribe(c *gin.Context) {
	if err := h.hub.ServeWS(c.Writer, c.Request); err != nil {
		h.logger.Warn("websocket upgrade failed",
			append(log.LogCtxFromContext(c.Request.Context()), "error", err)...,
		)
	}
}

// writeError 领域错误映射为 HTTP 响应
func (h *NotificationHandler) writeError(c *gin.Context, err error) {
	var verr *domainNotification.ValidationError
	switch {
	case errors.As(err, &verr):
		response.ErrorWithDetail(c, http.StatusBadRequest, response.CodeInvalidParams, "参数错误", verr.Error())
	case errors.Is(err, domainNotification.ErrNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "通知不存在")
	default:
		h.logger.Error("request failed",
			append(log.LogCtxFromContext(c.Request.Context()), "error", err)...,
		)
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, "服务器内部错误")
	}
}
