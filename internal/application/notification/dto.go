package notification

import "github.com/freightdesk/backend/internal/domain/notification"

// CreateNotificationDTO 创建通知请求
type CreateNotificationDTO struct {
	Type     string         `json:"type" binding:"required"`
	Priority string         `json:"priority" binding:"required"`
	Title    string         `json:"title" binding:"required"`
	Message  string         `json:"message"`
	Data     map[string]any `json:"data,omitempty"`
}

// toInput 转换为领域输入
func (d *CreateNotificationDTO) toInput() notification.CreateInput {
	return notification.CreateInput{
		Type:     notification.Type(d.Type),
		Priority: notification.Priority(d.Priority),
		Title:    d.Title,
		Message:  d.Message,
		Data:     d.Data,
	}
}

// MarkAllReadDTO 批量已读请求
type MarkAllReadDTO struct {
	// IDs 客户端乐观标记的记录，已读的会一并返回回执
	IDs []string `json:"ids,omitempty"`
}

// ListResult 分页查询结果
type ListResult struct {
	Items []notification.Notification `json:"items"`
	Page  int                         `json:"page"`
	Limit int                         `json:"limit"`
	Total int                         `json:"total"`
}
