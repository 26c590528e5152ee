package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	appNotification "github.com/freightdesk/backend/internal/application/notification"
	"github.com/freightdesk/backend/internal/domain/notification"
)

// ListNotificationsInput 查询工具输入
type ListNotificationsInput struct {
	Page       int    `json:"page,omitempty" jsonschema:"页码，从 1 开始"`
	Limit      int    `json:"limit,omitempty" jsonschema:"每页条数，1-100"`
	Status     string `json:"status,omitempty" jsonschema:"状态：read/unread/pending/sent"`
	UnreadOnly bool   `json:"unread_only,omitempty" jsonschema:"只看未读"`
	Priority   string `json:"priority,omitempty" jsonschema:"优先级：low/medium/high/critical"`
}

// NotificationView 工具输出中的通知，时间格式为 RFC3339
type NotificationView struct {
	ID       string         `json:"id" jsonschema:"通知 ID"`
	Type     string         `json:"type" jsonschema:"通知类型"`
	Priority string         `json:"priority" jsonschema:"优先级"`
	Title    string         `json:"title" jsonschema:"标题"`
	Message  string         `json:"message" jsonschema:"正文"`
	Data     map[string]any `json:"data,omitempty" jsonschema:"附加字段"`
	Created  string         `json:"created_at" jsonschema:"创建时间"`
	ReadAt   string         `json:"read_at,omitempty" jsonschema:"已读时间，未读为空"`
}

// ReceiptView 已读回执
type ReceiptView struct {
	ID     string `json:"id" jsonschema:"通知 ID"`
	ReadAt string `json:"read_at" jsonschema:"已读时间"`
}

func toView(n *notification.Notification) NotificationView {
	view := NotificationView{
		ID:       n.ID,
		Type:     string(n.Type),
		Priority: string(n.Priority),
		Title:    n.Title,
		Message:  n.Message,
		Data:     n.Data,
		Created:  n.CreatedAt.Format(time.RFC3339Nano),
	}
	if n.ReadAt != nil {
		view.ReadAt = n.ReadAt.Format(time.RFC3339Nano)
	}
	return view
}

// ListNotificationsOutput 查询工具输出
type ListNotificationsOutput struct {
	Notifications []NotificationView `json:"notifications" jsonschema:"通知列表"`
	Page          int                `json:"page" jsonschema:"当前页码"`
	Total         int                `json:"total" jsonschema:"总条数"`
	HasMore       bool               `json:"has_more" jsonschema:"是否还有下一页"`
}

// UnreadCountInput 未读数工具输入（空输入）
type UnreadCountInput struct{}

// UnreadCountOutput 未读数工具输出
type UnreadCountOutput struct {
	Count int `json:"count" jsonschema:"未读数"`
}

// MarkReadInput 标记已读工具输入
type MarkReadInput struct {
	ID string `json:"id" jsonschema:"通知 ID"`
}

// NotificationOutput 单条通知输出
type NotificationOutput struct {
	Notification NotificationView `json:"notification" jsonschema:"通知"`
}

// MarkAllReadInput 全部已读工具输入（空输入）
type MarkAllReadInput struct{}

// MarkAllReadOutput 全部已读工具输出
type MarkAllReadOutput struct {
	Receipts []ReceiptView `json:"receipts" jsonschema:"本次标记的回执"`
}

// CreateNotificationInput 创建工具输入
type CreateNotificationInput struct {
	Type     string         `json:"type" jsonschema:"通知类型，如 shipment_update"`
	Priority string         `json:"priority" jsonschema:"优先级：low/medium/high/critical"`
	Title    string         `json:"title" jsonschema:"标题"`
	Message  string         `json:"message,omitempty" jsonschema:"正文"`
	Data     map[string]any `json:"data,omitempty" jsonschema:"附加字段，如 shipmentId"`
}

// listNotificationsTool 分页查询通知
func (s *MCPServer) listNotificationsTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ListNotificationsInput,
) (*mcp.CallToolResult, ListNotificationsOutput, error) {
	result, err := s.service.List(ctx, notification.Filter{
		Page:       input.Page,
		Limit:      input.Limit,
		Status:     notification.Status(input.Status),
		UnreadOnly: input.UnreadOnly,
		Priority:   notification.Priority(input.Priority),
	})
	if err != nil {
		return nil, ListNotificationsOutput{}, err
	}

	views := make([]NotificationView, 0, len(result.Items))
	for i := range result.Items {
		views = append(views, toView(&result.Items[i]))
	}
	return nil, ListNotificationsOutput{
		Notifications: views,
		Page:          result.Page,
		Total:         result.Total,
		HasMore:       result.Page*result.Limit < result.Total,
	}, nil
}

// getUnreadCountTool 未读数
func (s *MCPServer) getUnreadCountTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input UnreadCountInput,
) (*mcp.CallToolResult, UnreadCountOutput, error) {
	count, err := s.service.UnreadCount(ctx)
	if err != nil {
		return nil, UnreadCountOutput{}, err
	}
	return nil, UnreadCountOutput{Count: count}, nil
}

// markNotificationReadTool 标记单条已读
func (s *MCPServer) markNotificationReadTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input MarkReadInput,
) (*mcp.CallToolResult, NotificationOutput, error) {
	if input.ID == "" {
		return nil, NotificationOutput{}, &notification.ValidationError{Field: "id", Reason: "is required"}
	}
	n, err := s.service.MarkRead(ctx, input.ID)
	if err != nil {
		return nil, NotificationOutput{}, err
	}
	return nil, NotificationOutput{Notification: toView(n)}, nil
}

// markAllReadTool 全部已读
func (s *MCPServer) markAllReadTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input MarkAllReadInput,
) (*mcp.CallToolResult, MarkAllReadOutput, error) {
	receipts, err := s.service.MarkAllRead(ctx, nil)
	if err != nil {
		return nil, MarkAllReadOutput{}, err
	}
	views := make([]ReceiptView, 0, len(receipts))
	for _, r := range receipts {
		views = append(views, ReceiptView{ID: r.ID, ReadAt: r.ReadAt.Format(time.RFC3339Nano)})
	}
	return nil, MarkAllReadOutput{Receipts: views}, nil
}

// createNotificationTool 创建并推送通知
func (s *MCPServer) createNotificationTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input CreateNotificationInput,
) (*mcp.CallToolResult, NotificationOutput, error) {
	n, err := s.service.CreateAndPush(ctx, &appNotification.CreateNotificationDTO{
		Type:     input.Type,
		Priority: input.Priority,
		Title:    input.Title,
		Message:  input.Message,
		Data:     input.Data,
	})
	if err != nil {
		return nil, NotificationOutput{}, err
	}

	s.logger.Info("notification created via mcp",
		"id", n.ID,
		"type", n.Type,
	)
	return nil, NotificationOutput{Notification: toView(n)}, nil
}
