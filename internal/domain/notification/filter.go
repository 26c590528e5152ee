package notification

import "fmt"

// Status 查询状态
type Status string

const (
	StatusRead    Status = "read"
	StatusUnread  Status = "unread"
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
)

// 分页约束
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Filter 查询条件
type Filter struct {
	Page       int      `json:"page,omitempty"`
	Limit      int      `json:"limit,omitempty"` // 0 表示使用服务端默认值
	Status     Status   `json:"status,omitempty"`
	UnreadOnly bool     `json:"unreadOnly,omitempty"`
	Priority   Priority `json:"priority,omitempty"`
}

// Validate 校验查询条件，在发起任何网络请求前调用
func (f Filter) Validate() error {
	if f.Page < 0 {
		return &ValidationError{Field: "page", Reason: fmt.Sprintf("must be a positive integer, got %d", f.Page)}
	}
	if f.Limit < 0 || f.Limit > MaxLimit {
		return &ValidationError{Field: "limit", Reason: fmt.Sprintf("must be between 1 and %d, got %d", MaxLimit, f.Limit)}
	}
	switch f.Status {
	case "", StatusRead, StatusUnread, StatusPending, StatusSent:
	default:
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", f.Status)}
	}
	if f.Priority != "" && !f.Priority.Valid() {
		return &ValidationError{Field: "priority", Reason: fmt.Sprintf("unknown priority %q", f.Priority)}
	}
	if f.UnreadOnly && f.Status == StatusRead {
		return &ValidationError{Field: "unreadOnly", Reason: "contradicts status=read"}
	}
	return nil
}

// Normalize 填充默认页码
func (f Filter) Normalize() Filter {
	if f.Page == 0 {
		f.Page = DefaultPage
	}
	return f
}

// EffectiveLimit 服务端实际使用的每页条数
func (f Filter) EffectiveLimit() int {
	if f.Limit == 0 {
		return DefaultLimit
	}
	return f.Limit
}

// Offset 分页偏移量
func (f Filter) Offset() int {
	page := f.Page
	if page < 1 {
		page = DefaultPage
	}
	return (page - 1) * f.EffectiveLimit()
}

// Matches 判断通知是否满足查询条件（内存仓储使用）
func (f Filter) Matches(n *Notification) bool {
	if f.UnreadOnly && n.IsRead() {
		return false
	}
	switch f.Status {
	case StatusRead:
		if !n.IsRead() {
			return false
		}
	case StatusUnread:
		if n.IsRead() {
			return false
		}
	case StatusPending:
		if n.DeliveryStatus != DeliveryPending {
			return false
		}
	case StatusSent:
		if n.DeliveryStatus != DeliverySent {
			return false
		}
	}
	if f.Priority != "" && n.Priority != f.Priority {
		return false
	}
	return true
}
