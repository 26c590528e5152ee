package notification

import (
	"time"
)

// Notification 通知实体
// 创建后除 ReadAt 外不可变
type Notification struct {
	ID             string         `json:"id"`
	Type           Type           `json:"type"`
	Priority       Priority       `json:"priority"`
	Title          string         `json:"title"`
	Message        string         `json:"message"`
	Data           map[string]any `json:"data,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	ReadAt         *time.Time     `json:"readAt,omitempty"`
	DeliveryStatus DeliveryStatus `json:"deliveryStatus,omitempty"`
}

// Type 通知类型
type Type string

const (
	TypeShipmentUpdate   Type = "shipment_update"
	TypeDeliveryAlert    Type = "delivery_alert"
	TypeCustomsClearance Type = "customs_clearance"
	TypeDocumentRequired Type = "document_required"
	TypePaymentDue       Type = "payment_due"
	TypeSystemAlert      Type = "system_alert"
	TypeFleetUpdate      Type = "fleet_update"
	TypeRouteUpdate      Type = "route_update"
	TypeUserAction       Type = "user_action"

	// TypeGeneric 未知类型的兜底变体
	TypeGeneric Type = "generic"
)

var knownTypes = map[Type]struct{}{
	TypeShipmentUpdate:   {},
	TypeDeliveryAlert:    {},
	TypeCustomsClearance: {},
	TypeDocumentRequired: {},
	TypePaymentDue:       {},
	TypeSystemAlert:      {},
	TypeFleetUpdate:      {},
	TypeRouteUpdate:      {},
	TypeUserAction:       {},
}

// Known 是否为已知类型
func (t Type) Known() bool {
	_, ok := knownTypes[t]
	return ok
}

// Variant 返回用于展示的变体，未知类型统一归为 generic
func (t Type) Variant() Type {
	if t.Known() {
		return t
	}
	return TypeGeneric
}

// Priority 通知优先级
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Rank 优先级权重，critical > high > medium > low，未知为 0
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Valid 是否为合法优先级
func (p Priority) Valid() bool {
	return p.Rank() > 0
}

// DeliveryStatus 服务端投递状态
type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "pending"
	DeliverySent    DeliveryStatus = "sent"
)

// IsRead 是否已读
func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}

// DataString 读取 data 中的字符串字段，调用方必须检查 ok
func (n *Notification) DataString(key string) (string, bool) {
	if n.Data == nil {
		return "", false
	}
	v, ok := n.Data[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Clone 深拷贝，快照不与内部集合共享可变状态
func (n Notification) Clone() Notification {
	out := n
	if n.ReadAt != nil {
		t := *n.ReadAt
		out.ReadAt = &t
	}
	if n.Data != nil {
		out.Data = cloneData(n.Data)
	}
	return out
}

func cloneData(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		switch typed := v.(type) {
		case map[string]any:
			out[k] = cloneData(typed)
		case []any:
			items := make([]any, len(typed))
			copy(items, typed)
			out[k] = items
		default:
			out[k] = v
		}
	}
	return out
}

// Supersedes 判断 incoming 是否比 existing 更权威
// 更新的 createdAt 胜出；同时间或更旧时，只有携带 existing 缺失的 readAt 才胜出
func Supersedes(existing, incoming *Notification) bool {
	if incoming.CreatedAt.After(existing.CreatedAt) {
		return true
	}
	return incoming.ReadAt != nil && existing.ReadAt == nil
}

// Less 集合排序规则：createdAt 倒序，其次优先级倒序，最后按 id 升序
func Less(a, b *Notification) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	if ra, rb := a.Priority.Rank(), b.Priority.Rank(); ra != rb {
		return ra > rb
	}
	return a.ID < b.ID
}

// ReadReceipt 服务端已读确认
type ReadReceipt struct {
	ID     string    `json:"id"`
	ReadAt time.Time `json:"readAt"`
}

// Page 分页查询结果
type Page struct {
	Items   []Notification `json:"items"`
	Page    int            `json:"page"`
	Limit   int            `json:"limit"`
	Total   int            `json:"total"`
	HasMore bool           `json:"hasMore"`
}
