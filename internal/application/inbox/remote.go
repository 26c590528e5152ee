package inbox

import (
	"context"

	"github.com/freightdesk/backend/internal/domain/notification"
)

// Remote 远程通知服务（权威数据源）
// 线上格式由基础设施层决定，这里只要求返回符合领域模型的数据或错误
type Remote interface {
	List(ctx context.Context, filter notification.Filter) (notification.Page, error)
	MarkAsRead(ctx context.Context, id string) (notification.Notification, error)
	// MarkAllAsRead 批量已读，ids 为本地乐观标记的集合，返回服务端确认的回执
	MarkAllAsRead(ctx context.Context, ids []string) ([]notification.ReadReceipt, error)
	Create(ctx context.Context, input notification.CreateInput) (notification.Notification, error)
}

// Connectivity 实时通道健康状态
type Connectivity interface {
	IsConnected() bool
}

// FilterDecoder 将松散的查询配置解码为 Filter，未识别或越界的选项必须报错
type FilterDecoder interface {
	Decode(options map[string]any) (notification.Filter, error)
}
