package events

// Handler 处理收件箱事件，返回的错误只记日志
type Handler interface {
	HandleEvent(event Event) error
}

// HandlerFunc 以函数实现 Handler
type HandlerFunc func(event Event) error

// HandleEvent 实现 Handler 接口
func (f HandlerFunc) HandleEvent(event Event) error {
	return f(event)
}

// EventBus 收件箱变更的发布订阅通道
// 门面发布 InboxEvent，页面等消费方订阅后按 Version 取最新快照
type EventBus interface {
	// Subscribe 订阅单一事件类型，返回取消订阅函数
	Subscribe(eventType EventType, handler Handler) (unsubscribe func())

	// SubscribeMultiple 同一个处理器订阅多个事件类型
	SubscribeMultiple(eventTypes []EventType, handler Handler) (unsubscribe func())

	// Publish 异步分发，不等待处理器执行，处理器之间的顺序不保证
	Publish(event Event)

	// Close 拒绝新事件并等待在途分发结束
	Close()
}
