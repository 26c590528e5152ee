package inbox

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/freightdesk/backend/internal/domain/events"
	"github.com/freightdesk/backend/internal/domain/notification"
	"github.com/freightdesk/backend/internal/infrastructure/log"
)

// catchUpTimeout 单次重连补偿的超时
const catchUpTimeout = 30 * time.Second

// Facade 通知门面，页面等外部协作方唯一的集成入口
type Facade struct {
	store     *Store
	status    *statusTracker
	query     *QueryEngine
	mutations *MutationCoordinator
	decoder   FilterDecoder
	bus       events.EventBus
	logger    *slog.Logger

	pubMu  sync.Mutex
	seq    uint64
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option 门面配置项
type Option func(*options)

type options struct {
	now     func() time.Time
	decoder FilterDecoder
}

// WithClock 指定时钟（测试使用）
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithFilterDecoder 指定松散查询配置的解码器
func WithFilterDecoder(decoder FilterDecoder) Option {
	return func(o *options) {
		o.decoder = decoder
	}
}

// NewFacade 创建通知门面
// bus 可为 nil，此时不发布变更事件
func NewFacade(remote Remote, bus events.EventBus, domainSvc *notification.Service, opts ...Option) *Facade {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if domainSvc == nil {
		domainSvc = notification.NewService()
	}

	ctx, cancel := context.WithCancel(context.Background())
	f := &Facade{
		store:   NewStore(),
		status:  &statusTracker{},
		decoder: o.decoder,
		bus:     bus,
		logger:  log.NewModuleLogger("inbox", "facade"),
		ctx:     ctx,
		cancel:  cancel,
	}
	f.query = newQueryEngine(remote, f.store, f.status, f.publish)
	f.mutations = newMutationCoordinator(remote, f.store, f.status, domainSvc, o.now, f.publish)
	return f
}

// AttachConnection 绑定实时通道（连接管理器依赖门面的监听器，故延后注入）
func (f *Facade) AttachConnection(conn Connectivity) {
	f.status.attach(conn)
	f.publishAs(events.InboxStateChanged)
}

// Notifications 排序后的只读快照
func (f *Facade) Notifications() []notification.Notification {
	return f.store.Snapshot()
}

// UnreadCount 未读数
func (f *Facade) UnreadCount() int {
	return f.store.UnreadCount()
}

// State 连接/加载/错误状态
func (f *Facade) State() State {
	return f.status.snapshot()
}

// Err 最近一次失败，没有则为 nil
func (f *Facade) Err() error {
	return f.status.err()
}

// Fetch 按条件拉取
func (f *Facade) Fetch(ctx context.Context, filter notification.Filter) (notification.Page, error) {
	return f.query.Fetch(ctx, filter)
}

// FetchOptions 按松散配置拉取，未识别的选项返回校验错误
// 未注入解码器时只接受空配置，其余一律拒绝且不发起请求
func (f *Facade) FetchOptions(ctx context.Context, opts map[string]any) (notification.Page, error) {
	if f.decoder == nil {
		if len(opts) > 0 {
			err := &notification.ValidationError{Field: "options", Reason: "no decoder configured"}
			f.status.setError(err)
			f.publish()
			return notification.Page{}, err
		}
		return f.query.Fetch(ctx, notification.Filter{})
	}
	filter, err := f.decoder.Decode(opts)
	if err != nil {
		f.status.setError(err)
		f.publish()
		return notification.Page{}, err
	}
	return f.query.Fetch(ctx, filter)
}

// MarkAsRead 标记单条已读
func (f *Facade) MarkAsRead(ctx context.Context, id string) error {
	return f.mutations.MarkAsRead(ctx, id)
}

// MarkAllAsRead 全部已读
func (f *Facade) MarkAllAsRead(ctx context.Context) error {
	return f.mutations.MarkAllAsRead(ctx)
}

// CreateNotification 创建通知
func (f *Facade) CreateNotification(ctx context.Context, input notification.CreateInput) (notification.Notification, error) {
	return f.mutations.CreateNotification(ctx, input)
}

// ClearNotifications 清空
func (f *Facade) ClearNotifications() {
	f.mutations.ClearNotifications()
}

// Subscribe 订阅变更，回调收到的事件按版本单调递增，过期事件被丢弃
func (f *Facade) Subscribe(fn func(*events.InboxEvent)) (unsubscribe func()) {
	if f.bus == nil {
		return func() {}
	}
	var (
		mu   sync.Mutex
		last uint64
	)
	types := []events.EventType{events.InboxChanged, events.InboxStateChanged}
	return f.bus.SubscribeMultiple(types, events.HandlerFunc(func(event events.Event) error {
		inboxEvent, ok := event.(*events.InboxEvent)
		if !ok {
			return nil
		}
		mu.Lock()
		defer mu.Unlock()
		if inboxEvent.Version <= last {
			return nil
		}
		last = inboxEvent.Version
		fn(inboxEvent)
		return nil
	}))
}

// LiveListener 返回供连接管理器驱动的监听器
func (f *Facade) LiveListener() notification.EventListener {
	return &liveListener{facade: f}
}

// Close 停止后台补偿任务
func (f *Facade) Close() {
	f.cancel()
	f.wg.Wait()
}

// publish 发布当前视图
func (f *Facade) publish() {
	f.publishAs(events.InboxChanged)
}

// publishAs 以指定事件类型发布，快照内容相同
// 版本号与快照在同一把锁内取得，版本越大快照越新
func (f *Facade) publishAs(eventType events.EventType) {
	if f.bus == nil {
		return
	}
	f.pubMu.Lock()
	defer f.pubMu.Unlock()
	f.seq++
	view := f.store.View()
	state := f.status.snapshot()
	f.bus.Publish(&events.InboxEvent{
		EventType:     eventType,
		Version:       f.seq,
		Notifications: view.Notifications,
		UnreadCount:   view.UnreadCount,
		IsConnected:   state.IsConnected,
		IsLoading:     state.IsLoading,
		Error:         state.Error,
		EventTime:     time.Now(),
	})
}

// catchUp 后台执行重连补偿
func (f *Facade) catchUp() {
	if f.ctx.Err() != nil {
		return
	}
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		ctx, cancel := context.WithTimeout(f.ctx, catchUpTimeout)
		defer cancel()
		if _, err := f.query.CatchUp(ctx); err != nil {
			f.logger.Warn("catch up after reconnect failed",
				"error", err,
			)
		}
	}()
}

// liveListener 把推送事件接入合并路径
type liveListener struct {
	facade *Facade
}

// OnEvent 推送的通知同样走权威合并规则，过期的未读推送不会覆盖本地已读
func (l *liveListener) OnEvent(event *notification.Event) {
	switch event.Type {
	case notification.EventCreated, notification.EventRead:
	default:
		return
	}
	var n notification.Notification
	if err := event.ParsePayload(&n); err != nil {
		l.facade.logger.Warn("failed to parse pushed notification",
			"type", event.Type,
			"error", err,
		)
		return
	}
	if l.facade.store.Merge([]notification.Notification{n}) {
		l.facade.publish()
	}
}

// OnConnect 每次连接成功都触发补偿拉取，实时通道不保证重放
func (l *liveListener) OnConnect() {
	l.facade.publishAs(events.InboxStateChanged)
	l.facade.catchUp()
}

// OnDisconnect 断线后降级为仅拉取模式
func (l *liveListener) OnDisconnect(err error) {
	if err != nil {
		l.facade.logger.Info("live channel dropped",
			"error", notification.NewConnectivityError("live channel", err),
		)
	}
	l.facade.publishAs(events.InboxStateChanged)
}
