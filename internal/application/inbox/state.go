package inbox

import "sync"

// State 连接、加载、错误三个相互独立的状态
type State struct {
	IsConnected bool   `json:"isConnected"`
	IsLoading   bool   `json:"isLoading"`
	Error       string `json:"error,omitempty"`
}

// statusTracker 维护加载计数与最近一次错误
type statusTracker struct {
	mu       sync.Mutex
	inflight int
	lastErr  error
	conn     Connectivity
}

func (t *statusTracker) attach(conn Connectivity) {
	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()
}

func (t *statusTracker) beginLoading() {
	t.mu.Lock()
	t.inflight++
	t.mu.Unlock()
}

func (t *statusTracker) endLoading() {
	t.mu.Lock()
	if t.inflight > 0 {
		t.inflight--
	}
	t.mu.Unlock()
}

func (t *statusTracker) setError(err error) {
	t.mu.Lock()
	t.lastErr = err
	t.mu.Unlock()
}

func (t *statusTracker) clearError() {
	t.mu.Lock()
	t.lastErr = nil
	t.mu.Unlock()
}

func (t *statusTracker) err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastErr
}

func (t *statusTracker) snapshot() State {
	t.mu.Lock()
	conn := t.conn
	st := State{IsLoading: t.inflight > 0}
	if t.lastErr != nil {
		st.Error = t.lastErr.Error()
	}
	t.mu.Unlock()

	// 连接状态在锁外读取，避免与连接管理器的锁嵌套
	if conn != nil {
		st.IsConnected = conn.IsConnected()
	}
	return st
}
