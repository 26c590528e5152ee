package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/freightdesk/backend/internal/domain/notification"
	"github.com/freightdesk/backend/internal/infrastructure/log"
)

// HTTPError 服务端返回的非 2xx 响应
type HTTPError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("http %d (code %d): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
}

// Is 404 视为 ErrNotFound，400 视为 ErrValidation
func (e *HTTPError) Is(target error) bool {
	switch e.StatusCode {
	case http.StatusNotFound:
		return target == notification.ErrNotFound
	case http.StatusBadRequest:
		return target == notification.ErrValidation
	}
	return false
}

// envelope 服务端统一响应
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Detail  string          `json:"detail,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Page    *pageInfo       `json:"page,omitempty"`
}

type pageInfo struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Total    int `json:"total"`
	Pages    int `json:"pages"`
}

// HTTPClient 通知服务 HTTP 客户端
// 只有幂等请求（列表、单条已读、批量已读）会在网络错误、429、5xx 时重试
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	logger     *slog.Logger
}

// Option HTTP 客户端配置项
type Option func(*HTTPClient)

// WithMaxRetries 设置最大重试次数
func WithMaxRetries(n int) Option {
	return func(c *HTTPClient) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithRetryDelay 设置退避基数与上限
func WithRetryDelay(base, max time.Duration) Option {
	return func(c *HTTPClient) {
		c.baseDelay = base
		c.maxDelay = max
	}
}

// NewHTTPClient 创建客户端，httpClient 为 nil 时使用 15 秒超时的默认客户端
func NewHTTPClient(baseURL string, httpClient *http.Client, opts ...Option) *HTTPClient {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "http://127.0.0.1:19970"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	c := &HTTPClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		maxRetries: 3,
		baseDelay:  100 * time.Millisecond,
		maxDelay:   2 * time.Second,
		logger:     log.NewModuleLogger("remote", "http_client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL 服务地址
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// List 分页查询
func (c *HTTPClient) List(ctx context.Context, filter notification.Filter) (notification.Page, error) {
	q := url.Values{}
	if filter.Page > 0 {
		q.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Status != "" {
		q.Set("status", string(filter.Status))
	}
	if filter.UnreadOnly {
		q.Set("unreadOnly", "true")
	}
	if filter.Priority != "" {
		q.Set("priority", string(filter.Priority))
	}

	path := "/api/v1/notifications"
	if encoded := q.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var items []notification.Notification
	env, err := c.doJSON(ctx, http.MethodGet, path, nil, &items, true)
	if err != nil {
		return notification.Page{}, err
	}

	page := notification.Page{
		Items: items,
		Page:  filter.Normalize().Page,
		Limit: filter.EffectiveLimit(),
		Total: len(items),
	}
	if env.Page != nil {
		page.Page = env.Page.Page
		page.Limit = env.Page.PageSize
		page.Total = env.Page.Total
		page.HasMore = env.Page.Page < env.Page.Pages
	}
	return page, nil
}

// MarkAsRead 标记单条已读，返回服务端记录
func (c *HTTPClient) MarkAsRead(ctx context.Context, id string) (notification.Notification, error) {
	var n notification.Notification
	_, err := c.doJSON(ctx, http.MethodPost, "/api/v1/notifications/"+url.PathEscape(id)+"/read", nil, &n, true)
	return n, err
}

// MarkAllAsRead 批量已读，返回服务端确认的回执
func (c *HTTPClient) MarkAllAsRead(ctx context.Context, ids []string) ([]notification.ReadReceipt, error) {
	body := struct {
		IDs []string `json:"ids"`
	}{IDs: ids}
	var receipts []notification.ReadReceipt
	_, err := c.doJSON(ctx, http.MethodPost, "/api/v1/notifications/read-all", body, &receipts, true)
	return receipts, err
}

// Create 创建通知，不重试以免重复创建
func (c *HTTPClient) Create(ctx context.Context, input notification.CreateInput) (notification.Notification, error) {
	var n notification.Notification
	_, err := c.doJSON(ctx, http.MethodPost, "/api/v1/notifications", input, &n, false)
	return n, err
}

// doJSON 发送请求并解析统一响应
func (c *HTTPClient) doJSON(
	ctx context.Context,
	method, requestPath string,
	body any,
	out any,
	retryable bool,
) (*envelope, error) {
	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return nil, err
		}
	}

	correlation := log.CorrelationID(ctx)
	if correlation == "" {
		correlation = uuid.NewString()
	}

	maxRetries := 0
	if retryable {
		maxRetries = c.maxRetries
	}

	for attempt := 0; ; attempt++ {
		var bodyReader io.Reader
		if bodyBytes != nil {
			bodyReader = bytes.NewReader(bodyBytes)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+requestPath, bodyReader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Correlation-Id", correlation)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() == nil && attempt < maxRetries {
				c.logRetry(method, requestPath, attempt, correlation, err)
				if waitErr := waitWithContext(ctx, c.retryDelay(attempt+1, "")); waitErr != nil {
					return nil, waitErr
				}
				continue
			}
			return nil, err
		}
		payload, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, readErr
		}

		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			var env envelope
			if err := json.Unmarshal(payload, &env); err != nil {
				return nil, fmt.Errorf("decode response: %w", err)
			}
			if env.Code != 0 {
				return nil, &HTTPError{StatusCode: resp.StatusCode, Code: env.Code, Message: env.Message}
			}
			if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
				if err := json.Unmarshal(env.Data, out); err != nil {
					return nil, fmt.Errorf("decode response data: %w", err)
				}
			}
			return &env, nil
		}

		if (resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500) && attempt < maxRetries {
			c.logRetry(method, requestPath, attempt, correlation, fmt.Errorf("http %d", resp.StatusCode))
			if waitErr := waitWithContext(ctx, c.retryDelay(attempt+1, resp.Header.Get("Retry-After"))); waitErr != nil {
				return nil, waitErr
			}
			continue
		}

		var errPayload envelope
		_ = json.Unmarshal(payload, &errPayload)
		message := errPayload.Message
		if errPayload.Detail != "" {
			message += ": " + errPayload.Detail
		}
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Code:       errPayload.Code,
			Message:    message,
		}
	}
}

func (c *HTTPClient) logRetry(method, path string, attempt int, correlation string, err error) {
	c.logger.Debug("retrying request",
		"method", method,
		"path", path,
		"attempt", attempt+1,
		"correlation_id", correlation,
		"error", err,
	)
}

func (c *HTTPClient) retryDelay(attempt int, retryAfterHeader string) time.Duration {
	maxDelay := c.maxDelay
	if maxDelay <= 0 {
		maxDelay = 2 * time.Second
	}
	if retryAfter := parseRetryAfter(retryAfterHeader); retryAfter > 0 {
		if retryAfter > maxDelay {
			return maxDelay
		}
		return retryAfter
	}
	delay := c.baseDelay
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxDelay {
			return maxDelay
		}
	}
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}

func parseRetryAfter(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	if ts, err := http.ParseTime(header); err == nil {
		if delta := time.Until(ts); delta > 0 {
			return delta
		}
	}
	return 0
}

func waitWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
