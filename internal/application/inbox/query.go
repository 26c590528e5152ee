package inbox

import (
	"context"
	"log/slog"

	"github.com/freightdesk/backend/internal/domain/notification"
	"github.com/freightdesk/backend/internal/infrastructure/log"
)

// maxCatchUpPages 重连补偿最多翻页数
const maxCatchUpPages = 5

// QueryEngine 查询引擎
// 把查询条件转换为远程请求，并在不破坏实时更新的前提下合并结果
type QueryEngine struct {
	remote   Remote
	store    *Store
	status   *statusTracker
	onChange func()
	logger   *slog.Logger
}

func newQueryEngine(remote Remote, store *Store, status *statusTracker, onChange func()) *QueryEngine {
	return &QueryEngine{
		remote:   remote,
		store:    store,
		status:   status,
		onChange: onChange,
		logger:   log.NewModuleLogger("inbox", "query_engine"),
	}
}

// Fetch 拉取一页通知并合并到集合
// 校验失败时不发起任何网络请求；拉取失败时集合保持不变
func (q *QueryEngine) Fetch(ctx context.Context, filter notification.Filter) (notification.Page, error) {
	if err := filter.Validate(); err != nil {
		q.status.setError(err)
		q.onChange()
		return notification.Page{}, err
	}
	page, _, err := q.load(ctx, "fetch", filter.Normalize())
	return page, err
}

// CatchUp 重连后补齐断线期间遗漏的通知
// 从第一页开始翻页，直到遇到已知记录或没有更多数据
func (q *QueryEngine) CatchUp(ctx context.Context) (int, error) {
	merged := 0
	for pageNo := 1; pageNo <= maxCatchUpPages; pageNo++ {
		page, overlap, err := q.load(ctx, "catch up", notification.Filter{Page: pageNo})
		if err != nil {
			return merged, err
		}
		merged += len(page.Items)
		if overlap || !page.HasMore || len(page.Items) == 0 {
			break
		}
	}
	q.logger.Debug("catch up completed",
		"merged", merged,
	)
	return merged, nil
}

// load 执行一次远程查询，overlap 表示结果中包含合并前已存在的记录
func (q *QueryEngine) load(ctx context.Context, op string, filter notification.Filter) (notification.Page, bool, error) {
	epoch := q.store.Epoch()

	q.status.beginLoading()
	q.onChange()
	page, err := q.remote.List(ctx, filter)
	q.status.endLoading()

	if err != nil {
		ferr := notification.NewFetchError(op, err)
		q.status.setError(ferr)
		q.logger.Warn("fetch failed",
			"op", op,
			"page", filter.Page,
			"error", err,
		)
		q.onChange()
		return notification.Page{}, false, ferr
	}

	overlap := false
	for i := range page.Items {
		if q.store.Has(page.Items[i].ID) {
			overlap = true
			break
		}
	}

	if _, accepted := q.store.mergeIfEpoch(epoch, page.Items); !accepted {
		q.logger.Debug("dropping stale fetch response",
			"op", op,
			"page", filter.Page,
		)
	}
	q.status.clearError()
	q.onChange()
	return page, overlap, nil
}
