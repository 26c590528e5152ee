package notification

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound 通知不存在
	ErrNotFound = errors.New("notification not found")
	// ErrValidation 参数校验失败
	ErrValidation = errors.New("validation failed")
	// ErrConnectivity 实时通道不可用
	ErrConnectivity = errors.New("live channel unavailable")
	// ErrFetch 拉取失败
	ErrFetch = errors.New("fetch failed")
	// ErrMutation 变更失败
	ErrMutation = errors.New("mutation failed")
)

// ValidationError 参数校验错误
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is 支持 errors.Is(err, ErrValidation)
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Kind 错误分类
type Kind int

const (
	KindConnectivity Kind = iota + 1
	KindFetch
	KindMutation
)

func (k Kind) sentinel() error {
	switch k {
	case KindConnectivity:
		return ErrConnectivity
	case KindFetch:
		return ErrFetch
	default:
		return ErrMutation
	}
}

// OpError 远程操作错误，携带分类和操作名
type OpError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind.sentinel(), e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// Is 支持按分类匹配
func (e *OpError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// NewFetchError 创建拉取错误
func NewFetchError(op string, err error) error {
	return &OpError{Kind: KindFetch, Op: op, Err: err}
}

// NewMutationError 创建变更错误
func NewMutationError(op string, err error) error {
	return &OpError{Kind: KindMutation, Op: op, Err: err}
}

// NewConnectivityError 创建连接错误
func NewConnectivityError(op string, err error) error {
	return &OpError{Kind: KindConnectivity, Op: op, Err: err}
}

// PartialMarkError 批量已读部分失败
type PartialMarkError struct {
	Confirmed []string
	Reverted  []string
}

func (e *PartialMarkError) Error() string {
	return fmt.Sprintf("mark all as read: %d confirmed, %d reverted (%s)",
		len(e.Confirmed), len(e.Reverted), strings.Join(e.Reverted, ","))
}

// Is 部分失败也属于变更失败
func (e *PartialMarkError) Is(target error) bool {
	return target == ErrMutation
}
