package notification

import (
	"fmt"
	"strings"
)

// CreateInput 创建通知的输入
type CreateInput struct {
	Type     Type           `json:"type"`
	Priority Priority       `json:"priority"`
	Title    string         `json:"title"`
	Message  string         `json:"message"`
	Data     map[string]any `json:"data,omitempty"`
}

// Service 领域服务（纯业务逻辑）
type Service struct{}

// NewService 创建领域服务
func NewService() *Service {
	return &Service{}
}

// ValidateInput 校验创建输入（领域规则）
// 类型只要求非空，未知类型允许通过并在展示时回退到 generic
func (s *Service) ValidateInput(in *CreateInput) error {
	if strings.TrimSpace(string(in.Type)) == "" {
		return &ValidationError{Field: "type", Reason: "is required"}
	}
	if in.Priority == "" {
		return &ValidationError{Field: "priority", Reason: "is required"}
	}
	if !in.Priority.Valid() {
		return &ValidationError{Field: "priority", Reason: fmt.Sprintf("unknown priority %q", in.Priority)}
	}
	if strings.TrimSpace(in.Title) == "" {
		return &ValidationError{Field: "title", Reason: "is required"}
	}
	return nil
}
