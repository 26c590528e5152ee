package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/freightdesk/backend/internal/domain/notification"
)

// filterSchemaURL 查询条件 schema 的资源地址
const filterSchemaURL = "freightdesk://schemas/notification-filter.json"

// filterSchema 查询条件 schema，未声明的字段一律拒绝
const filterSchema = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "page":       { "type": "integer", "minimum": 1 },
    "limit":      { "type": "integer", "minimum": 1, "maximum": 100 },
    "status":     { "enum": ["read", "unread", "pending", "sent"] },
    "unreadOnly": { "type": "boolean" },
    "priority":   { "enum": ["low", "medium", "high", "critical"] }
  }
}`

// FilterDecoder 把松散的查询配置解码为 notification.Filter
type FilterDecoder struct {
	schema *jsonschema.Schema
}

// NewFilterDecoder 编译查询条件 schema
func NewFilterDecoder() (*FilterDecoder, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(filterSchema))
	if err != nil {
		return nil, fmt.Errorf("parse filter schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(filterSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("add filter schema: %w", err)
	}
	sch, err := c.Compile(filterSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile filter schema: %w", err)
	}
	return &FilterDecoder{schema: sch}, nil
}

// MustNewFilterDecoder 编译失败时 panic，schema 为内置常量
func MustNewFilterDecoder() *FilterDecoder {
	d, err := NewFilterDecoder()
	if err != nil {
		panic(err)
	}
	return d
}

// Decode 校验并解码，nil 视为空条件
func (d *FilterDecoder) Decode(opts map[string]any) (notification.Filter, error) {
	if opts == nil {
		opts = map[string]any{}
	}
	raw, err := json.Marshal(opts)
	if err != nil {
		return notification.Filter{}, &notification.ValidationError{Field: "options", Reason: err.Error()}
	}

	// 经 UnmarshalJSON 转换，数字统一为 json.Number
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return notification.Filter{}, &notification.ValidationError{Field: "options", Reason: err.Error()}
	}
	if err := d.schema.Validate(inst); err != nil {
		return notification.Filter{}, toValidationError(err)
	}

	var filter notification.Filter
	if err := json.Unmarshal(raw, &filter); err != nil {
		return notification.Filter{}, &notification.ValidationError{Field: "options", Reason: err.Error()}
	}
	if err := filter.Validate(); err != nil {
		return notification.Filter{}, err
	}
	return filter, nil
}

// FromQuery 解码 URL 查询参数
// 无法转换类型的值保持字符串，由 schema 报告类型错误
func (d *FilterDecoder) FromQuery(values url.Values) (notification.Filter, error) {
	opts := make(map[string]any, len(values))
	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		v := vals[0]
		switch key {
		case "page", "limit":
			if n, err := strconv.Atoi(v); err == nil {
				opts[key] = n
				continue
			}
		case "unreadOnly":
			if b, err := strconv.ParseBool(v); err == nil {
				opts[key] = b
				continue
			}
		}
		opts[key] = v
	}
	return d.Decode(opts)
}

// toValidationError 取最深一层的原因作为字段错误
func toValidationError(err error) error {
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return &notification.ValidationError{Field: "options", Reason: err.Error()}
	}
	leaf := verr
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	field := strings.Join(leaf.InstanceLocation, ".")
	if field == "" {
		field = "options"
	}
	return &notification.ValidationError{Field: field, Reason: strings.TrimSpace(leaf.Error())}
}
