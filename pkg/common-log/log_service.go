package commonlog

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sing3demons/go-order-admin/pkg/common-log/logAction"
	"github.com/sing3demons/go-order-admin/pkg/common-log/masking"
)

// CustomLoggerService is the per-transaction logger carried by a request context.
// Info/Debug/Error write detail records; SetSummary collects the node results that
// End writes as a single summary record.
type CustomLoggerService interface {
	Init(data LogDto)
	GetLogDto() LogDto
	Info(action logAction.LoggerAction, data any, options ...masking.MaskingOptionDto)
	Debug(action logAction.LoggerAction, data any, options ...masking.MaskingOptionDto)
	Error(action logAction.LoggerAction, data any, options ...masking.MaskingOptionDto)
	SetSummary(params LogEventTag) CustomLoggerService
	SetSummaryLogErrorSource(param ErrorSourceType) CustomLoggerService
	SetDependencyMetadata(metadata LogDependencyMetadata) CustomLoggerService
	End(code int, message string)
}

type customLoggerService struct {
	mu sync.Mutex

	logDto            LogDto
	additionalSummary map[string]any
	sequences         []Sequence
	ended             bool

	detailLog      LoggerService
	summaryLog     LoggerService
	maskingService *masking.MaskingService
	timer          *Timer
}

type Timer struct {
	begin time.Time
}

func NewTimer() *Timer {
	return &Timer{begin: time.Now()}
}

func NewLogger(detailLog LoggerService, summaryLog LoggerService, timer *Timer) CustomLoggerService {
	if timer == nil {
		timer = NewTimer()
	}
	return &customLoggerService{
		detailLog:      detailLog,
		summaryLog:     summaryLog,
		maskingService: masking.NewMaskingService(),
		timer:          timer,
	}
}

func (c *customLoggerService) Init(data LogDto) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logDto = data
	c.logDto.LogType = "Detail"
	if c.logDto.SessionId == "" {
		c.logDto.SessionId = uuid.NewString()
	}

	if c.logDto.TransactionId == "" {
		c.logDto.TransactionId = uuid.NewString()
	}
	if c.logDto.Instance == "" {
		c.logDto.Instance, _ = os.Hostname()
	}
}

func (c *customLoggerService) GetLogDto() LogDto {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.logDto
}

func (c *customLoggerService) SetDependencyMetadata(metadata LogDependencyMetadata) CustomLoggerService {
	c.mu.Lock()
	defer c.mu.Unlock()

	if metadata.Dependency != "" {
		c.logDto.Dependency = metadata.Dependency
	}
	if metadata.ResponseTime != 0 {
		c.logDto.ResponseTime = metadata.ResponseTime
	}
	if metadata.ResultCode != "" {
		c.logDto.ResultCode = metadata.ResultCode
	}
	if metadata.ResultFlag != "" {
		c.logDto.ResultFlag = metadata.ResultFlag
	}
	return c
}

func (c *customLoggerService) detail(action logAction.LoggerAction, data any, options []masking.MaskingOptionDto) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logDto.Action = action.Action
	c.logDto.ActionDescription = action.ActionDescription
	c.logDto.SubAction = action.SubAction
	c.logDto.Message = toJSON(cloneAndMask(data, options, c.maskingService))
	c.logDto.Timestamp = time.Now().Format(time.RFC3339)

	b, err := json.Marshal(c.logDto)
	c.logDto.SubAction = ""
	if err != nil {
		return fmt.Sprintf(`{"action":%q,"error":%q}`, action.Action, err.Error())
	}
	return string(b)
}

func (c *customLoggerService) Info(action logAction.LoggerAction, data any, options ...masking.MaskingOptionDto) {
	c.detailLog.Log(c.detail(action, data, options))
}

func (c *customLoggerService) Debug(action logAction.LoggerAction, data any, options ...masking.MaskingOptionDto) {
	c.detailLog.Debug(c.detail(action, data, options))
}

func (c *customLoggerService) Error(action logAction.LoggerAction, data any, options ...masking.MaskingOptionDto) {
	c.detailLog.Error(c.detail(action, data, options))
}

func (c *customLoggerService) SetSummaryLogErrorSource(param ErrorSourceType) CustomLoggerService {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.additionalSummary = map[string]any{
		"errorSource": map[string]any{
			"node":        param.Node,
			"code":        param.Code,
			"description": param.Description,
		},
	}
	return c
}

// SetSummary appends a result to the sequence of (node, command), creating the
// sequence on first use.
func (c *customLoggerService) SetSummary(param LogEventTag) CustomLoggerService {
	c.mu.Lock()
	defer c.mu.Unlock()

	if param.Command == "" {
		param.Command = c.logDto.ActionDescription
	}

	result := SequenceResult{
		Result:  param.Code,
		Desc:    param.Description,
		ResTime: param.ResTime,
	}

	for i := range c.sequences {
		if c.sequences[i].Node == param.Node && c.sequences[i].Command == param.Command {
			c.sequences[i].Result = append(c.sequences[i].Result, result)
			return c
		}
	}

	c.sequences = append(c.sequences, Sequence{
		Node:    param.Node,
		Command: param.Command,
		Result:  []SequenceResult{result},
	})
	return c
}

// End writes the summary record for an HTTP status. Only the first call writes.
func (c *customLoggerService) End(code int, message string) {
	c.mu.Lock()
	if c.ended {
		c.mu.Unlock()
		return
	}
	c.ended = true
	summary := newSummary(c.logDto, c.sequences, c.additionalSummary, c.timer)
	c.mu.Unlock()

	c.summaryLog.Info(summary.end(code, message))
}

func cloneAndMask(data any, options []masking.MaskingOptionDto, masker *masking.MaskingService) any {
	if len(options) == 0 || data == nil {
		return data
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return data
	}

	var clone any
	if err := json.Unmarshal(raw, &clone); err != nil {
		return data
	}

	for _, opt := range options {
		path := strings.Split(opt.MaskingField, ".")
		if _, isArray := clone.([]any); isArray && path[0] != "*" {
			path = append([]string{"*"}, path...)
		}
		clone = maskPath(clone, path, opt.MaskingType, masker)
	}

	return clone
}

func maskPath(node any, path []string, maskType masking.MaskingType, masker *masking.MaskingService) any {
	if len(path) == 0 {
		switch v := node.(type) {
		case string:
			return masker.Masking(v, maskType)
		case float64:
			return masker.Masking(strconv.FormatFloat(v, 'f', -1, 64), maskType)
		default:
			return node
		}
	}

	switch v := node.(type) {
	case map[string]any:
		if child, ok := v[path[0]]; ok {
			v[path[0]] = maskPath(child, path[1:], maskType, masker)
		}
		return v
	case []any:
		if path[0] != "*" {
			return v
		}
		for i := range v {
			v[i] = maskPath(v[i], path[1:], maskType, masker)
		}
		return v
	default:
		return node
	}
}

func toJSON(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case error:
		return val.Error()
	case int, int64, float64, bool:
		return strings.ToLower(fmt.Sprintf("%v", val))
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}
