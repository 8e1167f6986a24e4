package commonlog

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type summaryLog struct {
	logDto LogDto
}

func newSummary(detail LogDto, sequences []Sequence, additional map[string]any, timer *Timer) *summaryLog {
	dto := detail
	dto.LogType = "Summary"
	dto.RecordType = "Summary"
	dto.DateTime = timer.begin.Format(time.RFC3339)
	dto.ServiceTime = time.Since(timer.begin).Microseconds()
	if len(additional) > 0 {
		dto.AdditionalInfo = additional
	}
	if len(sequences) > 0 {
		if b, err := json.Marshal(sequences); err == nil {
			dto.Messages = string(b)
		}
	}

	// detail-only fields
	dto.Action = ""
	dto.SubAction = ""
	dto.ActionDescription = ""
	dto.Message = ""
	dto.Timestamp = ""
	dto.Dependency = ""
	dto.ResponseTime = 0
	dto.ResultCode = ""
	dto.ResultFlag = ""

	return &summaryLog{logDto: dto}
}

// end fills the application result from an HTTP status and returns the record.
func (s *summaryLog) end(code int, message string) string {
	if message == "" {
		if code < http.StatusBadRequest {
			message = "Success"
		} else {
			message = statusText(code)
		}
	}

	s.logDto.AppResultHttpStatus = strconv.Itoa(code)
	s.logDto.AppResultCode = ResultCode(code)
	s.logDto.AppResult = message

	switch {
	case code >= http.StatusInternalServerError:
		s.logDto.AppResultType = "SYSTEM_ERROR"
		s.logDto.Severity = SeverityError
	case code >= http.StatusBadRequest:
		s.logDto.AppResultType = "BUSINESS_ERROR"
		s.logDto.Severity = SeverityNotice
	default:
		s.logDto.AppResultType = "HEALTHY"
		s.logDto.Severity = SeverityNormal
	}

	b, err := json.Marshal(s.logDto)
	if err != nil {
		return ""
	}
	return string(b)
}

// ResultCode pads an HTTP status to the five digit application code, 404 -> "40400".
func ResultCode(code int) string {
	c := strconv.Itoa(code)
	if len(c) >= 5 {
		return c
	}
	return c + strings.Repeat("0", 5-len(c))
}

// statusText converts "Not Found" to "not_found".
func statusText(code int) string {
	text := http.StatusText(code)
	if text == "" {
		return "unknown"
	}
	text = strings.ToLower(strings.TrimSpace(text))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(text)
}
