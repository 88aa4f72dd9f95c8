package xmlcodec

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"webshopsync/internal/entity"
)

// TimeLayout is the webshop's timestamp format. Values are always UTC.
const TimeLayout = "2006-01-02 15:04:05"

const dateLayout = "2006-01-02"

func formatID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

func formatInt(v int) string {
	return strconv.Itoa(v)
}

func formatOptInt(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(TimeLayout)
}

// fieldParser converts wire text into typed values and keeps the first
// failure, so a fromWire function can read straight through its fields.
type fieldParser struct {
	kind entity.Kind
	path string
	err  error
}

func (p *fieldParser) fail(field, value, reason string) {
	if p.err != nil {
		return
	}
	path := field
	if p.path != "" {
		path = p.path + "/" + field
	}
	p.err = &ValidationError{Kind: p.kind, Path: path, Reason: fmt.Sprintf("%s: %q", reason, value)}
}

func (p *fieldParser) at(path string) *fieldParser {
	return &fieldParser{kind: p.kind, path: path}
}

func (p *fieldParser) merge(sub *fieldParser) {
	if p.err == nil {
		p.err = sub.err
	}
}

func (p *fieldParser) id(field, s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		p.fail(field, s, "not an integer")
		return 0
	}
	return v
}

func (p *fieldParser) integer(field, s string) int {
	return int(p.id(field, s))
}

func (p *fieldParser) boolean(field, s string) bool {
	switch strings.TrimSpace(s) {
	case "", "0", "false":
		return false
	case "1", "true":
		return true
	default:
		p.fail(field, s, "not a boolean")
		return false
	}
}

func (p *fieldParser) money(field, s string) entity.Money {
	if strings.TrimSpace(s) == "" {
		return 0
	}
	m, err := entity.ParseMoney(s)
	if err != nil {
		p.fail(field, s, "not an amount")
		return 0
	}
	return m
}

func (p *fieldParser) time(field, s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{TimeLayout, dateLayout} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return &t
		}
	}
	p.fail(field, s, "not a timestamp")
	return nil
}
