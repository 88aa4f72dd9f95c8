package webshop

import (
	"encoding/xml"
	"strings"
)

// AckToken is the literal body of a successful mutation.
const AckToken = "ok"

const errorPrefix = "error"

type ResponseType int

const (
	Ack ResponseType = iota
	Error
	Data
)

func (t ResponseType) String() string {
	switch t {
	case Ack:
		return "ack"
	case Error:
		return "error"
	case Data:
		return "data"
	default:
		return "unknown"
	}
}

// Response is a classified webshop answer.
type Response struct {
	Type ResponseType
	// Reason is set for Error: the text after the "error" prefix.
	Reason string
	// Raw is the unwrapped response text.
	Raw string
	// Payload is set for Data.
	Payload string
}

// Err returns the ApplicationError for an Error response and nil otherwise.
func (r Response) Err() error {
	if r.Type != Error {
		return nil
	}
	return &ApplicationError{Raw: r.Raw, Reason: r.Reason}
}

// Classify sorts a raw response into an acknowledgment, an application
// error or a data payload. Sentinel strings may arrive wrapped in a
// <string> text container.
func Classify(raw string) Response {
	value := strings.TrimSpace(unwrapString(raw))

	switch {
	case value == AckToken:
		return Response{Type: Ack, Raw: value}
	case strings.HasPrefix(value, errorPrefix):
		reason := strings.TrimPrefix(value, errorPrefix)
		reason = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(reason), ":"))
		return Response{Type: Error, Reason: reason, Raw: value}
	default:
		return Response{Type: Data, Raw: value, Payload: value}
	}
}

type stringContainer struct {
	XMLName xml.Name `xml:"string"`
	Value   string   `xml:",chardata"`
}

// unwrapString returns the text of a <string> container, or raw unchanged
// when it is not one.
func unwrapString(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "<?xml") {
		if end := strings.Index(trimmed, "?>"); end >= 0 {
			trimmed = strings.TrimSpace(trimmed[end+2:])
		}
	}
	if !strings.HasPrefix(trimmed, "<string") {
		return raw
	}

	var c stringContainer
	if err := xml.Unmarshal([]byte(trimmed), &c); err != nil {
		return raw
	}
	return c.Value
}
