package webshop

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    ResponseType
		reason  string
		payload string
	}{
		{name: "ack", raw: "ok", want: Ack},
		{name: "ack with whitespace", raw: " ok\n", want: Ack},
		{name: "wrapped ack", raw: `<?xml version="1.0" encoding="utf-8"?><string xmlns="http://tempuri.org/">ok</string>`, want: Ack},
		{name: "error with reason", raw: "error: result_set_to_big", want: Error, reason: "result_set_to_big"},
		{name: "error without colon space", raw: "error:not found", want: Error, reason: "not found"},
		{name: "bare error", raw: "error", want: Error, reason: ""},
		{name: "wrapped error", raw: `<string>error: category is in use</string>`, want: Error, reason: "category is in use"},
		{name: "prefix is case sensitive", raw: "Error: nope", want: Data, payload: "Error: nope"},
		{name: "payload", raw: "<author><id>1</id></author>", want: Data, payload: "<author><id>1</id></author>"},
		{name: "wrapped payload", raw: `<string>&lt;author&gt;&lt;id&gt;1&lt;/id&gt;&lt;/author&gt;</string>`, want: Data, payload: "<author><id>1</id></author>"},
		{name: "okay is not ok", raw: "okay", want: Data, payload: "okay"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.raw)
			assert.Equal(t, tt.want, got.Type)
			assert.Equal(t, tt.reason, got.Reason)
			if tt.want == Data {
				assert.Equal(t, tt.payload, got.Payload)
			}
		})
	}
}

func TestResponse_Err(t *testing.T) {
	assert.NoError(t, Classify("ok").Err())

	err := Classify("error: result_set_to_big").Err()
	var appErr *ApplicationError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, "error: result_set_to_big", err.Error())
	assert.True(t, errors.Is(err, ErrResultSetTooBig))

	err = Classify("error: id not found").Err()
	assert.False(t, errors.Is(err, ErrResultSetTooBig))
}
