package fulfillment

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

const (
	maxResponseBytes = 8 << 20
	// a string-wrapped body is unwrapped at most this many times
	maxUnwrapDepth = 2
)

var errEmptyResponse = errors.New("empty response body")

// decodeResponse parses a provider body into generic JSON values. Some
// providers wrap the JSON document in a JSON string; that layer is removed.
func decodeResponse(body []byte) (interface{}, error) {
	data := bytes.TrimSpace(body)

	for depth := 0; ; depth++ {
		if len(data) == 0 {
			return nil, errEmptyResponse
		}

		var value interface{}
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber()
		if err := decoder.Decode(&value); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		if decoder.More() {
			return nil, errors.New("invalid JSON: trailing data")
		}

		wrapped, isString := value.(string)
		if !isString {
			return value, nil
		}
		if depth >= maxUnwrapDepth {
			return nil, errors.New("response is a bare string")
		}
		data = bytes.TrimSpace([]byte(wrapped))
	}
}

// errorOf returns the provider's message when value is an {"error": ...} object
func errorOf(value interface{}) string {
	fields, ok := value.(map[string]interface{})
	if !ok {
		return ""
	}
	raw, ok := fields["error"]
	if !ok || raw == nil {
		return ""
	}
	return cast.ToString(raw)
}

// toDecimal accepts numbers and numeric strings
func toDecimal(value interface{}) (decimal.Decimal, bool) {
	if value == nil {
		return decimal.Zero, false
	}
	text, err := cast.ToStringE(value)
	if err != nil || text == "" {
		return decimal.Zero, false
	}
	parsed, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, false
	}
	return parsed, true
}
