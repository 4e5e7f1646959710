package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Expr is a raw SQL expression used as a default value. It is rendered
// verbatim; the caller is responsible for its escaping.
type Expr string

// EncodeDefault renders a Go value as the SQL literal stored on a Column
// default. nil becomes NULL, strings are single-quoted with embedded
// quotes doubled, numbers become decimal literals, booleans become 1/0,
// an Expr passes through unchanged, and anything else is JSON-encoded and
// then quoted.
func EncodeDefault(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "NULL", nil
	case Expr:
		return string(val), nil
	case string:
		return QuoteLiteral(val), nil
	case bool:
		if val {
			return "1", nil
		}
		return "0", nil
	case int:
		return strconv.FormatInt(int64(val), 10), nil
	case int8:
		return strconv.FormatInt(int64(val), 10), nil
	case int16:
		return strconv.FormatInt(int64(val), 10), nil
	case int32:
		return strconv.FormatInt(int64(val), 10), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case uint:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint64:
		return strconv.FormatUint(val, 10), nil
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64), nil
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("encoding default value: %w", err)
		}
		return QuoteLiteral(string(encoded)), nil
	}
}

// QuoteLiteral single-quotes a string literal, doubling embedded quotes.
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
