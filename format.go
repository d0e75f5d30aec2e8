package sink

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/davecgh/go-spew/spew"
)

// dumper renders composite values passed to Print in a compact, log-friendly form
var dumper = &spew.ConfigState{
	Indent:                  " ",
	MaxDepth:                10,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// formatEntry renders one line as "[<goroutine>] <timestamp> <message>"
func formatEntry(gid uint64, ts time.Time, layout, message string) string {
	buf := make([]byte, 0, len(message)+len(layout)+24)
	buf = append(buf, '[')
	buf = strconv.AppendUint(buf, gid, 10)
	buf = append(buf, ']', ' ')
	buf = ts.AppendFormat(buf, layout)
	buf = append(buf, ' ')
	buf = append(buf, message...)
	return string(buf)
}

// formatArgs joins args with single spaces, time values use the given layout
func formatArgs(layout string, args ...any) string {
	buf := make([]byte, 0, 64)
	for i, arg := range args {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = appendValue(buf, layout, arg)
	}
	return string(buf)
}

// appendValue converts a value to its text form.
// Types without a direct conversion fall back to spew with type information.
func appendValue(buf []byte, layout string, v any) []byte {
	switch val := v.(type) {
	case string:
		return append(buf, val...)
	case int:
		return strconv.AppendInt(buf, int64(val), 10)
	case int64:
		return strconv.AppendInt(buf, val, 10)
	case int32:
		return strconv.AppendInt(buf, int64(val), 10)
	case uint:
		return strconv.AppendUint(buf, uint64(val), 10)
	case uint64:
		return strconv.AppendUint(buf, val, 10)
	case uint32:
		return strconv.AppendUint(buf, uint64(val), 10)
	case float32:
		return strconv.AppendFloat(buf, float64(val), 'f', -1, 32)
	case float64:
		return strconv.AppendFloat(buf, val, 'f', -1, 64)
	case bool:
		return strconv.AppendBool(buf, val)
	case nil:
		return append(buf, "nil"...)
	case time.Time:
		return val.AppendFormat(buf, layout)
	case time.Duration:
		return append(buf, val.String()...)
	case error:
		return append(buf, val.Error()...)
	case fmt.Stringer:
		return append(buf, val.String()...)
	case []byte:
		return hex.AppendEncode(buf, val)
	default:
		var b bytes.Buffer
		dumper.Fdump(&b, val)
		// Collapse spew's multi-line dump so one entry stays one line
		dump := bytes.ReplaceAll(bytes.TrimSpace(b.Bytes()), []byte("\n"), []byte(" "))
		return append(buf, dump...)
	}
}
