package monitor

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tradedesk/tradedesk/internal/domain"
)

// Display colors shared by every monitor. Long is red and short is green,
// following the convention of the original terminal.
var (
	ColorLong  = lipgloss.Color("#ff3333")
	ColorShort = lipgloss.Color("#33cc33")
	ColorBid   = lipgloss.Color("#ffaec9")
	ColorAsk   = lipgloss.Color("#a0ffa0")
	ColorNone  = lipgloss.Color("")
)

// Role selects the text/color rule applied to a cell's value.
type Role int

const (
	RolePlain Role = iota
	RoleEnum
	RoleDirection
	RoleBid
	RoleAsk
	RolePnl
	RoleTime
	RoleDate
	RoleMsg
)

// Cell is one rendered table cell. Text and Color are what the terminal
// shows; Record keeps the source record so row actions (cancel, fill the
// trading form) can reach back to the data.
type Cell struct {
	Text   string
	Color  lipgloss.Color
	Record any
}

// Set formats value under role and stores the result. An absent value for
// a time or date role leaves the previous text untouched.
func (c *Cell) Set(value any, role Role, record any) {
	text, color, ok := FormatCell(value, role)
	if !ok {
		c.Record = record
		return
	}
	c.Text = text
	c.Color = color
	c.Record = record
}

// Less orders cells by rendered text. Numeric columns therefore sort
// lexicographically ("100" before "20"); kept as-is to match the behavior
// the rest of the product depends on.
func (c *Cell) Less(other *Cell) bool {
	return c.Text < other.Text
}

// FormatCell maps one raw value plus a role to display text and color.
// ok is false when the value is absent and the previous text should be
// kept (time and date roles only).
func FormatCell(value any, role Role) (text string, color lipgloss.Color, ok bool) {
	switch role {
	case RoleEnum:
		return enumText(value), ColorNone, true

	case RoleDirection:
		t := enumText(value)
		if isLong(value) {
			return t, ColorLong, true
		}
		return t, ColorShort, true

	case RoleBid:
		return plainText(value), ColorBid, true

	case RoleAsk:
		return plainText(value), ColorAsk, true

	case RolePnl:
		t := plainText(value)
		if strings.HasPrefix(t, "-") {
			return t, ColorShort, true
		}
		return t, ColorLong, true

	case RoleTime:
		ts, valid := timeValue(value)
		if !valid {
			return "", ColorNone, false
		}
		local := ts.Local()
		return fmt.Sprintf("%s.%03d", local.Format("15:04:05"), local.Nanosecond()/1e6), ColorNone, true

	case RoleDate:
		ts, valid := timeValue(value)
		if !valid {
			return "", ColorNone, false
		}
		return ts.Local().Format("2006-01-02"), ColorNone, true

	default: // RolePlain, RoleMsg
		return plainText(value), ColorNone, true
	}
}

func plainText(value any) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case float64:
		// Trim the noise of float formatting; prices keep their digits.
		return fmt.Sprintf("%g", v)
	default:
		return fmt.Sprint(value)
	}
}

func enumText(value any) string {
	if value == nil {
		return ""
	}
	return fmt.Sprint(value)
}

func isLong(value any) bool {
	switch v := value.(type) {
	case domain.Direction:
		return v == domain.DirectionLong
	case string:
		s := strings.ToLower(v)
		return s == "long" || s == "buy"
	}
	return false
}

func timeValue(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, !v.IsZero()
	case *time.Time:
		if v == nil || v.IsZero() {
			return time.Time{}, false
		}
		return *v, true
	}
	return time.Time{}, false
}
