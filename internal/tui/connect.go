package tui

import (
	"strings"

	"github.com/tradedesk/tradedesk/internal/engine"
)

// connectDialog is the overlay for starting a gateway. It shows the
// gateway's default fields layered with whatever was saved last time;
// secret values render masked but submit with their real content.
type connectDialog struct {
	engine *engine.MainEngine

	open      bool
	gatewayIx int
	focus     int

	fields []connectField
	status string
	isErr  bool
}

type connectField struct {
	name   string
	value  string
	secret bool
}

func newConnectDialog(e *engine.MainEngine) *connectDialog {
	return &connectDialog{engine: e}
}

func (d *connectDialog) show() {
	d.open = true
	d.status = ""
	d.isErr = false
	d.loadFields()
}

func (d *connectDialog) loadFields() {
	names := d.engine.GatewayNames()
	if len(names) == 0 {
		d.fields = nil
		return
	}
	d.gatewayIx = wrap(d.gatewayIx, len(names))
	name := names[d.gatewayIx]

	gw := d.engine.GetGateway(name)
	saved := d.engine.LoadConnectForm(name)

	d.fields = d.fields[:0]
	for _, f := range gw.DefaultSettings() {
		d.fields = append(d.fields, connectField{
			name:   f.Name,
			value:  saved[f.Name],
			secret: f.Secret,
		})
	}
	if d.focus > len(d.fields) {
		d.focus = 0
	}
}

// handleKey returns true while the dialog consumes input.
func (d *connectDialog) handleKey(key string) bool {
	if !d.open {
		return false
	}
	switch key {
	case "esc":
		d.open = false
	case "up":
		d.focus--
		if d.focus < 0 {
			d.focus = len(d.fields)
		}
	case "down":
		d.focus = (d.focus + 1) % (len(d.fields) + 1)
	case "left", "right":
		if d.focus == 0 {
			delta := 1
			if key == "left" {
				delta = -1
			}
			d.gatewayIx = wrap(d.gatewayIx+delta, len(d.engine.GatewayNames()))
			d.loadFields()
		}
	case "backspace":
		if i := d.focus - 1; i >= 0 && i < len(d.fields) {
			if v := d.fields[i].value; v != "" {
				d.fields[i].value = v[:len(v)-1]
			}
		}
	case "enter":
		d.connect()
	default:
		if len(key) == 1 {
			if i := d.focus - 1; i >= 0 && i < len(d.fields) {
				d.fields[i].value += key
			}
		}
	}
	return true
}

func (d *connectDialog) connect() {
	names := d.engine.GatewayNames()
	if len(names) == 0 {
		return
	}
	name := names[wrap(d.gatewayIx, len(names))]

	form := make(map[string]string, len(d.fields))
	for _, f := range d.fields {
		form[f.name] = f.value
	}

	if err := d.engine.Connect(name, form); err != nil {
		d.status = err.Error()
		d.isErr = true
		return
	}
	d.status = name + " connected"
	d.isErr = false
	d.open = false
}

func (d *connectDialog) view() string {
	names := d.engine.GatewayNames()
	gatewayName := "(none)"
	if len(names) > 0 {
		gatewayName = names[wrap(d.gatewayIx, len(names))]
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("Connect Gateway"))
	b.WriteString("\n")

	label := pad("Gateway", 12)
	if d.focus == 0 {
		b.WriteString(focusedLabelStyle.Render("> " + label))
	} else {
		b.WriteString(labelStyle.Render("  " + label))
	}
	b.WriteString("< " + gatewayName + " >\n")

	for i, f := range d.fields {
		label := pad(f.name, 12)
		value := f.value
		if f.secret {
			value = strings.Repeat("*", len(value))
		}
		if d.focus == i+1 {
			b.WriteString(focusedLabelStyle.Render("> " + label))
		} else {
			b.WriteString(labelStyle.Render("  " + label))
		}
		b.WriteString(value)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(labelStyle.Render("enter: connect  esc: close"))
	if d.status != "" {
		b.WriteString("\n")
		if d.isErr {
			b.WriteString(errorStyle.Render(d.status))
		} else {
			b.WriteString(statusStyle.Render(d.status))
		}
	}
	return panelStyle.Render(b.String())
}
