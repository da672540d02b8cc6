package tui

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tradedesk/tradedesk/internal/engine"
	"github.com/tradedesk/tradedesk/internal/monitor"
	"github.com/tradedesk/tradedesk/pkg/settings"
)

// contractsView is the instrument browser: a filter box over a table of
// every contract the gateways have reported. The table is rebuilt on
// each query, not driven by live events.
type contractsView struct {
	engine *engine.MainEngine
	mon    *monitor.Monitor
	table  *tableView

	filter    string
	editing   bool
	populated bool
}

func newContractsView(e *engine.MainEngine, svc settings.Service) *contractsView {
	mon := monitor.NewContractMonitor(svc)
	return &contractsView{
		engine: e,
		mon:    mon,
		table:  newTableView(mon),
	}
}

// refresh rebuilds the table from the contract cache, keeping only
// rows whose symbol id or name contains the filter. An empty filter
// shows everything.
func (v *contractsView) refresh() {
	v.mon.Clear()
	v.table.cursor = 0
	v.table.offset = 0

	contracts := v.engine.OMS().GetAllContracts()
	sort.Slice(contracts, func(i, j int) bool { return contracts[i].Key() < contracts[j].Key() })

	needle := strings.ToUpper(strings.TrimSpace(v.filter))
	for _, c := range contracts {
		if needle != "" &&
			!strings.Contains(strings.ToUpper(c.Key()), needle) &&
			!strings.Contains(strings.ToUpper(c.Name), needle) {
			continue
		}
		v.mon.Process(c)
	}
	v.mon.ResizeColumns()
	v.populated = true
}

// handleKey returns true when the key was consumed by the filter box.
func (v *contractsView) handleKey(key string, height int) bool {
	if v.editing {
		switch key {
		case "enter", "esc":
			v.editing = false
			v.refresh()
		case "backspace":
			if v.filter != "" {
				v.filter = v.filter[:len(v.filter)-1]
			}
		default:
			if len(key) == 1 {
				v.filter += key
			}
		}
		return true
	}

	switch key {
	case "/":
		v.editing = true
		return true
	case "up":
		v.table.moveCursor(-1, height)
		return true
	case "down":
		v.table.moveCursor(1, height)
		return true
	}
	return false
}

func (v *contractsView) view(width, height int) string {
	if !v.populated {
		v.refresh()
	}

	prompt := "filter: " + v.filter
	if v.editing {
		prompt = focusedLabelStyle.Render(prompt + "_")
	} else {
		prompt = labelStyle.Render(prompt + "   (/ to edit)")
	}
	table := v.table.render(width, height-1)
	return lipgloss.JoinVertical(lipgloss.Left, prompt, table)
}
