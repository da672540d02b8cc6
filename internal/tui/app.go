// Package tui is the terminal front end: a tabbed console where every
// tab renders one live monitor table, plus the order entry panel and
// the gateway connect overlay. All record mutation happens on the
// bubbletea update loop; gateway events are marshalled onto it through
// Program.Send, so the monitors themselves need no locking.
package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tradedesk/tradedesk/internal/domain"
	"github.com/tradedesk/tradedesk/internal/engine"
	"github.com/tradedesk/tradedesk/internal/events"
	"github.com/tradedesk/tradedesk/internal/monitor"
	"github.com/tradedesk/tradedesk/pkg/logger"
	"github.com/tradedesk/tradedesk/pkg/settings"
)

// eventMsg carries one bus event onto the update loop.
type eventMsg struct {
	event events.Event
}

type tickMsg time.Time

const (
	tabTrading = iota
	tabTicks
	tabOrders
	tabActive
	tabTrades
	tabPositions
	tabAccounts
	tabQuotes
	tabLogs
	tabContracts
	tabCount
)

var tabNames = [tabCount]string{
	"Trading", "Ticks", "Orders", "Active", "Trades",
	"Positions", "Accounts", "Quotes", "Logs", "Contracts",
}

// App owns the bubbletea program and the wiring between the event bus
// and the monitors.
type App struct {
	engine  *engine.MainEngine
	program *tea.Program
}

// Model is the root bubbletea model.
type Model struct {
	engine    *engine.MainEngine
	exportDir string

	active int
	width  int
	height int

	tickMon     *monitor.Monitor
	orderMon    *monitor.Monitor
	activeMon   *monitor.ActiveOrderMonitor
	tradeMon    *monitor.Monitor
	positionMon *monitor.Monitor
	accountMon  *monitor.Monitor
	quoteMon    *monitor.Monitor
	logMon      *monitor.Monitor

	tables [tabCount]*tableView

	trading   *tradingPanel
	connect   *connectDialog
	contracts *contractsView

	status string
}

func NewModel(e *engine.MainEngine, svc settings.Service, exportDir string) *Model {
	m := &Model{
		engine:      e,
		exportDir:   exportDir,
		tickMon:     monitor.NewTickMonitor(svc),
		orderMon:    monitor.NewOrderMonitor(svc),
		activeMon:   monitor.NewActiveOrderMonitor(svc),
		tradeMon:    monitor.NewTradeMonitor(svc),
		positionMon: monitor.NewPositionMonitor(svc),
		accountMon:  monitor.NewAccountMonitor(svc),
		quoteMon:    monitor.NewQuoteMonitor(svc),
		logMon:      monitor.NewLogMonitor(svc),
		trading:     newTradingPanel(e),
		connect:     newConnectDialog(e),
		contracts:   newContractsView(e, svc),
	}
	m.tables[tabTicks] = newTableView(m.tickMon)
	m.tables[tabOrders] = newTableView(m.orderMon)
	m.tables[tabActive] = newTableView(m.activeMon.Monitor)
	m.tables[tabTrades] = newTableView(m.tradeMon)
	m.tables[tabPositions] = newTableView(m.positionMon)
	m.tables[tabAccounts] = newTableView(m.accountMon)
	m.tables[tabQuotes] = newTableView(m.quoteMon)
	m.tables[tabLogs] = newTableView(m.logMon)
	return m
}

// NewApp builds the program and registers the bus handlers that feed
// it. Handlers only enqueue; processing happens inside Update.
func NewApp(e *engine.MainEngine, svc settings.Service, exportDir string) *App {
	m := NewModel(e, svc, exportDir)
	app := &App{engine: e}
	app.program = tea.NewProgram(m, tea.WithAltScreen())

	forward := func(ev events.Event) {
		app.program.Send(eventMsg{event: ev})
	}
	for _, t := range []events.Type{
		events.TypeTick, events.TypeOrder, events.TypeTrade,
		events.TypePosition, events.TypeAccount, events.TypeQuote,
		events.TypeLog,
	} {
		e.Bus().Register(t, forward)
	}
	return app
}

// Run blocks until the user quits.
func (a *App) Run() error {
	logger.RedirectToFile()
	_, err := a.program.Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return m.clock()
}

func (m *Model) clock() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		return m, m.clock()

	case eventMsg:
		m.applyEvent(msg.event)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// applyEvent routes one bus event into the monitors. This runs on the
// update loop, the only goroutine allowed to touch them.
func (m *Model) applyEvent(ev events.Event) {
	switch ev.Type {
	case events.TypeTick:
		m.tickMon.Process(ev.Data)
		if tick, ok := ev.Data.(*domain.Tick); ok {
			m.trading.setTick(tick)
		}
	case events.TypeOrder:
		m.orderMon.Process(ev.Data)
		m.activeMon.Process(ev.Data)
	case events.TypeTrade:
		m.tradeMon.Process(ev.Data)
	case events.TypePosition:
		m.positionMon.Process(ev.Data)
	case events.TypeAccount:
		m.accountMon.Process(ev.Data)
	case events.TypeQuote:
		m.quoteMon.Process(ev.Data)
	case events.TypeLog:
		m.logMon.Process(ev.Data)
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.connect.handleKey(key) {
		return m, nil
	}

	// On the trading tab plain letters belong to the form, so only
	// ctrl+c quits there.
	if key == "ctrl+c" || (key == "q" && m.active != tabTrading) {
		m.saveLayouts()
		// bubbletea swallows ctrl+c, so raise SIGINT ourselves to run
		// the process-level shutdown path.
		_ = syscall.Kill(os.Getpid(), syscall.SIGINT)
		return m, tea.Quit
	}

	switch key {
	case "tab":
		m.active = (m.active + 1) % tabCount
		return m, nil
	case "shift+tab":
		m.active = wrap(m.active-1, tabCount)
		return m, nil
	case "g":
		if m.active != tabTrading {
			m.connect.show()
			return m, nil
		}
	case "1", "2", "3", "4", "5", "6", "7", "8", "9", "0":
		if m.active != tabTrading {
			ix := int(key[0] - '1')
			if key == "0" {
				ix = 9
			}
			if ix < tabCount {
				m.active = ix
			}
			return m, nil
		}
	}

	switch m.active {
	case tabTrading:
		m.trading.handleKey(key)
	case tabContracts:
		if m.contracts.handleKey(key, m.tableHeight()) {
			return m, nil
		}
		m.handleTableKey(key, m.contracts.table)
	default:
		m.handleTableKey(key, m.tables[m.active])
	}
	return m, nil
}

// handleTableKey implements the keys shared by every monitor tab.
func (m *Model) handleTableKey(key string, v *tableView) {
	if v == nil {
		return
	}
	height := m.tableHeight()
	switch key {
	case "up":
		v.moveCursor(-1, height)
	case "down":
		v.moveCursor(1, height)
	case "pgup":
		v.moveCursor(-height, height)
	case "pgdown":
		v.moveCursor(height, height)
	case "left":
		v.moveColumn(-1)
	case "right":
		v.moveColumn(1)
	case "s":
		v.sortSelected()
	case "S":
		v.mon.ClearSort()
	case "r":
		v.mon.ResizeColumns()
	case "e":
		m.exportCSV(v.mon)
	case "enter":
		m.fillTradingForm(v.selectedRow())
	case "c":
		m.cancelSelected(v.selectedRow())
	case "C":
		m.engine.CancelAll("")
		m.status = "cancel all sent"
	}
}

// fillTradingForm loads the selected row into the order entry panel and
// jumps to the trading tab.
func (m *Model) fillTradingForm(row *monitor.Row) {
	if row == nil {
		return
	}
	m.trading.fillFrom(row)
	m.active = tabTrading
}

// cancelSelected cancels the order or quote under the cursor.
func (m *Model) cancelSelected(row *monitor.Row) {
	if row == nil {
		return
	}
	switch rec := row.Record.(type) {
	case *domain.Order:
		if !rec.IsActive() {
			m.status = "order already finished"
			return
		}
		if err := m.engine.CancelOrder(rec.CancelRequest(), rec.GatewayName); err != nil {
			m.status = "cancel failed: " + err.Error()
			return
		}
		m.status = "cancel sent: " + rec.Key()
	case *domain.Quote:
		if !rec.IsActive() {
			m.status = "quote already finished"
			return
		}
		if err := m.engine.CancelOrder(rec.CancelRequest(), rec.GatewayName); err != nil {
			m.status = "cancel failed: " + err.Error()
			return
		}
		m.status = "cancel sent: " + rec.Key()
	}
}

// exportCSV writes the monitor's visible rows to a timestamped file.
func (m *Model) exportCSV(mon *monitor.Monitor) {
	if err := os.MkdirAll(m.exportDir, 0o755); err != nil {
		m.status = "export failed: " + err.Error()
		return
	}
	name := fmt.Sprintf("%s-%s.csv", strings.ToLower(mon.Spec().Name), time.Now().Format("20060102-150405"))
	path := filepath.Join(m.exportDir, name)

	f, err := os.Create(path)
	if err != nil {
		m.status = "export failed: " + err.Error()
		return
	}
	defer f.Close()

	if err := mon.ExportCSV(f); err != nil {
		m.status = "export failed: " + err.Error()
		return
	}
	m.status = "exported " + path
}

func (m *Model) saveLayouts() {
	mons := []*monitor.Monitor{
		m.tickMon, m.orderMon, m.activeMon.Monitor, m.tradeMon,
		m.positionMon, m.accountMon, m.quoteMon, m.logMon,
	}
	for _, mon := range mons {
		if err := mon.SaveLayout(); err != nil {
			logger.Warnf("tui: save layout %s: %v", mon.Spec().Name, err)
		}
	}
}

func (m *Model) tableHeight() int {
	h := m.height - 5 // tab bar, header row, status line, borders
	if h < 3 {
		h = 3
	}
	return h
}

func (m *Model) View() string {
	if m.connect.open {
		return m.connect.view()
	}

	width := m.width
	if width < 60 {
		width = 60
	}

	var body string
	switch m.active {
	case tabTrading:
		body = m.trading.view(width)
	case tabContracts:
		body = m.contracts.view(width-2, m.tableHeight())
	default:
		body = m.tables[m.active].render(width-2, m.tableHeight())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderTabs(),
		body,
		m.renderStatus(),
	)
}

func (m *Model) renderTabs() string {
	var parts []string
	for i, name := range tabNames {
		if i == m.active {
			parts = append(parts, activeTabStyle.Render(name))
		} else {
			parts = append(parts, tabStyle.Render(name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderStatus() string {
	left := m.status
	if left == "" {
		left = "tab: switch  s: sort  e: export  r: resize  c: cancel  g: connect  q: quit"
	}
	clock := time.Now().Format("15:04:05")
	return statusStyle.Render(left + "  |  " + clock)
}
