package tui

import (
	"kalpdemo/pkg/watcher"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = max(msg.Height/3, 5)
		m.updateViewport()

	case watcher.Event:
		cmds = append(cmds, listenForWatcher(m.sub))
		m.handleEvent(msg)

	case callDoneMsg:
		cmds = append(cmds, m.handleCallDone(msg))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case clearStatusMsg:
		m.statusMessage = ""

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m.quit()
		case "tab":
			m.switchTab(1)
			return m, nil
		case "shift+tab":
			m.switchTab(-1)
			return m, nil
		case "up":
			m.moveOp(-1)
			return m, nil
		case "down":
			m.moveOp(1)
			return m, nil
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case "ctrl+y":
			return m, m.copyLastResult()
		case "esc":
			m.focus = 0
			m.focusInput()
			return m, nil
		case "enter":
			fields := m.opFields()
			if m.focus < len(fields)-1 {
				m.focus++
				m.focusInput()
				return m, nil
			}
			m.focus = 0
			m.focusInput()
			return m, m.trigger()
		}

		if !m.typing() {
			switch msg.String() {
			case "q":
				return m.quit()
			case "c":
				return m, m.copyLastResult()
			}
			return m, nil
		}

		fields := m.opFields()
		field := fields[m.focus]
		ti := m.inputs[m.activeTab][field]
		var cmd tea.Cmd
		ti, cmd = ti.Update(msg)
		m.inputs[m.activeTab][field] = ti
		cmds = append(cmds, cmd)

	default:
		// cursor blink and other input internals
		if m.typing() {
			field := m.opFields()[m.focus]
			ti := m.inputs[m.activeTab][field]
			var cmd tea.Cmd
			ti, cmd = ti.Update(msg)
			m.inputs[m.activeTab][field] = ti
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *model) switchTab(delta int) {
	m.syncInputs()
	n := len(m.views)
	m.activeTab = (m.activeTab + delta + n) % n
	m.focus = 0
	m.focusInput()
	m.updateViewport()
}

func (m *model) moveOp(delta int) {
	n := len(m.activeView().Operations())
	m.opIdx[m.activeTab] = (m.opIdx[m.activeTab] + delta + n) % n
	m.focus = 0
	m.focusInput()
}

func (m *model) copyLastResult() tea.Cmd {
	result := m.lastResult()
	switch {
	case result == "":
		m.statusMessage = "Nothing to copy yet"
	case clipboard.WriteAll(result) != nil:
		m.statusMessage = "Failed to copy to clipboard"
	default:
		m.statusMessage = "Last response copied to clipboard!"
	}
	return clearStatusAfter()
}

// quit tears every view down so late completions are dropped.
func (m model) quit() (tea.Model, tea.Cmd) {
	m.suite.Close()
	m.suite.Watcher.Unsubscribe(m.sub)
	return m, tea.Quit
}
