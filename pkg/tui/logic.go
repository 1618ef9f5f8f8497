package tui

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"kalpdemo/pkg/controller"
	"kalpdemo/pkg/dapp"
	"kalpdemo/pkg/gateway"
	"kalpdemo/pkg/models"
	"kalpdemo/pkg/watcher"

	tea "github.com/charmbracelet/bubbletea"
)

func (m model) activeView() dapp.View {
	return m.views[m.activeTab]
}

func (m model) activeOp() gateway.Operation {
	ops := m.activeView().Operations()
	return ops[m.opIdx[m.activeTab]%len(ops)]
}

// opFields lists the form fields the selected operation reads.
func (m model) opFields() []string {
	op := m.activeOp()
	if m.activeView().Name() == string(gateway.AppAirdrop) && op.Name == "balanceOf" {
		return []string{"address"}
	}
	return op.Args
}

// typing reports whether key presses go to a text input.
func (m model) typing() bool {
	return len(m.opFields()) > 0
}

func (m *model) focusInput() {
	fields := m.opFields()
	for f, ti := range m.inputs[m.activeTab] {
		if len(fields) > 0 && f == fields[m.focus] {
			ti.Focus()
		} else {
			ti.Blur()
		}
		m.inputs[m.activeTab][f] = ti
	}
}

// syncInputs copies the text inputs of the active tab into its view.
func (m model) syncInputs() {
	v := m.activeView()
	for f, ti := range m.inputs[m.activeTab] {
		v.SetInput(f, strings.TrimSpace(ti.Value()))
	}
}

// runCall starts op on v in the background.
func (m model) runCall(v dapp.View, op string) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		resp, err := v.Handle(ctx, op)
		return callDoneMsg{view: v.Name(), op: op, resp: resp, err: err}
	}
}

// trigger runs the selected operation unless the view is already busy.
func (m *model) trigger() tea.Cmd {
	v := m.activeView()
	if v.Loading() {
		m.statusMessage = "A request is already in flight"
		return clearStatusAfter()
	}
	m.syncInputs()
	op := m.activeOp()
	m.statusMessage = fmt.Sprintf("Calling %s...", op.Method)
	return m.runCall(v, op.Name)
}

func (m *model) handleCallDone(msg callDoneMsg) tea.Cmd {
	if errors.Is(msg.err, controller.ErrViewClosed) {
		return nil
	}
	if msg.err != nil {
		m.statusMessage = fmt.Sprintf("%s failed: %v", msg.op, msg.err)
	} else {
		m.statusMessage = fmt.Sprintf("%s succeeded", msg.op)
	}
	if msg.view == string(gateway.AppAirdrop) && msg.err == nil && m.supplyReloaded(msg.op) {
		if v, ok := m.suite.Airdrop.Supply(); ok {
			m.suite.Watcher.Record(v)
			m.history = m.suite.Watcher.History()
		}
	}
	m.updateViewport()
	return clearStatusAfter()
}

// supplyReloaded reports whether the finished airdrop op loaded a fresh
// total supply: totalSupply itself, or a claim whose follow-up succeeded.
func (m model) supplyReloaded(op string) bool {
	switch op {
	case "totalSupply":
		return true
	case "claim":
		st := m.suite.Airdrop.State()
		return st.LastCall == "totalSupply" && st.Status == models.CallSucceeded
	}
	return false
}

func (m *model) handleEvent(ev watcher.Event) {
	switch ev.Type {
	case watcher.EventSupplyUpdated:
		m.history = m.suite.Watcher.History()
	case watcher.EventRefreshFailed:
		m.statusMessage = fmt.Sprintf("refresh of %s failed: %v", ev.View, ev.Data)
	}
	if ev.View == m.activeView().Name() {
		m.updateViewport()
	}
}

// updateViewport shows the last raw response of the active view.
func (m *model) updateViewport() {
	st := m.activeView().State()
	var b strings.Builder
	if st.LastResult == nil {
		b.WriteString("No response yet.")
	} else {
		fmt.Fprintf(&b, "%s → status %d\n\n", st.LastCall, st.LastResult.Status)
		b.WriteString(prettyBody(st.LastResult.Body, st.LastResult.Display()))
	}
	if st.Err != nil {
		b.WriteString("\n\n" + errStyle.Render("Error: "+st.Err.Error()))
	}
	m.viewport.SetContent(b.String())
}

// prettyBody indents a JSON body, falling back to the display value.
func prettyBody(body []byte, fallback string) string {
	if len(body) == 0 {
		return fallback
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		return string(body)
	}
	return buf.String()
}

func (m model) lastResult() string {
	st := m.activeView().State()
	if st.LastResult == nil {
		return ""
	}
	if len(st.LastResult.Body) > 0 {
		return string(st.LastResult.Body)
	}
	return st.LastResult.Display()
}

func listenForWatcher(sub watcher.Subscriber) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-sub
		if !ok {
			return nil
		}
		return ev
	}
}
