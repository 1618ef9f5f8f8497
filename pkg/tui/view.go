package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"kalpdemo/pkg/gateway"
	"kalpdemo/pkg/utils"
)

func (m model) View() string {
	v := m.activeView()
	st := v.State()

	// Tabs
	var tabs []string
	for i, view := range m.views {
		label := view.Name()
		if view.Loading() {
			label += " " + m.spinner.View()
		}
		if i == m.activeTab {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top, titleStyle.Render("kalpdemo"), " ", strings.Join(tabs, " "))

	// Operations
	ops := v.Operations()
	selected := m.opIdx[m.activeTab] % len(ops)
	var opLines []string
	for i, op := range ops {
		line := fmt.Sprintf("  %-22s %s", op.Name, subtleStyle.Render(string(op.Kind)))
		if i == selected {
			line = selectedOpStyle.Render("> "+fmt.Sprintf("%-22s", op.Name)) + " " + subtleStyle.Render(string(op.Kind))
		}
		opLines = append(opLines, line)
	}

	// Form
	var form []string
	fields := m.opFields()
	if len(fields) == 0 {
		form = append(form, subtleStyle.Render("No arguments. Press enter to call."))
	}
	for _, f := range fields {
		ti := m.inputs[m.activeTab][f]
		form = append(form, fmt.Sprintf("%-10s %s", f, ti.View()))
	}
	button := "[ " + m.activeOp().Method + " ]"
	if st.Loading {
		button = subtleStyle.Render(button) + " " + m.spinner.View() + " Loading..."
	} else {
		button = infoStyle.Render(button)
	}
	form = append(form, "", button)

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		boxStyle.Render(strings.Join(opLines, "\n")),
		" ",
		boxStyle.Render(strings.Join(form, "\n")),
	)

	sections := []string{header, "", body}

	if values := m.renderValues(st.Values); values != "" {
		sections = append(sections, values)
	}
	for _, w := range v.Warnings() {
		sections = append(sections, warnStyle.Render("! "+w))
	}
	if st.Err != nil {
		sections = append(sections, errStyle.Render("Error: "+st.Err.Error()))
	}

	if v.Name() == string(gateway.AppAirdrop) {
		if graph := m.renderSupplyGraph(); graph != "" {
			sections = append(sections, graph)
		}
	}

	sections = append(sections, boxStyle.Render(m.viewport.View()))

	footer := subtleStyle.Render(fmt.Sprintf("tab:app • ↑/↓:op • enter:next/call • esc:first field • pgup/pgdn:scroll • ctrl+y/c:copy • ctrl+c/q:quit • v%s", Version))
	if m.statusMessage != "" {
		footer = lipgloss.JoinVertical(lipgloss.Left, infoStyle.Render(m.statusMessage), footer)
	}
	sections = append(sections, footer)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m model) renderValues(values map[string]string) string {
	if len(values) == 0 {
		return ""
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", subtleStyle.Render(k), infoStyle.Render(m.displayValue(k, values[k]))))
	}
	return strings.Join(parts, " • ")
}

func (m model) renderSupplyGraph() string {
	if len(m.history) < 2 {
		return ""
	}
	data := make([]float64, len(m.history))
	for i, p := range m.history {
		data[i] = p.Value
	}
	width := m.width - 12
	if width < 20 {
		width = 20
	}
	latest := m.history[len(m.history)-1]
	return asciigraph.Plot(data,
		asciigraph.Height(6),
		asciigraph.Width(width),
		asciigraph.Caption(fmt.Sprintf("Total supply %s (last at %s)",
			utils.FormatFloat(latest.Value, 0), latest.Timestamp.Format("15:04:05"))),
	)
}
