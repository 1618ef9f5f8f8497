package tui

import (
	"context"

	"kalpdemo/pkg/dapp"
	"kalpdemo/pkg/models"
	"kalpdemo/pkg/watcher"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Version is set by Start()
var Version = "dev"

// --- Messages ---

type clearStatusMsg struct{}

// callDoneMsg carries the outcome of one view operation.
type callDoneMsg struct {
	view string
	op   string
	resp *models.GatewayResponse
	err  error
}

// --- Model ---

type model struct {
	ctx       context.Context
	suite     *dapp.Suite
	views     []dapp.View
	activeTab int
	// opIdx is the selected operation per tab.
	opIdx []int
	// inputs holds one text input per view field, keyed by field name.
	inputs        []map[string]textinput.Model
	focus         int
	width         int
	height        int
	spinner       spinner.Model
	viewport      viewport.Model
	statusMessage string
	history       []models.SupplyPoint
	decimals      int
	sub           watcher.Subscriber
}

func initialModel(ctx context.Context, suite *dapp.Suite, decimals int) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	views := suite.Views()
	inputs := make([]map[string]textinput.Model, len(views))
	for i, v := range views {
		inputs[i] = make(map[string]textinput.Model)
		for _, f := range v.Fields() {
			ti := textinput.New()
			ti.Placeholder = placeholder(f)
			ti.Width = 48
			ti.SetValue(v.Input(f))
			inputs[i][f] = ti
		}
	}

	m := model{
		ctx:      ctx,
		suite:    suite,
		views:    views,
		opIdx:    make([]int, len(views)),
		inputs:   inputs,
		spinner:  s,
		viewport: viewport.New(0, 0),
		decimals: decimals,
		history:  suite.Watcher.History(),
		sub:      suite.Watcher.Subscribe(),
	}
	m.focusInput()
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		listenForWatcher(m.sub),
		m.spinner.Tick,
		textinput.Blink,
		m.runCall(m.suite.Airdrop, "totalSupply"),
	)
}
