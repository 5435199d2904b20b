// Package tui implements the terminal chat client for the research agent.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gorilla/websocket"

	"groq-chatbot/internal/chat"
	"groq-chatbot/internal/client"
	"groq-chatbot/internal/models"
)

type healthDoneMsg struct {
	status models.HealthStatus
	err    error
}

type submitDoneMsg struct {
	accepted bool
}

type activityMsg struct {
	event models.ActivityEvent
}

type wsStatusMsg struct {
	connected bool
	err       error
}

type Model struct {
	ctrl     *chat.Controller
	api      *client.Client
	agentURL string

	width  int
	height int

	healthy   bool
	healthErr string

	inflight    bool
	statusLine  string
	activity    string
	wsConnected bool
	activityCh  chan models.ActivityEvent

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	theme theme
}

func New(ctrl *chat.Controller, api *client.Client, agentURL string) Model {
	input := textinput.New()
	input.Prompt = "❯ "
	input.CharLimit = 4000
	input.Placeholder = "Ask the research agent anything"
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Points

	vp := viewport.New(0, 0)
	vp.MouseWheelEnabled = true

	th := newTheme()
	sp.Style = th.spinner

	return Model{
		ctrl:       ctrl,
		api:        api,
		agentURL:   strings.TrimRight(agentURL, "/"),
		statusLine: "connecting to agent...",
		activityCh: make(chan models.ActivityEvent, 16),
		input:      input,
		viewport:   vp,
		spinner:    sp,
		theme:      th,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.healthCmd(),
		m.connectActivityCmd(),
	)
}

func (m Model) healthCmd() tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		status, err := api.Health(ctx)
		return healthDoneMsg{status: status, err: err}
	}
}

func (m Model) submitCmd(text string) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		accepted := ctrl.Submit(context.Background(), text)
		return submitDoneMsg{accepted: accepted}
	}
}

// connectActivityCmd dials the agent's websocket and pumps events into the
// model's channel until the connection drops.
func (m Model) connectActivityCmd() tea.Cmd {
	ch := m.activityCh
	target := wsURL(m.agentURL)
	return func() tea.Msg {
		conn, _, err := websocket.DefaultDialer.Dial(target, nil)
		if err != nil {
			return wsStatusMsg{err: err}
		}
		go func() {
			defer conn.Close()
			defer close(ch)
			for {
				var event models.ActivityEvent
				if err := conn.ReadJSON(&event); err != nil {
					return
				}
				ch <- event
			}
		}()
		return wsStatusMsg{connected: true}
	}
}

func waitActivity(ch chan models.ActivityEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return wsStatusMsg{connected: false}
		}
		return activityMsg{event: event}
	}
}

// wsURL turns the agent's HTTP base URL into its websocket endpoint.
func wsURL(baseURL string) string {
	switch {
	case strings.HasPrefix(baseURL, "https://"):
		return "wss://" + strings.TrimPrefix(baseURL, "https://") + "/ws"
	case strings.HasPrefix(baseURL, "http://"):
		return "ws://" + strings.TrimPrefix(baseURL, "http://") + "/ws"
	default:
		return "ws://" + baseURL + "/ws"
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case healthDoneMsg:
		if msg.err != nil {
			m.healthy = false
			m.healthErr = msg.err.Error()
			m.statusLine = "agent unreachable"
		} else {
			m.healthy = true
			m.healthErr = ""
			m.statusLine = msg.status.Message
		}

	case wsStatusMsg:
		m.wsConnected = msg.connected
		if msg.connected {
			cmds = append(cmds, waitActivity(m.activityCh))
		} else {
			m.activity = ""
		}

	case activityMsg:
		m.activity = activityLine(msg.event)
		if msg.event.Type == "agent_done" || msg.event.Type == "agent_error" {
			m.activity = ""
		}
		cmds = append(cmds, waitActivity(m.activityCh))

	case submitDoneMsg:
		m.inflight = false
		if msg.accepted {
			m.statusLine = "ready"
		} else {
			m.statusLine = "nothing sent"
		}
		m.activity = ""
		m.syncViewport()
		if !m.wsConnected {
			m.activityCh = make(chan models.ActivityEvent, 16)
			cmds = append(cmds, m.connectActivityCmd())
		}
		if !m.healthy {
			cmds = append(cmds, m.healthCmd())
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.syncViewport()

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			text := m.input.Value()
			if strings.TrimSpace(text) == "" {
				break
			}
			if m.inflight {
				m.statusLine = "still waiting on the agent..."
				break
			}
			m.inflight = true
			m.statusLine = "researching..."
			m.input.Reset()
			// The transcript shows the user message right away; the agent
			// reply lands when the submit finishes.
			cmds = append(cmds, m.submitCmd(text), deferredSync())
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)
		default:
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			cmds = append(cmds, cmd)
		}

	case syncMsg:
		m.syncViewport()
	}

	return m, tea.Batch(cmds...)
}

type syncMsg struct{}

// deferredSync redraws the transcript shortly after a submit so the user
// message appears before the agent answers.
func deferredSync() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(time.Time) tea.Msg {
		return syncMsg{}
	})
}

func (m *Model) resize() {
	m.input.Width = max(20, m.width-8)

	headerHeight := lipgloss.Height(m.renderHeader())
	inputHeight := lipgloss.Height(m.renderInput())
	footerHeight := lipgloss.Height(m.renderFooter())

	m.viewport.Width = m.width
	m.viewport.Height = max(3, m.height-headerHeight-inputHeight-footerHeight)
}

func (m *Model) syncViewport() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m *Model) renderTranscript() string {
	width := max(20, m.viewport.Width-2)

	var b strings.Builder
	for _, msg := range m.ctrl.Messages() {
		var label string
		switch msg.Role {
		case models.RoleUser:
			label = m.theme.userLabel.Render("You")
		case models.RoleSystem:
			label = m.theme.systemLabel.Render("System")
		default:
			label = m.theme.agentLabel.Render("Agent")
		}
		b.WriteString(label)
		b.WriteString("\n")
		b.WriteString(m.theme.content.Width(width).Render(msg.Content))
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) renderHeader() string {
	status := m.theme.statusOK.Render("✓ connected")
	if !m.healthy {
		status = m.theme.statusBad.Render("✗ unreachable")
	}
	return m.theme.title.Render("Research Agent Chat") + "  " +
		status + "  " +
		m.theme.helpText.Render(m.agentURL)
}

func (m *Model) renderInput() string {
	return m.theme.inputPanel.Width(max(24, m.width-2)).Render(m.input.View())
}

func (m *Model) renderFooter() string {
	line := m.statusLine
	if m.inflight {
		line = m.spinner.View() + " " + line
	}
	if m.activity != "" {
		line += "  " + m.theme.activity.Render(m.activity)
	}

	if lastErr := m.ctrl.LastError(); lastErr != "" {
		line += "\n" + m.theme.errorBanner.Render(lastErr)
	}

	help := m.theme.helpText.Render("enter send · pgup/pgdn scroll · ctrl+c quit")
	return line + "\n" + help
}

func (m Model) View() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderInput(),
		m.renderFooter(),
	)
}

func activityLine(event models.ActivityEvent) string {
	switch event.Type {
	case "iteration":
		return fmt.Sprintf("thinking (step %d)", event.Iteration)
	case "tool_start":
		return fmt.Sprintf("running %s...", event.Tool)
	case "tool_end":
		return fmt.Sprintf("%s finished", event.Tool)
	case "agent_done":
		return "done"
	case "agent_error":
		return "agent error"
	default:
		return event.Type
	}
}
