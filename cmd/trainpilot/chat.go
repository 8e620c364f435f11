// This file implements the interactive chat interface using bubbletea.
package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"trainpilot/internal/chat"
	"trainpilot/internal/perception"
	"trainpilot/internal/session"
	"trainpilot/internal/types"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive advisor chat",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractiveChat()
	},
}

var (
	userMsgStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	assistantMsgStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	statusLineStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type chatModel struct {
	textinput textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model

	history   []chatMessage
	isLoading bool
	width     int
	height    int
	ready     bool

	sess   *session.Session
	engine *chat.Engine // nil in demo mode
}

type chatMessage struct {
	role    string
	content string
}

type (
	responseMsg *chat.Reply
	demoMsg     string
	errorMsg    error
)

func initChatModel() (chatModel, error) {
	ti := textinput.New()
	ti.Placeholder = "Ask about your training config..."
	ti.Focus()
	ti.CharLimit = 4000

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := chatModel{
		textinput: ti,
		spinner:   sp,
		sess:      session.New(nil),
	}

	if apiKey != "" {
		gc := perception.DefaultGeminiConfig(apiKey)
		if model != "" {
			gc.Model = model
		}
		client, err := perception.NewGeminiClientWithConfig(context.Background(), gc)
		if err != nil {
			return m, err
		}
		m.engine = chat.NewEngine(client)
	}
	return m, nil
}

func runInteractiveChat() error {
	m, err := initChatModel()
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func (m chatModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		inputHeight := 3
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-inputHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - inputHeight
		}
		m.viewport.SetContent(m.renderHistory())

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.isLoading {
				return m, nil
			}
			input := strings.TrimSpace(m.textinput.Value())
			if input == "" {
				return m, nil
			}
			m.textinput.Reset()
			m.history = append(m.history, chatMessage{role: "user", content: input})
			m.isLoading = true
			m.viewport.SetContent(m.renderHistory())
			m.viewport.GotoBottom()
			return m, tea.Batch(m.spinner.Tick, m.sendMessage(input))
		}

	case responseMsg:
		m.isLoading = false
		m.history = append(m.history, chatMessage{role: "assistant", content: msg.Text})
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()

	case demoMsg:
		m.isLoading = false
		m.history = append(m.history, chatMessage{role: "assistant", content: string(msg)})
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()

	case errorMsg:
		m.isLoading = false
		m.history = append(m.history, chatMessage{role: "assistant", content: fmt.Sprintf("Error: %v", msg)})
		m.viewport.SetContent(m.renderHistory())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.textinput, cmd = m.textinput.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// sendMessage produces the command that answers one user message. The
// transcript is appended here so the engine sees prior turns but not the
// in-flight one twice.
func (m chatModel) sendMessage(input string) tea.Cmd {
	sess := m.sess
	engine := m.engine
	return func() tea.Msg {
		if engine == nil {
			reply := chat.DemoReply(input, sess.Analysis)
			appendExchange(sess, input, reply)
			return demoMsg(reply)
		}
		reply, err := engine.Respond(context.Background(), sess, input, nil)
		if err != nil {
			return errorMsg(err)
		}
		appendExchange(sess, input, reply.Text)
		return responseMsg(reply)
	}
}

func appendExchange(sess *session.Session, user, assistant string) {
	sess.AppendTurn(types.ConversationTurn{Role: types.RoleUser, Content: user})
	sess.AppendTurn(types.ConversationTurn{Role: types.RoleAssistant, Content: assistant})
}

func (m chatModel) renderHistory() string {
	if len(m.history) == 0 {
		greeting := "**trainpilot**\n\nDescribe your training setup or ask a question."
		if m.engine == nil {
			greeting += "\n\n*Demo mode: set GEMINI_API_KEY for full AI chat.*"
		}
		return renderMarkdown(greeting, m.contentWidth())
	}
	var b strings.Builder
	for _, msg := range m.history {
		if msg.role == "user" {
			b.WriteString(userMsgStyle.Render("You: ") + msg.content + "\n\n")
		} else {
			b.WriteString(assistantMsgStyle.Render(renderMarkdown(msg.content, m.contentWidth())) + "\n")
		}
	}
	return b.String()
}

func (m chatModel) contentWidth() int {
	if m.width > 4 {
		return m.width - 2
	}
	return 78
}

func (m chatModel) View() string {
	if !m.ready {
		return "starting..."
	}
	status := "enter to send, esc to quit"
	if m.isLoading {
		status = m.spinner.View() + " thinking..."
	}
	return fmt.Sprintf("%s\n%s\n%s",
		m.viewport.View(),
		m.textinput.View(),
		statusLineStyle.Render(status))
}
