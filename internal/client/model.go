package client

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dmmcquay/goban/internal/protocol"
)

const helpText = "Enter B2 or MOVE B2 to play, PASS, AGREE, RESUME, RESIGN, or quit."

type sendErrMsg struct{ err error }

// Model is the bubbletea model of the terminal client.
type Model struct {
	conn   Conn
	state  State
	input  string
	status string
	closed bool
}

// NewModel creates a model reading from and writing to conn.
func NewModel(conn Conn) Model {
	return Model{conn: conn}
}

// State returns the game as the model currently sees it.
func (m Model) State() State { return m.state }

func (m Model) Init() tea.Cmd {
	return waitForMessage(m.conn.Messages())
}

func waitForMessage(msgs <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-msgs
		if !ok {
			return DisconnectedMsg{}
		}
		return msg
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case ServerMsg:
		m.state.Apply(protocol.Message(msg))
		return m, waitForMessage(m.conn.Messages())
	case ProtocolErrMsg:
		m.status = "Bad server message: " + msg.Err.Error()
		return m, waitForMessage(m.conn.Messages())
	case DisconnectedMsg:
		if m.closed {
			return m, nil
		}
		m.closed = true
		m.status = "Disconnected from server. Press q to quit."
		if msg.Err != nil {
			m.status = fmt.Sprintf("Connection lost: %v. Press q to quit.", msg.Err)
		}
		return m, nil
	case sendErrMsg:
		m.status = "Send failed: " + msg.err.Error()
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyEnter:
		return m.submit()
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.input += " "
	case tea.KeyRunes:
		if m.closed && msg.String() == "q" {
			return m, tea.Quit
		}
		m.input += string(msg.Runes)
	}
	return m, nil
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input)
	m.input = ""
	switch strings.ToLower(input) {
	case "":
		return m, nil
	case "quit", "exit":
		return m, tea.Quit
	}

	line, err := Translate(input)
	if err != nil {
		m.status = err.Error()
		return m, nil
	}
	if m.closed {
		m.status = "Not connected."
		return m, nil
	}
	m.status = ""
	conn := m.conn
	return m, func() tea.Msg {
		if err := conn.Send(line); err != nil {
			return sendErrMsg{err}
		}
		return nil
	}
}

func (m Model) View() string {
	var b strings.Builder
	s := m.state

	if len(s.Board) > 0 {
		b.WriteString("   ")
		for x := range s.Board {
			b.WriteByte(' ')
			b.WriteByte(byte('A' + x))
		}
		b.WriteByte('\n')
		for y := range s.Board {
			fmt.Fprintf(&b, "%2d ", y+1)
			for x := range s.Board[y] {
				b.WriteByte(' ')
				b.WriteByte(s.Cell(x, y))
			}
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	} else {
		b.WriteString("Waiting for the game to start...\n\n")
	}

	if s.Me.IsStone() {
		fmt.Fprintf(&b, "You: %s  Turn: %s  Phase: %s", s.Me, s.Turn, s.Phase)
		if s.MyTurn() {
			b.WriteString("  (your move)")
		}
		b.WriteByte('\n')
	}
	if s.HasScore {
		fmt.Fprintf(&b, "Proposed score: BLACK %d, WHITE %d\n", s.Score[0], s.Score[1])
		b.WriteString("Territory: b/w owned, s seki; x/o dead stones\n")
	}
	if s.Ended {
		fmt.Fprintf(&b, "Result: %s by %s\n", s.Winner, s.Reason)
	}

	if len(s.Log) > 0 {
		b.WriteByte('\n')
		for _, line := range s.Log {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	if m.status != "" {
		b.WriteString("\n" + m.status + "\n")
	}

	b.WriteString("\n" + helpText + "\n> " + m.input)
	return b.String()
}
