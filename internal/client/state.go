// Package client implements the terminal client: a TCP connection that
// decodes server lines into protocol messages and a bubbletea model that
// renders them and sends typed commands back.
package client

import (
	"fmt"

	"github.com/dmmcquay/goban/internal/board"
	"github.com/dmmcquay/goban/internal/protocol"
)

const keptLogLines = 8

// State is everything the client knows about the game, rebuilt from server
// messages only.
type State struct {
	Me     board.Color
	Turn   board.Color
	Phase  string
	Board  []string
	Ended  bool
	Winner string
	Reason string

	// Set while the server is showing a scoring proposal.
	HasScore   bool
	Score      [2]int // black, white
	Territory  []string
	DeadStones []string

	Log []string
}

// Apply folds one server message into the state.
func (s *State) Apply(msg protocol.Message) {
	switch msg.Kind {
	case protocol.KindWelcome:
		s.Me = msg.Color
	case protocol.KindTurn:
		s.Turn = msg.Color
	case protocol.KindPhase:
		s.Phase = msg.Text
		if msg.Text == "PLAYING" {
			s.clearReview()
		}
	case protocol.KindBoard:
		s.Board = msg.Rows
	case protocol.KindScore:
		s.HasScore = true
		s.Score = [2]int{msg.Black, msg.White}
	case protocol.KindTerritory:
		s.Territory = msg.Rows
	case protocol.KindDeadStones:
		s.DeadStones = msg.Rows
	case protocol.KindEnd:
		s.Ended = true
		s.Winner, s.Reason = msg.Winner, msg.Reason
		s.log(fmt.Sprintf("Game over: %s (%s)", msg.Winner, msg.Reason))
	case protocol.KindInfo:
		s.log(msg.Text)
	case protocol.KindError:
		s.log("Error: " + msg.Text)
	}
}

func (s *State) clearReview() {
	s.HasScore = false
	s.Score = [2]int{}
	s.Territory = nil
	s.DeadStones = nil
}

func (s *State) log(line string) {
	s.Log = append(s.Log, line)
	if len(s.Log) > keptLogLines {
		s.Log = s.Log[len(s.Log)-keptLogLines:]
	}
}

// MyTurn reports whether the local player is to move.
func (s *State) MyTurn() bool {
	return s.Me.IsStone() && s.Me == s.Turn && !s.Ended
}

// Cell returns the character drawn at (x, y). Dead stones are shown in lower
// case and, during review, empty points show their territory owner.
func (s *State) Cell(x, y int) byte {
	if y >= len(s.Board) || x >= len(s.Board[y]) {
		return ' '
	}
	c := s.Board[y][x]
	if y < len(s.DeadStones) && x < len(s.DeadStones[y]) && s.DeadStones[y][x] == '1' {
		return c + ('a' - 'A')
	}
	if c == '.' && y < len(s.Territory) && x < len(s.Territory[y]) {
		return s.Territory[y][x]
	}
	return c
}
