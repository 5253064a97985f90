package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dmmcquay/goban/internal/analysis"
	"github.com/dmmcquay/goban/internal/board"
	"github.com/dmmcquay/goban/internal/game"
)

// Server message keywords.
const (
	KeyInfo          = "INFO"
	KeyWelcome       = "WELCOME"
	KeyPhase         = "PHASE"
	KeyTurn          = "TURN"
	KeyBoard         = "BOARD"
	KeyRow           = "ROW"
	KeyEndBoard      = "END_BOARD"
	KeyScore         = "SCORE"
	KeyTerritory     = "TERRITORY"
	KeyTerritoryRow  = "TROW"
	KeyEndTerritory  = "END_TERRITORY"
	KeyDeadStones    = "DEADSTONES"
	KeyDeadRow       = "DROW"
	KeyEndDeadStones = "END_DEADSTONES"
	KeyEnd           = "END"
	KeyError         = "ERROR"
)

// Fixed informational texts.
const (
	GameStartedText     = "Game started. BLACK moves first."
	ReviewText          = "Scoring review: AGREE to accept or RESUME to continue."
	AlreadyFinishedText = "Game already finished. Please close client."
	OpponentLeftText    = "Opponent disconnected."
	WaitingText         = "Waiting for opponent..."
	resumedTextPrefix   = "Resumed. Next move: "
	connectedTextPrefix = "Connected as "
)

// Info formats an INFO line.
func Info(text string) string {
	return KeyInfo + " " + text
}

// Connected is sent to a player as soon as a color is assigned.
func Connected(c board.Color) string {
	return Info(connectedTextPrefix + c.String())
}

// Welcome is sent to each player when the game starts.
func Welcome(c board.Color) string {
	return KeyWelcome + " " + c.String()
}

// Resumed announces the player to move after a resume.
func Resumed(next board.Color) string {
	return Info(resumedTextPrefix + next.String())
}

// PhaseLine announces the current phase.
func PhaseLine(p game.Phase) string {
	return KeyPhase + " " + p.String()
}

// Turn announces the player to move.
func Turn(c board.Color) string {
	return KeyTurn + " " + c.String()
}

// Score formats the SCORE line.
func Score(s analysis.Score) string {
	return fmt.Sprintf("%s %d %d", KeyScore, s.Black, s.White)
}

// End announces the result.
func End(r game.Result) string {
	return fmt.Sprintf("%s %s %s", KeyEnd, r.WinnerName(), r.Reason)
}

// Error formats an ERROR line from err.
func Error(err error) string {
	return KeyError + " " + Reason(err)
}

// Reason is the text players see for err: the broken rule for a refused
// move, otherwise the message under the illegal-state or malformed-command
// root. The first letter is upper-cased.
func Reason(err error) string {
	var moveErr *game.MoveError
	if errors.As(err, &moveErr) {
		err = moveErr.Err
	}
	msg := err.Error()
	for _, root := range []error{game.ErrIllegalState, ErrMalformedCommand} {
		if errors.Is(err, root) {
			msg = strings.TrimPrefix(msg, root.Error()+": ")
		}
	}
	r, n := utf8.DecodeRuneInString(msg)
	if n == 0 {
		return msg
	}
	return string(unicode.ToUpper(r)) + msg[n:]
}

// Board encodes the grid as a BOARD block. Row y is sent y-th, columns left to right.
func Board(grid board.Grid) []string {
	return block(KeyBoard, KeyRow, KeyEndBoard, grid.Rows())
}

// Territory encodes the territory overlay as a TERRITORY block: X and O for
// stones, b, w, s or '.' for empty points.
func Territory(m analysis.TerritoryMap, grid board.Grid) []string {
	return block(KeyTerritory, KeyTerritoryRow, KeyEndTerritory, m.Overlay(grid))
}

// DeadStones encodes the dead-stone mask as a DEADSTONES block of 1s and 0s.
func DeadStones(mask [][]bool) []string {
	return block(KeyDeadStones, KeyDeadRow, KeyEndDeadStones, analysis.MaskRows(mask))
}

// Review returns every line sent when scoring review begins.
func Review(r analysis.Report, grid board.Grid) []string {
	lines := []string{Info(ReviewText), Score(r.Score)}
	lines = append(lines, Territory(r.Territory, grid)...)
	lines = append(lines, DeadStones(r.DeadMask)...)
	return lines
}

func block(open, row, end string, rows []string) []string {
	lines := make([]string, 0, len(rows)+2)
	lines = append(lines, open+" "+strconv.Itoa(len(rows)))
	for _, r := range rows {
		lines = append(lines, row+" "+r)
	}
	return append(lines, end)
}
