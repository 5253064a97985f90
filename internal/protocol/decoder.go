package protocol

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dmmcquay/goban/internal/board"
)

// Kind identifies a decoded server message.
type Kind int

const (
	KindInfo Kind = iota + 1
	KindWelcome
	KindPhase
	KindTurn
	KindBoard
	KindScore
	KindTerritory
	KindDeadStones
	KindEnd
	KindError
)

// Message is one decoded server message. Blocks arrive as a single Message
// once their closing line has been read.
type Message struct {
	Kind   Kind
	Text   string      // INFO and ERROR text, PHASE name
	Color  board.Color // WELCOME and TURN
	Rows   []string    // BOARD, TERRITORY and DEADSTONES rows
	Black  int         // SCORE
	White  int         // SCORE
	Winner string      // END, color name or NONE
	Reason string      // END
}

type blockSpec struct {
	kind     Kind
	row, end string
}

var blocks = map[string]blockSpec{
	KeyBoard:      {KindBoard, KeyRow, KeyEndBoard},
	KeyTerritory:  {KindTerritory, KeyTerritoryRow, KeyEndTerritory},
	KeyDeadStones: {KindDeadStones, KeyDeadRow, KeyEndDeadStones},
}

// Decoder turns server lines back into messages. It keeps the state of the
// block being read, so one Decoder must see every line of a connection.
type Decoder struct {
	open *blockSpec
	size int
	rows []string
}

// Decode consumes one line. It returns ok=false while a block is still
// incomplete. Unknown keywords are reported as errors; a malformed block is
// discarded.
func (d *Decoder) Decode(line string) (msg Message, ok bool, err error) {
	line = strings.TrimRight(line, "\r\n")
	keyword, rest, _ := strings.Cut(line, " ")

	if d.open != nil {
		return d.decodeBlockLine(keyword, rest)
	}

	if blk, isBlock := blocks[keyword]; isBlock {
		n, err := strconv.Atoi(strings.TrimSpace(rest))
		if err != nil || n < 0 {
			return Message{}, false, fmt.Errorf("bad %s size %q", keyword, rest)
		}
		d.open, d.size, d.rows = &blk, n, make([]string, 0, n)
		return Message{}, false, nil
	}

	switch keyword {
	case KeyInfo:
		return Message{Kind: KindInfo, Text: rest}, true, nil
	case KeyError:
		return Message{Kind: KindError, Text: rest}, true, nil
	case KeyPhase:
		return Message{Kind: KindPhase, Text: strings.TrimSpace(rest)}, true, nil
	case KeyWelcome, KeyTurn:
		c, err := board.ParseColor(rest)
		if err != nil {
			return Message{}, false, fmt.Errorf("bad %s line: %w", keyword, err)
		}
		kind := KindTurn
		if keyword == KeyWelcome {
			kind = KindWelcome
		}
		return Message{Kind: kind, Color: c}, true, nil
	case KeyScore:
		var b, w int
		if _, err := fmt.Sscanf(rest, "%d %d", &b, &w); err != nil {
			return Message{}, false, fmt.Errorf("bad SCORE line %q: %w", rest, err)
		}
		return Message{Kind: KindScore, Black: b, White: w}, true, nil
	case KeyEnd:
		winner, reason, _ := strings.Cut(rest, " ")
		return Message{Kind: KindEnd, Winner: winner, Reason: reason}, true, nil
	default:
		return Message{}, false, fmt.Errorf("unknown message %q", line)
	}
}

func (d *Decoder) decodeBlockLine(keyword, rest string) (Message, bool, error) {
	blk := d.open
	switch keyword {
	case blk.row:
		d.rows = append(d.rows, rest)
		return Message{}, false, nil
	case blk.end:
		rows, size := d.rows, d.size
		d.reset()
		if len(rows) != size {
			return Message{}, false, fmt.Errorf("incomplete block: got %d of %d rows", len(rows), size)
		}
		return Message{Kind: blk.kind, Rows: rows}, true, nil
	default:
		d.reset()
		return Message{}, false, fmt.Errorf("unexpected %q inside block", keyword)
	}
}

func (d *Decoder) reset() {
	d.open, d.size, d.rows = nil, 0, nil
}
