package game

import "github.com/dmmcquay/goban/internal/board"

// Observer receives state changes synchronously, in registration order,
// before the mutating call returns. A panicking observer is not recovered;
// the panic reaches the caller of the mutating operation.
type Observer interface {
	OnBoardChanged(grid board.Grid)
	OnTurnChanged(player board.Color)
	OnPhaseChanged(phase Phase)
	OnGameEnded(result Result)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	BoardChanged func(board.Grid)
	TurnChanged  func(board.Color)
	PhaseChanged func(Phase)
	GameEnded    func(Result)
}

func (f ObserverFuncs) OnBoardChanged(grid board.Grid) {
	if f.BoardChanged != nil {
		f.BoardChanged(grid)
	}
}

func (f ObserverFuncs) OnTurnChanged(player board.Color) {
	if f.TurnChanged != nil {
		f.TurnChanged(player)
	}
}

func (f ObserverFuncs) OnPhaseChanged(phase Phase) {
	if f.PhaseChanged != nil {
		f.PhaseChanged(phase)
	}
}

func (f ObserverFuncs) OnGameEnded(result Result) {
	if f.GameEnded != nil {
		f.GameEnded(result)
	}
}

type registration struct {
	id       uint64
	observer Observer
}

// AddObserver registers o and returns a function that removes it again.
// Removing twice is a no-op.
func (g *Game) AddObserver(o Observer) (remove func()) {
	g.nextObserverID++
	id := g.nextObserverID
	g.observers = append(g.observers, registration{id: id, observer: o})
	return func() { g.removeObserver(id) }
}

func (g *Game) removeObserver(id uint64) {
	for i, r := range g.observers {
		if r.id == id {
			g.observers = append(g.observers[:i:i], g.observers[i+1:]...)
			return
		}
	}
}

// notify calls fn for every observer registered when the event fired. The
// slice is copied so observers may unregister from inside a callback.
func (g *Game) notify(fn func(Observer)) {
	obs := make([]registration, len(g.observers))
	copy(obs, g.observers)
	for _, r := range obs {
		fn(r.observer)
	}
}

func (g *Game) notifyBoardChanged() {
	grid := g.board.State()
	g.notify(func(o Observer) { o.OnBoardChanged(grid) })
}

func (g *Game) notifyTurnChanged() {
	g.notify(func(o Observer) { o.OnTurnChanged(g.current) })
}

func (g *Game) notifyPhaseChanged() {
	g.notify(func(o Observer) { o.OnPhaseChanged(g.phase) })
}

func (g *Game) notifyGameEnded() {
	result := *g.result
	g.notify(func(o Observer) { o.OnGameEnded(result) })
}
