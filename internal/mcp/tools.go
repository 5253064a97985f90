// Package mcp exposes a local two-player game as MCP tools, so an assistant
// can play both colors through the same command pipeline network players use.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/dmmcquay/goban/internal/board"
	"github.com/dmmcquay/goban/internal/cache"
	"github.com/dmmcquay/goban/internal/config"
	"github.com/dmmcquay/goban/internal/logging"
	"github.com/dmmcquay/goban/internal/metrics"
	"github.com/dmmcquay/goban/internal/protocol"
	"github.com/dmmcquay/goban/internal/ratelimit"
	"github.com/dmmcquay/goban/internal/session"
)

// Connection ids of the two local seats.
const (
	blackSeat = "mcp-black"
	whiteSeat = "mcp-white"
)

var errNoGame = errors.New("no game in progress, call newGame first")

// ToolsHandler manages MCP tools for one local game at a time.
type ToolsHandler struct {
	size       int
	deps       session.Deps
	logger     logging.ContextLogger
	collector  *metrics.Collector
	limiter    *ratelimit.Limiter
	middleware *Middleware

	mu      sync.Mutex
	match   *session.Match
	players map[board.Color]*session.Transcript
}

// NewToolsHandler creates a new tools handler. size is the board size used
// when newGame is called without one.
func NewToolsHandler(size int, deps session.Deps, logger logging.ContextLogger) *ToolsHandler {
	if deps.Cache == nil {
		deps.Cache = cache.NewManager(nil, logger)
	}
	deps.Logger = logger
	return &ToolsHandler{
		size:   size,
		deps:   deps,
		logger: logger,
	}
}

// SetMiddleware sets the middleware for the tools handler. Its collector and
// limiter are reported by getStatus.
func (h *ToolsHandler) SetMiddleware(middleware *Middleware) {
	h.middleware = middleware
	h.collector = middleware.metrics
	h.limiter = middleware.rateLimiter
}

func (h *ToolsHandler) add(s *server.MCPServer, tool mcp.Tool, handler ToolHandler) {
	if h.middleware != nil {
		handler = h.middleware.WrapTool(tool.Name, handler)
	}
	s.AddTool(tool, handler)
}

// RegisterTools registers all tools with the MCP server.
func (h *ToolsHandler) RegisterTools(s *server.MCPServer) {
	h.add(s, mcp.NewTool("newGame",
		mcp.WithDescription("Start a new game on an empty board. Any game in progress is abandoned."),
		mcp.WithNumber("size",
			mcp.Description(fmt.Sprintf("Board size, %d to %d (default: %d)", config.MinBoardSize, config.MaxBoardSize, h.size)),
		),
	), h.HandleNewGame)

	h.add(s, mcp.NewTool("playMove",
		mcp.WithDescription("Place a stone. Give either a coordinate like B2 (column letter, row from 1) or x and y counted from 0."),
		mcp.WithString("color",
			mcp.Description("Color to play: BLACK or WHITE"),
			mcp.Required(),
		),
		mcp.WithString("move",
			mcp.Description("Coordinate such as B2"),
		),
		mcp.WithNumber("x",
			mcp.Description("Column, counted from 0"),
		),
		mcp.WithNumber("y",
			mcp.Description("Row, counted from 0"),
		),
	), h.HandlePlayMove)

	for _, c := range []struct {
		verb protocol.Verb
		name string
		desc string
	}{
		{protocol.VerbPass, "pass", "Pass the turn. Two passes in a row start scoring review."},
		{protocol.VerbAgree, "agree", "Accept the proposed score during scoring review. The game ends when both colors agree."},
		{protocol.VerbResume, "resume", "Reject the proposed score and return to play. The opponent of the resuming color moves next."},
		{protocol.VerbResign, "resign", "Resign the game."},
	} {
		h.add(s, mcp.NewTool(c.name,
			mcp.WithDescription(c.desc),
			mcp.WithString("color",
				mcp.Description("Color issuing the command: BLACK or WHITE"),
				mcp.Required(),
			),
		), h.commandHandler(c.verb))
	}

	h.add(s, mcp.NewTool("getBoard",
		mcp.WithDescription("Get the board, phase, side to move and result of the current game"),
	), h.HandleGetBoard)

	h.add(s, mcp.NewTool("getScore",
		mcp.WithDescription("Score the current position by territory plus captured dead stones"),
	), h.HandleGetScore)

	h.add(s, mcp.NewTool("getTerritory",
		mcp.WithDescription("Show the territory map and dead stones of the current position"),
	), h.HandleGetTerritory)

	h.add(s, mcp.NewTool("getStatus",
		mcp.WithDescription("Get tool usage, rate limiting and analysis cache statistics"),
	), h.HandleGetStatus)
}

// HandleNewGame handles the newGame tool.
func (h *ToolsHandler) HandleNewGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx = requestContext(ctx)
	args := arguments(request)

	size := h.size
	if n, ok, err := intArg(args, "size"); err != nil {
		return nil, err
	} else if ok {
		if n < config.MinBoardSize || n > config.MaxBoardSize {
			return nil, fmt.Errorf("size must be between %d and %d, got %d", config.MinBoardSize, config.MaxBoardSize, n)
		}
		size = n
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	m, err := session.NewMatch(size, h.deps)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}
	black, white := &session.Transcript{}, &session.Transcript{}
	if _, err := m.Join(blackSeat, black); err != nil {
		return nil, err
	}
	if _, err := m.Join(whiteSeat, white); err != nil {
		return nil, err
	}
	if err := m.Start(); err != nil {
		return nil, err
	}

	if h.match != nil {
		h.match.Disconnect(board.Black)
		h.match.Disconnect(board.White)
	}
	h.match = m
	h.players = map[board.Color]*session.Transcript{board.Black: black, board.White: white}
	white.Drain()

	h.logger.WithContext(ctx).Info("Started local game", "match_id", m.ID(), "size", size)
	return mcp.NewToolResultText(strings.Join(black.Drain(), "\n")), nil
}

// HandlePlayMove handles the playMove tool.
func (h *ToolsHandler) HandlePlayMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	var cmd protocol.Command
	if move, ok := args["move"].(string); ok && move != "" {
		p, err := protocol.ParseCoord(move)
		if err != nil {
			return nil, err
		}
		cmd = protocol.Move(p.X, p.Y)
	} else {
		x, okX, err := intArg(args, "x")
		if err != nil {
			return nil, err
		}
		y, okY, err := intArg(args, "y")
		if err != nil {
			return nil, err
		}
		if !okX || !okY {
			return nil, fmt.Errorf("either move or both x and y are required")
		}
		cmd = protocol.Move(x, y)
	}
	return h.exec(ctx, args, cmd)
}

func (h *ToolsHandler) commandHandler(verb protocol.Verb) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return h.exec(ctx, arguments(request), protocol.Simple(verb))
	}
}

// exec runs cmd for the color named in args and returns the lines that color
// received. Rejections come back as error results carrying the ERROR line.
func (h *ToolsHandler) exec(ctx context.Context, args map[string]interface{}, cmd protocol.Command) (*mcp.CallToolResult, error) {
	ctx = requestContext(ctx)
	name, _ := args["color"].(string)
	color, err := board.ParseColor(name)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.match == nil {
		return nil, errNoGame
	}

	execErr := h.match.Exec(color, cmd)
	lines := h.players[color].Drain()
	h.players[color.Opponent()].Drain()

	logger := h.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"color":   color.String(),
		"command": cmd.String(),
	})
	text := strings.Join(lines, "\n")
	if execErr != nil {
		logger.Debug("Command rejected", "error", execErr.Error())
		return mcp.NewToolResultError(text), nil
	}
	logger.Debug("Command applied")
	return mcp.NewToolResultText(text), nil
}

// HandleGetBoard handles the getBoard tool.
func (h *ToolsHandler) HandleGetBoard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	m, err := h.current()
	if err != nil {
		return nil, err
	}
	return jsonResult(m.Summary())
}

// ScoreResult is the getScore response.
type ScoreResult struct {
	Black  int    `json:"black"`
	White  int    `json:"white"`
	Leader string `json:"leader"`
	Margin int    `json:"margin"`
}

// HandleGetScore handles the getScore tool.
func (h *ToolsHandler) HandleGetScore(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	m, err := h.current()
	if err != nil {
		return nil, err
	}
	score := m.Report().Score
	result := ScoreResult{Black: score.Black, White: score.White, Leader: "NONE"}
	if w := score.Winner(); w.IsStone() {
		result.Leader = w.String()
		result.Margin = score.For(w) - score.For(w.Opponent())
	}
	return jsonResult(result)
}

// HandleGetTerritory handles the getTerritory tool.
func (h *ToolsHandler) HandleGetTerritory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	m, err := h.current()
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(strings.Join(m.Review(), "\n")), nil
}

// HandleGetStatus handles the getStatus tool.
func (h *ToolsHandler) HandleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := map[string]interface{}{
		"rateLimit": h.limiter.GetStatus(),
		"cache": map[string]interface{}{
			"enabled": h.deps.Cache.IsEnabled(),
			"stats":   h.deps.Cache.Stats(),
		},
	}
	if h.collector != nil {
		status["tools"] = h.collector.GetStats()
	}
	if m, err := h.current(); err == nil {
		status["match"] = m.Summary()
	}
	return jsonResult(status)
}

func (h *ToolsHandler) current() (*session.Match, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.match == nil {
		return nil, errNoGame
	}
	return h.match, nil
}

func requestContext(ctx context.Context) context.Context {
	if _, ok := logging.CorrelationIDFromContext(ctx); !ok {
		ctx = logging.ContextWithCorrelationID(ctx, logging.GenerateCorrelationID())
	}
	return logging.ContextWithRequestID(ctx, logging.GenerateRequestID())
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	if args, ok := request.Params.Arguments.(map[string]interface{}); ok {
		return args
	}
	return map[string]interface{}{}
}

// intArg reads a whole number. JSON numbers arrive as float64.
func intArg(args map[string]interface{}, name string) (int, bool, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return 0, false, nil
	}
	switch n := v.(type) {
	case float64:
		if n != float64(int(n)) {
			return 0, false, fmt.Errorf("%s must be a whole number", name)
		}
		return int(n), true, nil
	case int:
		return n, true, nil
	default:
		return 0, false, fmt.Errorf("%s must be a number", name)
	}
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
