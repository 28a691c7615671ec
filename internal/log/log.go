package log

import (
	"context"
	"log/slog"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// MaxRecords is how many records a TUIHandler keeps.
const MaxRecords = 20

// buffer is shared by a TUIHandler and the handlers derived from it with
// WithAttrs or WithGroup.
type buffer struct {
	mu   sync.Mutex
	ch   chan<- tea.Msg
	logs []slog.Record
}

// TUIHandler is a slog.Handler that retains recent records and forwards them
// to a tea.Program.
type TUIHandler struct {
	slog.Handler
	buf *buffer
}

// NewTUIHandler creates a new TUIHandler. ch may be nil.
func NewTUIHandler(handler slog.Handler, ch chan<- tea.Msg) *TUIHandler {
	return &TUIHandler{
		Handler: handler,
		buf:     &buffer{ch: ch},
	}
}

// Handle stores the record, offers it to the TUI and passes it on.
func (h *TUIHandler) Handle(ctx context.Context, r slog.Record) error {
	h.buf.mu.Lock()
	h.buf.logs = append(h.buf.logs, r.Clone())
	if len(h.buf.logs) > MaxRecords {
		h.buf.logs = h.buf.logs[len(h.buf.logs)-MaxRecords:]
	}
	ch := h.buf.ch
	h.buf.mu.Unlock()

	if ch != nil {
		// Never block logging on a busy UI.
		select {
		case ch <- LogMsg(r):
		default:
		}
	}

	return h.Handler.Handle(ctx, r)
}

func (h *TUIHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TUIHandler{Handler: h.Handler.WithAttrs(attrs), buf: h.buf}
}

func (h *TUIHandler) WithGroup(name string) slog.Handler {
	return &TUIHandler{Handler: h.Handler.WithGroup(name), buf: h.buf}
}

// Logs returns a copy of the stored records, oldest first.
func (h *TUIHandler) Logs() []slog.Record {
	h.buf.mu.Lock()
	defer h.buf.mu.Unlock()
	return append([]slog.Record(nil), h.buf.logs...)
}

// LogMsg is a tea.Msg that represents a log message.
type LogMsg slog.Record

// SetOutput sets the output channel for the handler.
func (h *TUIHandler) SetOutput(ch chan<- tea.Msg) {
	h.buf.mu.Lock()
	defer h.buf.mu.Unlock()
	h.buf.ch = ch
}

var defaultHandler = NewTUIHandler(slog.Default().Handler(), nil)

// Init wraps handler and installs it as the default logger.
func Init(handler slog.Handler) *slog.Logger {
	defaultHandler = NewTUIHandler(handler, nil)
	logger := slog.New(defaultHandler)
	slog.SetDefault(logger)
	return logger
}

// SetOutput sets the output channel for the default logger.
func SetOutput(ch chan<- tea.Msg) {
	defaultHandler.SetOutput(ch)
}

// Logs returns the stored log messages from the default logger.
func Logs() []slog.Record {
	return defaultHandler.Logs()
}
