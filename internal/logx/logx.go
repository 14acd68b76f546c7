// Package logx builds the service logger: log/slog for output, with warnings
// and errors mirrored to Rollbar when a token is configured.
package logx

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/rollbar/rollbar-go"
)

type Options struct {
	Level        string // debug, info, warn, error
	Format       string // text or json
	RollbarToken string
	Environment  string
	Version      string
	Out          io.Writer
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func New(o Options) *slog.Logger {
	out := o.Out
	if out == nil {
		out = os.Stderr
	}
	ho := &slog.HandlerOptions{Level: ParseLevel(o.Level)}
	var h slog.Handler
	if strings.EqualFold(o.Format, "json") {
		h = slog.NewJSONHandler(out, ho)
	} else {
		h = slog.NewTextHandler(out, ho)
	}
	if o.RollbarToken != "" {
		rollbar.SetToken(o.RollbarToken)
		rollbar.SetEnvironment(o.Environment)
		rollbar.SetCodeVersion(o.Version)
		if host, err := os.Hostname(); err == nil {
			rollbar.SetServerHost(host)
		}
		h = &rollbarHandler{next: h, report: reportToRollbar}
	}
	return slog.New(h)
}

// Discard is a logger that writes nowhere, for tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Flush waits for queued Rollbar items to go out.
func Flush() { rollbar.Wait() }

type reportFunc func(level slog.Level, msg string, err error, extras map[string]interface{})

func reportToRollbar(level slog.Level, msg string, err error, extras map[string]interface{}) {
	args := []interface{}{msg, extras}
	if err != nil {
		args = []interface{}{err, extras}
	}
	if level >= slog.LevelError {
		rollbar.Error(args...)
		return
	}
	rollbar.Warning(args...)
}

// rollbarHandler forwards Warn and above to Rollbar, then to next.
type rollbarHandler struct {
	next   slog.Handler
	attrs  []slog.Attr
	report reportFunc
}

func (h *rollbarHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return h.next.Enabled(ctx, l)
}

func (h *rollbarHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelWarn {
		extras := make(map[string]interface{}, len(h.attrs)+r.NumAttrs())
		var err error
		collect := func(a slog.Attr) bool {
			if e, ok := a.Value.Any().(error); ok && err == nil {
				err = e
			}
			extras[a.Key] = a.Value.String()
			return true
		}
		for _, a := range h.attrs {
			collect(a)
		}
		r.Attrs(collect)
		extras["message"] = r.Message
		h.report(r.Level, r.Message, err, extras)
	}
	return h.next.Handle(ctx, r)
}

func (h *rollbarHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &rollbarHandler{
		next:   h.next.WithAttrs(attrs),
		attrs:  append(append([]slog.Attr(nil), h.attrs...), attrs...),
		report: h.report,
	}
}

func (h *rollbarHandler) WithGroup(name string) slog.Handler {
	return &rollbarHandler{next: h.next.WithGroup(name), attrs: h.attrs, report: h.report}
}
