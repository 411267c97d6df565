package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

var (
	debugLevel = color.New(color.FgHiBlack)
	infoLevel  = color.New(color.FgCyan)
	warnLevel  = color.New(color.FgYellow, color.Bold)
	errorLevel = color.New(color.FgRed, color.Bold)
	keyColor   = color.New(color.Faint)
)

// consoleHandler writes one line per record:
//
//	15:04:05 WARN  [analysis] analysis failed error="boom"
type consoleHandler struct {
	mu       *sync.Mutex
	writer   io.Writer
	level    *slog.LevelVar
	attrs    []slog.Attr
	groups   []string
	useColor bool
}

func newConsoleHandler(w io.Writer, lvl *slog.LevelVar, useColor bool) slog.Handler {
	return &consoleHandler{mu: &sync.Mutex{}, writer: w, level: lvl, useColor: useColor}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	var component string
	fields := make([]string, 0, record.NumAttrs()+len(h.attrs))
	collect := func(attr slog.Attr) {
		if attr.Equal(slog.Attr{}) {
			return
		}
		if attr.Key == FieldComponent {
			component = attr.Value.String()
			return
		}
		key := attr.Key
		if len(h.groups) > 0 {
			key = strings.Join(h.groups, ".") + "." + key
		}
		fields = append(fields, h.paint(keyColor, key+"=")+formatValue(attr.Value))
	}
	for _, attr := range h.attrs {
		collect(attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		collect(attr)
		return true
	})

	var buf bytes.Buffer
	buf.WriteString(ts.Format("15:04:05"))
	buf.WriteByte(' ')
	buf.WriteString(h.levelLabel(record.Level))
	buf.WriteByte(' ')
	if component != "" {
		buf.WriteString("[" + component + "] ")
	}
	buf.WriteString(record.Message)
	for _, field := range fields {
		buf.WriteByte(' ')
		buf.WriteString(field)
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.writer.Write(buf.Bytes())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string{}, h.groups...), name)
	return &clone
}

func (h *consoleHandler) levelLabel(level slog.Level) string {
	label := fmt.Sprintf("%-5s", level.String())
	switch {
	case level >= slog.LevelError:
		return h.paint(errorLevel, label)
	case level >= slog.LevelWarn:
		return h.paint(warnLevel, label)
	case level >= slog.LevelInfo:
		return h.paint(infoLevel, label)
	default:
		return h.paint(debugLevel, label)
	}
}

func (h *consoleHandler) paint(c *color.Color, s string) string {
	if !h.useColor {
		return s
	}
	return c.Sprint(s)
}

func formatValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		s := v.String()
		if s == "" || strings.ContainsAny(s, " \t\"=") {
			return fmt.Sprintf("%q", s)
		}
		return s
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return fmt.Sprintf("%q", err.Error())
		}
		return fmt.Sprintf("%v", v.Any())
	default:
		return v.String()
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
