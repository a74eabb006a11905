// Package logx contains the github.com/apex/log handler used by
// the command line client.
package logx

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/apex/log"
	"github.com/fatih/color"
	colorable "github.com/mattn/go-colorable"
)

var bold = color.New(color.Bold)

// Colors maps levels to colors.
var Colors = [...]*color.Color{
	log.DebugLevel: color.New(color.FgWhite),
	log.InfoLevel:  color.New(color.FgBlue),
	log.WarnLevel:  color.New(color.FgYellow),
	log.ErrorLevel: color.New(color.FgRed),
	log.FatalLevel: color.New(color.FgRed),
}

// Strings maps levels to markers.
var Strings = [...]string{
	log.DebugLevel: "•",
	log.InfoLevel:  "•",
	log.WarnLevel:  "•",
	log.ErrorLevel: "⨯",
	log.FatalLevel: "⨯",
}

// Handler is a log.Handler printing colored entries.
type Handler struct {
	mu      sync.Mutex
	Writer  io.Writer
	Padding int
}

var _ log.Handler = &Handler{}

// NewHandler creates a new Handler writing to w. When w is a
// terminal, colors also work on Windows.
func NewHandler(w io.Writer) *Handler {
	if f, ok := w.(*os.File); ok {
		w = colorable.NewColorable(f)
	}
	return &Handler{Writer: w, Padding: 3}
}

// HandleLog implements log.Handler. Entries with the "table" type
// print their fields as a table.
func (h *Handler) HandleLog(e *log.Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if t, _ := e.Fields["type"].(string); t == "table" {
		return h.logTable(e)
	}
	return h.logDefault(e)
}

func (h *Handler) logDefault(e *log.Entry) error {
	color := Colors[e.Level]
	level := Strings[e.Level]
	s := color.Sprintf("%s %-25s", bold.Sprintf("%*s", h.Padding+1, level), e.Message)
	for _, name := range e.Fields.Names() {
		s += fmt.Sprintf(" %s=%v", color.Sprint(name), e.Fields.Get(name))
	}
	_, err := fmt.Fprintln(h.Writer, s)
	return err
}

func (h *Handler) logTable(e *log.Entry) error {
	var (
		lines    []string
		colWidth = len(e.Message)
	)
	for _, name := range e.Fields.Names() {
		if name == "type" {
			continue
		}
		line := fmt.Sprintf("%s: %v", name, e.Fields.Get(name))
		lines = append(lines, line)
		colWidth = max(colWidth, len(line))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "┏%s┓\n", strings.Repeat("━", colWidth+2))
	fmt.Fprintf(&b, "┃ %s ┃\n", bold.Sprint(rightPad(e.Message, colWidth)))
	fmt.Fprintf(&b, "┣%s┫\n", strings.Repeat("━", colWidth+2))
	for _, line := range lines {
		fmt.Fprintf(&b, "┃ %s ┃\n", rightPad(line, colWidth))
	}
	fmt.Fprintf(&b, "┗%s┛\n", strings.Repeat("━", colWidth+2))
	_, err := io.WriteString(h.Writer, b.String())
	return err
}

func rightPad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
