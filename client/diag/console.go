package diag

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

var (
	jsonLexer     = chroma.Coalesce(lexers.Get("json"))
	jsonFormatter = formatters.TTY256
	jsonStyle     = styles.Get("monokai")
)

// Console returns a Sink for w. Colour is used when w is a terminal and
// NO_COLOR is not set.
func Console(w io.Writer) Sink {
	colorize := false
	if f, ok := w.(*os.File); ok && !color.NoColor {
		colorize = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}

	return NewConsole(w, colorize)
}

// NewConsole returns a Sink for w. With colorize, outbound lines are cyan
// and inbound JSON is syntax highlighted.
func NewConsole(w io.Writer, colorize bool) Sink {
	out := color.New(color.FgCyan)
	id := color.New(color.Bold)
	if colorize {
		out.EnableColor()
		id.EnableColor()
	} else {
		out.DisableColor()
		id.DisableColor()
	}

	return &consoleSink{w: w, colorize: colorize, out: out, id: id}
}

type consoleSink struct {
	mu       sync.Mutex
	w        io.Writer
	colorize bool
	out      *color.Color
	id       *color.Color
}

func (s *consoleSink) Outbound(id uint64, line string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.id.Fprintf(s.w, "(%d) ", id)
	s.out.Fprintln(s.w, line)
}

func (s *consoleSink) Inbound(id uint64, line string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.id.Fprintf(s.w, "(%d) ", id)
	if s.colorize && s.highlight(line) {
		fmt.Fprintln(s.w)
		return
	}
	fmt.Fprintln(s.w, line)
}

// highlight writes line as coloured JSON, reporting whether it did.
func (s *consoleSink) highlight(line string) bool {
	it, err := jsonLexer.Tokenise(nil, line)
	if err != nil {
		return false
	}

	return jsonFormatter.Format(s.w, jsonStyle, it) == nil
}
