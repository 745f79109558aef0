package picker

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"

	"github.com/dshills/quicky/internal/manager"
)

// Terminal is a full-screen chooser. The screen is only held while Choose
// runs; messages are written to a plain writer.
type Terminal struct {
	newScreen func() (tcell.Screen, error)
	out       io.Writer
	filter    *Filter

	// started runs once the screen is initialized.
	started func(tcell.Screen)
}

// NewTerminal creates a chooser on the controlling terminal. Messages are
// written to out.
func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{
		newScreen: tcell.NewScreen,
		out:       out,
		filter:    NewFilter(),
	}
}

// Choose shows items until one is chosen or the list is dismissed.
func (t *Terminal) Choose(ctx context.Context, prompt string, items []manager.Item) (int, bool, error) {
	screen, err := t.newScreen()
	if err != nil {
		return 0, false, fmt.Errorf("opening terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return 0, false, fmt.Errorf("initializing terminal: %w", err)
	}
	defer screen.Fini()

	stop := context.AfterFunc(ctx, func() {
		_ = screen.PostEvent(tcell.NewEventInterrupt(nil)) // best-effort wakeup
	})
	defer stop()

	l := newList(items, t.filter)
	if t.started != nil {
		t.started(screen)
	}

	for {
		l.draw(screen, prompt)

		switch ev := screen.PollEvent().(type) {
		case nil:
			// Screen finalized underneath us.
			return 0, false, nil
		case *tcell.EventResize:
			screen.Sync()
		case *tcell.EventInterrupt:
			if err := ctx.Err(); err != nil {
				return 0, false, err
			}
		case *tcell.EventKey:
			if index, done, ok := l.handleKey(ev); done {
				return index, ok, nil
			}
		}
	}
}

// Notify writes message on its own line.
func (t *Terminal) Notify(ctx context.Context, message string) error {
	_, err := fmt.Fprintln(t.out, message)
	return err
}

// list is the state of one Choose call.
type list struct {
	items   []manager.Item
	filter  *Filter
	query   []rune
	results []Result
	cursor  int
	offset  int
}

// newList starts with the cursor on the picked entry.
func newList(items []manager.Item, filter *Filter) *list {
	l := &list{items: items, filter: filter}
	l.refilter()
	for i, r := range l.results {
		if items[r.Index].Picked {
			l.cursor = i
			break
		}
	}
	return l
}

func (l *list) refilter() {
	l.results = l.filter.Rank(l.items, string(l.query))
	if l.cursor >= len(l.results) {
		l.cursor = max(0, len(l.results)-1)
	}
}

func (l *list) move(delta int) {
	if len(l.results) == 0 {
		return
	}
	l.cursor = (l.cursor + delta + len(l.results)) % len(l.results)
}

// handleKey applies a key. done is set when the list should close; ok
// tells a choice from a dismissal.
func (l *list) handleKey(ev *tcell.EventKey) (index int, done, ok bool) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return 0, true, false
	case tcell.KeyEnter:
		if len(l.results) == 0 {
			return 0, false, false
		}
		return l.results[l.cursor].Index, true, true
	case tcell.KeyUp, tcell.KeyCtrlP:
		l.move(-1)
	case tcell.KeyDown, tcell.KeyCtrlN:
		l.move(1)
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(l.query) > 0 {
			l.query = l.query[:len(l.query)-1]
			l.cursor = 0
			l.refilter()
		}
	case tcell.KeyRune:
		l.query = append(l.query, ev.Rune())
		l.cursor = 0
		l.refilter()
	}
	return 0, false, false
}

var (
	styleDefault = tcell.StyleDefault
	stylePrompt  = tcell.StyleDefault.Bold(true)
	styleDim     = tcell.StyleDefault.Dim(true)
	styleCursor  = tcell.StyleDefault.Reverse(true)
)

// draw renders the prompt, the query line and the visible window of
// results.
func (l *list) draw(s tcell.Screen, prompt string) {
	s.Clear()
	width, height := s.Size()

	drawText(s, 0, 0, width, prompt, stylePrompt)
	x := drawText(s, 0, 1, width, "> ", styleDefault)
	x = drawText(s, x, 1, width, string(l.query), styleDefault)
	s.ShowCursor(x, 1)

	rows := height - 2
	if rows <= 0 {
		s.Show()
		return
	}
	if len(l.results) == 0 {
		drawText(s, 2, 2, width, "No matches", styleDim)
		s.Show()
		return
	}

	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+rows {
		l.offset = l.cursor - rows + 1
	}

	for row := 0; row < rows && l.offset+row < len(l.results); row++ {
		i := l.offset + row
		item := l.items[l.results[i].Index]
		y := row + 2

		base, dim := styleDefault, styleDim
		if i == l.cursor {
			base, dim = styleCursor, styleCursor.Dim(true)
			for cx := 0; cx < width; cx++ {
				s.SetContent(cx, y, ' ', nil, base)
			}
		}

		marker := "  "
		if item.Picked {
			marker = "* "
		}
		cx := drawText(s, 0, y, width, marker, base)
		cx = drawText(s, cx, y, width, truncate(item.Label, width-cx), base)
		if extra := describe(item); extra != "" && cx+2 < width {
			drawText(s, cx+2, y, width, truncate(extra, width-cx-2), dim)
		}
	}
	s.Show()
}

// drawText writes text one grapheme cluster at a time starting at x and
// stops before limit. It returns the column after the last cluster.
func drawText(s tcell.Screen, x, y, limit int, text string, style tcell.Style) int {
	state := -1
	for text != "" && x < limit {
		var cluster string
		var width int
		cluster, text, width, state = uniseg.FirstGraphemeClusterInString(text, state)
		if width == 0 {
			continue
		}
		if x+width > limit {
			break
		}
		runes := []rune(cluster)
		s.SetContent(x, y, runes[0], runes[1:], style)
		x += width
	}
	return x
}

// truncate shortens text to at most width columns, ending with an ellipsis
// when anything was cut.
func truncate(text string, width int) string {
	if width <= 0 {
		return ""
	}
	if uniseg.StringWidth(text) <= width {
		return text
	}

	var (
		out   []byte
		used  int
		state = -1
		rest  = text
	)
	for rest != "" {
		var cluster string
		var w int
		cluster, rest, w, state = uniseg.FirstGraphemeClusterInString(rest, state)
		if used+w > width-1 {
			break
		}
		out = append(out, cluster...)
		used += w
	}
	return strings.TrimRight(string(out), " ") + "…"
}
