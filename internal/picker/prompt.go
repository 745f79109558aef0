package picker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rivo/uniseg"

	"github.com/dshills/quicky/internal/manager"
)

// Prompt is a line-oriented chooser.
type Prompt struct {
	in     *bufio.Reader
	out    io.Writer
	filter *Filter
}

// NewPrompt creates a chooser reading answers from in and writing lists
// and messages to out.
func NewPrompt(in io.Reader, out io.Writer) *Prompt {
	return &Prompt{
		in:     bufio.NewReader(in),
		out:    out,
		filter: NewFilter(),
	}
}

// Choose lists items and reads an entry number or a filter query.
func (p *Prompt) Choose(ctx context.Context, prompt string, items []manager.Item) (int, bool, error) {
	visible := p.filter.Rank(items, "")

	for {
		if err := ctx.Err(); err != nil {
			return 0, false, err
		}
		p.render(prompt, items, visible)

		line, err := p.in.ReadString('\n')
		eof := errors.Is(err, io.EOF)
		if err != nil && !eof {
			return 0, false, fmt.Errorf("reading selection: %w", err)
		}

		answer := strings.TrimSpace(line)
		if answer == "" {
			return 0, false, nil
		}

		if n, convErr := strconv.Atoi(answer); convErr == nil {
			if n >= 1 && n <= len(visible) {
				return visible[n-1].Index, true, nil
			}
			fmt.Fprintf(p.out, "No entry %d.\n", n)
		} else {
			matched := p.filter.Rank(items, answer)
			switch len(matched) {
			case 0:
				fmt.Fprintf(p.out, "Nothing matches %q.\n", answer)
			case 1:
				return matched[0].Index, true, nil
			default:
				visible = matched
			}
		}

		if eof {
			return 0, false, nil
		}
	}
}

// render writes the numbered list with labels padded to a common width.
func (p *Prompt) render(prompt string, items []manager.Item, visible []Result) {
	fmt.Fprintln(p.out, prompt)

	width := 0
	for _, r := range visible {
		width = max(width, uniseg.StringWidth(items[r.Index].Label))
	}

	for n, r := range visible {
		item := items[r.Index]
		marker := " "
		if item.Picked {
			marker = "*"
		}

		var b strings.Builder
		fmt.Fprintf(&b, "%s %2d) %s", marker, n+1, item.Label)
		if extra := describe(item); extra != "" {
			b.WriteString(strings.Repeat(" ", width-uniseg.StringWidth(item.Label)+2))
			b.WriteString(extra)
		}
		fmt.Fprintln(p.out, b.String())
	}
	fmt.Fprint(p.out, "Choice (number or filter, empty to cancel): ")
}

// describe joins the secondary texts of an entry.
func describe(item manager.Item) string {
	switch {
	case item.Description != "" && item.Detail != "":
		return item.Description + " (" + item.Detail + ")"
	case item.Description != "":
		return item.Description
	case item.Detail != "":
		return "(" + item.Detail + ")"
	default:
		return ""
	}
}

// Notify writes message on its own line.
func (p *Prompt) Notify(ctx context.Context, message string) error {
	_, err := fmt.Fprintln(p.out, message)
	return err
}
