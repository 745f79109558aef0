// Package picker provides the selection UIs used by the quicky command.
//
// Two implementations of manager.UI are available:
//
//   - Terminal: a full-screen tcell list with incremental fuzzy filtering
//   - Prompt: a line-oriented chooser over any reader and writer
//
// Both rank entries with the same Filter, so typing part of a label
// narrows the list the same way in either mode.
//
// # Keys
//
// In the terminal list, Up/Down (or Ctrl-P/Ctrl-N) move the cursor, Enter
// chooses, Esc or Ctrl-C dismisses, and any other printable key edits the
// filter query.
//
// In the prompt, enter an entry number or a filter query. A query that
// matches exactly one entry chooses it; an empty line or end of input
// dismisses the list.
package picker
