// Package app wires the Quicky components together for the command line.
//
// An Application owns the settings store, the signal sink, the metrics
// registry and the manager, and exposes the operations behind each
// subcommand:
//
//   - Menu runs the two-step selection flow
//   - List prints every definition with its current and active values
//   - Signals prints the published signals
//   - Watch keeps the signals current while settings files change
//
// Stdin doubles as the active-resource feed in watch mode: every line read
// is treated as the path of the newly active file.
package app
