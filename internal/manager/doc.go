// Package manager coordinates setting definitions, their published signals,
// and the interactive selection flow.
//
// The Manager sits between four host collaborators: a configuration Store,
// a selection UI, a signal Sink and an optional Events source. It keeps the
// definition set current through a Coordinator, publishes one value signal
// per definition and one "is active" signal per option through a Publisher,
// and drives the two-step pick-a-definition, pick-an-option interaction.
//
// # Signals
//
// For a definition with id "editor.wordWrap" and options "on" and "off":
//
//	quicky.setting.editor.wordWrap            = "on"
//	quicky.setting.editor.wordWrap.is.str_on  = true
//	quicky.setting.editor.wordWrap.is.str_off = false
//
// # Errors
//
// Nothing escapes Refresh or OpenSelectionFlow. Invalid definitions are
// logged and skipped, failed publications and writes are logged, and the
// selection flow reports what happened as an Outcome.
package manager
