// Package scope decides which configuration layer a write should target.
package scope

import (
	"fmt"
	"strings"
)

// PolicyKey optionally overrides the update policy from configuration.
const PolicyKey = "quicky.updatePolicy"

// Target is a writable configuration layer.
type Target uint8

const (
	// TargetGlobal is the user-global layer.
	TargetGlobal Target = iota
	// TargetWorkspace is the project-wide layer.
	TargetWorkspace
	// TargetFolder is the layer of the folder containing the active resource.
	TargetFolder
)

// String returns the target name.
func (t Target) String() string {
	switch t {
	case TargetGlobal:
		return "global"
	case TargetWorkspace:
		return "workspace"
	case TargetFolder:
		return "folder"
	default:
		return "unknown"
	}
}

// Entry is the value stored at one layer.
type Entry struct {
	Value   any
	Present bool
}

// Set returns a present entry holding v.
func Set(v any) Entry {
	return Entry{Value: v, Present: true}
}

// Inspection is the layered view of a single key.
type Inspection struct {
	Key       string
	Default   Entry
	Global    Entry
	Workspace Entry
	Folder    Entry
}

// Sample returns the narrowest present value, falling back to the default.
// It is used as a type hint when coercing option values.
func (i Inspection) Sample() (any, bool) {
	for _, e := range []Entry{i.Folder, i.Workspace, i.Global, i.Default} {
		if e.Present {
			return e.Value, true
		}
	}
	return nil, false
}

// HasUserValue reports whether any writable layer holds a value.
func (i Inspection) HasUserValue() bool {
	return i.Folder.Present || i.Workspace.Present || i.Global.Present
}

// Context describes where the write originates.
type Context struct {
	// Resource is the active resource path, empty when none.
	Resource string

	// WorkspaceOpen reports whether a project context exists at all.
	WorkspaceOpen bool
}

// Policy selects the update target.
type Policy uint8

const (
	// PolicyLayered writes to the layer the user already customized, falling
	// back to the narrowest applicable layer.
	PolicyLayered Policy = iota

	// PolicyGlobal always writes to the global layer.
	PolicyGlobal
)

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case PolicyLayered:
		return "layered"
	case PolicyGlobal:
		return "global"
	default:
		return "unknown"
	}
}

// ParsePolicy parses "layered" or "global" (case-insensitive).
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "layered":
		return PolicyLayered, nil
	case "global":
		return PolicyGlobal, nil
	default:
		return PolicyLayered, fmt.Errorf("unknown update policy %q (must be layered or global)", s)
	}
}

// Resolve chooses the target for writing the inspected key.
func (p Policy) Resolve(insp Inspection, ctx Context) Target {
	if p == PolicyGlobal {
		return TargetGlobal
	}

	hasResource := ctx.Resource != ""
	switch {
	case hasResource && insp.Folder.Present:
		return TargetFolder
	case insp.Workspace.Present:
		return TargetWorkspace
	case insp.Global.Present:
		return TargetGlobal
	case hasResource:
		return TargetFolder
	case ctx.WorkspaceOpen:
		return TargetWorkspace
	default:
		return TargetGlobal
	}
}
