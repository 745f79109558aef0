package layer

// Standard priority levels for configuration layers.
// Higher values override lower values when a key is read.
const (
	// PriorityDefault is the lowest priority for registered defaults.
	PriorityDefault = 0

	// PriorityUser is for user global settings (~/.config/quicky/).
	PriorityUser = 100

	// PriorityWorkspace is for workspace settings (<workspace>/.quicky/).
	PriorityWorkspace = 200

	// PriorityFolder is for per-folder settings (<folder>/.quicky/).
	PriorityFolder = 300
)

// StandardLayerNames defines standard names for configuration layers.
// Folder layers are named "folder:<root>".
var StandardLayerNames = map[Scope]string{
	ScopeDefault:   "defaults",
	ScopeUser:      "user",
	ScopeWorkspace: "workspace",
	ScopeFolder:    "folder",
}

// StandardLayerName returns the standard name for a scope.
func StandardLayerName(scope Scope) string {
	if name, ok := StandardLayerNames[scope]; ok {
		return name
	}
	return "unknown"
}

// FolderLayerName returns the layer name for a folder root.
func FolderLayerName(root string) string {
	return StandardLayerName(ScopeFolder) + ":" + root
}
