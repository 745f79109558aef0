package definition

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/tidwall/jsonc"
)

//go:embed defaults.json
var defaultsJSON []byte

type embeddedDefaults struct {
	Builtin []any `json:"builtin"`
	Initial []any `json:"initial"`
}

var defaults = mustLoadDefaults(defaultsJSON)

func mustLoadDefaults(data []byte) embeddedDefaults {
	var d embeddedDefaults
	if err := json.Unmarshal(jsonc.ToJSON(data), &d); err != nil {
		panic(fmt.Sprintf("definition: parsing embedded defaults: %v", err))
	}
	return d
}

// Builtins returns the embedded builtin definitions.
func Builtins() []Raw {
	return wrapAll(defaults.Builtin)
}

// InitialDefaults returns the definitions written to the user layer on first
// run. The result is freshly decoded so callers may keep it.
func InitialDefaults() []any {
	return mustLoadDefaults(defaultsJSON).Initial
}
