package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/jsonc"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

var errNotObject = errors.New("settings root must be an object")

func decodeJSON(data []byte) (map[string]any, error) {
	clean := jsonc.ToJSON(data)

	var root any
	if err := json.Unmarshal(clean, &root); err != nil {
		return nil, err
	}

	config, ok := root.(map[string]any)
	if !ok && root != nil {
		return nil, errNotObject
	}
	return config, nil
}

// setJSONKey writes value at path into a JSON document.
// Comments and trailing commas are dropped; key order is kept.
func setJSONKey(previous []byte, path []string, value any) ([]byte, error) {
	src := jsonc.ToJSON(previous)
	if len(bytes.TrimSpace(src)) == 0 || bytes.Equal(bytes.TrimSpace(src), []byte("null")) {
		src = []byte("{}")
	}

	if !gjson.ValidBytes(src) {
		return nil, errors.New("invalid JSON")
	}
	if !gjson.ParseBytes(src).IsObject() {
		return nil, errNotObject
	}

	out, err := sjson.SetBytes(src, jsonPath(path), value)
	if err != nil {
		return nil, err
	}
	return pretty.Pretty(out), nil
}

// jsonPath joins segments into an sjson path, escaping path syntax so a
// flat key such as "editor.tabSize" stays a single member name.
func jsonPath(segments []string) string {
	escaped := make([]string, len(segments))
	for i, seg := range segments {
		var b strings.Builder
		for _, r := range seg {
			switch r {
			case '\\', '.', '*', '?', '|', '#', '@', '!':
				b.WriteByte('\\')
			}
			b.WriteRune(r)
		}
		escaped[i] = b.String()
	}
	return strings.Join(escaped, ".")
}
