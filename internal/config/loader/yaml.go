package loader

import "gopkg.in/yaml.v3"

func decodeYAML(data []byte) (map[string]any, error) {
	var config map[string]any
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}
	return config, nil
}

func encodeYAML(data map[string]any) ([]byte, error) {
	if data == nil {
		data = make(map[string]any)
	}
	return yaml.Marshal(data)
}
