package compare

import (
	"encoding/json"
)

// JSONFormatter formats comparison results as JSON
type JSONFormatter struct {
	Pretty bool
}

// Format generates JSON output for comparison results, newline terminated
func (jf *JSONFormatter) Format(compSet *ComparisonSet) (string, error) {
	marshal := json.Marshal
	if jf.Pretty {
		marshal = func(v any) ([]byte, error) { return json.MarshalIndent(v, "", "  ") }
	}

	data, err := marshal(compSet)
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}
