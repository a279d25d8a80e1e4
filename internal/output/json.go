package output

import (
	"encoding/json"
)

// JSONFormatter renders a proposal as JSON
type JSONFormatter struct {
	Pretty bool // If true, format with indentation
}

func (jf JSONFormatter) Name() string { return "json" }

func (jf JSONFormatter) Format(p Proposal) ([]byte, error) {
	if jf.Pretty {
		return json.MarshalIndent(p, "", "  ")
	}
	return json.Marshal(p)
}
