package validation

import "strings"

// Issue is the payload produced by the default rule functions.
type Issue struct {
	Rule    string         `json:"rule"`
	Message string         `json:"message"`
	Params  map[string]any `json:"params,omitempty"`
}

// Issues is an ordered list of rule payloads for one node.
type Issues []Issue

// Error joins the messages so Issues can travel as an error.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	parts := make([]string, 0, len(iss))
	for _, issue := range iss {
		parts = append(parts, issue.Message)
	}
	return strings.Join(parts, "; ")
}

// Messages lists the issue messages in order.
func (iss Issues) Messages() []string {
	out := make([]string, 0, len(iss))
	for _, issue := range iss {
		out = append(out, issue.Message)
	}
	return out
}
