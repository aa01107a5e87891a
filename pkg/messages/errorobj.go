package messages

import (
	"fmt"

	"github.com/goliatone/go-formstate/pkg/schema"
	"github.com/goliatone/go-formstate/pkg/validation"
)

// ErrorObject is the aggregate stored in the error map for one node. Message
// repeats the first issue.
type ErrorObject struct {
	Message string            `json:"message"`
	Issues  validation.Issues `json:"issues"`
}

func (e ErrorObject) Error() string {
	return e.Message
}

// Generate folds collected payloads into an ErrorObject. Payloads that are not
// Issues (for example strings returned by custom validators) are wrapped.
func Generate(errors []any) any {
	obj := ErrorObject{Issues: make(validation.Issues, 0, len(errors))}
	for _, payload := range errors {
		obj.Issues = append(obj.Issues, toIssue(payload))
	}
	if len(obj.Issues) > 0 {
		obj.Message = obj.Issues[0].Message
	}
	return obj
}

// Generators registers Generate for every schema type.
func Generators() validation.Generators {
	out := make(validation.Generators, len(schema.Types))
	for _, typ := range schema.Types {
		out[typ] = Generate
	}
	return out
}

func toIssue(payload any) validation.Issue {
	switch typed := payload.(type) {
	case validation.Issue:
		return typed
	case *validation.Issue:
		if typed != nil {
			return *typed
		}
		return validation.Issue{Rule: "custom"}
	case string:
		return validation.Issue{Rule: "custom", Message: typed}
	case error:
		return validation.Issue{Rule: "custom", Message: typed.Error()}
	default:
		return validation.Issue{Rule: "custom", Message: fmt.Sprint(typed), Params: map[string]any{"payload": typed}}
	}
}
