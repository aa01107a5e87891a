package validation

import (
	"github.com/samber/mo"

	"github.com/goliatone/go-formstate/pkg/schema"
)

// RuleName identifies a built-in rule function.
type RuleName string

const (
	RuleMinLength    RuleName = "minLength"
	RuleRequired     RuleName = "required"
	RuleTypeOf       RuleName = "typeof"
	RuleMinItems     RuleName = "minItems"
	RuleMaxItems     RuleName = "maxItems"
	RuleMinimum      RuleName = "minimum"
	RuleMaximum      RuleName = "maximum"
	RuleMultipleOf   RuleName = "multipleOf"
	RuleFormat       RuleName = "format"
	RulePattern      RuleName = "pattern"
	RuleUniqueItems  RuleName = "uniqueItems"
	RuleDependencies RuleName = "dependencies"
)

// BuiltinRules lists the rules in evaluation order.
var BuiltinRules = []RuleName{
	RuleMinLength,
	RuleRequired,
	RuleTypeOf,
	RuleMinItems,
	RuleMaxItems,
	RuleMinimum,
	RuleMaximum,
	RuleMultipleOf,
	RuleFormat,
	RulePattern,
	RuleUniqueItems,
	RuleDependencies,
}

// Args is what a rule function receives for one violation. Constraint is the
// offending schema value: the bound, the format name, the pattern, the 1-based
// position of a duplicate, or the title of a triggering dependency. For
// dependency violations Schema is the parent schema.
type Args struct {
	Rule       RuleName
	Value      any
	Defined    bool
	Constraint any
	Schema     schema.Schema
}

// RuleFunc builds the payload for a violation. None suppresses the error;
// Some(x) records x, whatever x is.
type RuleFunc func(Args) mo.Option[any]

// Rules maps rule names to rule functions. A missing rule disables its check.
type Rules map[RuleName]RuleFunc

// CustomArgs is the context handed to caller-supplied validators configured
// through the `$vf_ext/validate` block of the parent schema.
type CustomArgs struct {
	Value        any
	Defined      bool
	Root         any
	RootSchema   schema.Schema
	ParentSchema schema.Schema
	Schema       schema.Schema
	Rule         string
	Constraint   any
	Key          mo.Option[string]
	Index        mo.Option[int]
}

// CustomFunc follows the RuleFunc contract.
type CustomFunc func(CustomArgs) mo.Option[any]

// ErrorObjGenerator folds the ordered payloads collected for one node into
// the object stored in the error map.
type ErrorObjGenerator func(errors []any) any

// Generators maps schema types to their error-object generator.
type Generators map[schema.Type]ErrorObjGenerator

// ErrorMap stores one error object per value path.
type ErrorMap map[string]any

// Clone returns a shallow copy.
func (m ErrorMap) Clone() ErrorMap {
	out := make(ErrorMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
