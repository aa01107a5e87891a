package messages

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/samber/mo"

	"github.com/goliatone/go-formstate/pkg/schema"
	"github.com/goliatone/go-formstate/pkg/validation"
)

func TestCatalog_DefaultMessages(t *testing.T) {
	catalog := MustNew()
	cases := []struct {
		args validation.Args
		want string
	}{
		{
			args: validation.Args{Rule: validation.RuleMinLength, Constraint: 2, Schema: schema.Schema{Title: "Name"}},
			want: "Name must be at least 2 characters",
		},
		{
			args: validation.Args{Rule: validation.RuleMinimum, Constraint: 2.5},
			want: "Value must be greater than or equal to 2.5",
		},
		{
			args: validation.Args{Rule: validation.RuleUniqueItems, Constraint: 2, Schema: schema.Schema{Title: "Tag"}},
			want: "Tag duplicates the 2nd item",
		},
		{
			args: validation.Args{Rule: validation.RuleDependencies, Constraint: "Credit <b>card</b>"},
			want: "This field is required when Credit card is set",
		},
		{
			args: validation.Args{Rule: validation.RuleRequired, Schema: schema.Schema{Title: "Terms & <i>conditions</i>"}},
			want: "Terms & conditions is required",
		},
	}
	for _, tc := range cases {
		got, err := catalog.Render(tc.args)
		if err != nil {
			t.Fatalf("render %s: %v", tc.args.Rule, err)
		}
		if got != tc.want {
			t.Fatalf("render %s: got %q want %q", tc.args.Rule, got, tc.want)
		}
	}
}

func TestCatalog_NewIsSafeForConcurrentUse(t *testing.T) {
	const workers = 16
	got := make([]string, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			catalog, err := New()
			if err != nil {
				errs[i] = err
				return
			}
			got[i], errs[i] = catalog.Render(validation.Args{Rule: validation.RuleUniqueItems, Constraint: 3})
		}(i)
	}
	wg.Wait()

	want := make([]string, workers)
	for i := range want {
		want[i] = "Value duplicates the 3rd item"
	}
	for i, err := range errs {
		if err != nil {
			t.Fatalf("worker %d: %v", i, err)
		}
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestCatalog_OverridesAndParseErrors(t *testing.T) {
	catalog, err := New(WithTemplates(map[string]string{"required": "Please fill in {{ title|lower }}"}))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	got, err := catalog.Render(validation.Args{Rule: validation.RuleRequired, Schema: schema.Schema{Title: "Email"}})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "Please fill in email" {
		t.Fatalf("unexpected message %q", got)
	}

	if _, err := New(WithTemplate(validation.RulePattern, "{% if %}")); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestCatalog_RuleProducesIssue(t *testing.T) {
	rules := MustNew().Rules()
	if len(rules) != len(validation.BuiltinRules) {
		t.Fatalf("expected %d rules, got %d", len(validation.BuiltinRules), len(rules))
	}
	got := rules[validation.RuleMaxItems](validation.Args{Rule: validation.RuleMaxItems, Constraint: 3})
	want := mo.Some[any](validation.Issue{
		Rule:    "maxItems",
		Message: "Value must contain at most 3 items",
		Params:  map[string]any{"limit": 3},
	})
	if diff := cmp.Diff(want.OrEmpty(), got.OrEmpty()); diff != "" {
		t.Fatalf("issue mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerate_WrapsPayloads(t *testing.T) {
	got := Generate([]any{
		validation.Issue{Rule: "required", Message: "Name is required"},
		"custom message",
		errors.New("boom"),
	})
	want := ErrorObject{
		Message: "Name is required",
		Issues: validation.Issues{
			{Rule: "required", Message: "Name is required"},
			{Rule: "custom", Message: "custom message"},
			{Rule: "custom", Message: "boom"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("error object mismatch (-want +got):\n%s", diff)
	}
	if len(Generators()) != len(schema.Types) {
		t.Fatalf("expected a generator per type")
	}
}

func TestTitle_FallsBack(t *testing.T) {
	if got := Title("  <script>x</script> "); got != "Value" {
		t.Fatalf("expected fallback title, got %q", got)
	}
}
