package harness

import (
	"fmt"
	"slices"

	"github.com/cmlibs/zinc-sub001/internal/mesh"
)

// AssertionContext provides what assertions inspect besides the result.
type AssertionContext struct {
	// Root is the region tree after the last step.
	Root *mesh.Region

	// Before maps region path to the fingerprint the region had when
	// loaded.
	Before map[string]string
}

// EvaluateAssertions checks all assertions against a result.
// Returns a list of error messages for failed assertions.
// Empty list means all assertions passed.
func EvaluateAssertions(result *Result, assertions []Assertion, ctx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertIdentifiers:
			err = assertIdentifiers(result, assertion)
		case AssertUnchanged:
			err = assertUnchanged(ctx, assertion)
		case AssertNotifications:
			err = assertNotifications(result, assertion)
		default:
			err = fmt.Errorf("unknown assertion type: %s", assertion.Type)
		}

		if err != nil {
			errors = append(errors, fmt.Sprintf("assertion %d (%s): %v", i, assertion.Type, err))
		}
	}

	return errors
}

// assertIdentifiers checks the numbers of named entities in a region.
func assertIdentifiers(result *Result, a Assertion) error {
	path := regionPath(a.Region)
	got, ok := result.Identifiers[path]
	if !ok {
		return fmt.Errorf("region %s not found", path)
	}

	names := make([]string, 0, len(a.Expect))
	for name := range a.Expect {
		names = append(names, name)
	}
	slices.Sort(names)

	var mismatches []string
	for _, name := range names {
		n, ok := got[name]
		switch {
		case !ok:
			mismatches = append(mismatches, fmt.Sprintf("%s: no such entity", name))
		case n != a.Expect[name]:
			mismatches = append(mismatches, fmt.Sprintf("%s: got %d, want %d", name, n, a.Expect[name]))
		}
	}
	if len(mismatches) > 0 {
		return fmt.Errorf("region %s: %v", path, mismatches)
	}
	return nil
}

// assertUnchanged checks that a region's identifiers are exactly as loaded.
func assertUnchanged(ctx *AssertionContext, a Assertion) error {
	path := regionPath(a.Region)
	region, err := ctx.Root.Find(path)
	if err != nil {
		return err
	}
	fp, err := region.Mesh().Fingerprint()
	if err != nil {
		return err
	}
	if fp != ctx.Before[path] {
		return fmt.Errorf("region %s identifiers changed", path)
	}
	return nil
}

// assertNotifications checks the number of change sets delivered.
func assertNotifications(result *Result, a Assertion) error {
	if result.Notifications != a.Count {
		return fmt.Errorf("got %d change sets, want %d", result.Notifications, a.Count)
	}
	return nil
}
