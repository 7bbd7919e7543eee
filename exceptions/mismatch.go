package exceptions

import (
	"fmt"

	"github.com/agnivade/levenshtein"
	"github.com/chazu/gdbind/extapi"
)

// Mismatch is a rule that does not apply to the loaded description. It is
// reported, never fatal; the rule simply has no effect.
type Mismatch struct {
	Rule       Rule
	Reason     string
	Suggestion string
}

func (m Mismatch) String() string {
	if m.Suggestion == "" {
		return fmt.Sprintf("%s: %s", m.Rule, m.Reason)
	}
	return fmt.Sprintf("%s: %s (did you mean %q?)", m.Rule, m.Reason, m.Suggestion)
}

// Mismatches checks every rule against api, in table order.
func (t *Table) Mismatches(api *extapi.ExtensionAPI) []Mismatch {
	var classNames, utilityNames []string
	for _, c := range api.Classes {
		classNames = append(classNames, c.Name)
	}
	for _, u := range api.Utilities {
		utilityNames = append(utilityNames, u.Name)
	}

	var out []Mismatch
	for _, r := range t.Rules() {
		if m, bad := checkRule(api, r, classNames, utilityNames); bad {
			out = append(out, m)
		}
	}
	return out
}

func checkRule(api *extapi.ExtensionAPI, r Rule, classNames, utilityNames []string) (Mismatch, bool) {
	miss := func(reason string, target string, candidates []string) (Mismatch, bool) {
		return Mismatch{Rule: r, Reason: reason, Suggestion: closest(target, candidates)}, true
	}

	switch {
	case r.Class == "" && r.Method == "":
		return Mismatch{Rule: r, Reason: "rule has no target"}, true

	case r.Class == "":
		if !contains(utilityNames, r.Method) {
			return miss("no such utility function", r.Method, utilityNames)
		}
		switch r.Policy.Kind {
		case ForceVirtual, ForceNonVirtual:
			return Mismatch{Rule: r, Reason: "utility functions cannot be virtual"}, true
		}
		return Mismatch{}, false
	}

	class, ok := api.Class(r.Class)
	if !ok {
		return miss("no such class", r.Class, classNames)
	}
	if r.Method == "" {
		if r.Policy.Kind != Skip {
			return Mismatch{Rule: r, Reason: "only skip applies to a whole class"}, true
		}
		return Mismatch{}, false
	}

	var methodNames []string
	for _, m := range class.Methods {
		if m.Name == r.Method {
			return checkMethodPolicy(r, m)
		}
		methodNames = append(methodNames, m.Name)
	}
	return miss("no such method on "+r.Class, r.Method, methodNames)
}

func checkMethodPolicy(r Rule, m extapi.MethodDef) (Mismatch, bool) {
	switch r.Policy.Kind {
	case Rename:
		if r.Policy.Name == "" {
			return Mismatch{Rule: r, Reason: "rename without a name"}, true
		}
	case ForceSignature:
		if r.Policy.Signature == nil {
			return Mismatch{Rule: r, Reason: "force-signature without a signature"}, true
		}
	case ForceNonVirtual:
		if m.IsVirtual && !m.HasHash {
			return Mismatch{Rule: r, Reason: "virtual method has no bind hash"}, true
		}
	case ForceVirtual:
		if m.IsStatic {
			return Mismatch{Rule: r, Reason: "static methods cannot be virtual"}, true
		}
	}
	return Mismatch{}, false
}

// closest returns the candidate nearest to name, or "" when nothing is
// close enough to be a plausible typo.
func closest(name string, candidates []string) string {
	best, bestDist := "", -1
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(name, c)
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	limit := len(name) / 3
	if limit < 2 {
		limit = 2
	}
	if bestDist < 0 || bestDist > limit {
		return ""
	}
	return best
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
