// Package exceptions holds the hand-maintained policy table that overrides
// what the generator would otherwise emit for a class, method or utility
// function.
package exceptions

import (
	"fmt"
	"strings"

	"github.com/chazu/gdbind/extapi"
)

// Kind is the action a rule applies.
type Kind int

const (
	Skip Kind = iota + 1
	Rename
	ForceSignature
	ForceVirtual
	ForceNonVirtual
)

var kindNames = map[Kind]string{
	Skip:            "skip",
	Rename:          "rename",
	ForceSignature:  "force-signature",
	ForceVirtual:    "force-virtual",
	ForceNonVirtual: "force-non-virtual",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind accepts the names used in gdbind.toml.
func ParseKind(s string) (Kind, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	for k, name := range kindNames {
		if name == norm {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown exception kind %q", s)
}

// Signature replaces a method's parameters and return type.
type Signature struct {
	Params []extapi.Param
	Return *extapi.TypeRef
}

// Policy is what a rule does. Name is set for Rename and Signature for
// ForceSignature.
type Policy struct {
	Kind      Kind
	Name      string
	Signature *Signature
}

// Rule attaches a policy to a class (Method empty), a class method, or a
// utility function (Class empty).
type Rule struct {
	Class  string
	Method string
	Policy Policy
}

func (r Rule) String() string {
	target := r.Class
	switch {
	case r.Class == "":
		target = "utility " + r.Method
	case r.Method != "":
		target = r.Class + "." + r.Method
	}
	if r.Policy.Kind == Rename {
		return fmt.Sprintf("%s %s -> %s", r.Policy.Kind, target, r.Policy.Name)
	}
	return fmt.Sprintf("%s %s", r.Policy.Kind, target)
}

type key struct {
	class, method string
}

// Table is an immutable rule lookup. The zero value and nil are empty tables.
type Table struct {
	rules map[key]Policy
	order []key
}

// New builds a table. A later rule for the same target replaces an earlier one.
func New(rules ...Rule) *Table {
	t := &Table{rules: make(map[key]Policy, len(rules))}
	for _, r := range rules {
		k := key{r.Class, r.Method}
		if _, dup := t.rules[k]; !dup {
			t.order = append(t.order, k)
		}
		t.rules[k] = r.Policy
	}
	return t
}

// With returns a new table holding t's rules overlaid with rules.
func (t *Table) With(rules ...Rule) *Table {
	return New(append(t.Rules(), rules...)...)
}

// Rules lists the table's rules in insertion order.
func (t *Table) Rules() []Rule {
	if t == nil {
		return nil
	}
	out := make([]Rule, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, Rule{Class: k.class, Method: k.method, Policy: t.rules[k]})
	}
	return out
}

// Len is the number of rules.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.order)
}

func (t *Table) lookup(class, method string) (Policy, bool) {
	if t == nil {
		return Policy{}, false
	}
	p, ok := t.rules[key{class, method}]
	return p, ok
}

// Class returns the class-level policy.
func (t *Table) Class(name string) (Policy, bool) {
	return t.lookup(name, "")
}

// Method returns the policy for a class method.
func (t *Table) Method(class, method string) (Policy, bool) {
	return t.lookup(class, method)
}

// Utility returns the policy for a utility function.
func (t *Table) Utility(name string) (Policy, bool) {
	return t.lookup("", name)
}

// SkipsClass reports whether the class is excluded outright.
func (t *Table) SkipsClass(name string) bool {
	p, ok := t.Class(name)
	return ok && p.Kind == Skip
}

// SkipsMethod reports whether a class method or utility (class "") is excluded.
func (t *Table) SkipsMethod(class, method string) bool {
	p, ok := t.lookup(class, method)
	return ok && p.Kind == Skip
}
