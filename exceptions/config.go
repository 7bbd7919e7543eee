package exceptions

import (
	"fmt"

	"github.com/chazu/gdbind/extapi"
)

// RuleConfig is the gdbind.toml form of a rule:
//
//	[[exceptions]]
//	class  = "Node"
//	method = "get_node"
//	kind   = "force-signature"
//	return = "Node"
//	params = [{name = "path", type = "NodePath"}]
type RuleConfig struct {
	Class  string        `toml:"class"`
	Method string        `toml:"method"`
	Kind   string        `toml:"kind"`
	Name   string        `toml:"name"`
	Params []ParamConfig `toml:"params"`
	Return string        `toml:"return"`
}

// ParamConfig is one parameter of a forced signature.
type ParamConfig struct {
	Name    string  `toml:"name"`
	Type    string  `toml:"type"`
	Meta    string  `toml:"meta"`
	Default *string `toml:"default"`
}

// Rule converts the configuration entry.
func (c RuleConfig) Rule() (Rule, error) {
	kind, err := ParseKind(c.Kind)
	if err != nil {
		return Rule{}, err
	}
	r := Rule{Class: c.Class, Method: c.Method, Policy: Policy{Kind: kind}}
	switch kind {
	case Rename:
		if c.Name == "" {
			return Rule{}, fmt.Errorf("rename rule for %s needs a name", r)
		}
		r.Policy.Name = c.Name
	case ForceSignature:
		sig := &Signature{}
		for _, p := range c.Params {
			param := extapi.Param{Name: p.Name, Type: extapi.TypeRef{Name: p.Type, Meta: p.Meta}}
			if p.Default != nil {
				param.Default, param.HasDefault = *p.Default, true
			}
			sig.Params = append(sig.Params, param)
		}
		if c.Return != "" && c.Return != "void" {
			sig.Return = &extapi.TypeRef{Name: c.Return}
		}
		r.Policy.Signature = sig
	}
	return r, nil
}

// Overlay converts configs and layers them over base.
func Overlay(base *Table, configs []RuleConfig) (*Table, error) {
	rules := make([]Rule, 0, len(configs))
	for i, c := range configs {
		r, err := c.Rule()
		if err != nil {
			return nil, fmt.Errorf("exceptions[%d]: %w", i, err)
		}
		rules = append(rules, r)
	}
	return base.With(rules...), nil
}
