package gate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"mercator-hq/judgment/pkg/decision"
)

// ruleFile is the on-disk layout of a rule file.
type ruleFile struct {
	Rules []rawRule `yaml:"rules"`
}

// rawRule keeps the action as text so that a bad action is reported as a
// RuleError with the rule's position instead of a bare YAML error.
type rawRule struct {
	Name       string         `yaml:"name"`
	Conditions map[string]any `yaml:"conditions"`
	Action     string         `yaml:"action"`
	Reason     string         `yaml:"reason"`
}

// LoadRules reads and validates a YAML rule file.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &LoadError{Path: path, Cause: ErrNoRulesFile}
		}
		return nil, &LoadError{Path: path, Cause: err}
	}

	rules, err := ParseRules(data)
	if err != nil {
		return nil, &LoadError{Path: path, Cause: err}
	}
	return rules, nil
}

// ParseRules parses YAML rule data. The document is either a mapping with a
// "rules" list or a bare list of rules.
func ParseRules(data []byte) ([]Rule, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	// Empty document
	if len(root.Content) == 0 {
		return nil, nil
	}

	var raw []rawRule
	switch doc := root.Content[0]; doc.Kind {
	case yaml.SequenceNode:
		if err := doc.Decode(&raw); err != nil {
			return nil, fmt.Errorf("invalid rule list: %w", err)
		}
	case yaml.MappingNode:
		var f ruleFile
		if err := doc.Decode(&f); err != nil {
			return nil, fmt.Errorf("invalid rule file: %w", err)
		}
		raw = f.Rules
	default:
		return nil, fmt.Errorf("rule file must be a mapping or a list, got %s", kindName(doc.Kind))
	}

	return buildRules(raw)
}

func buildRules(raw []rawRule) ([]Rule, error) {
	rules := make([]Rule, 0, len(raw))
	var errs []error

	for i, r := range raw {
		rule := Rule{
			Name:       r.Name,
			Conditions: r.Conditions,
			Reason:     r.Reason,
		}
		if r.Action != "" {
			action, err := decision.ParseAction(r.Action)
			if err != nil {
				errs = append(errs, NewRuleError(i, r.Name, err.Error()))
				continue
			}
			rule.Action = action
		}
		rules = append(rules, rule)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if err := ValidateRules(rules); err != nil {
		return nil, err
	}
	return rules, nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	case yaml.DocumentNode:
		return "document"
	default:
		return fmt.Sprintf("kind %d", k)
	}
}
