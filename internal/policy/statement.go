package policy

import (
	"fmt"
	"strings"

	"github.com/noobzero/security-monkey/internal/confpath"
)

const (
	EffectAllow = "Allow"
	EffectDeny  = "Deny"
)

// Categories of the entities a statement grants access to.
const (
	WhoCategoryPrincipal = "principal"
	WhoCategoryArn       = "arn"
	WhoCategoryAccount   = "account"
)

// Who is one entity descriptor a statement applies to: a principal entry or
// a restricting condition value that scopes who can use the grant.
type Who struct {
	Category string
	Value    string
}

// Statement is one permission rule of a resource policy.
type Statement struct {
	Sid        string
	Effect     string
	Principals []string
	Actions    []string
	conditions []conditionEntry
}

type conditionEntry struct {
	key    string // lower-cased condition key, e.g. "aws:sourcearn"
	values []string
}

// Condition keys that carry an entity restricting who may use a grant.
var conditionWhoCategories = map[string]string{
	"aws:sourcearn":        WhoCategoryArn,
	"aws:principalarn":     WhoCategoryArn,
	"aws:sourceaccount":    WhoCategoryAccount,
	"aws:principalaccount": WhoCategoryAccount,
	"aws:sourceowner":      WhoCategoryAccount,
}

// Condition keys that disqualify a wildcard grant from being reachable by
// the open internet.
var restrictingConditionKeys = map[string]bool{
	"aws:sourcearn":        true,
	"aws:principalarn":     true,
	"aws:sourceaccount":    true,
	"aws:principalaccount": true,
	"aws:sourceowner":      true,
	"aws:principalorgid":   true,
	"aws:sourceip":         true,
	"aws:sourcevpc":        true,
	"aws:sourcevpce":       true,
	"aws:userid":           true,
	"kms:calleraccount":    true,
}

func parseStatement(doc confpath.Value) (Statement, error) {
	if doc.Kind() != confpath.Object {
		return Statement{}, fmt.Errorf("statement must be an object, got kind %v", doc.Kind())
	}
	obj := doc.Obj()

	statement := Statement{}
	if sid, ok := obj["Sid"]; ok && sid.Kind() == confpath.String {
		statement.Sid = sid.Str()
	}
	effect, ok := obj["Effect"]
	if !ok || effect.Kind() != confpath.String {
		return Statement{}, fmt.Errorf("statement is missing an Effect")
	}
	statement.Effect = effect.Str()

	if action, ok := obj["Action"]; ok {
		actions, err := stringOrList(action)
		if err != nil {
			return Statement{}, fmt.Errorf("statement Action: %w", err)
		}
		statement.Actions = actions
	}

	if principal, ok := obj["Principal"]; ok {
		principals, err := parsePrincipal(principal)
		if err != nil {
			return Statement{}, err
		}
		statement.Principals = principals
	}

	if condition, ok := obj["Condition"]; ok {
		entries, err := parseConditions(condition)
		if err != nil {
			return Statement{}, err
		}
		statement.conditions = entries
	}

	return statement, nil
}

// Principal is either the wildcard string or a map of principal kinds
// (AWS, Service, Federated) to one or more principal values.
func parsePrincipal(doc confpath.Value) ([]string, error) {
	switch doc.Kind() {
	case confpath.String:
		return []string{doc.Str()}, nil
	case confpath.Object:
		var principals []string
		for _, kind := range []string{"AWS", "Service", "Federated", "CanonicalUser"} {
			entry, ok := doc.Obj()[kind]
			if !ok {
				continue
			}
			values, err := stringOrList(entry)
			if err != nil {
				return nil, fmt.Errorf("statement Principal.%s: %w", kind, err)
			}
			principals = append(principals, values...)
		}
		return principals, nil
	}
	return nil, fmt.Errorf("statement Principal must be a string or object, got kind %v", doc.Kind())
}

func parseConditions(doc confpath.Value) ([]conditionEntry, error) {
	if doc.Kind() != confpath.Object {
		return nil, fmt.Errorf("statement Condition must be an object, got kind %v", doc.Kind())
	}
	var entries []conditionEntry
	for operator, block := range doc.Obj() {
		if block.Kind() != confpath.Object {
			return nil, fmt.Errorf("condition operator %s must hold an object", operator)
		}
		for key, value := range block.Obj() {
			values, err := stringOrList(value)
			if err != nil {
				return nil, fmt.Errorf("condition %s/%s: %w", operator, key, err)
			}
			entries = append(entries, conditionEntry{
				key:    strings.ToLower(key),
				values: values,
			})
		}
	}
	return entries, nil
}

func stringOrList(doc confpath.Value) ([]string, error) {
	switch doc.Kind() {
	case confpath.String:
		return []string{doc.Str()}, nil
	case confpath.Array:
		values := make([]string, 0, len(doc.Arr()))
		for _, element := range doc.Arr() {
			if element.Kind() != confpath.String {
				return nil, fmt.Errorf("expected string element, got kind %v", element.Kind())
			}
			values = append(values, element.Str())
		}
		return values, nil
	case confpath.Bool:
		// Some providers serialize single condition values as bare booleans.
		return []string{fmt.Sprintf("%t", doc.Bool())}, nil
	}
	return nil, fmt.Errorf("expected string or list of strings, got kind %v", doc.Kind())
}

// WhosAllowed returns every entity descriptor this statement applies to:
// principal entries first, then entities referenced by restricting
// condition values.
func (s Statement) WhosAllowed() []Who {
	var whos []Who
	for _, principal := range s.Principals {
		whos = append(whos, Who{Category: WhoCategoryPrincipal, Value: principal})
	}
	for _, entry := range s.conditions {
		category, ok := conditionWhoCategories[entry.key]
		if !ok {
			continue
		}
		for _, value := range entry.values {
			whos = append(whos, Who{Category: category, Value: value})
		}
	}
	return whos
}

// IsInternetAccessible reports whether this statement grants the wildcard
// principal without a condition restricting who may use the grant.
func (s Statement) IsInternetAccessible() bool {
	if s.Effect != EffectAllow {
		return false
	}
	if !s.grantsWildcardPrincipal() {
		return false
	}
	for _, entry := range s.conditions {
		if restrictingConditionKeys[entry.key] {
			return false
		}
	}
	return true
}

func (s Statement) grantsWildcardPrincipal() bool {
	for _, principal := range s.Principals {
		if principal == "*" {
			return true
		}
	}
	return false
}
