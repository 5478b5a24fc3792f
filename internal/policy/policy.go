// Package policy parses resource policy documents into a statement model the
// cross-account checks can evaluate.  It deliberately does not reproduce IAM
// semantics (action expansion, condition evaluation, NotPrincipal handling);
// it only answers who a statement grants access to and whether a policy is
// reachable from the open internet.
package policy

import (
	"fmt"

	"github.com/noobzero/security-monkey/internal/confpath"
)

// Policy is a parsed resource policy document.
type Policy struct {
	Version    string
	Statements []Statement

	// Document is the configuration subtree the policy was parsed from,
	// kept for re-serialization (reports, policy linting).
	Document confpath.Value
}

// Parse builds a Policy from a configuration subtree.
func Parse(doc confpath.Value) (Policy, error) {
	if doc.Kind() != confpath.Object {
		return Policy{}, fmt.Errorf("policy document must be an object, got kind %v", doc.Kind())
	}
	obj := doc.Obj()

	parsed := Policy{Document: doc}
	if version, ok := obj["Version"]; ok && version.Kind() == confpath.String {
		parsed.Version = version.Str()
	}

	statementDoc, ok := obj["Statement"]
	if !ok {
		return Policy{}, fmt.Errorf("policy document has no Statement")
	}
	switch statementDoc.Kind() {
	case confpath.Object:
		statement, err := parseStatement(statementDoc)
		if err != nil {
			return Policy{}, err
		}
		parsed.Statements = []Statement{statement}
	case confpath.Array:
		for i, element := range statementDoc.Arr() {
			statement, err := parseStatement(element)
			if err != nil {
				return Policy{}, fmt.Errorf("statement %d: %w", i, err)
			}
			parsed.Statements = append(parsed.Statements, statement)
		}
	default:
		return Policy{}, fmt.Errorf("policy Statement must be an object or array, got kind %v", statementDoc.Kind())
	}

	return parsed, nil
}

// IsInternetAccessible reports whether any statement of the policy grants
// access to an unauthenticated principal.
func (p Policy) IsInternetAccessible() bool {
	for _, statement := range p.Statements {
		if statement.IsInternetAccessible() {
			return true
		}
	}
	return false
}

// InternetAccessibleActions returns the deduplicated union of the actions
// exposed to the internet across all statements.
func (p Policy) InternetAccessibleActions() []string {
	seen := make(map[string]bool)
	var actions []string
	for _, statement := range p.Statements {
		if !statement.IsInternetAccessible() {
			continue
		}
		for _, action := range statement.Actions {
			if seen[action] {
				continue
			}
			seen[action] = true
			actions = append(actions, action)
		}
	}
	return actions
}
