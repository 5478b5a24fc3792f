package arn

import (
	"fmt"
	"regexp"
	"strings"
)

// ARN is a parsed principal value.  Besides full ARNs, a statement principal
// may be a bare 12-digit account id or an AWS service principal such as
// "ec2.amazonaws.com"; both are accepted here so callers can treat every
// principal value uniformly.
type ARN struct {
	Raw       string
	Partition string
	Service   string // service namespace of a full ARN, e.g. "iam"
	Region    string
	AccountID string
	Resource  string

	// ServicePrincipal is non-empty when the value names an AWS service
	// rather than an account.
	ServicePrincipal string

	// Root is true when the ARN denotes an account's root identity, which
	// grants access to the entire account rather than a scoped role or user.
	Root bool
}

var (
	accountIdPattern        = regexp.MustCompile(`^\d{12}$`)
	servicePrincipalPattern = regexp.MustCompile(`^[a-z0-9._-]+\.amazonaws\.com(\.cn)?$`)
)

// Parse parses a principal value.  Malformed "arn:" strings and values that
// are neither an ARN, an account id, nor a service principal return an error.
func Parse(value string) (ARN, error) {
	if value == "" {
		return ARN{}, fmt.Errorf("empty principal value")
	}
	if accountIdPattern.MatchString(value) {
		return ARN{Raw: value, AccountID: value}, nil
	}
	if servicePrincipalPattern.MatchString(value) {
		return ARN{Raw: value, ServicePrincipal: value}, nil
	}
	if !strings.HasPrefix(value, "arn:") {
		return ARN{}, fmt.Errorf("unrecognized principal value [%s]", value)
	}

	// arn:partition:service:region:account:resource
	parts := strings.SplitN(value, ":", 6)
	if len(parts) < 6 {
		return ARN{}, fmt.Errorf("malformed arn [%s]: expected at least 6 segments, got %d", value, len(parts))
	}
	parsed := ARN{
		Raw:       value,
		Partition: parts[1],
		Service:   parts[2],
		Region:    parts[3],
		AccountID: parts[4],
		Resource:  parts[5],
	}
	parsed.Root = parsed.Service == "iam" && parsed.Resource == "root"
	return parsed, nil
}

// IsServicePrincipal reports whether the value named an AWS service.
func (a ARN) IsServicePrincipal() bool {
	return a.ServicePrincipal != ""
}
