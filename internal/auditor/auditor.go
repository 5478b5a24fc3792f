// Package auditor inspects resource configuration snapshots for embedded
// resource policies and classifies the access they grant: open internet
// access, access granted to friendly or third-party accounts, access granted
// to accounts missing from the registry, and access granted to a
// cross-account root identity.
package auditor

import (
	"errors"
	"fmt"

	"github.com/noobzero/security-monkey/internal/arn"
	"github.com/noobzero/security-monkey/internal/confpath"
	"github.com/noobzero/security-monkey/internal/policy"
	"github.com/noobzero/security-monkey/internal/registry"
)

// Item is one audited resource configuration snapshot.  It is produced by a
// collection stage and read-only to the checks.
type Item struct {
	Identifier   string
	ResourceType string
	AccountID    string
	Config       confpath.Value
}

// Entity is a classified principal reference.
type Entity struct {
	Category string
	Value    string
}

// Everyone is the synthetic entity for the unauthenticated wildcard principal.
func Everyone() Entity {
	return Entity{Category: policy.WhoCategoryPrincipal, Value: "*"}
}

func entityFromWho(who policy.Who) Entity {
	return Entity{Category: who.Category, Value: who.Value}
}

// Recorder receives findings from the checks.  Implementations must tolerate
// concurrent calls when the caller audits items in parallel; the checks
// themselves hold no state across items.
type Recorder interface {
	RecordInternetAccess(item Item, entity Entity, actions []string)
	RecordFriendlyAccess(item Item, entity Entity, actions []string)
	RecordThirdPartyAccess(item Item, entity Entity, actions []string)
	RecordUnknownAccess(item Item, entity Entity, actions []string)
	RecordCrossAccountRoot(item Item, entity Entity, actions []string)
}

// ResourcePolicyAuditor runs the cross-account checks over one item at a
// time.  Resource types with policies at non-default locations are distinct
// configured instances, not subtypes.
type ResourcePolicyAuditor interface {
	// LoadPolicies returns every resource policy embedded in the item's
	// configuration.  An empty result is a valid outcome: the item simply
	// has no resource policy.
	LoadPolicies(item Item) ([]policy.Policy, error)
	// CheckInternetAccessible records an internet finding per policy that is
	// reachable by an unauthenticated principal.
	CheckInternetAccessible(item Item) error
	// CheckFriendlyCrossAccount records a finding per allow-statement entity
	// classified as a friendly account.
	CheckFriendlyCrossAccount(item Item) error
	// CheckThirdPartyCrossAccount records a finding per allow-statement
	// entity classified as a third-party account.
	CheckThirdPartyCrossAccount(item Item) error
	// CheckUnknownCrossAccount records a finding per allow-statement entity
	// whose account is not in the registry.  Wildcard grants are owned by
	// the internet check and service principals are not accounts, so both
	// are excluded here.
	CheckUnknownCrossAccount(item Item) error
	// CheckRootCrossAccount records a finding per allow-statement entity
	// whose ARN denotes another account's root identity.  Fires
	// independently of the friendly/thirdparty/unknown checks.
	CheckRootCrossAccount(item Item) error
	// CheckAll runs every check against the item.
	CheckAll(item Item) error
}

type _ResourcePolicyAuditor struct {
	policyKeys []string  // extraction paths into the item configuration
	separator  string    // path segment separator
	inspector  Inspector // account relationship classification
	recorder   Recorder  // finding sink
}

type ResourcePolicyAuditorConfig struct {
	// PolicyKeys are the extraction paths where resource policies live in
	// the configuration tree.  Most resource types keep a single policy
	// under "Policy"; types with several policies override this list.
	PolicyKeys []string
	// Separator between path segments, DefaultPolicyKeySeparator when empty.
	Separator string
	Inspector Inspector
	Recorder  Recorder
}

// DefaultPolicyKeySeparator keeps extraction paths unambiguous even when
// configuration keys contain '.'.
const DefaultPolicyKeySeparator = confpath.DefaultSeparator

func NewResourcePolicyAuditor(config ResourcePolicyAuditorConfig) (ResourcePolicyAuditor, error) {
	if config.Inspector == nil {
		return nil, errors.New("inspector is required")
	}
	if config.Recorder == nil {
		return nil, errors.New("recorder is required")
	}
	policyKeys := config.PolicyKeys
	if len(policyKeys) == 0 {
		policyKeys = []string{"Policy"}
	}
	separator := config.Separator
	if separator == "" {
		separator = DefaultPolicyKeySeparator
	}
	return &_ResourcePolicyAuditor{
		policyKeys: append([]string(nil), policyKeys...),
		separator:  separator,
		inspector:  config.Inspector,
		recorder:   config.Recorder,
	}, nil
}

// LoadPolicies walks each configured extraction path.  A path absent from
// the item is skipped silently; a malformed policy document at a present
// path propagates as a parse failure.
func (a *_ResourcePolicyAuditor) LoadPolicies(item Item) ([]policy.Policy, error) {
	var policies []policy.Policy
	for _, key := range a.policyKeys {
		matches, err := confpath.Values(item.Config, key, a.separator)
		if errors.Is(err, confpath.ErrPathNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, match := range matches {
			if match.Empty() {
				continue
			}
			if match.Kind() != confpath.Array {
				parsed, err := policy.Parse(match)
				if err != nil {
					return nil, fmt.Errorf("item [%s] policy at [%s]: %w", item.Identifier, key, err)
				}
				policies = append(policies, parsed)
				continue
			}
			// a path may hold a list of policy documents; flatten one level
			for _, element := range match.Arr() {
				if element.Empty() {
					continue
				}
				parsed, err := policy.Parse(element)
				if err != nil {
					return nil, fmt.Errorf("item [%s] policy at [%s]: %w", item.Identifier, key, err)
				}
				policies = append(policies, parsed)
			}
		}
	}
	return policies, nil
}

func (a *_ResourcePolicyAuditor) CheckInternetAccessible(item Item) error {
	policies, err := a.LoadPolicies(item)
	if err != nil {
		return err
	}
	for _, pol := range policies {
		if pol.IsInternetAccessible() {
			a.recorder.RecordInternetAccess(item, Everyone(), pol.InternetAccessibleActions())
		}
	}
	return nil
}

func (a *_ResourcePolicyAuditor) CheckFriendlyCrossAccount(item Item) error {
	return a.checkTaggedCrossAccount(item, registry.Friendly, a.recorder.RecordFriendlyAccess)
}

func (a *_ResourcePolicyAuditor) CheckThirdPartyCrossAccount(item Item) error {
	return a.checkTaggedCrossAccount(item, registry.ThirdParty, a.recorder.RecordThirdPartyAccess)
}

// checkTaggedCrossAccount classifies every entity an allow statement grants
// access to and records a finding when the target tag applies.
func (a *_ResourcePolicyAuditor) checkTaggedCrossAccount(item Item, tag registry.Classification, record func(Item, Entity, []string)) error {
	policies, err := a.LoadPolicies(item)
	if err != nil {
		return err
	}
	for _, pol := range policies {
		for _, statement := range pol.Statements {
			if statement.Effect != policy.EffectAllow {
				continue
			}
			for _, who := range statement.WhosAllowed() {
				entity := entityFromWho(who)
				classification, err := a.inspector.InspectEntity(entity, item)
				if err != nil {
					return err
				}
				if classification.Has(tag) {
					record(item, entity, statement.Actions)
				}
			}
		}
	}
	return nil
}

func (a *_ResourcePolicyAuditor) CheckUnknownCrossAccount(item Item) error {
	policies, err := a.LoadPolicies(item)
	if err != nil {
		return err
	}
	for _, pol := range policies {
		// internet exposure is owned by the internet check; do not also
		// report the wildcard grant as an unknown account
		if pol.IsInternetAccessible() {
			continue
		}
		for _, statement := range pol.Statements {
			if statement.Effect != policy.EffectAllow {
				continue
			}
			for _, who := range statement.WhosAllowed() {
				if who.Category == policy.WhoCategoryPrincipal && who.Value == "*" {
					continue
				}
				if who.Category == policy.WhoCategoryPrincipal {
					// service principals are not unknown accounts
					if parsed, err := arn.Parse(who.Value); err == nil && parsed.IsServicePrincipal() {
						continue
					}
				}
				entity := entityFromWho(who)
				classification, err := a.inspector.InspectEntity(entity, item)
				if err != nil {
					return err
				}
				if classification.Has(registry.Unknown) {
					a.recorder.RecordUnknownAccess(item, entity, statement.Actions)
				}
			}
		}
	}
	return nil
}

func (a *_ResourcePolicyAuditor) CheckRootCrossAccount(item Item) error {
	policies, err := a.LoadPolicies(item)
	if err != nil {
		return err
	}
	for _, pol := range policies {
		for _, statement := range pol.Statements {
			if statement.Effect != policy.EffectAllow {
				continue
			}
			for _, who := range statement.WhosAllowed() {
				if who.Category != policy.WhoCategoryArn && who.Category != policy.WhoCategoryPrincipal {
					continue
				}
				if who.Value == "*" {
					continue
				}
				parsed, err := arn.Parse(who.Value)
				if err != nil {
					return fmt.Errorf("item [%s] root cross-account check: %w", item.Identifier, err)
				}
				if !parsed.Root {
					continue
				}
				entity := entityFromWho(who)
				classification, err := a.inspector.InspectEntity(entity, item)
				if err != nil {
					return err
				}
				if classification.Intersects(registry.CrossAccount) {
					a.recorder.RecordCrossAccountRoot(item, entity, statement.Actions)
				}
			}
		}
	}
	return nil
}

func (a *_ResourcePolicyAuditor) CheckAll(item Item) error {
	checks := []func(Item) error{
		a.CheckInternetAccessible,
		a.CheckFriendlyCrossAccount,
		a.CheckThirdPartyCrossAccount,
		a.CheckUnknownCrossAccount,
		a.CheckRootCrossAccount,
	}
	var errs []error
	for _, check := range checks {
		if err := check(item); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
