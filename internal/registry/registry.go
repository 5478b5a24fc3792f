// Package registry answers how an external account relates to the auditing
// organization: friendly (a known, trusted account), third party (a known
// vendor account), or unknown (not in the registry at all).
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/noobzero/security-monkey/internal/arn"
)

// Classification is the set of relationship tags that apply to an entity.
// It is a flag set so a lookup can carry more than one tag, and so illegal
// tags are unrepresentable.
type Classification uint8

const (
	Friendly Classification = 1 << iota
	ThirdParty
	Unknown
)

// CrossAccount covers every non-self relationship.
const CrossAccount = Friendly | ThirdParty | Unknown

func (c Classification) Has(flag Classification) bool        { return c&flag != 0 }
func (c Classification) Intersects(other Classification) bool { return c&other != 0 }

// Tags returns the string form of each flag, e.g. for report output.
func (c Classification) Tags() []string {
	var tags []string
	if c.Has(Friendly) {
		tags = append(tags, "FRIENDLY")
	}
	if c.Has(ThirdParty) {
		tags = append(tags, "THIRDPARTY")
	}
	if c.Has(Unknown) {
		tags = append(tags, "UNKNOWN")
	}
	return tags
}

func (c Classification) String() string {
	if c == 0 {
		return "NONE"
	}
	return strings.Join(c.Tags(), "|")
}

// Account is one known-accounts registry record.
type Account struct {
	AccountID  string `json:"accountId"`
	Name       string `json:"name"`
	Notes      string `json:"notes,omitempty"`
	ThirdParty bool   `json:"thirdParty"`
	Active     bool   `json:"active"`
	RoleArn    string `json:"roleArn,omitempty"`
}

// AccountRegistry classifies principal values against the known accounts.
type AccountRegistry interface {
	// Classify returns the relationship tags for a principal value in the
	// context of the account that owns the audited resource.  The result is
	// deterministic for a given (value, owner) pair.
	Classify(value string, ownerAccountID string) (Classification, error)
	// Lookup returns the registry record for an account id.
	Lookup(accountID string) (Account, bool)
	// Accounts returns every registry record.
	Accounts() []Account
}

type _AccountRegistry struct {
	accounts map[string]Account
	ordered  []Account
}

// NewAccountRegistry builds a registry from known-account records.
func NewAccountRegistry(accounts []Account) (AccountRegistry, error) {
	byId := make(map[string]Account, len(accounts))
	for _, account := range accounts {
		if account.AccountID == "" {
			return nil, fmt.Errorf("registry account [%s] has no account id", account.Name)
		}
		if _, exists := byId[account.AccountID]; exists {
			return nil, fmt.Errorf("duplicate registry account id [%s]", account.AccountID)
		}
		byId[account.AccountID] = account
	}
	return &_AccountRegistry{
		accounts: byId,
		ordered:  append([]Account(nil), accounts...),
	}, nil
}

// LoadAccounts decodes a JSON array of registry records.
func LoadAccounts(raw []byte) ([]Account, error) {
	var accounts []Account
	if err := json.Unmarshal(raw, &accounts); err != nil {
		return nil, fmt.Errorf("decoding accounts registry: %w", err)
	}
	return accounts, nil
}

func (r *_AccountRegistry) Classify(value string, ownerAccountID string) (Classification, error) {
	if ownerAccountID == "" {
		return 0, errors.New("owning account id is required for classification")
	}

	accountID := resolveAccountID(value)
	if accountID == "" {
		// Values with no resolvable account (wildcards, opaque ids) cannot
		// be tied to any known relationship.
		return Unknown, nil
	}
	if accountID == ownerAccountID {
		return 0, nil
	}
	account, ok := r.accounts[accountID]
	if !ok {
		return Unknown, nil
	}
	if account.ThirdParty {
		return ThirdParty, nil
	}
	return Friendly, nil
}

func (r *_AccountRegistry) Lookup(accountID string) (Account, bool) {
	account, ok := r.accounts[accountID]
	return account, ok
}

func (r *_AccountRegistry) Accounts() []Account {
	return append([]Account(nil), r.ordered...)
}

// resolveAccountID extracts the account id a principal value belongs to.
// Service principals carry no account and resolve to empty.
func resolveAccountID(value string) string {
	parsed, err := arn.Parse(value)
	if err != nil || parsed.IsServicePrincipal() {
		return ""
	}
	return parsed.AccountID
}
