// Package findings holds the finding model and an append-safe in-memory
// recorder the checks write into.
package findings

import (
	"strings"
	"sync"
	"time"

	"github.com/noobzero/security-monkey/internal/auditor"
)

// Finding categories, one per check family.
const (
	CategoryInternet         = "internet"
	CategoryFriendly         = "friendly"
	CategoryThirdParty       = "thirdparty"
	CategoryUnknown          = "unknown"
	CategoryRootCrossAccount = "root-cross-account"
)

// Finding is one recorded check result: the item, the responsible entity and
// the actions it was granted.
type Finding struct {
	Category       string    `json:"category"`
	ItemIdentifier string    `json:"itemIdentifier"`
	ResourceType   string    `json:"resourceType"`
	AccountID      string    `json:"accountId"`
	EntityCategory string    `json:"entityCategory"`
	EntityValue    string    `json:"entityValue"`
	Actions        []string  `json:"actions"`
	Detected       time.Time `json:"detected"`
}

// CsvHeaders returns the column headers for finding reports.
func CsvHeaders() []string {
	return []string{"category", "item", "resourceType", "accountId", "entityCategory", "entityValue", "actions", "detected"}
}

// CsvRecord renders the finding as one report row.
func (f Finding) CsvRecord() []string {
	return []string{
		f.Category,
		f.ItemIdentifier,
		f.ResourceType,
		f.AccountID,
		f.EntityCategory,
		f.EntityValue,
		strings.Join(f.Actions, " "),
		f.Detected.Format(time.RFC3339),
	}
}

// Collector is a Recorder that appends findings in memory.  Appends are
// mutex-guarded so items can be audited in parallel against one collector.
type Collector struct {
	mu       sync.Mutex
	findings []Finding
	now      func() time.Time
}

func NewCollector() *Collector {
	return &Collector{now: time.Now}
}

func (c *Collector) record(category string, item auditor.Item, entity auditor.Entity, actions []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.findings = append(c.findings, Finding{
		Category:       category,
		ItemIdentifier: item.Identifier,
		ResourceType:   item.ResourceType,
		AccountID:      item.AccountID,
		EntityCategory: entity.Category,
		EntityValue:    entity.Value,
		Actions:        append([]string(nil), actions...),
		Detected:       c.now().UTC(),
	})
}

func (c *Collector) RecordInternetAccess(item auditor.Item, entity auditor.Entity, actions []string) {
	c.record(CategoryInternet, item, entity, actions)
}

func (c *Collector) RecordFriendlyAccess(item auditor.Item, entity auditor.Entity, actions []string) {
	c.record(CategoryFriendly, item, entity, actions)
}

func (c *Collector) RecordThirdPartyAccess(item auditor.Item, entity auditor.Entity, actions []string) {
	c.record(CategoryThirdParty, item, entity, actions)
}

func (c *Collector) RecordUnknownAccess(item auditor.Item, entity auditor.Entity, actions []string) {
	c.record(CategoryUnknown, item, entity, actions)
}

func (c *Collector) RecordCrossAccountRoot(item auditor.Item, entity auditor.Entity, actions []string) {
	c.record(CategoryRootCrossAccount, item, entity, actions)
}

// Findings returns a snapshot of everything recorded so far.
func (c *Collector) Findings() []Finding {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Finding(nil), c.findings...)
}

func (c *Collector) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.findings)
}

// Reset discards recorded findings, e.g. between items when one collector is
// reused to derive per-item compliance.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.findings = nil
}
