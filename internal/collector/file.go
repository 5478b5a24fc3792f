package collector

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/noobzero/security-monkey/internal/auditor"
	"github.com/noobzero/security-monkey/internal/confpath"
)

type itemDocument struct {
	Identifier   string          `json:"identifier"`
	ResourceType string          `json:"resourceType"`
	AccountID    string          `json:"accountId"`
	Config       json.RawMessage `json:"config"`
}

// ReadItems decodes previously collected item snapshots from a JSON array of
// {identifier, resourceType, accountId, config} documents.  Used by the
// offline CLI path.
func ReadItems(r io.Reader) ([]auditor.Item, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading items: %w", err)
	}
	var docs []itemDocument
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("decoding items: %w", err)
	}

	items := make([]auditor.Item, 0, len(docs))
	for _, doc := range docs {
		if doc.Identifier == "" {
			return nil, fmt.Errorf("item with empty identifier in items file")
		}
		config := confpath.NullValue()
		if len(doc.Config) > 0 {
			config, err = confpath.FromJSON(doc.Config)
			if err != nil {
				return nil, fmt.Errorf("item [%s]: %w", doc.Identifier, err)
			}
		}
		items = append(items, auditor.Item{
			Identifier:   doc.Identifier,
			ResourceType: doc.ResourceType,
			AccountID:    doc.AccountID,
			Config:       config,
		})
	}
	return items, nil
}
