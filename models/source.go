// Package models defines data structures for the sourcing agent.
package models

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Source is one supplier entry from the catalog. URL is the only field the
// crawler requires; the rest are seed values merged into extraction output.
type Source struct {
	Name     string   `json:"name,omitempty"`
	URL      string   `json:"url"`
	Products []string `json:"products,omitempty"`
	Services []string `json:"services,omitempty"`
	Location string   `json:"location,omitempty"`
}

// StateSources groups the suppliers catalogued for a single state.
type StateSources struct {
	Materials     []Source `json:"materials,omitempty"`
	Equipment     []Source `json:"equipment,omitempty"`
	Dispensaries  []Source `json:"dispensaries,omitempty"`
	Manufacturers []Source `json:"manufacturers,omitempty"`
	LegalStatus   string   `json:"legal_status,omitempty"`
}

// NationalSuppliers holds suppliers that operate across state lines.
type NationalSuppliers struct {
	Materials []Source `json:"materials,omitempty"`
	Equipment []Source `json:"equipment,omitempty"`
	Packaging []Source `json:"packaging,omitempty"`
	Testing   []Source `json:"testing,omitempty"`
}

// CatalogMetadata carries bookkeeping fields from the catalog file.
type CatalogMetadata struct {
	LastUpdated string `json:"last_updated,omitempty"`
}

// Catalog is the nested source catalog read once per crawl run. Absent
// sections decode as empty.
type Catalog struct {
	PreferredSources   []Source                `json:"preferred_sources,omitempty"`
	SourcesByState     map[string]StateSources `json:"sources_by_state,omitempty"`
	NationalSuppliers  NationalSuppliers       `json:"national_suppliers"`
	ConsultingServices []Source                `json:"consulting_services,omitempty"`
	Metadata           CatalogMetadata         `json:"metadata"`

	stateOrder []string
}

// UnmarshalJSON decodes the catalog and additionally records the key order
// of sources_by_state, which map decoding discards.
func (c *Catalog) UnmarshalJSON(data []byte) error {
	type plain Catalog
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = Catalog(p)
	c.stateOrder = stateKeyOrder(data)
	return nil
}

// StateOrder returns state names in catalog-file order. Catalogs built in
// code have no file order; those fall back to sorted names so iteration
// stays deterministic.
func (c *Catalog) StateOrder() []string {
	if len(c.stateOrder) == len(c.SourcesByState) && len(c.stateOrder) > 0 {
		return c.stateOrder
	}
	names := make([]string, 0, len(c.SourcesByState))
	for name := range c.SourcesByState {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func stateKeyOrder(data []byte) []string {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil
	}
	raw, ok := top["sources_by_state"]
	if !ok {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil
	}

	var order []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil
		}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil
		}
		order = append(order, key)
	}
	return order
}
