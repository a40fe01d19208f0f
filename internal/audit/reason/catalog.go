// Package reason holds the externally configured reason-code catalog. The
// ledger treats codes as opaque strings; the catalog only supplies display
// metadata, so unknown codes are stored as-is and fall back to the raw code.
package reason

import (
	"encoding/json"
	"fmt"
	"os"
)

// Entry is the display metadata for one reason code.
type Entry struct {
	Label    string `json:"label"`
	Category string `json:"category"`
}

// Catalog maps reason codes to display metadata. It is loaded once at startup
// and read-only afterwards.
type Catalog struct {
	entries map[string]Entry
}

// defaultEntries covers the codes the compliance console ships with. An
// external catalog file extends or overrides these.
var defaultEntries = map[string]Entry{
	"CUSTOMER_COMPLAINT":  {Label: "Customer complaint", Category: "support"},
	"FRAUD_INVESTIGATION": {Label: "Fraud investigation", Category: "risk"},
	"PAYMENT_DISPUTE":     {Label: "Payment dispute", Category: "finance"},
	"REGULATORY_REQUEST":  {Label: "Regulatory request", Category: "compliance"},
	"DATA_CORRECTION":     {Label: "Data correction", Category: "operations"},
	"EMERGENCY_ACCESS":    {Label: "Emergency access", Category: "compliance"},
	"SCHEDULED_MAINT":     {Label: "Scheduled maintenance", Category: "operations"},
	"DRIVER_SAFETY":       {Label: "Driver safety issue", Category: "safety"},
}

// NewCatalog returns a catalog with the built-in defaults.
func NewCatalog() *Catalog {
	entries := make(map[string]Entry, len(defaultEntries))
	for code, e := range defaultEntries {
		entries[code] = e
	}
	return &Catalog{entries: entries}
}

// Load reads a JSON file of code → entry mappings and merges it over the
// defaults. An empty path returns the defaults unchanged.
func Load(path string) (*Catalog, error) {
	c := NewCatalog()
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reason catalog: %w", err)
	}

	var external map[string]Entry
	if err := json.Unmarshal(data, &external); err != nil {
		return nil, fmt.Errorf("parse reason catalog: %w", err)
	}
	for code, e := range external {
		c.entries[code] = e
	}
	return c, nil
}

// Lookup returns the entry for a code. Unknown codes fall back to an entry
// showing the raw code so display never breaks.
func (c *Catalog) Lookup(code string) Entry {
	if e, ok := c.entries[code]; ok {
		return e
	}
	return Entry{Label: code, Category: "unknown"}
}

// Known reports whether the code is in the catalog.
func (c *Catalog) Known(code string) bool {
	_, ok := c.entries[code]
	return ok
}
