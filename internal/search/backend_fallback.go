package search

import (
	"context"
	"strings"

	"spotlight-mcp-server/internal/record"
	"spotlight-mcp-server/internal/session"
)

// fallbackBackend serves a deterministic offline dataset for demo use and
// for sessions that never resolved an account id. No network is involved.
type fallbackBackend struct {
	rows []record.Raw
}

// NewFallbackBackend builds the offline strategy over the demo dataset.
func NewFallbackBackend() Backend {
	return &fallbackBackend{rows: demoDataset()}
}

func (b *fallbackBackend) Name() string { return "offline" }

func (b *fallbackBackend) Search(_ context.Context, intent QueryIntent, _ session.Context) ([]record.Raw, error) {
	q := strings.ToLower(intent.Query)
	var out []record.Raw
	for _, raw := range b.rows {
		if raw.Type != intent.Type {
			continue
		}
		res := record.Format(raw)
		searchable := strings.ToLower(res.Title + " " + res.Subtitle + " " + res.ID)
		if strings.Contains(searchable, q) {
			out = append(out, raw)
		}
	}
	return out, nil
}

// demoDataset covers every record type with stable, recognizable entries.
func demoDataset() []record.Raw {
	return []record.Raw{
		{Type: record.Customer, Fields: map[string]interface{}{
			"id": "123", "companyname": "Acme Corporation",
			"email": "contact@acme.example", "phone": "555-0100",
			"entitystatus": "Active",
		}},
		{Type: record.SalesOrder, Fields: map[string]interface{}{
			"id": "456", "tranid": "SO-2024-001",
			"total": "45,000.00", "trandate": "2024-02-12", "status": "Pending Fulfillment",
		}},
		{Type: record.Invoice, Fields: map[string]interface{}{
			"id": "789", "tranid": "INV-2024-001",
			"total": "4,500.00", "trandate": "2024-03-01", "status": "Paid",
		}},
		{Type: record.Item, Fields: map[string]interface{}{
			"id": "101", "itemid": "PREM-001", "displayname": "Premium Service",
			"salesprice": "99.99", "quantityavailable": "250",
		}},
		{Type: record.Employee, Fields: map[string]interface{}{
			"id": "202", "firstname": "John", "lastname": "Smith",
			"email": "john@company.example", "phone": "555-0101",
		}},
		{Type: record.Vendor, Fields: map[string]interface{}{
			"id": "303", "companyname": "Globex Supplies",
			"email": "orders@globex.example", "phone": "555-0102",
		}},
		{Type: record.Contact, Fields: map[string]interface{}{
			"id": "404", "firstname": "Mary", "lastname": "Johnson",
			"company": "Acme Corporation", "email": "mary@acme.example",
		}},
	}
}
