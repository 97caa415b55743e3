package record

import "testing"

func TestRawString(t *testing.T) {
	raw := Raw{
		Type: Customer,
		Fields: map[string]interface{}{
			"id":     float64(123),
			"name":   "Acme",
			"active": true,
			"blank":  nil,
		},
	}

	tests := []struct {
		key  string
		want string
	}{
		{"id", "123"},
		{"name", "Acme"},
		{"active", "true"},
		{"blank", ""},
		{"missing", ""},
	}

	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			if got := raw.String(tc.key); got != tc.want {
				t.Errorf("String(%q) = %q, want %q", tc.key, got, tc.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		raw      Raw
		title    string
		subtitle string
		url      string
	}{
		{
			name: "customer with full fields",
			raw: Raw{Type: Customer, Fields: map[string]interface{}{
				"id": "123", "companyname": "Acme Corporation",
				"email": "contact@acme.example", "phone": "555-0100",
			}},
			title:    "Acme Corporation",
			subtitle: "contact@acme.example • 555-0100",
			url:      "/app/common/entity/custjob.nl?id=123",
		},
		{
			name:     "customer without a name",
			raw:      Raw{Type: Customer, Fields: map[string]interface{}{"id": "9", "email": "x@y.example"}},
			title:    "Unnamed Customer",
			subtitle: "x@y.example",
			url:      "/app/common/entity/custjob.nl?id=9",
		},
		{
			name: "sales order",
			raw: Raw{Type: SalesOrder, Fields: map[string]interface{}{
				"id": "456", "tranid": "SO-2024-001", "total": float64(1500.5), "trandate": "2024-01-15",
			}},
			title:    "SO-2024-001",
			subtitle: "$1500.5 • 2024-01-15",
			url:      "/app/accounting/transactions/salesord.nl?id=456",
		},
		{
			name:     "invoice missing total drops the money side",
			raw:      Raw{Type: Invoice, Fields: map[string]interface{}{"id": "789", "tranid": "INV-2024-001", "trandate": "2024-02-01"}},
			title:    "INV-2024-001",
			subtitle: "2024-02-01",
			url:      "/app/accounting/transactions/custinvc.nl?id=789",
		},
		{
			name: "item prefers display name",
			raw: Raw{Type: Item, Fields: map[string]interface{}{
				"id": "101", "itemid": "PREM-001", "displayname": "Premium Service", "salesprice": "99.99",
			}},
			title:    "Premium Service",
			subtitle: "SKU: PREM-001 • $99.99",
			url:      "/app/common/item/item.nl?id=101",
		},
		{
			name:     "item falls back to item id",
			raw:      Raw{Type: Item, Fields: map[string]interface{}{"id": "102", "itemid": "BASIC-002"}},
			title:    "BASIC-002",
			subtitle: "SKU: BASIC-002",
			url:      "/app/common/item/item.nl?id=102",
		},
		{
			name: "employee joins names",
			raw: Raw{Type: Employee, Fields: map[string]interface{}{
				"id": "202", "firstname": "John", "lastname": "Smith", "email": "john@company.example",
			}},
			title:    "John Smith",
			subtitle: "john@company.example",
			url:      "/app/common/entity/employee.nl?id=202",
		},
		{
			name:     "employee with only last name",
			raw:      Raw{Type: Employee, Fields: map[string]interface{}{"id": "203", "lastname": "Okafor"}},
			title:    "Okafor",
			subtitle: "",
			url:      "/app/common/entity/employee.nl?id=203",
		},
		{
			name:     "vendor without a name",
			raw:      Raw{Type: Vendor, Fields: map[string]interface{}{"id": "303"}},
			title:    "Unnamed Vendor",
			subtitle: "",
			url:      "/app/common/entity/vendor.nl?id=303",
		},
		{
			name: "contact subtitle is company and email",
			raw: Raw{Type: Contact, Fields: map[string]interface{}{
				"id": "404", "firstname": "Mary", "lastname": "Johnson",
				"company": "Acme Corporation", "email": "mary@acme.example",
			}},
			title:    "Mary Johnson",
			subtitle: "Acme Corporation • mary@acme.example",
			url:      "/app/common/entity/contact.nl?id=404",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Format(tc.raw)
			if got.Title != tc.title {
				t.Errorf("Title = %q, want %q", got.Title, tc.title)
			}
			if got.Subtitle != tc.subtitle {
				t.Errorf("Subtitle = %q, want %q", got.Subtitle, tc.subtitle)
			}
			if got.TargetURL != tc.url {
				t.Errorf("TargetURL = %q, want %q", got.TargetURL, tc.url)
			}
			if got.Type != tc.raw.Type {
				t.Errorf("Type = %q, want %q", got.Type, tc.raw.Type)
			}
		})
	}
}
