package record

import (
	"fmt"
	"strconv"
	"strings"
)

// Type identifies one searchable NetSuite record category.
type Type string

const (
	Customer   Type = "customer"
	SalesOrder Type = "salesorder"
	Invoice    Type = "invoice"
	Item       Type = "item"
	Employee   Type = "employee"
	Vendor     Type = "vendor"
	Contact    Type = "contact"
)

// AllTypes returns every record type in the fixed enumeration order.
// Query fan-out and ranking stability both depend on this order.
func AllTypes() []Type {
	return []Type{Customer, SalesOrder, Invoice, Item, Employee, Vendor, Contact}
}

// ParseType maps a wire token ("customer", "salesorder", ...) to a Type.
func ParseType(s string) (Type, bool) {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case Customer:
		return Customer, true
	case SalesOrder:
		return SalesOrder, true
	case Invoice:
		return Invoice, true
	case Item:
		return Item, true
	case Employee:
		return Employee, true
	case Vendor:
		return Vendor, true
	case Contact:
		return Contact, true
	}
	return "", false
}

// Definition is the static backend configuration for one record type:
// which table to query, which columns to fetch, which fields the query
// predicate applies to, and where the record's page lives.
type Definition struct {
	// Label is the human-readable plural shown in the overlay filter row.
	Label string
	// Table is the SuiteQL table name.
	Table string
	// Columns are the backend fields fetched for formatting (id excluded).
	Columns []string
	// MatchFields are the columns the query substring predicate applies to.
	MatchFields []string
	// OrderBy is the SuiteQL ordering clause body.
	OrderBy string
	// PageSearchType is the N/search type constant name for the in-page API.
	PageSearchType string
	// URLPath is the record page path template; %s is the internal id.
	URLPath string
}

// Definition returns the static configuration for the type. The switch is
// exhaustive over the enumeration; a new Type will not compile until it is
// handled here and in Format.
func (t Type) Definition() Definition {
	switch t {
	case Customer:
		return Definition{
			Label:          "Customers",
			Table:          "customer",
			Columns:        []string{"companyname", "email", "phone", "entitystatus"},
			MatchFields:    []string{"companyname", "email"},
			OrderBy:        "companyname",
			PageSearchType: "CUSTOMER",
			URLPath:        "/app/common/entity/custjob.nl?id=%s",
		}
	case SalesOrder:
		return Definition{
			Label:          "Sales Orders",
			Table:          "salesorder",
			Columns:        []string{"tranid", "entity", "total", "trandate", "status"},
			MatchFields:    []string{"tranid"},
			OrderBy:        "trandate DESC",
			PageSearchType: "SALES_ORDER",
			URLPath:        "/app/accounting/transactions/salesord.nl?id=%s",
		}
	case Invoice:
		return Definition{
			Label:          "Invoices",
			Table:          "invoice",
			Columns:        []string{"tranid", "entity", "total", "trandate", "status"},
			MatchFields:    []string{"tranid"},
			OrderBy:        "trandate DESC",
			PageSearchType: "INVOICE",
			URLPath:        "/app/accounting/transactions/custinvc.nl?id=%s",
		}
	case Item:
		return Definition{
			Label:          "Items",
			Table:          "item",
			Columns:        []string{"itemid", "displayname", "salesprice", "quantityavailable"},
			MatchFields:    []string{"itemid", "displayname"},
			OrderBy:        "itemid",
			PageSearchType: "ITEM",
			URLPath:        "/app/common/item/item.nl?id=%s",
		}
	case Employee:
		return Definition{
			Label:          "Employees",
			Table:          "employee",
			Columns:        []string{"entityid", "firstname", "lastname", "email", "phone"},
			MatchFields:    []string{"firstname", "lastname", "email"},
			OrderBy:        "lastname, firstname",
			PageSearchType: "EMPLOYEE",
			URLPath:        "/app/common/entity/employee.nl?id=%s",
		}
	case Vendor:
		return Definition{
			Label:          "Vendors",
			Table:          "vendor",
			Columns:        []string{"companyname", "email", "phone"},
			MatchFields:    []string{"companyname", "email"},
			OrderBy:        "companyname",
			PageSearchType: "VENDOR",
			URLPath:        "/app/common/entity/vendor.nl?id=%s",
		}
	case Contact:
		return Definition{
			Label:          "Contacts",
			Table:          "contact",
			Columns:        []string{"firstname", "lastname", "email", "phone", "company"},
			MatchFields:    []string{"firstname", "lastname", "email"},
			OrderBy:        "lastname, firstname",
			PageSearchType: "CONTACT",
			URLPath:        "/app/common/entity/contact.nl?id=%s",
		}
	}
	panic(fmt.Sprintf("record: no definition for type %q", string(t)))
}

// Raw is one unformatted backend row tagged with the record type that
// produced it.
type Raw struct {
	Type   Type
	Fields map[string]interface{}
}

// String returns the named field rendered as text, or "" when absent.
// Numeric JSON values are rendered without a trailing exponent or zeros.
func (r Raw) String(key string) string {
	v, ok := r.Fields[key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
