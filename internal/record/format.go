package record

import (
	"fmt"
	"strings"
)

// SearchResult is the uniform display record produced from a raw backend
// row. Immutable once produced.
type SearchResult struct {
	ID        string `json:"id"`
	Type      Type   `json:"type"`
	Title     string `json:"title"`
	Subtitle  string `json:"subtitle"`
	TargetURL string `json:"target_url"`
}

const subtitleSeparator = " • "

// joinSubtitle joins two subtitle sides with a middle dot, dropping the
// separator and the missing side when either is empty.
func joinSubtitle(left, right string) string {
	switch {
	case left == "":
		return right
	case right == "":
		return left
	default:
		return left + subtitleSeparator + right
	}
}

// money prefixes a backend amount with "$", or returns "" when absent.
func money(amount string) string {
	if amount == "" {
		return ""
	}
	return "$" + amount
}

// fullName joins first and last name, tolerating either being absent.
func fullName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}

// Format maps one raw backend row to its display record. Missing fields
// render as empty strings; only customer and vendor titles fall back to an
// "Unnamed" placeholder when the company name is absent. The switch is
// exhaustive over the enumeration.
func Format(raw Raw) SearchResult {
	id := raw.String("id")
	res := SearchResult{
		ID:        id,
		Type:      raw.Type,
		TargetURL: fmt.Sprintf(raw.Type.Definition().URLPath, id),
	}

	switch raw.Type {
	case Customer:
		res.Title = raw.String("companyname")
		if res.Title == "" {
			res.Title = "Unnamed Customer"
		}
		res.Subtitle = joinSubtitle(raw.String("email"), raw.String("phone"))
	case SalesOrder, Invoice:
		res.Title = raw.String("tranid")
		res.Subtitle = joinSubtitle(money(raw.String("total")), raw.String("trandate"))
	case Item:
		res.Title = raw.String("displayname")
		if res.Title == "" {
			res.Title = raw.String("itemid")
		}
		sku := raw.String("itemid")
		if sku != "" {
			sku = "SKU: " + sku
		}
		res.Subtitle = joinSubtitle(sku, money(raw.String("salesprice")))
	case Employee:
		res.Title = fullName(raw.String("firstname"), raw.String("lastname"))
		res.Subtitle = joinSubtitle(raw.String("email"), raw.String("phone"))
	case Vendor:
		res.Title = raw.String("companyname")
		if res.Title == "" {
			res.Title = "Unnamed Vendor"
		}
		res.Subtitle = joinSubtitle(raw.String("email"), raw.String("phone"))
	case Contact:
		res.Title = fullName(raw.String("firstname"), raw.String("lastname"))
		res.Subtitle = joinSubtitle(raw.String("company"), raw.String("email"))
	default:
		panic(fmt.Sprintf("record: no formatter for type %q", string(raw.Type)))
	}
	return res
}
