package entity

import "strings"

// Kind is the entity-kind token the webshop uses to route a remote action.
type Kind string

const (
	KindAuthor          Kind = "author"
	KindBinding         Kind = "binding"
	KindCountry         Kind = "country"
	KindCustomer        Kind = "customer"
	KindManufacturer    Kind = "manufacturer"
	KindProduct         Kind = "product"
	KindProductCategory Kind = "product_category"
	KindProductSeries   Kind = "product_series"
	KindSupplier        Kind = "supplier"
)

// Kinds lists every kind in the order a batch pushes them: referenced
// records go before the records that point at them.
var Kinds = []Kind{
	KindCountry,
	KindAuthor,
	KindBinding,
	KindManufacturer,
	KindSupplier,
	KindProductSeries,
	KindProductCategory,
	KindCustomer,
	KindProduct,
}

func (k Kind) String() string {
	return string(k)
}

// Element is the XML root element of a single record.
func (k Kind) Element() string {
	return string(k)
}

// ListElement is the XML root element of a list response.
func (k Kind) ListElement() string {
	return string(k) + "_list"
}

// Table is the name the maintenance actions use for this kind.
func (k Kind) Table() string {
	return string(k)
}

// UpdateAction is the create-or-update action token, e.g. "updateProductCategory".
func (k Kind) UpdateAction() string {
	return "update" + k.pascal()
}

func (k Kind) pascal() string {
	parts := strings.Split(string(k), "_")
	var sb strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		sb.WriteString(strings.ToUpper(p[:1]))
		sb.WriteString(p[1:])
	}
	return sb.String()
}

// ParseKind resolves a kind token, reporting false for unknown tokens.
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}
