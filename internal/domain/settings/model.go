package settings

import (
	"github.com/taxbridge/taxbridge/internal/taxsvc"
	"github.com/taxbridge/taxbridge/internal/types"
)

// ConnectionSettings holds the credentials and endpoint for one service
// connection.
type ConnectionSettings struct {
	URL           string `json:"url"`
	ClientNumber  string `json:"client_number"`
	ValidationKey string `json:"validation_key"`
}

// ChannelDefaults are the default code-field values for standard item and
// expense lines (the "ecommerce" channel). Values are reference-code ids
// resolved through the lookup cache.
type ChannelDefaults struct {
	Enable          bool   `json:"enable"`
	GroupLikeTaxes  bool   `json:"group_like_taxes"`
	SalesType       string `json:"sales_type"`
	RegulatoryType  string `json:"regulatory_type"`
	TaxExempt       string `json:"tax_exempt"`
	UnitType        string `json:"unit_type"`
	TaxIncluded     string `json:"tax_included"`
	TaxSitus        string `json:"tax_situs"`
	TransactionType string `json:"transaction_type"`
	ExemptReason    string `json:"exempt_reason"`
}

// SHDefaults are the default code-field values for SHIPPING and HANDLING
// lines, which resolve from header fields rather than line columns.
type SHDefaults struct {
	Enable         bool   `json:"enable"`
	SalesType      string `json:"sales_type"`
	RegulatoryType string `json:"regulatory_type"`
	TaxExempt      string `json:"tax_exempt"`
	UnitType       string `json:"unit_type"`
	TaxIncluded    string `json:"tax_included"`
	TaxSitus       string `json:"tax_situs"`
	ShipTransType  string `json:"ship_trans_type"`
	HandTransType  string `json:"hand_trans_type"`
	ExemptReason   string `json:"exempt_reason"`
}

// Industry enables industry-specific tax treatment.
type Industry struct {
	General bool `json:"general"`
	Telecom bool `json:"telecom"`
	Utility bool `json:"utility"`
}

// Features are subsidiary-level feature toggles.
type Features struct {
	SendSKU       bool `json:"send_sku"`
	MultiCurrency bool `json:"multi_currency"`
}

// Configuration is the subsidiary-scoped basic configuration record. The
// checkbox conversion happens once in the repository adapter, so all flags
// here are real booleans.
type Configuration struct {
	ID         string `json:"id"`
	Subsidiary string `json:"subsidiary"`

	Connection   ConnectionSettings `json:"connection_settings"`
	DIConnection ConnectionSettings `json:"di_connection_settings"`

	DefaultShipFromAddress taxsvc.Address `json:"default_ship_from_address"`

	EcomDefaults ChannelDefaults `json:"default_ecom_values"`
	SHDefaults   SHDefaults      `json:"sh_default_values"`
	Industry     Industry        `json:"industry"`
	Features     Features        `json:"settings"`

	types.BaseModel
}

// OverrideKind identifies which entity layer an override row belongs to.
type OverrideKind string

const (
	OverrideItem     OverrideKind = "item"
	OverrideCategory OverrideKind = "category"
	OverrideCustomer OverrideKind = "customer"
	OverrideVendor   OverrideKind = "vendor"
)

// Override is an entity-specific default layer: a populated field takes
// precedence over the channel default block.
type Override struct {
	ID       string       `json:"id"`
	Kind     OverrideKind `json:"kind"`
	EntityID string       `json:"entity_id"`

	SalesType       string `json:"sales_type"`
	RegulatoryType  string `json:"regulatory_type"`
	TaxExempt       string `json:"tax_exempt"`
	UnitType        string `json:"unit_type"`
	TaxIncluded     string `json:"tax_included"`
	TaxSitus        string `json:"tax_situs"`
	TransactionType string `json:"transaction_type"`
	ExemptReason    string `json:"exempt_reason"`

	types.BaseModel
}
