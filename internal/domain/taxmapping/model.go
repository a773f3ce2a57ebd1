package taxmapping

import (
	"github.com/taxbridge/taxbridge/internal/types"
)

// Mapping is one tax-code mapping rule row resolving a service tax type in
// a jurisdiction to a local tax-code/tax-type pair. Default rows are the
// country-level fallback used when no exact match exists.
type Mapping struct {
	ID              string `json:"id"`
	State           string `json:"state"`
	Country         string `json:"country"`
	TaxTypeCode     string `json:"tax_type_code"`
	TaxIncludedCode string `json:"tax_included_code"`
	Subsidiary      string `json:"subsidiary"`
	IsDefault       bool   `json:"is_default"`
	TaxCode         int64  `json:"tax_code"`
	TaxType         int64  `json:"tax_type"`

	types.BaseModel
}

// Pair is a resolved (TaxCode, TaxType) pair. Unresolved mappings degrade
// to the (-1, -1) sentinel instead of aborting the calculation.
type Pair struct {
	TaxCode int64
	TaxType int64
}

// UnresolvedPair is the sentinel for a mapping miss.
var UnresolvedPair = Pair{TaxCode: -1, TaxType: -1}

// Nexus is a jurisdiction the business collects tax in.
type Nexus struct {
	ID          string `json:"id"`
	Country     string `json:"country"`
	Description string `json:"description"`

	types.BaseModel
}

// TaxCategory is one reporting category injected into stored responses.
// Code is positions 4-5 of the service's raw tax type code.
type TaxCategory struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Description string `json:"description"`

	types.BaseModel
}
