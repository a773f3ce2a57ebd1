package types

import (
	"slices"

	ierr "github.com/taxbridge/taxbridge/internal/errors"
)

// LookupCategory names a reference-code table resolved through the batch
// lookup cache.
type LookupCategory string

const (
	LookupTaxIncludedCode LookupCategory = "tax_included_code"
	LookupSitusRule       LookupCategory = "tax_situs_rule"
	LookupTaxType         LookupCategory = "tax_type"
	LookupRegulatoryCode  LookupCategory = "regulatory_code"
	LookupExemptionCode   LookupCategory = "exemption_code"
	LookupExemptionReason LookupCategory = "exempt_reason"
	LookupCustomerType    LookupCategory = "customer_type"
	LookupTransactionType LookupCategory = "transaction_type"
	LookupUnitType        LookupCategory = "unit_type"
)

// LookupCategories lists every category in batch resolution order.
var LookupCategories = []LookupCategory{
	LookupTaxIncludedCode,
	LookupSitusRule,
	LookupTaxType,
	LookupRegulatoryCode,
	LookupExemptionCode,
	LookupExemptionReason,
	LookupCustomerType,
	LookupTransactionType,
	LookupUnitType,
}

func (c LookupCategory) Validate() error {
	if !slices.Contains(LookupCategories, c) {
		return ierr.NewError("invalid lookup category").
			WithHintf("Lookup category %s is not supported", c).
			Mark(ierr.ErrValidation)
	}
	return nil
}
