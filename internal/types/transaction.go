package types

import (
	ierr "github.com/taxbridge/taxbridge/internal/errors"
)

// RecordType identifies the ERP transaction record type being priced.
type RecordType string

const (
	RecordTypeSalesOrder          RecordType = "salesorder"
	RecordTypeInvoice             RecordType = "invoice"
	RecordTypeEstimate            RecordType = "estimate"
	RecordTypeOpportunity         RecordType = "opportunity"
	RecordTypeCashSale            RecordType = "cashsale"
	RecordTypeCashRefund          RecordType = "cashrefund"
	RecordTypeCreditMemo          RecordType = "creditmemo"
	RecordTypeReturnAuth          RecordType = "returnauthorization"
	RecordTypePurchaseOrder       RecordType = "purchaseorder"
	RecordTypeVendorBill          RecordType = "vendorbill"
	RecordTypeVendorReturnAuth    RecordType = "vendorreturnauthorization"
	RecordTypeVendorCredit        RecordType = "vendorcredit"
	RecordTypePurchaseRequisition RecordType = "purchaserequisition"
)

// IsReturn reports whether the record type reverses a prior document, which
// flips the revenue sign and inherits the original transaction date.
func (r RecordType) IsReturn() bool {
	switch r {
	case RecordTypeCreditMemo,
		RecordTypeCashRefund,
		RecordTypeReturnAuth,
		RecordTypeVendorCredit,
		RecordTypeVendorReturnAuth:
		return true
	}
	return false
}

// IsPurchase reports whether the record type is a purchase-side document.
func (r RecordType) IsPurchase() bool {
	switch r {
	case RecordTypeVendorBill,
		RecordTypeVendorCredit,
		RecordTypeVendorReturnAuth,
		RecordTypePurchaseOrder,
		RecordTypePurchaseRequisition:
		return true
	}
	return false
}

// Module returns the tracking-string module name for the record type.
func (r RecordType) Module() string {
	if r.IsPurchase() {
		return "Purchase"
	}
	return "Sales"
}

var docCodes = map[RecordType]string{
	RecordTypeSalesOrder:       "SO",
	RecordTypeInvoice:          "INV",
	RecordTypeEstimate:         "EST",
	RecordTypeOpportunity:      "OPP",
	RecordTypeCashSale:         "CS",
	RecordTypeCashRefund:       "CR",
	RecordTypeCreditMemo:       "CM",
	RecordTypeReturnAuth:       "RMA",
	RecordTypePurchaseOrder:    "PO",
	RecordTypeVendorBill:       "VB",
	RecordTypeVendorReturnAuth: "VRA",
	RecordTypeVendorCredit:     "VC",
}

// DocCode returns the short document code used in the tracking string.
func (r RecordType) DocCode() string {
	return docCodes[r]
}

func (r RecordType) Validate() error {
	if _, ok := docCodes[r]; !ok && r != RecordTypePurchaseRequisition {
		return ierr.NewError("invalid record type").
			WithHintf("Record type %s is not supported", r).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// LineType tags the kind of transaction line being taxed.
type LineType string

const (
	LineTypeItem     LineType = "ITEM"
	LineTypeShipping LineType = "SHIPPING"
	LineTypeHandling LineType = "HANDLING"
	LineTypeExpense  LineType = "EXPENSE"
)

// IsShippingOrHandling reports whether the line's code fields resolve from
// header-level shipping and handling fields instead of line columns.
func (l LineType) IsShippingOrHandling() bool {
	return l == LineTypeShipping || l == LineTypeHandling
}

// TransactionEvent is a lifecycle event delivered by the host after pricing.
type TransactionEvent string

const (
	EventSave   TransactionEvent = "SAVE"
	EventVoid   TransactionEvent = "VOID"
	EventDelete TransactionEvent = "DELETE"
)

// Purchase line tax options. Option 2 marks lines the vendor already
// charged sales tax on; those cannot be posted to the service directly.
const (
	TaxOptionBlank    = ""
	TaxOptionUseTax   = "1"
	TaxOptionSalesTax = "2"
)

// TaxRuleOverrideKey returns the service rule-override key for a line.
// Sales documents always use "0"; purchase documents derive the key from
// the line's tax option.
func TaxRuleOverrideKey(taxOption string, isPurchase bool) string {
	if !isPurchase {
		return "0"
	}
	switch taxOption {
	case TaxOptionUseTax:
		return "3"
	case TaxOptionSalesTax:
		return "1"
	default:
		return "3"
	}
}

// CheckboxToBool converts the ERP's checkbox string representation exactly
// once at the boundary.
func CheckboxToBool(s string) bool {
	return s == "T" || s == "true"
}

// BoolToCheckbox converts back to the ERP's checkbox representation.
func BoolToCheckbox(b bool) string {
	if b {
		return "T"
	}
	return "F"
}
