package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordTypeClassification(t *testing.T) {
	assert.True(t, RecordTypeCreditMemo.IsReturn())
	assert.True(t, RecordTypeVendorCredit.IsReturn())
	assert.False(t, RecordTypeInvoice.IsReturn())

	assert.True(t, RecordTypeVendorBill.IsPurchase())
	assert.True(t, RecordTypePurchaseRequisition.IsPurchase())
	assert.False(t, RecordTypeSalesOrder.IsPurchase())

	assert.Equal(t, "Purchase", RecordTypeVendorBill.Module())
	assert.Equal(t, "Sales", RecordTypeInvoice.Module())
}

func TestRecordTypeDocCode(t *testing.T) {
	assert.Equal(t, "SO", RecordTypeSalesOrder.DocCode())
	assert.Equal(t, "VRA", RecordTypeVendorReturnAuth.DocCode())
	assert.Empty(t, RecordTypePurchaseRequisition.DocCode())
}

func TestRecordTypeValidate(t *testing.T) {
	assert.NoError(t, RecordTypeInvoice.Validate())
	assert.NoError(t, RecordTypePurchaseRequisition.Validate())
	assert.Error(t, RecordType("journalentry").Validate())
}

func TestTaxRuleOverrideKey(t *testing.T) {
	assert.Equal(t, "0", TaxRuleOverrideKey(TaxOptionSalesTax, false))
	assert.Equal(t, "3", TaxRuleOverrideKey(TaxOptionUseTax, true))
	assert.Equal(t, "1", TaxRuleOverrideKey(TaxOptionSalesTax, true))
	assert.Equal(t, "3", TaxRuleOverrideKey(TaxOptionBlank, true))
}

func TestCheckboxConversion(t *testing.T) {
	assert.True(t, CheckboxToBool("T"))
	assert.True(t, CheckboxToBool("true"))
	assert.False(t, CheckboxToBool("F"))
	assert.False(t, CheckboxToBool(""))

	assert.Equal(t, "T", BoolToCheckbox(true))
	assert.Equal(t, "F", BoolToCheckbox(false))
}

func TestCallStatusFromResponseCode(t *testing.T) {
	assert.Equal(t, CallStatusSuccess, CallStatusFromResponseCode("9999"))
	assert.Equal(t, CallStatusPartial, CallStatusFromResponseCode("9001"))
	assert.Equal(t, CallStatusFailure, CallStatusFromResponseCode("1101"))
}

func TestCallMethodFormParam(t *testing.T) {
	assert.Equal(t, "request", MethodPostRequest.FormParam())
	assert.Equal(t, "requestCancel", MethodCancelPostRequest.FormParam())
	assert.Empty(t, MethodFinalizePostRequest.FormParam())
}
