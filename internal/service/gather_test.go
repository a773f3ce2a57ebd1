package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/taxbridge/taxbridge/internal/domain/dataexchange"
	"github.com/taxbridge/taxbridge/internal/domain/hook"
	"github.com/taxbridge/taxbridge/internal/taxsvc"
	"github.com/taxbridge/taxbridge/internal/testutil"
	"github.com/taxbridge/taxbridge/internal/types"
)

type GatherServiceSuite struct {
	testutil.BaseServiceTestSuite
	service GatherService
}

func TestGatherService(t *testing.T) {
	suite.Run(t, new(GatherServiceSuite))
}

func (s *GatherServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := testServiceParams(&s.BaseServiceTestSuite)
	s.service = NewGatherService(params, NewSettingsService(params))

	s.GetStores().SettingsRepo.(*testutil.InMemorySettingsStore).SetConfiguration(testConfiguration())
}

func (s *GatherServiceSuite) seedRefCode(category types.LookupCategory, id, value string) {
	s.GetStores().RefCodeRepo.(*testutil.InMemoryRefCodeStore).Add(category, id, value)
}

func (s *GatherServiceSuite) newItemLine(amount string, fields map[string]string) *testutil.FakeInputLine {
	if fields == nil {
		fields = map[string]string{}
	}
	if _, ok := fields["custcol_suretax_enablesuretax"]; !ok {
		fields["custcol_suretax_enablesuretax"] = "T"
	}
	return &testutil.FakeInputLine{
		Type:   types.LineTypeItem,
		Amt:    decimal.RequireFromString(amount),
		Qty:    decimal.NewFromInt(1),
		Fields: fields,
		Ref:    testutil.FakeLineRef{ID: "line"},
	}
}

func (s *GatherServiceSuite) newSalesInput(lines ...*testutil.FakeInputLine) *testutil.FakeInput {
	return &testutil.FakeInput{
		RecType:      types.RecordTypeSalesOrder,
		TransID:      1001,
		SubsidiaryID: testSubsidiary,
		EntityID:     "77",
		TransDate:    mustDate("2026-03-15"),
		ShipTo:       &hook.Address{Line1: "1 Elm St", City: "Dallas", State: "TX", Zip: "75201", Country: "US"},
		BillTo:       &hook.Address{Line1: "2 Oak St", City: "Austin", State: "TX", Zip: "78701-1234", Country: "US"},
		Fields:       map[string]string{},
		TransLines:   lines,
	}
}

func (s *GatherServiceSuite) TestLineNumbersKeepSourcePositions() {
	enabled := func(id string) *testutil.FakeInputLine {
		line := s.newItemLine("100", nil)
		line.Ref = testutil.FakeLineRef{ID: id}
		return line
	}
	disabled := s.newItemLine("50", map[string]string{"custcol_suretax_enablesuretax": "F"})

	input := s.newSalesInput(enabled("a"), disabled, enabled("c"))
	req, err := s.service.CreateCalcRequest(s.GetContext(), input, true)
	s.NoError(err)

	s.Len(req.ItemList, 2)
	s.Equal(1, req.ItemList[0].LineNumber)
	s.Equal(3, req.ItemList[1].LineNumber)
	s.Equal("200", req.TotalRevenue.String())
}

func (s *GatherServiceSuite) TestRequestHeaderValues() {
	input := s.newSalesInput(s.newItemLine("100", nil))
	req, err := s.service.CreateCalcRequest(s.GetContext(), input, true)
	s.NoError(err)

	s.Equal("000000123", req.ClientNumber)
	s.Equal("secret-key", req.ValidationKey)
	s.Equal("2026", req.DataYear)
	s.Equal("3", req.DataMonth)
	s.Equal("2026", req.CmplDataYear)
	s.Equal(taxsvc.ReturnFileCodeQuote, req.ReturnFileCode)
	s.Equal("WK;NETSUITE;2024.2;4.2.0;Sales;SO;SANDBOX-TSTDRV000000;SUITETAX;", req.ClientTracking)

	line := req.ItemList[0]
	s.Equal("SO-1001", line.InvoiceNumber)
	s.Equal("77", line.CustomerNumber)
	s.Equal("100", line.Revenue.String())
	s.Equal("1", line.Seconds)
	s.Equal("0", line.RuleOverride)
	s.Equal("USD", line.CurrencyCode)
	s.Equal("78701", line.BillingAddress.PostalCode)
	s.Equal("1234", line.BillingAddress.Plus4)
}

func (s *GatherServiceSuite) TestPostingReturnFileCode() {
	input := s.newSalesInput(s.newItemLine("100", nil))
	input.Posting = true

	req, err := s.service.CreateCalcRequest(s.GetContext(), input, false)
	s.NoError(err)
	s.Equal("0", req.ReturnFileCode)

	// A preview of a posting transaction still quotes.
	input.Preview = true
	req, err = s.service.CreateCalcRequest(s.GetContext(), input, false)
	s.NoError(err)
	s.Equal(taxsvc.ReturnFileCodeQuote, req.ReturnFileCode)
}

func (s *GatherServiceSuite) TestReturnDocumentNegatesRevenue() {
	line := s.newItemLine("100", nil)
	line.Discount = decimal.RequireFromString("-20")

	input := s.newSalesInput(line)
	input.RecType = types.RecordTypeCreditMemo

	req, err := s.service.CreateCalcRequest(s.GetContext(), input, true)
	s.NoError(err)
	s.Equal("-80", req.ItemList[0].Revenue.String())
}

func (s *GatherServiceSuite) TestReturnInheritsOriginDate() {
	erpStore := s.GetStores().ERPRepo.(*testutil.InMemoryERPStore)
	erpStore.AddTransaction(&testutil.ERPTransaction{
		ID:   500,
		Type: types.RecordTypeInvoice,
		Date: mustDate("2025-11-30"),
	})

	input := s.newSalesInput(s.newItemLine("100", nil))
	input.RecType = types.RecordTypeCreditMemo
	input.Fields["createdfrom"] = "500"

	req, err := s.service.CreateCalcRequest(s.GetContext(), input, true)
	s.NoError(err)
	s.Equal("2025", req.DataYear)
	s.Equal("11", req.DataMonth)
	s.Equal("2025-11-30", req.ItemList[0].TransDate)
	// The compliance date stays the return document's own date.
	s.Equal("2026", req.CmplDataYear)
}

func (s *GatherServiceSuite) TestReturnWalksThroughAuthorization() {
	erpStore := s.GetStores().ERPRepo.(*testutil.InMemoryERPStore)
	erpStore.AddTransaction(&testutil.ERPTransaction{
		ID:          600,
		Type:        types.RecordTypeReturnAuth,
		CreatedFrom: 601,
		Date:        mustDate("2026-01-10"),
	})
	erpStore.AddTransaction(&testutil.ERPTransaction{
		ID:   601,
		Type: types.RecordTypeSalesOrder,
		Date: mustDate("2025-08-05"),
	})

	input := s.newSalesInput(s.newItemLine("100", nil))
	input.RecType = types.RecordTypeCreditMemo
	input.Fields["createdfrom"] = "600"

	req, err := s.service.CreateCalcRequest(s.GetContext(), input, true)
	s.NoError(err)
	s.Equal("2025-08-05", req.ItemList[0].TransDate)
}

func (s *GatherServiceSuite) TestCodeResolution() {
	s.seedRefCode(types.LookupTaxIncludedCode, "ti1", "1")
	s.seedRefCode(types.LookupCustomerType, "ct_def", "R")
	s.seedRefCode(types.LookupUnitType, "ut1", "00")

	cfg := testConfiguration()
	cfg.EcomDefaults.SalesType = "ct_def"
	s.GetStores().SettingsRepo.(*testutil.InMemorySettingsStore).SetConfiguration(cfg)

	line := s.newItemLine("100", map[string]string{
		"custcol_suretax_taxincludedcode": "ti1",
		"custcol_suretax_unittype":        "ut1",
	})
	req, err := s.service.CreateCalcRequest(s.GetContext(), s.newSalesInput(line), true)
	s.NoError(err)

	got := req.ItemList[0]
	s.Equal("1", got.TaxIncludedCode)
	s.Equal("00", got.UnitType)
	// The line has no sales type id, so the channel default resolves.
	s.Equal("R", got.SalesTypeCode)
	// Nothing resolves the situs rule without the industry modules.
	s.Equal("22", got.TaxSitusRule)
}

func (s *GatherServiceSuite) TestUnitTypeFallback() {
	req, err := s.service.CreateCalcRequest(s.GetContext(), s.newSalesInput(s.newItemLine("100", nil)), true)
	s.NoError(err)
	s.Equal("99", req.ItemList[0].UnitType)
}

func (s *GatherServiceSuite) TestIndustryModuleUsesConfiguredDefaults() {
	s.seedRefCode(types.LookupUnitType, "ut_def", "31")

	cfg := testConfiguration()
	cfg.Industry.Telecom = true
	cfg.EcomDefaults.UnitType = "ut_def"
	s.GetStores().SettingsRepo.(*testutil.InMemorySettingsStore).SetConfiguration(cfg)

	req, err := s.service.CreateCalcRequest(s.GetContext(), s.newSalesInput(s.newItemLine("100", nil)), true)
	s.NoError(err)
	s.Equal("31", req.ItemList[0].UnitType)
	// No generic situs fallback while an industry module is enabled.
	s.Empty(req.ItemList[0].TaxSitusRule)
}

func (s *GatherServiceSuite) TestBatchLookupQueriesOncePerCategory() {
	s.seedRefCode(types.LookupTaxIncludedCode, "ti1", "1")
	s.seedRefCode(types.LookupUnitType, "ut1", "00")

	lineFields := map[string]string{
		"custcol_suretax_taxincludedcode": "ti1",
		"custcol_suretax_unittype":        "ut1",
	}
	first := s.newItemLine("100", lineFields)
	second := s.newItemLine("200", map[string]string{
		"custcol_suretax_taxincludedcode": "ti1",
		"custcol_suretax_unittype":        "ut1",
	})

	_, err := s.service.CreateCalcRequest(s.GetContext(), s.newSalesInput(first, second), true)
	s.NoError(err)
	s.Equal(2, s.GetStores().RefCodeRepo.(*testutil.InMemoryRefCodeStore).QueryCount)
}

func (s *GatherServiceSuite) TestZipOverrides() {
	line := s.newItemLine("100", map[string]string{
		"custcol_suretax_billing_zip_code":     "10001",
		"custcol_suretax_billing_zip_code_ext": "0001",
		"custcol_suretax_secondary_zip_code":   "30301",
	})

	req, err := s.service.CreateCalcRequest(s.GetContext(), s.newSalesInput(line), true)
	s.NoError(err)

	got := req.ItemList[0]
	s.Equal("10001", got.BillingAddress.PostalCode)
	s.Equal("0001", got.BillingAddress.Plus4)
	s.Equal("30301", got.P2PAddress.PostalCode)
	// The plain ship-to address keeps the transaction zip.
	s.Equal("75201", got.ShipToAddress.PostalCode)
}

func (s *GatherServiceSuite) TestShipFromFallsBackToConfiguredAddress() {
	req, err := s.service.CreateCalcRequest(s.GetContext(), s.newSalesInput(s.newItemLine("100", nil)), true)
	s.NoError(err)
	s.Equal("60015", req.ShipFromAddress.PostalCode)
	s.Equal("US", req.ItemList[0].OriginCountryCode)
}

func (s *GatherServiceSuite) TestMultiValueExemptionsSentVerbatim() {
	line := s.newItemLine("100", map[string]string{
		"custcol_suretax_tax_exemptcode_multi": "A1,B2",
	})

	req, err := s.service.CreateCalcRequest(s.GetContext(), s.newSalesInput(line), true)
	s.NoError(err)
	s.Equal([]string{"A1", "B2"}, req.ItemList[0].TaxExemptionCodeList)
}

func (s *GatherServiceSuite) TestSendSKUTransTypes() {
	cfg := testConfiguration()
	cfg.Features.SendSKU = true
	s.GetStores().SettingsRepo.(*testutil.InMemorySettingsStore).SetConfiguration(cfg)

	item := s.newItemLine("100", map[string]string{"item": "SKU-42"})
	expense := &testutil.FakeInputLine{
		Type: types.LineTypeExpense,
		Amt:  decimal.NewFromInt(10),
		Fields: map[string]string{
			"custcol_suretax_enablesuretax": "T",
			"category":                      "7",
		},
		Ref: testutil.FakeLineRef{ID: "exp"},
	}
	shipping := &testutil.FakeInputLine{
		Type:   types.LineTypeShipping,
		Amt:    decimal.NewFromInt(5),
		Fields: map[string]string{},
		Ref:    testutil.FakeLineRef{ID: "ship"},
	}

	input := s.newSalesInput(item, expense, shipping)
	input.Fields["custbody_suretax_sh_enablesuretax"] = "T"
	input.Fields["shipmethod"] = "GROUND"

	req, err := s.service.CreateCalcRequest(s.GetContext(), input, true)
	s.NoError(err)
	s.Len(req.ItemList, 3)
	s.Equal("SKU-42", req.ItemList[0].TransTypeCode)
	s.Equal("E7", req.ItemList[1].TransTypeCode)
	s.Equal("GROUND", req.ItemList[2].TransTypeCode)
}

func (s *GatherServiceSuite) TestShippingLineResolvesHeaderFields() {
	s.seedRefCode(types.LookupTaxIncludedCode, "ti_sh", "1")
	s.seedRefCode(types.LookupTransactionType, "tt_hand", "050104")

	cfg := testConfiguration()
	cfg.SHDefaults.HandTransType = "tt_hand"
	s.GetStores().SettingsRepo.(*testutil.InMemorySettingsStore).SetConfiguration(cfg)

	handling := &testutil.FakeInputLine{
		Type:   types.LineTypeHandling,
		Amt:    decimal.NewFromInt(5),
		Fields: map[string]string{},
		Ref:    testutil.FakeLineRef{ID: "hand"},
	}
	input := s.newSalesInput(handling)
	input.Fields["custbody_suretax_sh_enablesuretax"] = "T"
	input.Fields["custbody_suretax_sh_taxincludedcode"] = "ti_sh"

	req, err := s.service.CreateCalcRequest(s.GetContext(), input, true)
	s.NoError(err)
	s.Len(req.ItemList, 1)
	s.Equal("1", req.ItemList[0].TaxIncludedCode)
	s.Equal("050104", req.ItemList[0].TransTypeCode)
	// Units stay 1 for non-item lines.
	s.Equal("1", req.ItemList[0].Units.String())
}

func (s *GatherServiceSuite) TestPurchaseRuleOverride() {
	bill := s.newItemLine("100", map[string]string{
		"custcol_suretax_enablesuretax_ap": "T",
		"custcol_suretax_taxoption":        types.TaxOptionSalesTax,
	})
	delete(bill.Fields, "custcol_suretax_enablesuretax")

	input := s.newSalesInput(bill)
	input.RecType = types.RecordTypeVendorBill
	input.BillFrom = &hook.Address{Line1: "9 Vendor Way", City: "Reno", State: "NV", Zip: "89501", Country: "US"}

	req, err := s.service.CreateCalcRequest(s.GetContext(), input, true)
	s.NoError(err)
	s.Len(req.ItemList, 1)
	s.Equal("1", req.ItemList[0].RuleOverride)
	// Purchases bill from the vendor address.
	s.Equal("89501", req.ItemList[0].BillingAddress.PostalCode)
}

func (s *GatherServiceSuite) TestBillingPeriodFromPostingPeriod() {
	input := s.newSalesInput(s.newItemLine("100", nil))
	input.Posting = true
	input.PeriodStart = mustDate("2026-03-01")
	input.PeriodEnd = mustDate("2026-03-31")

	req, err := s.service.CreateCalcRequest(s.GetContext(), input, true)
	s.NoError(err)
	s.Equal("2026-03-01", req.ItemList[0].BillingPeriodStartDate)
	s.Equal("2026-03-31", req.ItemList[0].BillingPeriodEndDate)
	s.Equal(30, req.ItemList[0].BillingDaysInPeriod)
}

func (s *GatherServiceSuite) TestDataExchangeValues() {
	s.GetStores().DataExchangeRepo.(*testutil.InMemoryDataExchangeStore).Add(&dataexchange.Parameter{
		ID:        "de_1",
		FormType:  types.RecordTypeSalesOrder,
		Parameter: "UDF2",
		FieldName: "item.custcol_channel",
	})
	s.GetStores().DataExchangeRepo.(*testutil.InMemoryDataExchangeStore).Add(&dataexchange.Parameter{
		ID:        "de_2",
		FormType:  types.RecordTypeSalesOrder,
		Parameter: "STAN",
		FieldName: "custbody_stan",
	})

	line := s.newItemLine("100", map[string]string{"custcol_channel": "web"})
	input := s.newSalesInput(line)
	input.Fields["custbody_stan"] = "STAN-9"

	req, err := s.service.CreateCalcRequest(s.GetContext(), input, true)
	s.NoError(err)
	s.Equal("web", req.ItemList[0].DataExchange["UDF2"])
	s.Equal("STAN-9", req.ItemList[0].DataExchange["STAN"])
}

func (s *GatherServiceSuite) TestCreateCancelRequest() {
	input := s.newSalesInput()

	req, err := s.service.CreateCancelRequest(s.GetContext(), input, 0)
	s.NoError(err)
	s.Nil(req)

	req, err = s.service.CreateCancelRequest(s.GetContext(), input, 555)
	s.NoError(err)
	s.NotNil(req)
	s.Equal(int64(555), req.TransId)
	s.Equal("000000123", req.ClientNumber)
	s.Equal("secret-key", req.ValidationKey)
}

func (s *GatherServiceSuite) TestInvalidRecordType() {
	input := s.newSalesInput(s.newItemLine("100", nil))
	input.RecType = "journalentry"

	_, err := s.service.CreateCalcRequest(s.GetContext(), input, true)
	s.Error(err)
}
