package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/taxbridge/taxbridge/internal/domain/dataexchange"
	"github.com/taxbridge/taxbridge/internal/domain/hook"
	"github.com/taxbridge/taxbridge/internal/domain/settings"
	"github.com/taxbridge/taxbridge/internal/lookup"
	"github.com/taxbridge/taxbridge/internal/taxsvc"
	"github.com/taxbridge/taxbridge/internal/types"
)

// Wire date format expected by the tax service.
const wireDateLayout = "2006-01-02"

// lineColumns names the line-level code columns. Purchase forms carry their
// own column set with an _ap suffix.
type lineColumns struct {
	Enable                string
	TaxIncludedCode       string
	UnitType              string
	TaxSitusRule          string
	SalesTypeCode         string
	RegulatoryCode        string
	BillingZipCode        string
	BillingZipCodeExt     string
	SecondaryZipCode      string
	SecondaryZipCodeExt   string
	TaxExemptionCodeList  string
	TaxExemptionCodeMulti string
	TaxExemptionReason    string
	TransTypeCode         string
	TaxOption             string
}

var salesColumns = lineColumns{
	Enable:                "custcol_suretax_enablesuretax",
	TaxIncludedCode:       "custcol_suretax_taxincludedcode",
	UnitType:              "custcol_suretax_unittype",
	TaxSitusRule:          "custcol_suretax_taxsitusrule",
	SalesTypeCode:         "custcol_suretax_salestypecode",
	RegulatoryCode:        "custcol_suretax_regulatorycode",
	BillingZipCode:        "custcol_suretax_billing_zip_code",
	BillingZipCodeExt:     "custcol_suretax_billing_zip_code_ext",
	SecondaryZipCode:      "custcol_suretax_secondary_zip_code",
	SecondaryZipCodeExt:   "custcol_suretax_secondary_zip_code_xt",
	TaxExemptionCodeList:  "custcol_suretax_tax_exemption_code",
	TaxExemptionCodeMulti: "custcol_suretax_tax_exemptcode_multi",
	TaxExemptionReason:    "custcol_suretax_tax_exempt_reason",
	TransTypeCode:         "custcol_suretax_transtypecode",
	TaxOption:             "custcol_suretax_taxoption",
}

var purchaseColumns = lineColumns{
	Enable:                "custcol_suretax_enablesuretax_ap",
	TaxIncludedCode:       "custcol_suretax_taxincludedcode_ap",
	UnitType:              "custcol_suretax_unittype_ap",
	TaxSitusRule:          "custcol_suretax_taxsitusrule_ap",
	SalesTypeCode:         "custcol_suretax_salestypecode_ap",
	RegulatoryCode:        "custcol_suretax_regulatorycode_ap",
	BillingZipCode:        "custcol_suretax_billing_zip_code_ap",
	BillingZipCodeExt:     "custcol_suretax_billing_zip_code_ext_ap",
	SecondaryZipCode:      "custcol_suretax_secondary_zip_code_ap",
	SecondaryZipCodeExt:   "custcol_suretax_secondary_zip_code_xt_ap",
	TaxExemptionCodeList:  "custcol_suretax_tax_exemption_code_ap",
	TaxExemptionCodeMulti: "custcol_suretax_tax_exptcode_multi_ap",
	TaxExemptionReason:    "custcol_suretax_tax_expt_reason_ap",
	TransTypeCode:         "custcol_suretax_transtypecode_ap",
	TaxOption:             "custcol_suretax_taxoption",
}

func columnsFor(isPurchase bool) lineColumns {
	if isPurchase {
		return purchaseColumns
	}
	return salesColumns
}

// shFieldNames names the header fields driving SHIPPING and HANDLING lines,
// which have no line columns of their own.
type shFieldNames struct {
	Enable               string
	TaxIncludedCode      string
	UnitType             string
	TaxSitusRule         string
	SalesTypeCode        string
	RegulatoryCode       string
	TaxExemptionCodeList string
	TaxExemptReason      string
	ShipTransTypeCode    string
	HandTransTypeCode    string
	GroupLikeTaxes       string
}

var shFields = shFieldNames{
	Enable:               "custbody_suretax_sh_enablesuretax",
	TaxIncludedCode:      "custbody_suretax_sh_taxincludedcode",
	UnitType:             "custbody_suretax_sh_unittype",
	TaxSitusRule:         "custbody_suretax_sh_taxsitusrule",
	SalesTypeCode:        "custbody_suretax_sh_salestypecode",
	RegulatoryCode:       "custbody_suretax_sh_regcode",
	TaxExemptionCodeList: "custbody_suretax_sh_exemptcode",
	TaxExemptReason:      "custbody_suretax_sh_exemptreason",
	ShipTransTypeCode:    "custbody_suretax_sh_transtypecode",
	HandTransTypeCode:    "custbody_suretax_sh_hand_transtype",
	GroupLikeTaxes:       "custbody_suretax_group_like_taxes",
}

// Standard transaction fields read without a custom column.
const (
	fieldMultiShipTo = "ismultishipto"
	fieldShipMethod  = "shipmethod"
	fieldCreatedFrom = "createdfrom"
	fieldCategory    = "category"
	fieldItem        = "item"
)

// GatherService assembles calculation and cancellation requests from the
// host's tax calculation input.
type GatherService interface {
	CreateCalcRequest(ctx context.Context, input hook.Input, forceQuote bool) (*taxsvc.Request, error)
	// CreateCancelRequest returns nil when there is no service transaction
	// to cancel.
	CreateCancelRequest(ctx context.Context, input hook.Input, serviceTransID int64) (*taxsvc.CancelRequest, error)
	ClientTracking(recordType types.RecordType) string
	HeaderFields(recordType types.RecordType) []string
	LineFields(recordType types.RecordType) []string
}

type gatherService struct {
	ServiceParams
	settings SettingsService
}

func NewGatherService(params ServiceParams, settingsSvc SettingsService) GatherService {
	return &gatherService{
		ServiceParams: params,
		settings:      settingsSvc,
	}
}

// ClientTracking builds the semicolon-delimited integrator identity string
// sent on every request and mirrored into the outbound identity headers.
func (s *gatherService) ClientTracking(recordType types.RecordType) string {
	ic := s.Config.Integrator
	return strings.Join([]string{
		ic.Vendor,
		ic.ERPName,
		ic.ERPVersion,
		ic.IntegrationVersion,
		recordType.Module(),
		recordType.DocCode(),
		ic.Environment + "-" + ic.Company,
		ic.Product,
	}, ";") + ";"
}

// HeaderFields lists the additional header fields the host must provide.
func (s *gatherService) HeaderFields(_ types.RecordType) []string {
	return []string{
		shFields.Enable,
		shFields.TaxIncludedCode,
		shFields.UnitType,
		shFields.TaxSitusRule,
		shFields.SalesTypeCode,
		shFields.RegulatoryCode,
		shFields.TaxExemptionCodeList,
		shFields.TaxExemptReason,
		shFields.ShipTransTypeCode,
		shFields.HandTransTypeCode,
		shFields.GroupLikeTaxes,
		fieldMultiShipTo,
		fieldShipMethod,
		fieldCreatedFrom,
	}
}

// LineFields lists the additional line columns the host must provide.
func (s *gatherService) LineFields(recordType types.RecordType) []string {
	cols := columnsFor(recordType.IsPurchase())
	return []string{
		cols.Enable,
		cols.TaxIncludedCode,
		cols.UnitType,
		cols.TaxSitusRule,
		cols.SalesTypeCode,
		cols.RegulatoryCode,
		cols.BillingZipCode,
		cols.BillingZipCodeExt,
		cols.SecondaryZipCode,
		cols.SecondaryZipCodeExt,
		cols.TaxExemptionCodeList,
		cols.TaxExemptionCodeMulti,
		cols.TaxExemptionReason,
		cols.TransTypeCode,
		cols.TaxOption,
		fieldCategory,
		fieldItem,
	}
}

// gatherRun is the per-calculation state shared across request assembly.
type gatherRun struct {
	svc   *gatherService
	input hook.Input
	cfg   *settings.Configuration

	lookup     *lookup.Cache
	cols       lineColumns
	isPurchase bool
	isReturn   bool

	transDate    time.Time
	currency     string
	billingAddr  taxsvc.Address
	shipToAddr   taxsvc.Address
	shipFromAddr taxsvc.Address

	deParams []*dataexchange.Parameter
}

func (s *gatherService) CreateCalcRequest(ctx context.Context, input hook.Input, forceQuote bool) (*taxsvc.Request, error) {
	recordType := input.RecordType()
	if err := recordType.Validate(); err != nil {
		return nil, err
	}

	cfg, err := s.settings.GetConfiguration(ctx, input.Subsidiary())
	if err != nil {
		return nil, err
	}

	run := &gatherRun{
		svc:        s,
		input:      input,
		cfg:        cfg,
		lookup:     lookup.NewCache(s.RefCodeRepo, s.Logger),
		cols:       columnsFor(recordType.IsPurchase()),
		isPurchase: recordType.IsPurchase(),
		isReturn:   recordType.IsReturn(),
	}
	defer run.lookup.Cleanup()

	run.transDate = run.resolveTransactionDate(ctx)
	run.currency = s.settings.CurrencyCode(cfg, input.Currency())

	if run.isPurchase {
		run.billingAddr = convertAddress(input.BillFromAddress())
	} else {
		run.billingAddr = convertAddress(input.BillToAddress())
	}
	run.shipToAddr = convertAddress(input.ShipToAddress())
	run.shipFromAddr = convertAddress(input.ShipFromAddress())
	if run.shipFromAddr.IsEmpty() {
		run.shipFromAddr = cfg.DefaultShipFromAddress
	}

	if err := run.initLookups(ctx); err != nil {
		return nil, err
	}
	run.loadDataExchangeParams(ctx)

	returnFileCode := taxsvc.ReturnFileCodeQuote
	if !forceQuote && input.IsPostingTransaction() && !input.IsPreview() {
		returnFileCode = taxsvc.ReturnFileCodePost
	}

	cmplDate := input.TransactionDate()
	req := &taxsvc.Request{
		ClientNumber:   cfg.Connection.ClientNumber,
		BusinessUnit:   "",
		ValidationKey:  cfg.Connection.ValidationKey,
		DataYear:       run.transDate.Format("2006"),
		DataMonth:      strconv.Itoa(int(run.transDate.Month())),
		CmplDataYear:   cmplDate.Format("2006"),
		CmplDataMonth:  strconv.Itoa(int(cmplDate.Month())),
		ClientTracking: s.ClientTracking(recordType),
		ResponseType:   taxsvc.ResponseTypeDetail,
		ResponseGroup:  taxsvc.ResponseGroupDetail,
		ReturnFileCode: returnFileCode,
		MasterTransId:  0,
		BillingAddress: run.billingAddr,
		P2PAddress:     run.shipToAddr,
		ShipToAddress:  run.shipToAddr,
		ShipFromAddress: run.shipFromAddr,
		ItemList:        []*taxsvc.RequestLine{},
	}

	if len(input.Lines()) > 0 {
		req.ItemList = run.buildLines(ctx)
		req.TotalRevenue = requestTotal(req.ItemList)
	}

	return req, nil
}

func (s *gatherService) CreateCancelRequest(ctx context.Context, input hook.Input, serviceTransID int64) (*taxsvc.CancelRequest, error) {
	if serviceTransID <= 0 {
		s.Logger.Infow("no service transaction to cancel",
			"transaction_id", input.TransactionID())
		return nil, nil
	}

	cfg, err := s.settings.GetConfiguration(ctx, input.Subsidiary())
	if err != nil {
		return nil, err
	}

	return &taxsvc.CancelRequest{
		ClientNumber:   cfg.Connection.ClientNumber,
		ClientTracking: s.ClientTracking(input.RecordType()),
		TransId:        serviceTransID,
		ValidationKey:  cfg.Connection.ValidationKey,
	}, nil
}

// resolveTransactionDate returns the date the calculation is priced at.
// Return documents inherit the date of the transaction they were created
// from; a return authorization in the chain is walked one more hop to the
// originating document.
func (r *gatherRun) resolveTransactionDate(ctx context.Context) time.Time {
	if !r.isReturn {
		return r.input.TransactionDate()
	}

	id, err := strconv.ParseInt(r.input.FieldValue(fieldCreatedFrom), 10, 64)
	if err != nil || id <= 0 {
		return r.input.TransactionDate()
	}

	recordType, err := r.svc.ERPRepo.TransactionType(ctx, id)
	if err != nil {
		r.svc.Logger.Debugw("created-from type lookup failed", "id", id, "error", err)
		return r.input.TransactionDate()
	}

	if recordType == types.RecordTypeReturnAuth || recordType == types.RecordTypeVendorReturnAuth {
		parentID, err := r.svc.ERPRepo.CreatedFrom(ctx, recordType, id)
		if err == nil && parentID > 0 {
			if parentType, err := r.svc.ERPRepo.TransactionType(ctx, parentID); err == nil {
				id, recordType = parentID, parentType
			}
		}
	}

	date, err := r.svc.ERPRepo.TransactionDate(ctx, recordType, id)
	if err != nil || date.IsZero() {
		return r.input.TransactionDate()
	}
	return date
}

// lineEnabled reads the enable flag: a header field for SHIPPING and
// HANDLING lines, a line column for everything else.
func (r *gatherRun) lineEnabled(line hook.InputLine) bool {
	if line.LineType().IsShippingOrHandling() {
		return types.CheckboxToBool(r.input.FieldValue(shFields.Enable))
	}
	return types.CheckboxToBool(line.FieldValue(r.cols.Enable))
}

// sendToService reports whether the line may be posted. Purchase lines the
// vendor already charged sales tax on are quoted but never posted.
func (r *gatherRun) sendToService(line hook.InputLine) bool {
	return !(r.input.IsPostingTransaction() && r.isPurchase &&
		line.FieldValue(r.cols.TaxOption) == types.TaxOptionSalesTax)
}

// initLookups registers every reference-code id the run can need and
// resolves them in one batch pass.
func (r *gatherRun) initLookups(ctx context.Context) error {
	r.lookup.Initialize()

	recordType := r.input.RecordType()
	keepForReconcile := r.isPurchase &&
		(recordType == types.RecordTypeVendorBill || recordType == types.RecordTypeVendorCredit)

	for _, line := range r.input.Lines() {
		if !r.lineEnabled(line) || !(r.sendToService(line) || keepForReconcile) {
			continue
		}

		if line.LineType().IsShippingOrHandling() {
			r.lookup.AddTaxIncludedCodeKey(r.input.FieldValue(shFields.TaxIncludedCode))
			r.lookup.AddUnitTypeKey(r.input.FieldValue(shFields.UnitType))
			r.lookup.AddSitusRuleKey(r.input.FieldValue(shFields.TaxSitusRule))
			r.lookup.AddCustomerTypeKey(r.input.FieldValue(shFields.SalesTypeCode))
			r.lookup.AddRegulatoryCodeKey(r.input.FieldValue(shFields.RegulatoryCode))
			r.lookup.AddExemptionReasonKey(r.input.FieldValue(shFields.TaxExemptReason))
			for _, code := range splitExemptionCodes(r.input.FieldValue(shFields.TaxExemptionCodeList)) {
				r.lookup.AddExemptionCodeKey(code)
			}
			r.lookup.AddTransactionTypeKey(r.input.FieldValue(shFields.ShipTransTypeCode))
			r.lookup.AddTransactionTypeKey(r.input.FieldValue(shFields.HandTransTypeCode))
		}

		r.lookup.AddTaxIncludedCodeKey(line.FieldValue(r.cols.TaxIncludedCode))
		r.lookup.AddUnitTypeKey(line.FieldValue(r.cols.UnitType))
		r.lookup.AddSitusRuleKey(line.FieldValue(r.cols.TaxSitusRule))
		r.lookup.AddCustomerTypeKey(line.FieldValue(r.cols.SalesTypeCode))
		r.lookup.AddRegulatoryCodeKey(line.FieldValue(r.cols.RegulatoryCode))
		r.lookup.AddExemptionCodeKey(line.FieldValue(r.cols.TaxExemptionCodeList))
		r.lookup.AddExemptionReasonKey(line.FieldValue(r.cols.TaxExemptionReason))
		r.lookup.AddTransactionTypeKey(line.FieldValue(r.cols.TransTypeCode))
	}

	r.primeDefaults(r.cfg.EcomDefaults.TaxIncluded, r.cfg.EcomDefaults.UnitType,
		r.cfg.EcomDefaults.TaxSitus, r.cfg.EcomDefaults.SalesType,
		r.cfg.EcomDefaults.RegulatoryType, r.cfg.EcomDefaults.TaxExempt,
		r.cfg.EcomDefaults.ExemptReason, r.cfg.EcomDefaults.TransactionType)
	r.primeDefaults(r.cfg.SHDefaults.TaxIncluded, r.cfg.SHDefaults.UnitType,
		r.cfg.SHDefaults.TaxSitus, r.cfg.SHDefaults.SalesType,
		r.cfg.SHDefaults.RegulatoryType, r.cfg.SHDefaults.TaxExempt,
		r.cfg.SHDefaults.ExemptReason, r.cfg.SHDefaults.ShipTransType)
	r.lookup.AddTransactionTypeKey(r.cfg.SHDefaults.HandTransType)

	return r.lookup.Process(ctx)
}

func (r *gatherRun) primeDefaults(taxIncluded, unitType, situs, salesType, regulatory, taxExempt, exemptReason, transType string) {
	r.lookup.AddTaxIncludedCodeKey(taxIncluded)
	r.lookup.AddUnitTypeKey(unitType)
	r.lookup.AddSitusRuleKey(situs)
	r.lookup.AddCustomerTypeKey(salesType)
	r.lookup.AddRegulatoryCodeKey(regulatory)
	r.lookup.AddExemptionCodeKey(taxExempt)
	r.lookup.AddExemptionReasonKey(exemptReason)
	r.lookup.AddTransactionTypeKey(transType)
}

func (r *gatherRun) loadDataExchangeParams(ctx context.Context) {
	params, err := r.svc.DataExchangeRepo.List(ctx, &types.DataExchangeFilter{
		QueryFilter: types.NewNoLimitQueryFilter(),
		FormType:    r.input.RecordType(),
		Subsidiary:  r.input.Subsidiary(),
	})
	if err != nil {
		r.svc.Logger.Warnw("data exchange parameter lookup failed", "error", err)
		return
	}
	r.deParams = params
}

// buildLines assembles the request lines. LineNumber stays the 1-based
// position among all input lines, so disabled lines leave gaps.
func (r *gatherRun) buildLines(ctx context.Context) []*taxsvc.RequestLine {
	invoiceNumber := r.invoiceNumber()
	period := r.billingPeriod()
	out := make([]*taxsvc.RequestLine, 0, len(r.input.Lines()))

	for i, line := range r.input.Lines() {
		if !r.lineEnabled(line) {
			continue
		}

		codes := r.lineValues(ctx, line)
		lineShipTo := r.lineShipToAddress(line)

		reqLine := &taxsvc.RequestLine{
			LineNumber:             i + 1,
			InvoiceNumber:          invoiceNumber,
			CustomerNumber:         r.input.Entity(),
			TransDate:              r.transDate.Format(wireDateLayout),
			BillingPeriodStartDate: period.start.Format(wireDateLayout),
			BillingPeriodEndDate:   period.end.Format(wireDateLayout),
			Revenue:                lineRevenue(line, r.isReturn),
			TaxIncludedCode:        codes.TaxIncludedCode,
			Units:                  lineUnits(line),
			UnitType:               codes.UnitType,
			Seconds:                "1",
			TaxSitusRule:           codes.TaxSitusRule,
			TaxSitusOverrideCode:   "",
			RuleOverride:           types.TaxRuleOverrideKey(line.FieldValue(r.cols.TaxOption), r.isPurchase),
			TransTypeCode:          codes.TransTypeCode,
			SalesTypeCode:          codes.SalesTypeCode,
			RegulatoryCode:         codes.RegulatoryCode,
			TaxExemptionCodeList:   codes.TaxExemptionCodeList,
			ExemptReasonCode:       codes.ExemptReasonCode,
			UDF:                    string(line.LineType()),
			FreightOnBoard:         "",
			ShipFromPOB:            "1",
			MailOrder:              "1",
			CommonCarrier:          "1",
			OriginCountryCode:      r.shipFromAddr.Country,
			DestCountryCode:        r.shipToAddr.Country,
			AuxRevenue:             decimal.Zero,
			AuxRevenueType:         "",
			BillingDaysInPeriod:    period.days,
			CurrencyCode:           r.currency,
			BillingAddress:         r.billingAddr.WithZipOverride(codes.BillingZipCode, codes.BillingZipCodeExt),
			P2PAddress:             lineShipTo.WithZipOverride(codes.SecondaryZipCode, codes.SecondaryZipCodeExt),
			ShipToAddress:          lineShipTo,
			ShipFromAddress:        r.lineShipFromAddress(line),
			TaxOption:              line.FieldValue(r.cols.TaxOption),
		}
		reqLine.DataExchange = r.dataExchangeValues(line)

		out = append(out, reqLine)
	}

	return out
}

func (r *gatherRun) invoiceNumber() string {
	return r.input.RecordType().DocCode() + "-" +
		strconv.FormatInt(r.input.TransactionID(), 10)
}

type billingPeriod struct {
	start time.Time
	end   time.Time
	days  int
}

// billingPeriod derives the billing window from the posting period.
// Non-posting transactions get a synthetic 30-day period ending today.
func (r *gatherRun) billingPeriod() billingPeriod {
	now := time.Now()
	period := billingPeriod{start: now, end: now, days: 30}

	if r.input.IsPostingTransaction() {
		start := r.input.PostingPeriodStartDate()
		end := r.input.PostingPeriodEndDate()
		if !start.IsZero() && !end.IsZero() {
			period.start = start
			period.end = end
			days := end.Sub(start).Hours() / 24
			if days < 0 {
				days = -days
			}
			period.days = int(days + 0.5)
		}
	}

	return period
}

// lineCodes holds the resolved service code values for one line.
type lineCodes struct {
	TaxIncludedCode      string
	UnitType             string
	TaxSitusRule         string
	TransTypeCode        string
	SalesTypeCode        string
	RegulatoryCode       string
	TaxExemptionCodeList []string
	ExemptReasonCode     string
	BillingZipCode       string
	BillingZipCodeExt    string
	SecondaryZipCode     string
	SecondaryZipCodeExt  string
}

// lineValues resolves the code fields for one line. SHIPPING and HANDLING
// lines resolve from header fields falling back to the S/H defaults;
// everything else resolves from line columns falling back to the channel
// defaults layered with entity overrides.
func (r *gatherRun) lineValues(ctx context.Context, line hook.InputLine) lineCodes {
	if line.LineType().IsShippingOrHandling() {
		return r.shLineValues(ctx, line)
	}
	return r.itemLineValues(ctx, line)
}

func (r *gatherRun) shLineValues(ctx context.Context, line hook.InputLine) lineCodes {
	def := r.cfg.SHDefaults
	lk := r.lookup
	in := r.input

	var exemptions []string
	for _, code := range splitExemptionCodes(in.FieldValue(shFields.TaxExemptionCodeList)) {
		resolved := lk.ExemptionCode(ctx, code)
		if resolved == "" {
			resolved = lk.ExemptionCode(ctx, def.TaxExempt)
		}
		exemptions = append(exemptions, resolved)
	}

	defTransType := def.ShipTransType
	if line.LineType() == types.LineTypeHandling {
		defTransType = def.HandTransType
	}

	return lineCodes{
		TaxIncludedCode: resolveCode(ctx, lk.TaxIncludedCode, in.FieldValue(shFields.TaxIncludedCode), def.TaxIncluded),
		UnitType:        r.resolveUnitType(ctx, in.FieldValue(shFields.UnitType), def.UnitType),
		TaxSitusRule:    r.resolveSitusRule(ctx, in.FieldValue(shFields.TaxSitusRule), def.TaxSitus),
		TransTypeCode:   r.resolveTransType(ctx, line, defTransType),
		SalesTypeCode:   resolveCode(ctx, lk.CustomerType, in.FieldValue(shFields.SalesTypeCode), def.SalesType),
		RegulatoryCode:  resolveCode(ctx, lk.RegulatoryCode, in.FieldValue(shFields.RegulatoryCode), def.RegulatoryType),
		TaxExemptionCodeList: exemptions,
		ExemptReasonCode:     resolveCode(ctx, lk.ExemptionReason, in.FieldValue(shFields.TaxExemptReason), def.ExemptReason),
	}
}

func (r *gatherRun) itemLineValues(ctx context.Context, line hook.InputLine) lineCodes {
	def := r.svc.settings.EffectiveItemDefaults(ctx, r.cfg,
		line.FieldValue(fieldItem), line.FieldValue(fieldCategory),
		r.input.Entity(), r.isPurchase)
	lk := r.lookup

	var exemptions []string
	if multi := line.FieldValue(r.cols.TaxExemptionCodeMulti); multi != "" {
		// Multi-value exemptions are sent verbatim, no reference lookup.
		exemptions = strings.Split(multi, ",")
	} else {
		exemptions = []string{resolveCode(ctx, lk.ExemptionCode,
			line.FieldValue(r.cols.TaxExemptionCodeList), def.TaxExempt)}
	}

	return lineCodes{
		TaxIncludedCode: resolveCode(ctx, lk.TaxIncludedCode, line.FieldValue(r.cols.TaxIncludedCode), def.TaxIncluded),
		UnitType:        r.resolveUnitType(ctx, line.FieldValue(r.cols.UnitType), def.UnitType),
		TaxSitusRule:    r.resolveSitusRule(ctx, line.FieldValue(r.cols.TaxSitusRule), def.TaxSitus),
		TransTypeCode:   r.resolveTransType(ctx, line, def.TransactionType),
		SalesTypeCode:   resolveCode(ctx, lk.CustomerType, line.FieldValue(r.cols.SalesTypeCode), def.SalesType),
		RegulatoryCode:  resolveCode(ctx, lk.RegulatoryCode, line.FieldValue(r.cols.RegulatoryCode), def.RegulatoryType),
		TaxExemptionCodeList: exemptions,
		ExemptReasonCode:     resolveCode(ctx, lk.ExemptionReason, line.FieldValue(r.cols.TaxExemptionReason), def.ExemptReason),
		BillingZipCode:       line.FieldValue(r.cols.BillingZipCode),
		BillingZipCodeExt:    line.FieldValue(r.cols.BillingZipCodeExt),
		SecondaryZipCode:     line.FieldValue(r.cols.SecondaryZipCode),
		SecondaryZipCodeExt:  line.FieldValue(r.cols.SecondaryZipCodeExt),
	}
}

// resolveCode resolves the line-level id and falls back to the default id.
func resolveCode(ctx context.Context, get func(context.Context, string) string, raw, defaultID string) string {
	if v := get(ctx, raw); v != "" {
		return v
	}
	return get(ctx, defaultID)
}

// resolveUnitType applies the industry rule: without the telecom or utility
// module the configured default is ignored in favor of the generic code.
func (r *gatherRun) resolveUnitType(ctx context.Context, raw, defaultID string) string {
	if v := r.lookup.UnitType(ctx, raw); v != "" {
		return v
	}
	fallback, _ := r.svc.settings.FallbackCodes(r.cfg)
	if fallback == "" {
		return r.lookup.UnitType(ctx, defaultID)
	}
	return fallback
}

func (r *gatherRun) resolveSitusRule(ctx context.Context, raw, defaultID string) string {
	if v := r.lookup.SitusRule(ctx, raw); v != "" {
		return v
	}
	_, fallback := r.svc.settings.FallbackCodes(r.cfg)
	if fallback == "" {
		return r.lookup.SitusRule(ctx, defaultID)
	}
	return fallback
}

// resolveTransType resolves the transaction type code. With the send-SKU
// feature the raw item identifier travels instead of a reference code.
func (r *gatherRun) resolveTransType(ctx context.Context, line hook.InputLine, defaultID string) string {
	var code string
	if !r.cfg.Features.SendSKU {
		var id string
		switch line.LineType() {
		case types.LineTypeShipping:
			id = r.input.FieldValue(shFields.ShipTransTypeCode)
		case types.LineTypeHandling:
			id = r.input.FieldValue(shFields.HandTransTypeCode)
		default:
			id = line.FieldValue(r.cols.TransTypeCode)
		}
		code = r.lookup.TransactionType(ctx, id)
	} else {
		switch line.LineType() {
		case types.LineTypeShipping, types.LineTypeHandling:
			code = r.input.FieldValue(fieldShipMethod)
		case types.LineTypeExpense:
			code = "E" + line.FieldValue(fieldCategory)
		case types.LineTypeItem:
			code = line.FieldValue(fieldItem)
		}
	}

	if code == "" {
		code = r.lookup.TransactionType(ctx, defaultID)
	}
	return code
}

// lineShipToAddress picks the destination address for one line. Multi-ship
// transactions use the line address outright; otherwise a populated line
// address wins for plain item and expense-free lines.
func (r *gatherRun) lineShipToAddress(line hook.InputLine) taxsvc.Address {
	lineType := line.LineType()
	multiShip := r.input.FieldValue(fieldMultiShipTo) == "T"

	if multiShip && lineType != types.LineTypeExpense {
		return convertAddress(line.ShipToAddress())
	}
	if lineType != types.LineTypeExpense && !lineType.IsShippingOrHandling() {
		if addr := convertAddress(line.ShipToAddress()); !addr.IsEmpty() {
			return addr
		}
	}
	return r.shipToAddr
}

// lineShipFromAddress picks the origin address for one line. Purchases
// always ship from the header address.
func (r *gatherRun) lineShipFromAddress(line hook.InputLine) taxsvc.Address {
	if r.isPurchase {
		return r.shipFromAddr
	}

	lineType := line.LineType()
	multiShip := r.input.FieldValue(fieldMultiShipTo) == "T"

	var addr taxsvc.Address
	if multiShip && lineType != types.LineTypeExpense {
		addr = convertAddress(line.ShipFromAddress())
	} else if !lineType.IsShippingOrHandling() {
		addr = convertAddress(line.ShipFromAddress())
	}
	if !addr.IsEmpty() {
		return addr
	}
	return r.shipFromAddr
}

// dataExchangeValues copies operator-configured source fields into the
// request line's extra slots.
func (r *gatherRun) dataExchangeValues(line hook.InputLine) map[string]string {
	if len(r.deParams) == 0 {
		return nil
	}

	values := make(map[string]string)
	for _, param := range r.deParams {
		if param.LineType != "" && param.LineType != line.LineType() {
			continue
		}
		sublist, field := param.SplitFieldName()
		if sublist != "" {
			values[param.Parameter] = line.FieldValue(field)
		} else {
			values[param.Parameter] = r.input.FieldValue(field)
		}
	}
	return values
}

// lineRevenue is the taxable amount: line amount plus the allocated
// discount, negated on return documents.
func lineRevenue(line hook.InputLine, isReturn bool) decimal.Decimal {
	revenue := line.Amount().Add(line.DiscountTotal())
	if isReturn {
		return revenue.Neg()
	}
	return revenue
}

// lineUnits is the unit count: the whole-number quantity for item lines,
// one for everything else.
func lineUnits(line hook.InputLine) decimal.Decimal {
	if line.LineType() == types.LineTypeItem {
		return line.Quantity().Truncate(0)
	}
	return decimal.NewFromInt(1)
}

// splitExemptionCodes splits a multi-select field value. The ERP joins
// multi-select values with \u0005; manually entered lists use commas.
func splitExemptionCodes(raw string) []string {
	if raw == "" {
		return nil
	}
	if strings.Contains(raw, "\u0005") {
		return strings.Split(raw, "\u0005")
	}
	return strings.Split(raw, ",")
}

func convertAddress(addr *hook.Address) taxsvc.Address {
	if addr == nil {
		return taxsvc.Address{}
	}
	return taxsvc.NewAddress(addr.Line1, addr.Line2, addr.City, addr.State, addr.Zip, addr.Country)
}

func requestTotal(lines []*taxsvc.RequestLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Revenue)
	}
	return total
}
