package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/taxbridge/taxbridge/internal/domain/calllog"
	"github.com/taxbridge/taxbridge/internal/domain/hook"
	"github.com/taxbridge/taxbridge/internal/domain/settings"
	"github.com/taxbridge/taxbridge/internal/domain/taxmapping"
	"github.com/taxbridge/taxbridge/internal/lookup"
	"github.com/taxbridge/taxbridge/internal/taxsvc"
	"github.com/taxbridge/taxbridge/internal/types"
)

// nexusMarker identifies the nexus records managed by this integration.
const nexusMarker = "CCH® SureTax®"

// MapperService maps a service response onto the host's tax output.
type MapperService interface {
	// UpdateTax writes the response's tax computations to the output:
	// detail lines correlated by line number, summary totals per tax type,
	// and the nexus override for the destination country.
	UpdateTax(ctx context.Context, input hook.Input, output hook.Output, response *taxsvc.Response, request *taxsvc.Request, notifications hook.Notifications) error
	// FillInTaxDetails synthesizes zero-amount details for input lines the
	// response carried nothing for, so every line saves with a tax code.
	FillInTaxDetails(ctx context.Context, input hook.Input, output hook.Output) error
}

type mapperService struct {
	ServiceParams
	settings SettingsService
}

func NewMapperService(params ServiceParams, settingsSvc SettingsService) MapperService {
	return &mapperService{
		ServiceParams: params,
		settings:      settingsSvc,
	}
}

// mapperRun holds the per-calculation mapping cache. Each distinct
// (state, country, tax type, tax included) key is queried at most once.
type mapperRun struct {
	svc        *mapperService
	input      hook.Input
	cfg        *settings.Configuration
	resolver   lookup.CodeResolver
	isPurchase bool

	cache        map[string]taxmapping.Pair
	missingTypes []string
}

func (s *mapperService) newRun(ctx context.Context, input hook.Input) (*mapperRun, error) {
	cfg, err := s.settings.GetConfiguration(ctx, input.Subsidiary())
	if err != nil {
		return nil, err
	}
	return &mapperRun{
		svc:        s,
		input:      input,
		cfg:        cfg,
		resolver:   lookup.NewDirectResolver(s.RefCodeRepo, s.Logger),
		isPurchase: input.RecordType().IsPurchase(),
		cache:      make(map[string]taxmapping.Pair),
	}, nil
}

// taxDetailAccum accumulates one tax code's details on a line. Merging a
// detail with the same tax code adds the amounts and rates.
type taxDetailAccum struct {
	pair        taxmapping.Pair
	rate        decimal.Decimal
	taxAmount   decimal.Decimal
	revenue     decimal.Decimal
	description string
}

// lineAccum is the ordered detail accumulation for one request line.
type lineAccum struct {
	lineNumber int
	details    []*taxDetailAccum
}

func (l *lineAccum) add(pair taxmapping.Pair, rate, amount, revenue decimal.Decimal, desc string) {
	for _, det := range l.details {
		if det.pair.TaxCode == pair.TaxCode {
			det.taxAmount = det.taxAmount.Add(amount)
			det.rate = det.rate.Add(rate)
			return
		}
	}
	l.details = append(l.details, &taxDetailAccum{
		pair:        pair,
		rate:        rate,
		taxAmount:   amount,
		revenue:     revenue,
		description: desc,
	})
}

// summaryAccum accumulates the transaction total per tax type.
type summaryAccum struct {
	taxType int64
	taxCode int64
	total   decimal.Decimal
}

func (s *mapperService) UpdateTax(ctx context.Context, input hook.Input, output hook.Output, response *taxsvc.Response, request *taxsvc.Request, notifications hook.Notifications) error {
	run, err := s.newRun(ctx, input)
	if err != nil {
		return err
	}

	lines := input.Lines()
	lastCountry := ""
	if addr := input.ShipToAddress(); addr != nil {
		lastCountry = addr.Country
	}

	var lineAccums []*lineAccum
	var summaries []*summaryAccum

	for _, group := range response.GroupList {
		idx := group.LineNumber - 1
		if idx < 0 || idx >= len(lines) {
			s.Logger.Warnw("response group has no matching line",
				"line_number", group.LineNumber)
			continue
		}
		line := lines[idx]

		state, country := group.SplitStateCode()
		lastCountry = country

		taxIncluded := run.taxIncludedValue(ctx, line)
		sign := decimal.NewFromInt(1)
		if line.Amount().Add(line.DiscountTotal()).IsNegative() {
			sign = decimal.NewFromInt(-1)
		}

		accum := findLineAccum(&lineAccums, group.LineNumber)
		for _, det := range group.TaxList {
			code := taxTypeCode(det.TaxTypeCode, run.isPurchase)
			pair := run.mapping(ctx, state, country, code, taxIncluded)

			amount := det.TaxAmount.Abs().Mul(sign)
			revenue := det.Revenue.Abs().Mul(sign)
			accum.add(pair, det.Rate(), amount, revenue, det.TaxTypeDesc)
			addSummary(&summaries, pair, amount)
		}
	}

	run.updateNexus(ctx, lastCountry, output)

	for _, accum := range lineAccums {
		outLine := output.CreateLine(lines[accum.lineNumber-1].Reference())
		for _, det := range accum.details {
			outLine.AddTaxDetail(hook.TaxDetail{
				TaxCode:     det.pair.TaxCode,
				TaxType:     det.pair.TaxType,
				Rate:        det.rate.Mul(decimal.NewFromInt(100)).Round(5),
				TaxAmount:   det.taxAmount.Round(2),
				Revenue:     det.revenue,
				Description: det.description,
			})
		}
		output.AddLine(outLine)
	}

	for _, summary := range summaries {
		output.SetTaxSummaryLine(summary.taxCode, summary.taxType, summary.total.Round(2).String())
	}

	if len(run.missingTypes) > 0 {
		run.reportMissingMappings(ctx, request, response, notifications)
	}

	return nil
}

func findLineAccum(accums *[]*lineAccum, lineNumber int) *lineAccum {
	for _, accum := range *accums {
		if accum.lineNumber == lineNumber {
			return accum
		}
	}
	accum := &lineAccum{lineNumber: lineNumber}
	*accums = append(*accums, accum)
	return accum
}

func addSummary(summaries *[]*summaryAccum, pair taxmapping.Pair, amount decimal.Decimal) {
	for _, summary := range *summaries {
		if summary.taxType == pair.TaxType {
			summary.total = summary.total.Add(amount)
			return
		}
	}
	*summaries = append(*summaries, &summaryAccum{
		taxType: pair.TaxType,
		taxCode: pair.TaxCode,
		total:   amount,
	})
}

// taxTypeCode extracts the two-character tax type from the service's code.
// Sales documents fold use-tax types into their sales equivalents.
func taxTypeCode(raw string, isPurchase bool) string {
	if len(raw) < 3 {
		return raw
	}
	code := raw[1:3]
	if !isPurchase {
		code = strings.ReplaceAll(code, "U", "0")
	}
	return code
}

// taxIncludedValue resolves the tax-included code the mapping rules are
// keyed on, defaulting to excluded.
func (r *mapperRun) taxIncludedValue(ctx context.Context, line hook.InputLine) string {
	var raw string
	if r.isPurchase {
		raw = line.FieldValue(purchaseColumns.TaxIncludedCode)
	} else if line.LineType().IsShippingOrHandling() {
		raw = r.input.FieldValue(shFields.TaxIncludedCode)
	} else {
		raw = line.FieldValue(salesColumns.TaxIncludedCode)
	}

	if value := r.resolver.TaxIncludedCode(ctx, raw); value != "" {
		return value
	}
	return "0"
}

// mapping resolves the local tax-code pair for a jurisdiction and tax
// type: exact rule first, then the country default, then the unresolved
// sentinel. Results, including misses, are cached for the run.
func (r *mapperRun) mapping(ctx context.Context, state, country, taxType, taxIncluded string) taxmapping.Pair {
	key := strings.Join([]string{state, country, taxType, taxIncluded}, ",")
	if pair, ok := r.cache[key]; ok {
		return pair
	}

	pair := taxmapping.UnresolvedPair

	rows, err := r.svc.MappingRepo.List(ctx, &types.TaxMappingFilter{
		QueryFilter:     types.NewNoLimitQueryFilter(),
		State:           state,
		Country:         country,
		TaxTypeCode:     taxType,
		TaxIncludedCode: taxIncluded,
		Subsidiary:      r.input.Subsidiary(),
	})
	if err != nil {
		r.svc.Logger.Errorw("tax mapping lookup failed", "key", key, "error", err)
	}

	if len(rows) > 0 {
		pair = taxmapping.Pair{TaxCode: rows[0].TaxCode, TaxType: rows[0].TaxType}
	} else {
		if r.cfg.EcomDefaults.GroupLikeTaxes && r.cfg.Industry.Telecom && taxType != "" {
			r.missingTypes = append(r.missingTypes, taxType)
		}

		rows, err = r.svc.MappingRepo.List(ctx, &types.TaxMappingFilter{
			QueryFilter:     types.NewNoLimitQueryFilter(),
			State:           state,
			Country:         country,
			TaxIncludedCode: taxIncluded,
			Subsidiary:      r.input.Subsidiary(),
			DefaultOnly:     true,
		})
		if err != nil {
			r.svc.Logger.Errorw("default tax mapping lookup failed", "key", key, "error", err)
		}
		if len(rows) > 0 {
			pair = taxmapping.Pair{TaxCode: rows[0].TaxCode, TaxType: rows[0].TaxType}
		}
	}

	r.cache[key] = pair
	return pair
}

// updateNexus overrides the transaction nexus with the integration-managed
// nexus for the destination country, when one exists.
func (r *mapperRun) updateNexus(ctx context.Context, country string, output hook.Output) {
	if country == "" {
		return
	}

	nexuses, err := r.svc.NexusRepo.ListByCountry(ctx, country)
	if err != nil {
		r.svc.Logger.Warnw("nexus lookup failed", "country", country, "error", err)
		return
	}
	for _, nexus := range nexuses {
		if strings.Contains(nexus.Description, nexusMarker) {
			output.OverrideNexus(nexus.ID)
			return
		}
	}
}

// reportMissingMappings aggregates the tax types that fell into the
// default mapping under grouped telecom taxes: two user warnings and one
// mapping-error audit record.
func (r *mapperRun) reportMissingMappings(ctx context.Context, request *taxsvc.Request, response *taxsvc.Response, notifications hook.Notifications) {
	seen := make(map[string]struct{})
	var unique []string
	for _, taxType := range r.missingTypes {
		if _, ok := seen[taxType]; ok {
			continue
		}
		seen[taxType] = struct{}{}
		unique = append(unique, taxType)
	}

	joined := strings.Join(unique, ", ")
	notifications.AddWarning("Missing mapping record for the SureTax TaxType(s) " + joined +
		". These tax lines are grouped into the default mapping.")
	notifications.AddWarning("Click on CCH® SureTax® -> Configuration -> Tax Object Setup or Custom Tax Codes to create the missing mapping.")

	var transactionID int64
	exists, err := r.svc.ERPRepo.TransactionExists(ctx, r.input.TransactionID())
	if err == nil && exists {
		transactionID = r.input.TransactionID()
	}

	record := &calllog.CallLog{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_MAPPING_ERROR),
		Kind:           types.CallLogKindMappingError,
		Method:         types.MethodPostRequest,
		HeaderMessage:  "Failure - With Mapping Error warning.",
		ErrorMessage:   "Missing mapping record(s)",
		ItemMessage:    combineItemMessages(response.ItemMessages),
		ResponseCode:   "Failure",
		CallStatus:     types.CallStatusFailure,
		Successful:     false,
		ServiceTransID: response.TransId,
		Request:        calllog.Truncate(marshalPayload(stripValidationKey(request))),
		Response:       calllog.Truncate(storedResponsePayload(ctx, r.svc.settings, response)),
		TransactionID:  transactionID,
		RecordType:     r.input.RecordType(),
		BaseModel:      types.GetDefaultBaseModel(ctx),
	}
	if err := r.svc.CallLogRepo.Create(ctx, record); err != nil {
		r.svc.Logger.Errorw("failed to create mapping error record", "error", err)
	}
}

func (s *mapperService) FillInTaxDetails(ctx context.Context, input hook.Input, output hook.Output) error {
	run, err := s.newRun(ctx, input)
	if err != nil {
		return err
	}

	shipTo := input.ShipToAddress()
	if shipTo != nil {
		run.updateNexus(ctx, shipTo.Country, output)
	}

	for _, line := range input.Lines() {
		if hasTaxDetails(output, line.Reference().Key()) {
			continue
		}

		var pair taxmapping.Pair
		if shipTo != nil {
			country := shipTo.Country
			state := shipTo.State
			if country != "US" && country != "CA" {
				state = ""
			}
			pair = run.mapping(ctx, state, country, "", run.taxIncludedValue(ctx, line))
		} else {
			pair = run.firstTaxCodeForNexus(ctx, input.Nexus())
		}

		outLine := output.CreateLine(line.Reference())
		outLine.AddTaxDetail(hook.TaxDetail{
			TaxCode:   pair.TaxCode,
			TaxType:   pair.TaxType,
			Rate:      decimal.Zero,
			TaxAmount: decimal.Zero,
			Revenue:   line.Amount(),
		})
		output.AddLine(outLine)

		ensureBlankSummaryLine(output, pair)
	}

	return nil
}

func (r *mapperRun) firstTaxCodeForNexus(ctx context.Context, nexusID string) taxmapping.Pair {
	if nexusID == "" {
		return taxmapping.UnresolvedPair
	}
	pair, err := r.svc.NexusRepo.FirstTaxCode(ctx, nexusID)
	if err != nil || pair == nil {
		return taxmapping.UnresolvedPair
	}
	return *pair
}

func hasTaxDetails(output hook.Output, lineKey string) bool {
	for _, outLine := range output.Lines() {
		if outLine.Reference().Key() == lineKey {
			return len(outLine.TaxDetails()) >= 1
		}
	}
	return false
}

// ensureBlankSummaryLine adds a zero summary line for the tax code unless
// one already exists.
func ensureBlankSummaryLine(output hook.Output, pair taxmapping.Pair) {
	for _, summary := range output.TaxSummaryLines() {
		if summary.TaxCode == pair.TaxCode {
			return
		}
	}
	output.SetTaxSummaryLine(pair.TaxCode, pair.TaxType, "0.00")
}
