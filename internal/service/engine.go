package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/taxbridge/taxbridge/internal/domain/hook"
	"github.com/taxbridge/taxbridge/internal/taxsvc"
	"github.com/taxbridge/taxbridge/internal/types"
)

// engineService implements the host's tax-engine plug-in contract. It
// sequences gathering, the service calls, response mapping and auditing.
// Calculation failures surface as error notifications so the transaction
// can still save.
type engineService struct {
	ServiceParams
	settings  SettingsService
	gather    GatherService
	mapper    MapperService
	processor ProcessorService
}

func NewEngine(params ServiceParams) hook.Plugin {
	settingsSvc := NewSettingsService(params)
	return &engineService{
		ServiceParams: params,
		settings:      settingsSvc,
		gather:        NewGatherService(params, settingsSvc),
		mapper:        NewMapperService(params, settingsSvc),
		processor:     NewProcessorService(params, settingsSvc),
	}
}

func (s *engineService) Calculate(ctx context.Context, input hook.Input, output hook.Output, notifications hook.Notifications) {
	if input.IsTaxOutputOverridden() || input.IsTaxRegistrationOverridden() {
		return
	}

	if err := s.calculate(ctx, input, output, notifications); err != nil {
		s.Logger.Errorw("tax calculation failed",
			"transaction_id", input.TransactionID(),
			"record_type", input.RecordType(),
			"error", err)
		notifications.AddError("Error occurred. \n" + err.Error())
	}
}

func (s *engineService) calculate(ctx context.Context, input hook.Input, output hook.Output, notifications hook.Notifications) error {
	isPosting := input.IsPostingTransaction() && !input.IsPreview()

	if isPosting && input.PostingPeriod() != "" {
		closed, err := s.ERPRepo.IsPeriodClosed(ctx, input.PostingPeriod())
		if err != nil {
			return err
		}
		if closed {
			// The period can no longer accept a recalculated amount, so
			// the frozen details on the saved transaction are replayed.
			if err := s.replayStoredDetails(ctx, input, output); err != nil {
				return err
			}
			return s.mapper.FillInTaxDetails(ctx, input, output)
		}
	}

	if isPosting {
		// A recalculation supersedes whatever was posted before.
		s.cancelServiceTransaction(ctx, input, false)
	}

	cfg, err := s.settings.GetConfiguration(ctx, input.Subsidiary())
	if err != nil {
		return err
	}

	// Calculation always quotes; the post happens at save time.
	request, err := s.gather.CreateCalcRequest(ctx, input, true)
	if err != nil {
		return err
	}

	if len(request.ItemList) == 0 {
		s.processor.ProcessResponse(ctx, taxsvc.NewEmptySuccessResponse(), request, input, notifications, types.MethodPostRequest, false, false)
		notifications.AddWarning("No lines were calculated with CCH&reg; SureTax&reg;.")
		return s.mapper.FillInTaxDetails(ctx, input, output)
	}

	var postItems []*taxsvc.RequestLine
	hasSalesTax := false
	if isPosting {
		for _, item := range request.ItemList {
			if item.TaxOption != types.TaxOptionSalesTax {
				postItems = append(postItems, item)
			} else {
				hasSalesTax = true
			}
		}
		if hasSalesTax {
			request.ReturnFileCode = taxsvc.ReturnFileCodeQuote
		}
	}

	response, err := s.TaxClient.Post(ctx, cfg.Connection.URL, request)
	if err != nil {
		s.Logger.Errorw("calculation call failed",
			"transaction_id", input.TransactionID(),
			"error", err)
	}

	isPurchase := input.RecordType().IsPurchase()
	if isPurchase && hasSalesTax && isPosting {
		notifications.AddWarning("A transaction with Sales tax option is not posted in SureTax.  A purchase transaction requires lines with Use Tax option (only) to post successfully in SureTax.")
	}

	if isPosting && len(postItems) > 0 && hasSalesTax {
		// The use-tax subset posts for real; its transaction ids replace
		// the quote's so cancellation targets the posted document.
		posting := *request
		posting.ItemList = postItems
		posting.ReturnFileCode = taxsvc.ReturnFileCodePost

		postingResponse, err := s.TaxClient.Post(ctx, cfg.Connection.URL, &posting)
		if err != nil {
			s.Logger.Errorw("posting call failed",
				"transaction_id", input.TransactionID(),
				"error", err)
		}
		if response != nil && postingResponse != nil {
			response.MasterTransId = postingResponse.MasterTransId
			response.TransId = postingResponse.TransId
		}
	}

	result := s.processor.ProcessResponse(ctx, response, request, input, notifications, types.MethodPostRequest, false, false)
	if result.Successful {
		if err := s.mapper.UpdateTax(ctx, input, output, response, request, notifications); err != nil {
			return err
		}
		if result.ServiceTransID > -1 {
			notifications.AddNotice("Call to CCH&reg; SureTax&reg; was successful. CCH&reg; SureTax&reg; transaction id is " + strconv.FormatInt(result.ServiceTransID, 10))
		}
	}

	return s.mapper.FillInTaxDetails(ctx, input, output)
}

// replayStoredDetails writes the saved transaction's frozen tax details
// back to the output positionally, line p of the details against line p
// of the input.
func (s *engineService) replayStoredDetails(ctx context.Context, input hook.Input, output hook.Output) error {
	details, err := s.ERPRepo.StoredTaxDetails(ctx, input.RecordType(), input.TransactionID())
	if err != nil {
		return err
	}

	lines := input.Lines()

	type summary struct {
		taxCode int64
		total   decimal.Decimal
	}
	totals := make(map[int64]*summary)
	var order []int64

	for p, detail := range details {
		if p >= len(lines) {
			s.Logger.Warnw("stored tax detail without a matching line",
				"transaction_id", input.TransactionID(),
				"index", p)
			break
		}

		rate, rerr := decimal.NewFromString(strings.SplitN(detail.Rate, "%", 2)[0])
		if rerr != nil {
			rate = decimal.Zero
		}

		outLine := output.CreateLine(lines[p].Reference())
		outLine.AddTaxDetail(hook.TaxDetail{
			TaxCode:     detail.TaxCode,
			TaxType:     detail.TaxType,
			Rate:        rate,
			TaxAmount:   detail.TaxAmount,
			Revenue:     detail.Revenue,
			Description: detail.Description,
		})
		output.AddLine(outLine)

		if acc, ok := totals[detail.TaxType]; ok {
			acc.total = acc.total.Add(detail.TaxAmount)
		} else {
			totals[detail.TaxType] = &summary{taxCode: detail.TaxCode, total: detail.TaxAmount}
			order = append(order, detail.TaxType)
		}
	}

	for _, taxType := range order {
		acc := totals[taxType]
		output.SetTaxSummaryLine(acc.taxCode, taxType, acc.total.Round(2).String())
	}
	return nil
}

func (s *engineService) OnTransactionEvent(ctx context.Context, input hook.Input, event types.TransactionEvent) {
	s.Logger.Infow("transaction event",
		"event", event,
		"transaction_id", input.TransactionID(),
		"record_type", input.RecordType())

	switch {
	case (event == types.EventVoid || event == types.EventDelete) && input.IsPostingTransaction():
		s.cancelServiceTransaction(ctx, input, true)

	case event == types.EventSave:
		s.processor.ReconcilePending(ctx, input)

		if input.IsPostingTransaction() && input.IsStoredTaxOutdated() {
			s.finalize(ctx, input)
		}
	}
}

// finalize posts the transaction for real at save time, reusing the
// request stored with the quote when one exists. This path runs in the
// background so nothing is reported to the user.
func (s *engineService) finalize(ctx context.Context, input hook.Input) {
	cfg, err := s.settings.GetConfiguration(ctx, input.Subsidiary())
	if err != nil {
		s.Logger.Errorw("finalize configuration load failed",
			"transaction_id", input.TransactionID(),
			"error", err)
		return
	}

	request := s.processor.LatestRequest(ctx, input)
	if request == nil {
		request, err = s.gather.CreateCalcRequest(ctx, input, false)
		if err != nil {
			s.Logger.Errorw("finalize request rebuild failed",
				"transaction_id", input.TransactionID(),
				"error", err)
			return
		}
	} else {
		hasSalesTax := lo.SomeBy(request.ItemList, func(item *taxsvc.RequestLine) bool {
			return item.TaxOption == types.TaxOptionSalesTax
		})
		if input.RecordType().IsPurchase() && hasSalesTax {
			request.ReturnFileCode = taxsvc.ReturnFileCodeQuote
		} else {
			request.ReturnFileCode = taxsvc.ReturnFileCodePost
		}
		// Credentials may have rotated since the quote was stored.
		request.ValidationKey = cfg.Connection.ValidationKey
	}

	response, err := s.TaxClient.Post(ctx, cfg.Connection.URL, request)
	if err != nil {
		s.Logger.Errorw("finalize call failed",
			"transaction_id", input.TransactionID(),
			"error", err)
	}

	s.processor.ProcessResponse(ctx, response, request, input, nil, types.MethodPostRequest, false, true)
}

// cancelServiceTransaction voids the latest service transaction for the
// ERP transaction, silently doing nothing when none was ever posted.
func (s *engineService) cancelServiceTransaction(ctx context.Context, input hook.Input, deleting bool) {
	serviceTransID := s.processor.LatestServiceTransID(ctx, input, deleting)
	if serviceTransID <= 0 {
		return
	}

	cfg, err := s.settings.GetConfiguration(ctx, input.Subsidiary())
	if err != nil {
		s.Logger.Errorw("cancel configuration load failed",
			"transaction_id", input.TransactionID(),
			"error", err)
		return
	}

	cancelRequest, err := s.gather.CreateCancelRequest(ctx, input, serviceTransID)
	if err != nil {
		s.Logger.Errorw("cancel request build failed",
			"transaction_id", input.TransactionID(),
			"error", err)
		return
	}
	if cancelRequest == nil {
		return
	}

	response, err := s.TaxClient.Cancel(ctx, cfg.Connection.URL, cancelRequest)
	if err != nil {
		s.Logger.Errorw("cancel call failed",
			"transaction_id", input.TransactionID(),
			"error", err)
	}

	result := s.processor.ProcessResponse(ctx, response, cancelRequest, input, nil, types.MethodCancelPostRequest, deleting, false)
	if result.Successful {
		s.Logger.Infow("cancelled service transaction",
			"transaction_id", input.TransactionID(),
			"service_trans_id", serviceTransID)
	}
}

// AdditionalHeaderFields lists the header fields the host must hand to
// Calculate, the fixed set plus any operator-configured data exchange
// bindings without a sublist.
func (s *engineService) AdditionalHeaderFields(ctx context.Context, recordType types.RecordType) []string {
	fields := s.gather.HeaderFields(recordType)
	fields = append(fields, "tranid")
	return append(fields, s.dataExchangeFields(ctx, recordType, false)...)
}

// AdditionalLineFields lists the line columns the host must hand to
// Calculate, the fixed set plus sublist-bound data exchange fields.
func (s *engineService) AdditionalLineFields(ctx context.Context, recordType types.RecordType) []string {
	fields := s.gather.LineFields(recordType)
	return append(fields, s.dataExchangeFields(ctx, recordType, true)...)
}

func (s *engineService) dataExchangeFields(ctx context.Context, recordType types.RecordType, wantLine bool) []string {
	params, err := s.DataExchangeRepo.List(ctx, &types.DataExchangeFilter{FormType: recordType})
	if err != nil {
		s.Logger.Warnw("data exchange field lookup failed",
			"record_type", recordType,
			"error", err)
		return nil
	}

	var fields []string
	for _, param := range params {
		sublist, field := param.SplitFieldName()
		if field == "" || (sublist != "") != wantLine {
			continue
		}
		fields = append(fields, field)
	}
	return fields
}
