package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/samber/lo"

	"github.com/taxbridge/taxbridge/internal/domain/calllog"
	"github.com/taxbridge/taxbridge/internal/domain/hook"
	ierr "github.com/taxbridge/taxbridge/internal/errors"
	"github.com/taxbridge/taxbridge/internal/taxsvc"
	"github.com/taxbridge/taxbridge/internal/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ProcessResult is the outcome the engine branches on after a service
// call. ServiceTransID is -1 when there was no response at all.
type ProcessResult struct {
	Successful     bool
	ServiceTransID int64
}

// ProcessorService audits every service interaction and maintains the
// update records that bridge provisional order numbers to saved ERP
// transactions.
type ProcessorService interface {
	// ProcessResponse audits one service interaction. request is either a
	// *taxsvc.Request or a *taxsvc.CancelRequest.
	ProcessResponse(ctx context.Context, response *taxsvc.Response, request any, input hook.Input, notifications hook.Notifications, method types.CallMethod, isCancel, isSaveEvent bool) ProcessResult
	// ReconcilePending back-fills the transaction link on call logs whose
	// update records are still pending for the saved transaction.
	ReconcilePending(ctx context.Context, input hook.Input)
	// LatestRequest returns the request payload stored on the most recent
	// service-call log for the transaction, nil when none exists.
	LatestRequest(ctx context.Context, input hook.Input) *taxsvc.Request
	// LatestServiceTransID returns the service transaction id to cancel.
	// When deleting, an invalid id on the call log falls back to the
	// latest update record.
	LatestServiceTransID(ctx context.Context, input hook.Input, deleting bool) int64
}

type processorService struct {
	ServiceParams
	settings SettingsService
}

func NewProcessorService(params ServiceParams, settingsSvc SettingsService) ProcessorService {
	return &processorService{
		ServiceParams: params,
		settings:      settingsSvc,
	}
}

func (s *processorService) ProcessResponse(ctx context.Context, response *taxsvc.Response, request any, input hook.Input, notifications hook.Notifications, method types.CallMethod, isCancel, isSaveEvent bool) ProcessResult {
	if response == nil {
		s.Logger.Errorw("tax service returned no response",
			"method", method,
			"transaction_id", input.TransactionID(),
			"record_type", input.RecordType())
		return ProcessResult{Successful: false, ServiceTransID: -1}
	}

	successful := response.IsSuccessful()
	orderNo := resolveOrderNumber(input)

	s.Logger.Infow("tax service call processed",
		"method", method,
		"transaction_id", input.TransactionID(),
		"record_type", input.RecordType(),
		"service_trans_id", response.TransId)

	log := &calllog.CallLog{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CALL_LOG),
		Kind:           types.CallLogKindService,
		Method:         method,
		HeaderMessage:  response.HeaderMessage,
		ErrorMessage:   "",
		ItemMessage:    combineItemMessages(response.ItemMessages),
		ResponseCode:   response.ResponseCode,
		CallStatus:     types.CallStatusFromResponseCode(response.ResponseCode),
		Successful:     successful,
		ServiceTransID: response.TransId,
		Request:        calllog.Truncate(strippedRequestPayload(request)),
		Response:       calllog.Truncate(storedResponsePayload(ctx, s.settings, response)),
		RecordType:     input.RecordType(),
		BaseModel:      types.GetDefaultBaseModel(ctx),
	}
	if isSaveEvent {
		log.TransactionID = input.TransactionID()
	}
	if err := s.CallLogRepo.Create(ctx, log); err != nil {
		s.Logger.Errorw("failed to create call log", "method", method, "error", err)
	}

	if !isCancel {
		// Cancellations never carry a service transaction id forward.
		serviceTransID := response.TransId
		if method == types.MethodCancelPostRequest {
			serviceTransID = 0
		}

		key := orderNo
		if key == "" {
			key = strconv.FormatInt(input.TransactionID(), 10)
		}
		rec := &calllog.UpdateRecord{
			ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CALL_LOG_UPDATE),
			TransID:        key,
			LogID:          log.ID,
			Updated:        false,
			RecordType:     input.RecordType(),
			ServiceTransID: serviceTransID,
			BaseModel:      types.GetDefaultBaseModel(ctx),
		}
		if err := s.CallLogUpdateRepo.Create(ctx, rec); err != nil {
			s.Logger.Errorw("failed to create call log update record", "error", err)
		}
	}

	if orderNo != "" {
		s.rekeyPendingUpdates(ctx, orderNo, input)
	}

	if notifications != nil {
		if msg := combineItemMessages(response.ItemMessages); msg != "" {
			notifications.AddWarning(msg)
		}
	}

	return ProcessResult{Successful: successful, ServiceTransID: response.TransId}
}

// rekeyPendingUpdates replaces the provisional order number on pending
// update records with the internal transaction id, so the records stay
// findable once the document number changes or disappears.
func (s *processorService) rekeyPendingUpdates(ctx context.Context, orderNo string, input hook.Input) {
	internalID := strconv.FormatInt(input.TransactionID(), 10)
	if orderNo == internalID {
		return
	}

	recs, err := s.CallLogUpdateRepo.List(ctx, &types.CallLogUpdateFilter{
		TransID:    orderNo,
		RecordType: input.RecordType(),
		Updated:    lo.ToPtr(false),
	})
	if err != nil {
		s.Logger.Warnw("pending update record lookup failed", "order_no", orderNo, "error", err)
		return
	}

	for _, rec := range recs {
		rec.TransID = internalID
		if err := s.CallLogUpdateRepo.Update(ctx, rec); err != nil {
			s.Logger.Warnw("failed to rekey update record", "id", rec.ID, "error", err)
		}
	}
}

// ReconcilePending runs at save time. Every pending update record for the
// saved transaction gets its call log linked to the transaction and is
// flipped to updated.
func (s *processorService) ReconcilePending(ctx context.Context, input hook.Input) {
	transID := strconv.FormatInt(input.TransactionID(), 10)
	recs, err := s.CallLogUpdateRepo.List(ctx, &types.CallLogUpdateFilter{
		TransID:    transID,
		RecordType: input.RecordType(),
		Updated:    lo.ToPtr(false),
	})
	if err != nil {
		s.Logger.Warnw("pending update record lookup failed", "trans_id", transID, "error", err)
		return
	}

	for _, rec := range recs {
		log, err := s.CallLogRepo.Get(ctx, rec.LogID)
		if err != nil {
			s.Logger.Warnw("call log lookup failed", "log_id", rec.LogID, "error", err)
			continue
		}
		log.TransactionID = input.TransactionID()
		if err := s.CallLogRepo.Update(ctx, log); err != nil {
			s.Logger.Warnw("failed to link call log", "log_id", rec.LogID, "error", err)
			continue
		}

		rec.Updated = true
		if err := s.CallLogUpdateRepo.Update(ctx, rec); err != nil {
			s.Logger.Warnw("failed to flip update record", "id", rec.ID, "error", err)
		}
	}
}

func (s *processorService) LatestRequest(ctx context.Context, input hook.Input) *taxsvc.Request {
	log, err := s.CallLogRepo.Latest(ctx, input.TransactionID(), input.RecordType())
	if err != nil {
		if !ierr.IsNotFound(err) {
			s.Logger.Warnw("latest call log lookup failed",
				"transaction_id", input.TransactionID(),
				"error", err)
		}
		return nil
	}
	if log.Request == "" {
		return nil
	}

	var request taxsvc.Request
	if err := json.UnmarshalFromString(log.Request, &request); err != nil {
		s.Logger.Warnw("stored request could not be decoded", "log_id", log.ID, "error", err)
		return nil
	}
	return &request
}

func (s *processorService) LatestServiceTransID(ctx context.Context, input hook.Input, deleting bool) int64 {
	var id int64
	log, err := s.CallLogRepo.Latest(ctx, input.TransactionID(), input.RecordType())
	if err == nil {
		id = log.ServiceTransID
	} else if !ierr.IsNotFound(err) {
		s.Logger.Warnw("latest call log lookup failed",
			"transaction_id", input.TransactionID(),
			"error", err)
	}
	if id > 0 || !deleting {
		return id
	}

	// Deleted transactions may never have had their call log linked; the
	// update record still carries the service transaction id.
	rec, err := s.CallLogUpdateRepo.Latest(ctx, strconv.FormatInt(input.TransactionID(), 10), input.RecordType())
	if err != nil {
		if !ierr.IsNotFound(err) {
			s.Logger.Warnw("latest update record lookup failed",
				"transaction_id", input.TransactionID(),
				"error", err)
		}
		return id
	}
	return rec.ServiceTransID
}

// resolveOrderNumber returns the document number used to key update
// records. A number that is not purely numeric, or runs past 15 digits,
// is a placeholder and falls back to the internal transaction id.
func resolveOrderNumber(input hook.Input) string {
	orderNo := input.OrderNumber()
	if orderNo == "" {
		return ""
	}
	if !isDigits(orderNo) || len(orderNo) > 15 {
		return strconv.FormatInt(input.TransactionID(), 10)
	}
	return orderNo
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func marshalPayload(v any) string {
	if v == nil {
		return ""
	}
	payload, err := json.MarshalToString(v)
	if err != nil {
		return ""
	}
	return payload
}

// stripValidationKey blanks the credential on a copy of the request so it
// never reaches the audit log.
func stripValidationKey(request *taxsvc.Request) *taxsvc.Request {
	if request == nil {
		return nil
	}
	stripped := *request
	stripped.ValidationKey = ""
	return &stripped
}

func strippedRequestPayload(request any) string {
	switch req := request.(type) {
	case *taxsvc.Request:
		return marshalPayload(stripValidationKey(req))
	case *taxsvc.CancelRequest:
		if req == nil {
			return ""
		}
		stripped := *req
		stripped.ValidationKey = ""
		return marshalPayload(&stripped)
	case nil:
		return ""
	}
	return marshalPayload(request)
}

// combineItemMessages flattens the service's line warnings into the single
// string shown to the user and stored on the log.
func combineItemMessages(messages []*taxsvc.ItemMessage) string {
	var sb strings.Builder
	for _, msg := range messages {
		if msg == nil {
			continue
		}
		fmt.Fprintf(&sb, "Line Number: %d Response Code: %s Message: %s<br/>",
			msg.LineNumber, msg.ResponseCode, msg.Message)
	}
	return sb.String()
}

// storedResponsePayload serializes the response for the audit log with
// reporting categories injected: the raw 5-character tax type code is
// split into the type code (positions 2-3) and category code (positions
// 4-5), and the category description is resolved from configuration. The
// in-memory response is left untouched.
func storedResponsePayload(ctx context.Context, settings SettingsService, response *taxsvc.Response) string {
	if response == nil {
		return ""
	}
	if len(response.GroupList) == 0 {
		return marshalPayload(response)
	}

	stored := *response
	stored.GroupList = make([]*taxsvc.Group, len(response.GroupList))
	for i, group := range response.GroupList {
		g := *group
		g.TaxList = make([]*taxsvc.TaxItem, len(group.TaxList))
		for j, item := range group.TaxList {
			t := *item
			raw := t.TaxTypeCode
			if len(raw) > 2 {
				t.TaxTypeCode = raw[1:3]
			}
			if len(raw) > 4 {
				t.TaxCatCode = raw[3:5]
			}
			if cat := settings.TaxCategory(ctx, t.TaxCatCode); cat != nil {
				t.TaxCatDesc = cat.Description
			}
			g.TaxList[j] = &t
		}
		stored.GroupList[i] = &g
	}
	return marshalPayload(&stored)
}
