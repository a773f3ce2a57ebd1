package service

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/taxbridge/taxbridge/internal/domain/taxmapping"
	"github.com/taxbridge/taxbridge/internal/taxsvc"
	"github.com/taxbridge/taxbridge/internal/testutil"
	"github.com/taxbridge/taxbridge/internal/types"
)

type ProcessorServiceSuite struct {
	testutil.BaseServiceTestSuite
	service ProcessorService
}

func TestProcessorService(t *testing.T) {
	suite.Run(t, new(ProcessorServiceSuite))
}

func (s *ProcessorServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := testServiceParams(&s.BaseServiceTestSuite)
	s.service = NewProcessorService(params, NewSettingsService(params))
}

func (s *ProcessorServiceSuite) processorInput(orderNo string) *testutil.FakeInput {
	return &testutil.FakeInput{
		RecType:      types.RecordTypeInvoice,
		TransID:      3001,
		OrderNo:      orderNo,
		SubsidiaryID: testSubsidiary,
		Fields:       map[string]string{},
	}
}

func successResponse(transID int64) *taxsvc.Response {
	return &taxsvc.Response{
		Successful:    "Y",
		ResponseCode:  types.ResponseCodeSuccess,
		HeaderMessage: "Success",
		TransId:       transID,
	}
}

func (s *ProcessorServiceSuite) TestNilResponse() {
	input := s.processorInput("1234")

	result := s.service.ProcessResponse(s.GetContext(), nil, nil, input, nil, types.MethodPostRequest, false, false)
	s.False(result.Successful)
	s.Equal(int64(-1), result.ServiceTransID)

	logs, err := s.GetStores().CallLogRepo.List(s.GetContext(), nil)
	s.NoError(err)
	s.Empty(logs)
}

func (s *ProcessorServiceSuite) TestSuccessCreatesLogAndPendingUpdate() {
	input := s.processorInput("1234")
	request := &taxsvc.Request{ClientNumber: "000000123", ValidationKey: "secret-key"}

	result := s.service.ProcessResponse(s.GetContext(), successResponse(777), request, input, nil, types.MethodPostRequest, false, false)
	s.True(result.Successful)
	s.Equal(int64(777), result.ServiceTransID)

	logs, err := s.GetStores().CallLogRepo.List(s.GetContext(), nil)
	s.NoError(err)
	s.Len(logs, 1)
	s.Equal(types.CallLogKindService, logs[0].Kind)
	s.Equal(types.MethodPostRequest, logs[0].Method)
	s.Equal(types.CallStatusSuccess, logs[0].CallStatus)
	s.Equal(int64(777), logs[0].ServiceTransID)
	s.Zero(logs[0].TransactionID)
	s.Contains(logs[0].Request, "000000123")
	s.NotContains(logs[0].Request, "secret-key")

	recs, err := s.GetStores().CallLogUpdateRepo.List(s.GetContext(), nil)
	s.NoError(err)
	s.Len(recs, 1)
	// The provisional document number is rekeyed to the internal id in
	// the same pass that created the record.
	s.Equal("3001", recs[0].TransID)
	s.Equal(logs[0].ID, recs[0].LogID)
	s.Equal(int64(777), recs[0].ServiceTransID)
	s.False(recs[0].Updated)
}

func (s *ProcessorServiceSuite) TestSaveEventLinksTransaction() {
	input := s.processorInput("1234")

	s.service.ProcessResponse(s.GetContext(), successResponse(777), nil, input, nil, types.MethodPostRequest, false, true)

	logs, err := s.GetStores().CallLogRepo.List(s.GetContext(), nil)
	s.NoError(err)
	s.Len(logs, 1)
	s.Equal(int64(3001), logs[0].TransactionID)
}

func (s *ProcessorServiceSuite) TestPlaceholderOrderNumberUsesInternalID() {
	input := s.processorInput("SO-DRAFT")

	s.service.ProcessResponse(s.GetContext(), successResponse(777), nil, input, nil, types.MethodPostRequest, false, false)

	recs, err := s.GetStores().CallLogUpdateRepo.List(s.GetContext(), nil)
	s.NoError(err)
	s.Len(recs, 1)
	s.Equal("3001", recs[0].TransID)
}

func (s *ProcessorServiceSuite) TestEmptyOrderNumberUsesInternalID() {
	input := s.processorInput("")

	s.service.ProcessResponse(s.GetContext(), successResponse(777), nil, input, nil, types.MethodPostRequest, false, false)

	recs, err := s.GetStores().CallLogUpdateRepo.List(s.GetContext(), nil)
	s.NoError(err)
	s.Len(recs, 1)
	s.Equal("3001", recs[0].TransID)
}

func (s *ProcessorServiceSuite) TestCancelDoesNotCreateUpdateRecord() {
	input := s.processorInput("1234")
	request := &taxsvc.CancelRequest{ClientNumber: "000000123", ValidationKey: "secret-key"}

	s.service.ProcessResponse(s.GetContext(), successResponse(777), request, input, nil, types.MethodCancelPostRequest, true, false)

	logs, err := s.GetStores().CallLogRepo.List(s.GetContext(), nil)
	s.NoError(err)
	s.Len(logs, 1)
	s.NotContains(logs[0].Request, "secret-key")

	recs, err := s.GetStores().CallLogUpdateRepo.List(s.GetContext(), nil)
	s.NoError(err)
	s.Empty(recs)
}

func (s *ProcessorServiceSuite) TestCancelMethodZeroesUpdateServiceTransID() {
	input := s.processorInput("1234")

	s.service.ProcessResponse(s.GetContext(), successResponse(777), nil, input, nil, types.MethodCancelPostRequest, false, false)

	recs, err := s.GetStores().CallLogUpdateRepo.List(s.GetContext(), nil)
	s.NoError(err)
	s.Len(recs, 1)
	s.Zero(recs[0].ServiceTransID)
}

func (s *ProcessorServiceSuite) TestItemMessagesBecomeWarning() {
	input := s.processorInput("1234")
	notifications := testutil.NewFakeNotifications()

	response := successResponse(777)
	response.ResponseCode = types.ResponseCodePartial
	response.ItemMessages = []*taxsvc.ItemMessage{
		{LineNumber: 1, ResponseCode: "9124", Message: "Invalid ship-to zip"},
		{LineNumber: 3, ResponseCode: "9130", Message: "Invalid tax code"},
	}

	s.service.ProcessResponse(s.GetContext(), response, nil, input, notifications, types.MethodPostRequest, false, false)

	expected := "Line Number: 1 Response Code: 9124 Message: Invalid ship-to zip<br/>" +
		"Line Number: 3 Response Code: 9130 Message: Invalid tax code<br/>"
	s.Require().Len(notifications.Warnings, 1)
	s.Equal(expected, notifications.Warnings[0])

	logs, err := s.GetStores().CallLogRepo.List(s.GetContext(), nil)
	s.NoError(err)
	s.Len(logs, 1)
	s.Equal(expected, logs[0].ItemMessage)
	s.Equal(types.CallStatusPartial, logs[0].CallStatus)
}

func (s *ProcessorServiceSuite) TestFailureStatus() {
	input := s.processorInput("1234")

	response := &taxsvc.Response{
		Successful:    "N",
		ResponseCode:  "1101",
		HeaderMessage: "Failure",
	}
	result := s.service.ProcessResponse(s.GetContext(), response, nil, input, nil, types.MethodPostRequest, false, false)
	s.False(result.Successful)

	logs, err := s.GetStores().CallLogRepo.List(s.GetContext(), nil)
	s.NoError(err)
	s.Len(logs, 1)
	s.Equal(types.CallStatusFailure, logs[0].CallStatus)
}

func (s *ProcessorServiceSuite) TestStoredResponseInjectsCategories() {
	s.GetStores().TaxCategoryRepo.(*testutil.InMemoryTaxCategoryStore).Add(&taxmapping.TaxCategory{
		ID:          "tc_1",
		Code:        "01",
		Description: "Communications",
	})

	input := s.processorInput("1234")
	response := successResponse(777)
	response.GroupList = []*taxsvc.Group{
		{
			LineNumber: 1,
			StateCode:  "TX|US",
			TaxList:    []*taxsvc.TaxItem{taxItem("10101", "8.25", "100", "0.0825")},
		},
	}

	s.service.ProcessResponse(s.GetContext(), response, nil, input, nil, types.MethodPostRequest, false, false)

	logs, err := s.GetStores().CallLogRepo.List(s.GetContext(), nil)
	s.NoError(err)
	s.Len(logs, 1)
	s.Contains(logs[0].Response, `"TaxTypeCode":"01"`)
	s.Contains(logs[0].Response, `"TaxCatCode":"01"`)
	s.Contains(logs[0].Response, "Communications")

	// The live response the mapper reads stays untouched.
	s.Equal("10101", response.GroupList[0].TaxList[0].TaxTypeCode)
}

func (s *ProcessorServiceSuite) TestReconcilePendingLinksLog() {
	input := s.processorInput("1234")
	s.service.ProcessResponse(s.GetContext(), successResponse(777), nil, input, nil, types.MethodPostRequest, false, false)

	s.service.ReconcilePending(s.GetContext(), input)

	logs, err := s.GetStores().CallLogRepo.List(s.GetContext(), nil)
	s.NoError(err)
	s.Len(logs, 1)
	s.Equal(int64(3001), logs[0].TransactionID)

	recs, err := s.GetStores().CallLogUpdateRepo.List(s.GetContext(), nil)
	s.NoError(err)
	s.Len(recs, 1)
	s.True(recs[0].Updated)
}

func (s *ProcessorServiceSuite) TestLatestRequest() {
	input := s.processorInput("1234")
	s.Nil(s.service.LatestRequest(s.GetContext(), input))

	request := &taxsvc.Request{ClientNumber: "000000123", ValidationKey: "secret-key", ReturnFileCode: taxsvc.ReturnFileCodeQuote}
	s.service.ProcessResponse(s.GetContext(), successResponse(777), request, input, nil, types.MethodPostRequest, false, false)
	s.service.ReconcilePending(s.GetContext(), input)

	stored := s.service.LatestRequest(s.GetContext(), input)
	s.Require().NotNil(stored)
	s.Equal("000000123", stored.ClientNumber)
	s.Equal(taxsvc.ReturnFileCodeQuote, stored.ReturnFileCode)
	s.Empty(stored.ValidationKey)
}

func (s *ProcessorServiceSuite) TestLatestServiceTransID() {
	input := s.processorInput("1234")
	s.Zero(s.service.LatestServiceTransID(s.GetContext(), input, false))

	s.service.ProcessResponse(s.GetContext(), successResponse(777), nil, input, nil, types.MethodPostRequest, false, false)

	// The log is still unlinked, so only the delete path can fall back to
	// the update record.
	s.Zero(s.service.LatestServiceTransID(s.GetContext(), input, false))
	s.Equal(int64(777), s.service.LatestServiceTransID(s.GetContext(), input, true))

	s.service.ReconcilePending(s.GetContext(), input)
	s.Equal(int64(777), s.service.LatestServiceTransID(s.GetContext(), input, false))
}
