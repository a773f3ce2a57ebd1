package taxsvc

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Request is one tax-calculation request. ItemList is empty only when the
// source transaction has no taxable lines; callers short-circuit that case
// instead of posting.
type Request struct {
	ClientNumber          string         `json:"ClientNumber"`
	BusinessUnit          string         `json:"BusinessUnit"`
	ValidationKey         string         `json:"ValidationKey"`
	DataYear              string         `json:"DataYear"`
	DataMonth             string         `json:"DataMonth"`
	CmplDataYear          string         `json:"CmplDataYear"`
	CmplDataMonth         string         `json:"CmplDataMonth"`
	ClientTracking        string         `json:"ClientTracking"`
	ResponseType          string         `json:"ResponseType"`
	ResponseGroup         string         `json:"ResponseGroup"`
	ReturnFileCode        string         `json:"ReturnFileCode"`
	IndustryExemption     string         `json:"IndustryExemption"`
	STAN                  string         `json:"STAN"`
	MasterTransId         int64          `json:"MasterTransId"`
	TotalRevenue          decimal.Decimal `json:"TotalRevenue"`
	BillingAddress        Address        `json:"BillingAddress"`
	P2PAddress            Address        `json:"P2PAddress"`
	ShipToAddress         Address        `json:"ShipToAddress"`
	ShipFromAddress       Address        `json:"ShipFromAddress"`
	OrderPlacementAddress string         `json:"OrderPlacementAddress"`
	OrderApprovalAddress  string         `json:"OrderApprovalAddress"`
	ItemList              []*RequestLine `json:"ItemList"`
}

// Fixed response shape selectors expected by the response mapper.
const (
	ResponseTypeDetail  = "12C2"
	ResponseGroupDetail = "13"
)

// Quote/post modes for ReturnFileCode.
const (
	ReturnFileCodePost  = "0"
	ReturnFileCodeQuote = "Q"
)

// RequestLine is one taxable transaction line. LineNumber is the 1-based
// source position among all lines, so excluded lines leave gaps.
type RequestLine struct {
	LineNumber             int             `json:"LineNumber"`
	InvoiceNumber          string          `json:"InvoiceNumber"`
	CustomerNumber         string          `json:"CustomerNumber"`
	LocationCode           string          `json:"LocationCode"`
	BillToNumber           string          `json:"BillToNumber"`
	OrigNumber             string          `json:"OrigNumber"`
	TermNumber             string          `json:"TermNumber"`
	TransDate              string          `json:"TransDate"`
	BillingPeriodStartDate string          `json:"BillingPeriodStartDate"`
	BillingPeriodEndDate   string          `json:"BillingPeriodEndDate"`
	Revenue                decimal.Decimal `json:"Revenue"`
	TaxIncludedCode        string          `json:"TaxIncludedCode"`
	Units                  decimal.Decimal `json:"Units"`
	UnitType               string          `json:"UnitType"`
	Seconds                string          `json:"Seconds"`
	TaxSitusRule           string          `json:"TaxSitusRule"`
	TaxSitusOverrideCode   string          `json:"TaxSitusOverrideCode"`
	RuleOverride           string          `json:"RuleOverride"`
	TransTypeCode          string          `json:"TransTypeCode"`
	SalesTypeCode          string          `json:"SalesTypeCode"`
	RegulatoryCode         string          `json:"RegulatoryCode"`
	TaxExemptionCodeList   []string        `json:"TaxExemptionCodeList"`
	ExemptReasonCode       string          `json:"ExemptReasonCode"`
	UDF                    string          `json:"UDF"`
	FreightOnBoard         string          `json:"FreightOnBoard"`
	ShipFromPOB            string          `json:"ShipFromPOB"`
	MailOrder              string          `json:"MailOrder"`
	CommonCarrier          string          `json:"CommonCarrier"`
	OriginCountryCode      string          `json:"OriginCountryCode"`
	DestCountryCode        string          `json:"DestCountryCode"`
	AuxRevenue             decimal.Decimal `json:"AuxRevenue"`
	AuxRevenueType         string          `json:"AuxRevenueType"`
	BillingDaysInPeriod    int             `json:"BillingDaysInPeriod"`
	CurrencyCode           string          `json:"CurrencyCode"`
	BillingAddress         Address         `json:"BillingAddress"`
	P2PAddress             Address         `json:"P2PAddress"`
	ShipToAddress          Address         `json:"ShipToAddress"`
	ShipFromAddress        Address         `json:"ShipFromAddress"`
	OrderPlacementAddress  string          `json:"OrderPlacementAddress"`
	OrderApprovalAddress   string          `json:"OrderApprovalAddress"`
	TaxOption              string          `json:"TaxOption"`

	// DataExchange carries operator-configured parameter bindings that are
	// merged into the marshalled line as top-level fields.
	DataExchange map[string]string `json:"-"`
}

// MarshalJSON merges the data-exchange parameters into the line object so
// operator-defined slots appear alongside the fixed fields.
func (l *RequestLine) MarshalJSON() ([]byte, error) {
	type alias RequestLine
	base, err := json.Marshal((*alias)(l))
	if err != nil || len(l.DataExchange) == 0 {
		return base, err
	}

	var merged map[string]jsoniter.RawMessage
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for param, value := range l.DataExchange {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		merged[param] = raw
	}
	return json.Marshal(merged)
}

// CancelRequest voids a previously posted service transaction.
type CancelRequest struct {
	ClientNumber   string `json:"ClientNumber"`
	ClientTracking string `json:"ClientTracking"`
	TransId        int64  `json:"TransId"`
	ValidationKey  string `json:"ValidationKey"`
}
