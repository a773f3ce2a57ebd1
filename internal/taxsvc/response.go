package taxsvc

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Response is the service's calculation (or cancellation) result. A nil
// *Response means the call failed at the transport level.
type Response struct {
	Successful     string          `json:"Successful"`
	ResponseCode   string          `json:"ResponseCode"`
	HeaderMessage  string          `json:"HeaderMessage"`
	ErrorMessage   string          `json:"ErrorMessage"`
	ClientTracking string          `json:"ClientTracking"`
	TransId        int64           `json:"TransId"`
	MasterTransId  int64           `json:"MasterTransId"`
	TotalTax       decimal.Decimal `json:"TotalTax"`
	GroupList      []*Group        `json:"GroupList"`
	ItemMessages   []*ItemMessage  `json:"ItemMessages"`
}

// IsSuccessful reports whether the service accepted the request.
func (r *Response) IsSuccessful() bool {
	return r != nil && r.Successful == "Y"
}

// NewEmptySuccessResponse is the synthetic result used when a transaction
// has no taxable lines and no service call is made.
func NewEmptySuccessResponse() *Response {
	return &Response{
		Successful:    "Y",
		ResponseCode:  "9999",
		HeaderMessage: "Success",
		TransId:       0,
	}
}

// Group carries the tax computations for one request line, correlated by
// 1-based LineNumber. StateCode is pipe-delimited state|country.
type Group struct {
	LineNumber int        `json:"LineNumber"`
	StateCode  string     `json:"StateCode"`
	TaxList    []*TaxItem `json:"TaxList"`
}

// SplitStateCode resolves (state, country) from the group's state code.
// State stays blank unless the country is US or CA.
func (g *Group) SplitStateCode() (string, string) {
	parts := strings.Split(g.StateCode, "|")
	if len(parts) < 2 {
		return "", ""
	}
	country := parts[1]
	if len(country) > 2 {
		country = country[0:2]
	}
	if country != "US" && country != "CA" {
		return "", country
	}
	return parts[0], country
}

// TaxItem is one individual tax computation within a group.
type TaxItem struct {
	TaxTypeCode string          `json:"TaxTypeCode"`
	TaxTypeDesc string          `json:"TaxTypeDesc"`
	TaxAmount   decimal.Decimal `json:"TaxAmount"`
	Revenue     decimal.Decimal `json:"Revenue"`
	TaxRate     string          `json:"TaxRate"`

	// Tax category fields are injected before the response is persisted to
	// the audit log; the service itself does not return them.
	TaxCatCode string `json:"TaxCatCode,omitempty"`
	TaxCatDesc string `json:"TaxCatDesc,omitempty"`
}

// Rate parses the tax rate, tolerating a trailing percent sign.
func (t *TaxItem) Rate() decimal.Decimal {
	raw := strings.TrimSuffix(strings.TrimSpace(t.TaxRate), "%")
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return rate
}

// ItemMessage is a line-indexed warning returned by the service.
type ItemMessage struct {
	LineNumber   int    `json:"LineNumber"`
	ResponseCode string `json:"ResponseCode"`
	Message      string `json:"Message"`
}
