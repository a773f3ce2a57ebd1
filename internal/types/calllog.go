package types

// CallMethod names an operation on the external tax service. The form
// parameter wrapping the urlencoded JSON body differs per method.
type CallMethod string

const (
	MethodPostRequest         CallMethod = "PostRequest"
	MethodFinalizePostRequest CallMethod = "FinalizePostRequest"
	MethodCancelPostRequest   CallMethod = "CancelPostRequest"
	MethodPostRequestBatch    CallMethod = "PostRequestBatch"
)

// FormParam returns the form field name carrying the request payload.
func (m CallMethod) FormParam() string {
	switch m {
	case MethodPostRequest:
		return "request"
	case MethodCancelPostRequest:
		return "requestCancel"
	default:
		return ""
	}
}

// Service response codes with dedicated handling.
const (
	ResponseCodeSuccess = "9999"
	ResponseCodePartial = "9001"
)

// CallStatus classifies a logged service interaction.
type CallStatus int

const (
	CallStatusSuccess CallStatus = 1
	CallStatusPartial CallStatus = 2
	CallStatusFailure CallStatus = 3
)

// CallStatusFromResponseCode maps a service response code to a log status.
func CallStatusFromResponseCode(code string) CallStatus {
	switch code {
	case ResponseCodeSuccess:
		return CallStatusSuccess
	case ResponseCodePartial:
		return CallStatusPartial
	default:
		return CallStatusFailure
	}
}

// CallLogKind separates service-interaction logs from mapping-error logs.
type CallLogKind string

const (
	CallLogKindService      CallLogKind = "service_call"
	CallLogKindMappingError CallLogKind = "mapping_error"
)

// CallLogFilter filters call log queries.
type CallLogFilter struct {
	*QueryFilter
	TransactionID int64
	RecordType    RecordType
	Kind          CallLogKind
}

// CallLogUpdateFilter filters call-log-update record queries.
type CallLogUpdateFilter struct {
	*QueryFilter
	TransID    string
	RecordType RecordType
	Updated    *bool
	LogID      string
}

// DataExchangeFilter filters data-exchange parameter queries.
type DataExchangeFilter struct {
	*QueryFilter
	FormType   RecordType
	Subsidiary string
}

// TaxMappingFilter keys tax-code mapping rule queries. DefaultOnly selects
// the country-level default fallback rows.
type TaxMappingFilter struct {
	*QueryFilter
	State           string
	Country         string
	TaxTypeCode     string
	TaxIncludedCode string
	Subsidiary      string
	DefaultOnly     bool
}
