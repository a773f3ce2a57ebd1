package calllog

import (
	"unicode/utf8"

	"github.com/taxbridge/taxbridge/internal/types"
)

// MaxPayloadChars caps the stored request and response payloads.
const MaxPayloadChars = 1_000_000

// CallLog is the audit record written for every service interaction,
// successful or not. Mapping-error records share the entity with
// KindMappingError and only the message fields populated.
type CallLog struct {
	ID   string            `json:"id"`
	Kind types.CallLogKind `json:"kind"`

	Method        types.CallMethod `json:"method"`
	HeaderMessage string           `json:"header_message"`
	ErrorMessage  string           `json:"error_message"`
	ItemMessage   string           `json:"item_message"`
	ResponseCode  string           `json:"response_code"`
	CallStatus    types.CallStatus `json:"call_status"`
	Successful    bool             `json:"successful"`

	// ServiceTransID is the durable id the tax service assigned, -1 when
	// the call failed before one existed.
	ServiceTransID int64 `json:"service_trans_id"`

	// Request has the validation key stripped; Response carries injected
	// tax category fields. Both are capped at MaxPayloadChars.
	Request  string `json:"request"`
	Response string `json:"response"`

	// TransactionID links the ERP transaction, 0 until back-filled by an
	// update record after save.
	TransactionID int64            `json:"transaction_id"`
	RecordType    types.RecordType `json:"record_type"`

	types.BaseModel
}

// Truncate enforces the payload cap, cutting on a rune boundary so a
// truncated payload stays valid UTF-8.
func Truncate(payload string) string {
	if len(payload) <= MaxPayloadChars {
		return payload
	}
	cut := MaxPayloadChars
	for cut > 0 && !utf8.RuneStart(payload[cut]) {
		cut--
	}
	return payload[:cut]
}

// UpdateRecord bridges a call log to an ERP transaction that had no
// permanent identifier at calculation time. Created with Updated=false
// keyed by a provisional order number; flipped to true once the saved
// transaction back-fills the call log's transaction link.
type UpdateRecord struct {
	ID string `json:"id"`

	// TransID is the provisional order number, replaced by the internal
	// transaction id once known.
	TransID        string           `json:"trans_id"`
	LogID          string           `json:"log_id"`
	Updated        bool             `json:"updated"`
	RecordType     types.RecordType `json:"record_type"`
	ServiceTransID int64            `json:"service_trans_id"`

	types.BaseModel
}
