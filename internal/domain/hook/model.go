package hook

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/taxbridge/taxbridge/internal/types"
)

// Address is the ERP-side address shape handed to the plug-in.
type Address struct {
	Line1   string
	Line2   string
	City    string
	State   string
	Zip     string
	Country string
}

// IsEmpty reports whether no locating field is populated.
func (a *Address) IsEmpty() bool {
	return a == nil ||
		(a.Line1 == "" && a.Line2 == "" && a.City == "" &&
			a.State == "" && a.Zip == "" && a.Country == "")
}

// LineRef is an opaque reference to a source transaction line, used to
// correlate output detail lines back to their inputs.
type LineRef interface {
	Key() string
}

// InputLine is one line of the transaction being priced.
type InputLine interface {
	LineType() types.LineType
	Amount() decimal.Decimal
	DiscountTotal() decimal.Decimal
	Quantity() decimal.Decimal
	ShipToAddress() *Address
	ShipFromAddress() *Address
	// FieldValue resolves a named additional column on the line.
	FieldValue(name string) string
	Reference() LineRef
}

// Input is the calculation input handed to the plug-in by the host's tax
// engine. Boolean flags are already converted from the ERP's checkbox
// representation; FieldValue lookups still return raw field strings.
type Input interface {
	RecordType() types.RecordType
	TransactionID() int64
	// OrderNumber is the display document number, which may not exist yet
	// for web-store checkouts.
	OrderNumber() string
	Subsidiary() string
	Entity() string
	Currency() string
	Nexus() string
	TransactionDate() time.Time
	PostingPeriodStartDate() time.Time
	PostingPeriodEndDate() time.Time
	PostingPeriod() string

	IsPreview() bool
	IsPostingTransaction() bool
	IsTaxOutputOverridden() bool
	IsTaxRegistrationOverridden() bool
	IsStoredTaxOutdated() bool

	BillToAddress() *Address
	BillFromAddress() *Address
	ShipToAddress() *Address
	ShipFromAddress() *Address

	// FieldValue resolves a named additional header field.
	FieldValue(name string) string
	Lines() []InputLine
}

// TaxDetail is one resolved tax computation written to an output line.
type TaxDetail struct {
	TaxCode     int64
	TaxType     int64
	Rate        decimal.Decimal
	TaxAmount   decimal.Decimal
	Revenue     decimal.Decimal
	Description string
}

// OutputLine accumulates tax details for one input line.
type OutputLine interface {
	Reference() LineRef
	AddTaxDetail(detail TaxDetail)
	TaxDetails() []TaxDetail
}

// SummaryLine is one tax-code/tax-type total on the transaction.
type SummaryLine struct {
	TaxCode int64
	TaxType int64
	Amount  string
}

// Output is the host's tax output surface.
type Output interface {
	CreateLine(ref LineRef) OutputLine
	AddLine(line OutputLine)
	Lines() []OutputLine
	SetTaxSummaryLine(taxCode, taxType int64, amount string)
	TaxSummaryLines() []SummaryLine
	OverrideNexus(nexusID string)
}

// Notifications is the host's user-notification surface.
type Notifications interface {
	AddWarning(msg string)
	AddError(msg string)
	AddNotice(msg string)
}

// Plugin is the tax-engine extension contract implemented by this module.
// Calculate never returns an error to the host; failures surface through
// Notifications so the transaction can still save.
type Plugin interface {
	Calculate(ctx context.Context, input Input, output Output, notifications Notifications)
	OnTransactionEvent(ctx context.Context, input Input, event types.TransactionEvent)
	AdditionalHeaderFields(ctx context.Context, recordType types.RecordType) []string
	AdditionalLineFields(ctx context.Context, recordType types.RecordType) []string
}
