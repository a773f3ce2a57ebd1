package testutil

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/taxbridge/taxbridge/internal/domain/hook"
	"github.com/taxbridge/taxbridge/internal/types"
)

// FakeLineRef keys an input line for output correlation.
type FakeLineRef struct {
	ID string
}

func (r FakeLineRef) Key() string { return r.ID }

// FakeInputLine implements hook.InputLine over plain fields.
type FakeInputLine struct {
	Type     types.LineType
	Amt      decimal.Decimal
	Discount decimal.Decimal
	Qty      decimal.Decimal
	ShipTo   *hook.Address
	ShipFrom *hook.Address
	Fields   map[string]string
	Ref      hook.LineRef
}

func (l *FakeInputLine) LineType() types.LineType         { return l.Type }
func (l *FakeInputLine) Amount() decimal.Decimal          { return l.Amt }
func (l *FakeInputLine) DiscountTotal() decimal.Decimal   { return l.Discount }
func (l *FakeInputLine) Quantity() decimal.Decimal        { return l.Qty }
func (l *FakeInputLine) ShipToAddress() *hook.Address     { return l.ShipTo }
func (l *FakeInputLine) ShipFromAddress() *hook.Address   { return l.ShipFrom }
func (l *FakeInputLine) FieldValue(name string) string    { return l.Fields[name] }
func (l *FakeInputLine) Reference() hook.LineRef          { return l.Ref }

// FakeInput implements hook.Input over plain fields.
type FakeInput struct {
	RecType          types.RecordType
	TransID          int64
	OrderNo          string
	SubsidiaryID     string
	EntityID         string
	CurrencyCode     string
	NexusID          string
	TransDate        time.Time
	PeriodStart      time.Time
	PeriodEnd        time.Time
	Period           string
	Preview          bool
	Posting          bool
	OutputOverridden bool
	RegOverridden    bool
	StoredOutdated   bool
	BillTo           *hook.Address
	BillFrom         *hook.Address
	ShipTo           *hook.Address
	ShipFrom         *hook.Address
	Fields           map[string]string
	TransLines       []*FakeInputLine
}

func (i *FakeInput) RecordType() types.RecordType        { return i.RecType }
func (i *FakeInput) TransactionID() int64                { return i.TransID }
func (i *FakeInput) OrderNumber() string                 { return i.OrderNo }
func (i *FakeInput) Subsidiary() string                  { return i.SubsidiaryID }
func (i *FakeInput) Entity() string                      { return i.EntityID }
func (i *FakeInput) Currency() string                    { return i.CurrencyCode }
func (i *FakeInput) Nexus() string                       { return i.NexusID }
func (i *FakeInput) TransactionDate() time.Time          { return i.TransDate }
func (i *FakeInput) PostingPeriodStartDate() time.Time   { return i.PeriodStart }
func (i *FakeInput) PostingPeriodEndDate() time.Time     { return i.PeriodEnd }
func (i *FakeInput) PostingPeriod() string               { return i.Period }
func (i *FakeInput) IsPreview() bool                     { return i.Preview }
func (i *FakeInput) IsPostingTransaction() bool          { return i.Posting }
func (i *FakeInput) IsTaxOutputOverridden() bool         { return i.OutputOverridden }
func (i *FakeInput) IsTaxRegistrationOverridden() bool   { return i.RegOverridden }
func (i *FakeInput) IsStoredTaxOutdated() bool           { return i.StoredOutdated }
func (i *FakeInput) BillToAddress() *hook.Address        { return i.BillTo }
func (i *FakeInput) BillFromAddress() *hook.Address      { return i.BillFrom }
func (i *FakeInput) ShipToAddress() *hook.Address        { return i.ShipTo }
func (i *FakeInput) ShipFromAddress() *hook.Address      { return i.ShipFrom }
func (i *FakeInput) FieldValue(name string) string       { return i.Fields[name] }

func (i *FakeInput) Lines() []hook.InputLine {
	lines := make([]hook.InputLine, len(i.TransLines))
	for idx, line := range i.TransLines {
		lines[idx] = line
	}
	return lines
}

// FakeOutputLine implements hook.OutputLine.
type FakeOutputLine struct {
	ref     hook.LineRef
	details []hook.TaxDetail
}

func (l *FakeOutputLine) Reference() hook.LineRef { return l.ref }

func (l *FakeOutputLine) AddTaxDetail(detail hook.TaxDetail) {
	l.details = append(l.details, detail)
}

func (l *FakeOutputLine) TaxDetails() []hook.TaxDetail { return l.details }

// FakeOutput implements hook.Output, recording everything written to it.
type FakeOutput struct {
	lines     []hook.OutputLine
	summaries []hook.SummaryLine
	NexusID   string
}

func NewFakeOutput() *FakeOutput { return &FakeOutput{} }

func (o *FakeOutput) CreateLine(ref hook.LineRef) hook.OutputLine {
	return &FakeOutputLine{ref: ref}
}

func (o *FakeOutput) AddLine(line hook.OutputLine) {
	o.lines = append(o.lines, line)
}

func (o *FakeOutput) Lines() []hook.OutputLine { return o.lines }

func (o *FakeOutput) SetTaxSummaryLine(taxCode, taxType int64, amount string) {
	for idx, summary := range o.summaries {
		if summary.TaxCode == taxCode && summary.TaxType == taxType {
			o.summaries[idx].Amount = amount
			return
		}
	}
	o.summaries = append(o.summaries, hook.SummaryLine{
		TaxCode: taxCode,
		TaxType: taxType,
		Amount:  amount,
	})
}

func (o *FakeOutput) TaxSummaryLines() []hook.SummaryLine { return o.summaries }

func (o *FakeOutput) OverrideNexus(nexusID string) { o.NexusID = nexusID }

// LineByKey returns the output line for the given reference key, nil when
// none was written.
func (o *FakeOutput) LineByKey(key string) hook.OutputLine {
	for _, line := range o.lines {
		if line.Reference().Key() == key {
			return line
		}
	}
	return nil
}

// FakeNotifications implements hook.Notifications, recording messages.
type FakeNotifications struct {
	Warnings []string
	Errors   []string
	Notices  []string
}

func NewFakeNotifications() *FakeNotifications { return &FakeNotifications{} }

func (n *FakeNotifications) AddWarning(msg string) { n.Warnings = append(n.Warnings, msg) }
func (n *FakeNotifications) AddError(msg string)   { n.Errors = append(n.Errors, msg) }
func (n *FakeNotifications) AddNotice(msg string)  { n.Notices = append(n.Notices, msg) }
