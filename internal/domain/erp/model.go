package erp

import (
	"github.com/shopspring/decimal"
)

// StoredTaxDetail is one frozen tax detail row on a saved ERP transaction,
// replayed verbatim when the posting period is closed.
type StoredTaxDetail struct {
	LineKey     string          `json:"line_key"`
	TaxCode     int64           `json:"tax_code"`
	TaxType     int64           `json:"tax_type"`
	Rate        string          `json:"rate"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	Revenue     decimal.Decimal `json:"revenue"`
	Description string          `json:"description"`
}
