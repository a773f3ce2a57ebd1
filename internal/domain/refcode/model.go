package refcode

import (
	"github.com/taxbridge/taxbridge/internal/types"
)

// RefCode is one row of a reference-code table: an internal id mapped to
// the string value the tax service expects.
type RefCode struct {
	ID       string               `json:"id"`
	Category types.LookupCategory `json:"category"`
	Value    string               `json:"value"`

	types.BaseModel
}
