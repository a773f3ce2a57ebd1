package dataexchange

import (
	"strings"

	"github.com/taxbridge/taxbridge/internal/types"
)

// Parameter is one operator-configured data-exchange binding: the value of
// a named source field is copied verbatim into a named slot on the
// outgoing request line, per line type.
type Parameter struct {
	ID         string           `json:"id"`
	FormType   types.RecordType `json:"form_type"`
	LineType   types.LineType   `json:"line_type"`
	Parameter  string           `json:"parameter"`
	FieldName  string           `json:"field_name"`
	Subsidiary string           `json:"subsidiary"`

	types.BaseModel
}

// SplitFieldName resolves the source field reference. A "sublist.field"
// reference reads the line; a bare name reads the header.
func (p *Parameter) SplitFieldName() (sublist, field string) {
	parts := strings.SplitN(p.FieldName, ".", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return "", parts[0]
}
