// servs/s_cas/cas_serv/types.go
package cas_serv

import (
	"errors"

	"github.com/rskv-p/cas/pkg/x_cas"
)

var (
	ErrValueType = errors.New("unsupported value type")
	ErrBadValue  = errors.New("bad value")
)

// Record is a key in its wire form. Value holds an int or a string
// depending on the store.
type Record struct {
	Path  string `json:"path" mapstructure:"path"`
	Value any    `json:"value" mapstructure:"value"`
	DID   uint64 `json:"did" mapstructure:"did"`
}

// QueryRequest selects keys by path pattern and value range. A missing
// bound is open.
type QueryRequest struct {
	Path  string `json:"path" mapstructure:"path"`
	Low   any    `json:"low,omitempty" mapstructure:"low"`
	High  any    `json:"high,omitempty" mapstructure:"high"`
	Limit int    `json:"limit,omitempty" mapstructure:"limit"` // 0 returns every match
}

type QueryResult struct {
	Matches   []Record         `json:"matches"`
	Truncated bool             `json:"truncated,omitempty"`
	Stats     x_cas.QueryStats `json:"stats"`
}

type InsertResult struct {
	Stats x_cas.UpdateStats `json:"stats"`
}

type DeleteResult struct {
	Deleted bool `json:"deleted"`
}

// Info describes a store.
type Info struct {
	ID        string   `json:"id"`
	ValueType string   `json:"value_type"`
	Keys      int      `json:"keys"`
	AuxKeys   int      `json:"aux_keys"`
	Policies  Policies `json:"policies"`
}

type Policies struct {
	InsertMain     string `json:"insert_main"`
	InsertAux      string `json:"insert_aux"`
	Delete         string `json:"delete"`
	Target         string `json:"target"`
	Merge          string `json:"merge"`
	MergeThreshold int    `json:"merge_threshold"`
}

func policiesOf(o x_cas.Options) Policies {
	return Policies{
		InsertMain:     o.InsertMain.String(),
		InsertAux:      o.InsertAux.String(),
		Delete:         o.Delete.String(),
		Target:         o.Target.String(),
		Merge:          o.Merge.String(),
		MergeThreshold: o.MergeThreshold,
	}
}
