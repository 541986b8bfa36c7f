// Package sqlgen builds parameterized UPDATE fragments from field diffs, so
// neither engine ever assembles SQL from caller values by string
// concatenation.
package sqlgen

import (
	"fmt"
	"strings"

	"github.com/thindery/pantry-pal-api-sub000/internal/model"
)

// Dialect selects the placeholder style.
type Dialect int

const (
	SQLite   Dialect = iota // ?
	Postgres                // $1, $2, ...
)

// Placeholder returns the n-th (1-based) statement placeholder.
func (d Dialect) Placeholder(n int) string {
	if d == Postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// BuildItemUpdate turns an item field diff into a SET clause and its
// arguments. Only fields present in the diff are included; last_updated is
// always bumped, so the clause is never empty. lastUpdated is passed through
// as-is because the engines encode timestamps differently.
//
// The returned clause numbers placeholders from 1; callers appending a WHERE
// clause continue from len(args)+1.
func BuildItemUpdate(in model.UpdateItemInput, d Dialect, lastUpdated any) (string, []any) {
	var cols []string
	var args []any

	set := func(col string, v any) {
		args = append(args, v)
		cols = append(cols, fmt.Sprintf("%s = %s", col, d.Placeholder(len(args))))
	}

	if in.Name != nil {
		set("name", *in.Name)
	}
	if in.Barcode != nil {
		set("barcode", *in.Barcode)
	}
	if in.Quantity != nil {
		set("quantity", *in.Quantity)
	}
	if in.Unit != nil {
		set("unit", *in.Unit)
	}
	if in.Category != nil {
		set("category", *in.Category)
	}
	set("last_updated", lastUpdated)

	return strings.Join(cols, ", "), args
}
