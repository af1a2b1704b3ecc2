package badge

import (
	"fmt"
	"strings"
)

// RenderCatalog formats the catalog as an aligned text table, one badge per
// line, with unlocked badges marked. Used by the CLI badges listing and
// pinned by a golden test.
func (r *Registry) RenderCatalog(unlocked Set) string {
	var b strings.Builder
	for _, d := range r.defs {
		mark := " "
		if unlocked[d.ID] {
			mark = "*"
		}
		fmt.Fprintf(&b, "%s %-16s%-11s%s: %s\n", mark, d.ID, d.Category, d.Name, d.Description)
	}
	return b.String()
}
