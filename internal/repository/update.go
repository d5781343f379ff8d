package repository

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sumire/devtrack/internal/domain"
)

// setClause renders changes as a SET clause with question-mark placeholders,
// always bumping updated_at. Only columns in allowed may be written.
func setClause(changes domain.Changes, allowed domain.Fields) (string, []any, error) {
	columns := make([]string, 0, len(changes))
	for col := range changes {
		if !allowed.Has(col) {
			return "", nil, fmt.Errorf("column %q is not updatable", col)
		}
		columns = append(columns, col)
	}
	sort.Strings(columns)

	parts := make([]string, 0, len(columns)+1)
	args := make([]any, 0, len(columns))
	for _, col := range columns {
		parts = append(parts, col+" = ?")
		args = append(args, changes[col])
	}
	parts = append(parts, "updated_at = CURRENT_TIMESTAMP")
	return strings.Join(parts, ", "), args, nil
}
