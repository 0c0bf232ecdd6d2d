package postgresql

import (
	"fmt"
	"strings"
)

// filterBuilder collects WHERE conditions with numbered placeholders.
type filterBuilder struct {
	conditions []string
	args       []any
}

// add appends a condition. Each %d in cond is replaced with the
// placeholder index of arg.
func (b *filterBuilder) add(cond string, arg any) {
	b.args = append(b.args, arg)
	idx := len(b.args)
	n := strings.Count(cond, "%d")
	repeat := make([]any, n)
	for i := range repeat {
		repeat[i] = idx
	}
	b.conditions = append(b.conditions, fmt.Sprintf(cond, repeat...))
}

func (b *filterBuilder) raw(cond string) {
	b.conditions = append(b.conditions, cond)
}

// next returns the placeholder index the next argument will take.
func (b *filterBuilder) next() int {
	return len(b.args) + 1
}

func (b *filterBuilder) where() string {
	if len(b.conditions) == 0 {
		return "TRUE"
	}
	return strings.Join(b.conditions, " AND ")
}

// page appends LIMIT/OFFSET arguments and returns the clause.
func (b *filterBuilder) page(page, limit int) (string, []any) {
	offset := (page - 1) * limit
	args := append(append([]any{}, b.args...), limit, offset)
	return fmt.Sprintf("LIMIT $%d OFFSET $%d", len(b.args)+1, len(b.args)+2), args
}

func joinOr(parts []string) string {
	return strings.Join(parts, " OR ")
}
