package postgres

import (
	"strconv"
	"strings"
)

// maxParams is the PostgreSQL limit on bind parameters per statement
const maxParams = 65535

// insertBuilder assembles a multi-row INSERT with numbered placeholders
type insertBuilder struct {
	sb   strings.Builder
	args []any
	rows int
}

func newInsertBuilder(prefix string) *insertBuilder {
	b := &insertBuilder{}
	b.sb.WriteString(prefix)
	return b
}

// row appends one VALUES tuple
func (b *insertBuilder) row(values ...any) {
	if b.rows > 0 {
		b.sb.WriteString(", ")
	}
	b.sb.WriteByte('(')
	for i, v := range values {
		if i > 0 {
			b.sb.WriteString(", ")
		}
		b.args = append(b.args, v)
		b.sb.WriteByte('$')
		b.sb.WriteString(strconv.Itoa(len(b.args)))
	}
	b.sb.WriteByte(')')
	b.rows++
}

func (b *insertBuilder) suffix(s string) {
	b.sb.WriteString(s)
}

func (b *insertBuilder) String() string {
	return b.sb.String()
}

// inChunks calls fn over consecutive [start, end) ranges of n rows,
// each small enough to stay under maxParams with columns parameters per row
func inChunks(n, columns int, fn func(start, end int) error) error {
	size := maxParams / columns
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		if err := fn(start, end); err != nil {
			return err
		}
	}
	return nil
}
