package query

import (
	"strconv"
	"strings"
)

// Clause is a boolean condition over integer columns. It renders to query
// text and can be evaluated against a row, which keeps the two in step.
type Clause interface {
	String() string
	Eval(col func(name string) int) bool
}

type op string

const (
	opEq  op = "="
	opGt  op = ">"
	opGte op = ">="
	opLt  op = "<"
	opLte op = "<="
)

type compare struct {
	col   string
	op    op
	value int
}

func (c compare) String() string {
	return c.col + " " + string(c.op) + " " + strconv.Itoa(c.value)
}

func (c compare) Eval(col func(string) int) bool {
	v := col(c.col)
	switch c.op {
	case opEq:
		return v == c.value
	case opGt:
		return v > c.value
	case opGte:
		return v >= c.value
	case opLt:
		return v < c.value
	case opLte:
		return v <= c.value
	}
	return false
}

type between struct {
	col    string
	lo, hi int
}

func (b between) String() string {
	return b.col + " BETWEEN " + strconv.Itoa(b.lo) + " AND " + strconv.Itoa(b.hi)
}

func (b between) Eval(col func(string) int) bool {
	v := col(b.col)
	return v >= b.lo && v <= b.hi
}

type and []Clause

func (a and) String() string { return join(a, " AND ", len(a) > 1) }

func (a and) Eval(col func(string) int) bool {
	for _, c := range a {
		if !c.Eval(col) {
			return false
		}
	}
	return true
}

type or []Clause

func (o or) String() string { return join(o, " OR ", len(o) > 1) }

func (o or) Eval(col func(string) int) bool {
	for _, c := range o {
		if c.Eval(col) {
			return true
		}
	}
	return false
}

func join(cs []Clause, sep string, paren bool) string {
	var b strings.Builder
	if paren {
		b.WriteByte('(')
	}
	for i, c := range cs {
		if i > 0 {
			b.WriteString(sep)
		}
		b.WriteString(c.String())
	}
	if paren {
		b.WriteByte(')')
	}
	return b.String()
}
