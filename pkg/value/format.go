package value

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/gocql/gocql"
	"gopkg.in/inf.v0"

	"github.com/grafana/cqlbind/pkg/types"
	"github.com/grafana/cqlbind/pkg/uuid"
)

// String renders v for display. Null renders as the empty string, lists and
// sets as [a b], maps as {k:v k:v}, user types as {name:value} and tuples as
// (a b). Nested values are rendered recursively.
func (v Value) String() string {
	var b strings.Builder
	v.render(&b, false)
	return b.String()
}

// GoString renders v for debugging: text is quoted, null is NULL and
// composites are prefixed with their type.
func (v Value) GoString() string {
	var b strings.Builder
	v.render(&b, true)
	return b.String()
}

func (v Value) render(b *strings.Builder, debug bool) {
	if err := v.live(); err != nil {
		fmt.Fprintf(b, "<invalid: %v>", err)
		return
	}
	if v.IsNull() {
		if debug {
			b.WriteString("NULL")
		}
		return
	}
	if v.IsCollection() {
		v.renderComposite(b, debug)
		return
	}

	s, err := v.scalar()
	if err != nil {
		fmt.Fprintf(b, "<invalid: %v>", err)
		return
	}
	switch s := s.(type) {
	case string:
		if debug {
			b.WriteString(strconv.Quote(s))
		} else {
			b.WriteString(s)
		}
	case []byte:
		b.WriteString("0x")
		b.WriteString(hex.EncodeToString(s))
	case uuid.UUID:
		if debug {
			fmt.Fprintf(b, "%s(%s)", v.dt.Type, s)
		} else {
			b.WriteString(s.String())
		}
	case net.IP:
		b.WriteString(s.String())
	case *inf.Dec:
		b.WriteString(s.String())
	case *big.Int:
		b.WriteString(s.String())
	case time.Time:
		if v.dt.Type == types.Date {
			b.WriteString(s.Format("2006-01-02"))
		} else {
			b.WriteString(s.Format(time.RFC3339Nano))
		}
	case time.Duration:
		b.WriteString(time.Time{}.Add(s).Format("15:04:05.000000000"))
	case gocql.Duration:
		fmt.Fprintf(b, "%dmo%dd%dns", s.Months, s.Days, s.Nanoseconds)
	default:
		fmt.Fprintf(b, "%v", s)
	}
}

func (v Value) renderComposite(b *strings.Builder, debug bool) {
	var open, closing string
	var err error
	first := true
	sep := func() {
		if !first {
			b.WriteByte(' ')
		}
		first = false
	}

	switch v.dt.Type {
	case types.List, types.Set:
		open, closing = "[", "]"
		if debug {
			open = v.dt.Type.String() + "["
		}
		b.WriteString(open)
		var it *CollectionIterator
		if it, err = v.AsCollectionIterator(); err == nil {
			for it.Next() {
				sep()
				it.Value().render(b, debug)
			}
			err = it.Err()
			it.Close()
		}

	case types.Map:
		open, closing = "{", "}"
		if debug {
			open = "map{"
		}
		b.WriteString(open)
		var it *MapIterator
		if it, err = v.AsMapIterator(); err == nil {
			for it.Next() {
				sep()
				it.Key().render(b, debug)
				b.WriteByte(':')
				it.Value().render(b, debug)
			}
			err = it.Err()
			it.Close()
		}

	case types.UDT:
		open, closing = "{", "}"
		if debug {
			open = v.dt.String() + "{"
		}
		b.WriteString(open)
		var it *UserTypeIterator
		if it, err = v.AsUserTypeIterator(); err == nil {
			for it.Next() {
				sep()
				b.WriteString(it.FieldName())
				b.WriteByte(':')
				it.Value().render(b, debug)
			}
			err = it.Err()
			it.Close()
		}

	default:
		open, closing = "(", ")"
		if debug {
			open = "tuple("
		}
		b.WriteString(open)
		var it *TupleIterator
		if it, err = v.AsTupleIterator(); err == nil {
			for it.Next() {
				sep()
				it.Value().render(b, debug)
			}
			err = it.Err()
			it.Close()
		}
	}

	if err != nil {
		sep()
		fmt.Fprintf(b, "<invalid: %v>", err)
	}
	b.WriteString(closing)
}
