package statement

import (
	"github.com/grafana/cqlbind/pkg/cqlerr"
	"github.com/grafana/cqlbind/pkg/types"
)

// Prepared is a server validated query template. It is immutable and safe
// for concurrent use; every Bind returns an independent statement.
type Prepared struct {
	query  string
	params []Parameter
	keys   []int
	opts   []Option
}

// NewPrepared returns the template for query as described by the server:
// its parameters and the positions of the partition key parameters. The
// options are applied to every statement it binds.
func NewPrepared(query string, params []Parameter, keyIndices []int, opts ...Option) *Prepared {
	return &Prepared{
		query:  query,
		params: append([]Parameter(nil), params...),
		keys:   append([]int(nil), keyIndices...),
		opts:   opts,
	}
}

// Bind returns a new statement for the template. Parameters can be bound by
// name and are checked against their declared type; the routing key is
// derived from the partition key parameters.
func (p *Prepared) Bind() *Statement {
	params := append(make([]Parameter, 0, len(p.params)), p.params...)
	return newDeclared(p.query, params, p.keys, p.opts)
}

func (p *Prepared) Query() string {
	return p.query
}

func (p *Prepared) ParameterCount() int {
	return len(p.params)
}

// Parameters returns a copy of the declared parameters.
func (p *Prepared) Parameters() []Parameter {
	return append([]Parameter(nil), p.params...)
}

// ParameterName returns the name of parameter i.
func (p *Prepared) ParameterName(i int) (string, error) {
	if i < 0 || i >= len(p.params) {
		return "", cqlerr.Newf(cqlerr.LibIndexOutOfBounds, "parameter %d of %d", i, len(p.params))
	}
	return p.params[i].Name, nil
}

// ParameterType returns the declared type of parameter i.
func (p *Prepared) ParameterType(i int) (types.DataType, error) {
	if i < 0 || i >= len(p.params) {
		return types.UnknownType(), cqlerr.Newf(cqlerr.LibIndexOutOfBounds, "parameter %d of %d", i, len(p.params))
	}
	return p.params[i].Type, nil
}

// KeyIndices returns the positions of the partition key parameters.
func (p *Prepared) KeyIndices() []int {
	return append([]int(nil), p.keys...)
}
