package statement

import (
	"github.com/gocql/gocql"

	"github.com/grafana/cqlbind/pkg/cqlerr"
	"github.com/grafana/cqlbind/pkg/resource"
)

// Batch types.
const (
	Logged   = gocql.LoggedBatch
	Unlogged = gocql.UnloggedBatch
	Counter  = gocql.CounterBatch
)

// maxBatchSize is the protocol limit on statements per batch.
const maxBatchSize = 65535

// Batch groups statements that are submitted as one request. Atomicity is
// provided by the server for logged batches only.
type Batch struct {
	typ               gocql.BatchType
	entries           []Request
	consistency       *gocql.Consistency
	serialConsistency *gocql.SerialConsistency
	handle            *resource.Handle
}

func NewBatch(typ gocql.BatchType, opts ...Option) *Batch {
	return &Batch{typ: typ, handle: acquire(resource.KindBatch, opts)}
}

// AddStatement moves s into the batch. s is consumed on success and must not
// be used afterwards; on error it is untouched.
func (b *Batch) AddStatement(s *Statement) error {
	if b.handle.Released() {
		return errReleased(resource.KindBatch)
	}
	if len(b.entries) >= maxBatchSize {
		return cqlerr.Newf(cqlerr.LibInvalidItemCount, "batch holds at most %d statements", maxBatchSize)
	}
	req, err := s.Consume()
	if err != nil {
		return err
	}
	b.entries = append(b.entries, req)
	return nil
}

// Len returns the number of statements.
func (b *Batch) Len() int {
	return len(b.entries)
}

func (b *Batch) Type() gocql.BatchType {
	return b.typ
}

// SetConsistency applies to the whole batch.
func (b *Batch) SetConsistency(c gocql.Consistency) *Batch {
	b.consistency = &c
	return b
}

func (b *Batch) SetSerialConsistency(c gocql.SerialConsistency) *Batch {
	b.serialConsistency = &c
	return b
}

// BatchRequest is the submitted form of a batch.
type BatchRequest struct {
	Type              gocql.BatchType
	Entries           []Request
	Consistency       *gocql.Consistency
	SerialConsistency *gocql.SerialConsistency
}

// Consume hands the batch over for execution.
func (b *Batch) Consume() (BatchRequest, error) {
	if b.handle.Released() {
		return BatchRequest{}, cqlerr.Newf(cqlerr.LibBadParams, "batch was already submitted or closed")
	}
	if len(b.entries) == 0 {
		return BatchRequest{}, cqlerr.Newf(cqlerr.LibInvalidItemCount, "batch is empty")
	}
	req := BatchRequest{
		Type:              b.typ,
		Entries:           b.entries,
		Consistency:       b.consistency,
		SerialConsistency: b.serialConsistency,
	}
	b.handle.Release()
	return req, nil
}

// Close releases a batch that will not be submitted, together with the
// statements it holds.
func (b *Batch) Close() error {
	b.handle.Release()
	return nil
}
