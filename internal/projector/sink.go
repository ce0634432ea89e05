package projector

import "errors"

// RowSink receives projected rows. Close flushes and releases the sink.
type RowSink interface {
	WriteRow(r *Row) error
	Close() error
}

// Aborter is implemented by sinks that can discard what they have written.
type Aborter interface {
	Abort() error
}

// AbortSink discards s when it implements Aborter and closes it otherwise.
func AbortSink(s RowSink) error {
	if a, ok := s.(Aborter); ok {
		return a.Abort()
	}
	return s.Close()
}

// MultiSink fans rows out to several sinks in order. The first write error
// stops the fan-out for that row.
type MultiSink []RowSink

// WriteRow writes r to every sink.
func (m MultiSink) WriteRow(r *Row) error {
	for _, s := range m {
		if err := s.WriteRow(r); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink and joins their errors.
func (m MultiSink) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Abort aborts every sink and joins their errors.
func (m MultiSink) Abort() error {
	var errs []error
	for _, s := range m {
		if err := AbortSink(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Collector keeps rows in memory.
type Collector struct {
	Rows   []*Row
	Closed bool
}

// WriteRow appends r.
func (c *Collector) WriteRow(r *Row) error {
	c.Rows = append(c.Rows, r)
	return nil
}

// Close marks the collector closed.
func (c *Collector) Close() error {
	c.Closed = true
	return nil
}
