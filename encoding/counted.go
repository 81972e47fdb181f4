package encoding

// DecodeFunc decodes one T from a cursor.
type DecodeFunc[T any] func(*Decoder) (T, error)

// Counted is a finite, fused, lazy sequence of T bounded by a counter read
// from the stream. Iteration follows the scanner idiom:
//
//	for it.Next() {
//		use(it.Value())
//	}
//	if err := it.Err(); err != nil { ... }
//
// Once the counter is exhausted or a decode fails, Next permanently returns
// false; a failed sequence never resumes.
type Counted[T any] struct {
	dec       Decoder
	fn        DecodeFunc[T]
	val       T
	err       error
	remaining uint32
}

// NewCountedU8 reads a one-byte counter from d and returns the sequence over
// the rest of d's view. The decoder is taken by value; it should be an
// exactly-bounded view of the counted region.
func NewCountedU8[T any](d Decoder, fn DecodeFunc[T]) (*Counted[T], error) {
	count, err := d.ReadU8()
	if err != nil {
		return nil, err
	}
	return &Counted[T]{dec: d, remaining: uint32(count), fn: fn}, nil
}

// NewCountedU16 reads a two-byte counter from d and returns the sequence over
// the rest of d's view.
func NewCountedU16[T any](d Decoder, fn DecodeFunc[T]) (*Counted[T], error) {
	count, err := d.ReadU16()
	if err != nil {
		return nil, err
	}
	return &Counted[T]{dec: d, remaining: uint32(count), fn: fn}, nil
}

// Next decodes the next item. It returns false when the sequence is
// exhausted or a decode failed; check Err afterwards.
func (c *Counted[T]) Next() bool {
	if c.err != nil || c.remaining == 0 {
		return false
	}
	v, err := c.fn(&c.dec)
	if err != nil {
		c.err = err
		return false
	}
	c.remaining--
	c.val = v
	return true
}

// Value returns the item decoded by the last successful Next.
func (c *Counted[T]) Value() T {
	return c.val
}

// Err returns the decode failure that terminated the sequence, if any.
func (c *Counted[T]) Err() error {
	return c.err
}

// Remaining returns how many items have not been decoded yet.
func (c *Counted[T]) Remaining() int {
	return int(c.remaining)
}

// CountedCopy snapshots the decoder and counter of a counted region so that
// Iter can hand out any number of fresh, independent sequences over the same
// already-validated bytes without re-reading the count from the stream.
type CountedCopy[T any] struct {
	dec   Decoder
	fn    DecodeFunc[T]
	count uint32
}

// Iter returns a fresh sequence starting at the beginning of the region.
func (c *CountedCopy[T]) Iter() *Counted[T] {
	return &Counted[T]{dec: c.dec, remaining: c.count, fn: c.fn}
}

// Count returns the item count read when the region was decoded.
func (c *CountedCopy[T]) Count() int {
	return int(c.count)
}

// ReadCountedU8 reads a one-byte counter and then count items from d,
// advancing d past the whole table, and returns a restartable snapshot of
// the region. Decoding the items up front is what locates the end of the
// table, so a snapshot is always over fully validated bytes.
func ReadCountedU8[T any](d *Decoder, fn DecodeFunc[T]) (*CountedCopy[T], error) {
	count, err := d.ReadU8()
	if err != nil {
		return nil, err
	}
	return readCounted(d, uint32(count), fn)
}

// ReadCountedU16 reads a two-byte counter and then count items from d,
// advancing d past the whole table, and returns a restartable snapshot of
// the region.
func ReadCountedU16[T any](d *Decoder, fn DecodeFunc[T]) (*CountedCopy[T], error) {
	count, err := d.ReadU16()
	if err != nil {
		return nil, err
	}
	return readCounted(d, uint32(count), fn)
}

func readCounted[T any](d *Decoder, count uint32, fn DecodeFunc[T]) (*CountedCopy[T], error) {
	start := *d
	for i := uint32(0); i < count; i++ {
		if _, err := fn(d); err != nil {
			return nil, err
		}
	}
	return &CountedCopy[T]{dec: start, count: count, fn: fn}, nil
}

type lazyState uint8

const (
	lazyNotRead lazyState = iota
	lazyRead
	lazyFailed
)

// Lazy is a decode-at-most-once cell. The first Get runs the decode; later
// calls replay the cached value or the cached failure without touching the
// decoder again.
type Lazy[T any] struct {
	val   T
	err   error
	state lazyState
}

// Get returns the cached value, or decodes it on first use.
func (l *Lazy[T]) Get(d *Decoder, fn DecodeFunc[T]) (T, error) {
	switch l.state {
	case lazyRead:
		return l.val, nil
	case lazyFailed:
		var zero T
		return zero, l.err
	}
	v, err := fn(d)
	if err != nil {
		l.state = lazyFailed
		l.err = err
		var zero T
		return zero, err
	}
	l.state = lazyRead
	l.val = v
	return v, nil
}
