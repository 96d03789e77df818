package p25

import "fmt"

// dibitRing keeps the most recent dibits.  Capacity is a power of two so the
// cursor wraps with a mask.
type dibitRing struct {
	buf   []byte
	mask  int
	write int
	count int
}

func newDibitRing(capacity int) *dibitRing {
	size := 1
	for size < capacity {
		size <<= 1
	}
	return &dibitRing{
		buf:  make([]byte, size),
		mask: size - 1,
	}
}

func (r *dibitRing) Put(d byte) {
	r.buf[r.write] = d & 3
	r.write = (r.write + 1) & r.mask
	if r.count < len(r.buf) {
		r.count++
	}
}

func (r *dibitRing) Len() int {
	return r.count
}

// At returns the dibit received age symbols ago; At(0) is the newest.
func (r *dibitRing) At(age int) (byte, error) {
	if age < 0 || age >= r.count {
		return 0, fmt.Errorf("ring: age %d outside %d buffered dibits", age, r.count)
	}
	return r.buf[(r.write-1-age)&r.mask], nil
}

// Snapshot copies the newest n dibits, oldest first.
func (r *dibitRing) Snapshot(n int) ([]byte, error) {
	if n < 0 || n > r.count {
		return nil, fmt.Errorf("ring: snapshot of %d dibits with %d buffered", n, r.count)
	}
	out := make([]byte, n)
	start := r.write - n
	for i := range out {
		out[i] = r.buf[(start+i)&r.mask]
	}
	return out, nil
}

// delayLine hands back each dibit a fixed number of symbols after it went in.
type delayLine struct {
	buf  []byte
	next int
	full bool
}

func newDelayLine(length int) *delayLine {
	return &delayLine{buf: make([]byte, length)}
}

// Push stores d and returns the dibit pushed len(buf) calls earlier.  ok is
// false until the line has filled.
func (l *delayLine) Push(d byte) (out byte, ok bool) {
	out, ok = l.buf[l.next], l.full
	l.buf[l.next] = d
	l.next++
	if l.next == len(l.buf) {
		l.next = 0
		l.full = true
	}
	return out, ok
}
