// Package syncbytes provides the owned byte buffer and non-owning byte
// view types used throughout the wire stack. Buffer is unique-owned and
// should be moved (assigned), never mutably aliased; View borrows a
// range of a Buffer (or any []byte) for the duration of a single parse
// call and must not be retained past it.
package syncbytes

// Buffer is an owned, resizable, contiguous octet sequence.
type Buffer struct {
	data []byte
}

// NewBuffer wraps an existing slice as an owned Buffer. Ownership of b
// transfers to the Buffer; the caller must not mutate b afterward.
func NewBuffer(b []byte) Buffer {
	return Buffer{data: b}
}

// MakeBuffer allocates a new zeroed Buffer of length n.
func MakeBuffer(n int) Buffer {
	return Buffer{data: make([]byte, n)}
}

// Len returns the number of bytes currently held.
func (b Buffer) Len() int { return len(b.data) }

// Bytes exposes the underlying slice. The returned slice aliases the
// Buffer's storage; treat it as read-only unless you own the Buffer.
func (b Buffer) Bytes() []byte { return b.data }

// View returns a non-owning view over the whole buffer.
func (b Buffer) View() View { return View{data: b.data} }

// Slice returns a non-owning view over b.data[lo:hi].
func (b Buffer) Slice(lo, hi int) View { return View{data: b.data[lo:hi]} }

// View is a short-lived, non-owning reference to a byte range. It must
// not outlive the Buffer (or other slice) it was taken from; parsing
// functions accept a View as input and never store it beyond the call.
type View struct {
	data []byte
}

// NewView wraps an existing slice as a View without copying.
func NewView(b []byte) View { return View{data: b} }

// Len returns the number of bytes in the view.
func (v View) Len() int { return len(v.data) }

// Bytes exposes the underlying slice of the view.
func (v View) Bytes() []byte { return v.data }

// Slice returns a sub-view of v, [lo:hi).
func (v View) Slice(lo, hi int) View { return View{data: v.data[lo:hi]} }

// After returns the view of everything from offset n onward.
func (v View) After(n int) View { return View{data: v.data[n:]} }

// Clone copies the view's bytes into a freshly owned Buffer.
func (v View) Clone() Buffer {
	cp := make([]byte, len(v.data))
	copy(cp, v.data)
	return Buffer{data: cp}
}
