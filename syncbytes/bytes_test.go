package syncbytes

import "testing"

func TestBufferViewRoundTrip(t *testing.T) {
	b := NewBuffer([]byte("hello world"))
	v := b.Slice(6, 11)
	if string(v.Bytes()) != "world" {
		t.Fatalf("got %q", v.Bytes())
	}
}

func TestViewCloneIsIndependent(t *testing.T) {
	backing := []byte{1, 2, 3}
	v := NewView(backing)
	owned := v.Clone()
	backing[0] = 0xFF
	if owned.Bytes()[0] != 1 {
		t.Fatal("clone should not alias the original backing array")
	}
}

func TestViewAfter(t *testing.T) {
	v := NewView([]byte{1, 2, 3, 4, 5})
	rest := v.After(2)
	if rest.Len() != 3 || rest.Bytes()[0] != 3 {
		t.Fatalf("unexpected after-slice: %v", rest.Bytes())
	}
}
