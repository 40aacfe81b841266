package wire

import "testing"

func TestZeroValuedFieldsAreOmitted(t *testing.T) {
	var w Writer
	w.Int64(1, 0)
	w.Int32(2, 0)
	w.Bool(3, false)
	w.String(4, "")
	w.BytesField(5, nil)
	w.Message(6, nil)
	if w.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 for an all-zero-valued message", w.Len())
	}
}

func TestScalarFieldRoundTrip(t *testing.T) {
	var w Writer
	w.Int64(1, -7)
	w.Int32(2, 42)
	w.Bool(3, true)
	w.String(4, "hello")
	w.BytesField(5, []byte{1, 2, 3})

	r := NewReader(w.Bytes())

	field, wt, err := r.Tag()
	if err != nil || field != 1 || wt != WireVarint {
		t.Fatalf("field 1 tag = (%d, %d, %v)", field, wt, err)
	}
	v, err := r.Varint()
	if err != nil || int64(v) != -7 {
		t.Fatalf("field 1 value = (%d, %v)", int64(v), err)
	}

	field, wt, err = r.Tag()
	if err != nil || field != 2 || wt != WireVarint {
		t.Fatalf("field 2 tag = (%d, %d, %v)", field, wt, err)
	}
	v, err = r.Varint()
	if err != nil || int32(v) != 42 {
		t.Fatalf("field 2 value = (%d, %v)", int32(v), err)
	}

	field, wt, err = r.Tag()
	if err != nil || field != 3 || wt != WireVarint {
		t.Fatalf("field 3 tag = (%d, %d, %v)", field, wt, err)
	}
	v, err = r.Varint()
	if err != nil || v != 1 {
		t.Fatalf("field 3 value = (%d, %v)", v, err)
	}

	field, wt, err = r.Tag()
	if err != nil || field != 4 || wt != WireBytes {
		t.Fatalf("field 4 tag = (%d, %d, %v)", field, wt, err)
	}
	b, err := r.LengthDelimited()
	if err != nil || string(b) != "hello" {
		t.Fatalf("field 4 value = (%q, %v)", b, err)
	}

	field, wt, err = r.Tag()
	if err != nil || field != 5 || wt != WireBytes {
		t.Fatalf("field 5 tag = (%d, %d, %v)", field, wt, err)
	}
	b, err = r.LengthDelimited()
	if err != nil || len(b) != 3 || b[0] != 1 || b[1] != 2 || b[2] != 3 {
		t.Fatalf("field 5 value = (%v, %v)", b, err)
	}

	if !r.Done() {
		t.Fatal("expected the reader to be exhausted")
	}
}

func TestSkipUnknownFields(t *testing.T) {
	var w Writer
	w.String(1, "keep")
	w.Int64(99, 12345) // unknown field a reader should skip over
	w.String(2, "also keep")

	r := NewReader(w.Bytes())

	field, _, err := r.Tag()
	if err != nil || field != 1 {
		t.Fatalf("first field = (%d, %v)", field, err)
	}
	if _, err := r.LengthDelimited(); err != nil {
		t.Fatalf("LengthDelimited: %v", err)
	}

	field, wt, err := r.Tag()
	if err != nil || field != 99 {
		t.Fatalf("second field = (%d, %v)", field, err)
	}
	if err := r.Skip(wt); err != nil {
		t.Fatalf("Skip: %v", err)
	}

	field, _, err = r.Tag()
	if err != nil || field != 2 {
		t.Fatalf("third field = (%d, %v)", field, err)
	}
	b, err := r.LengthDelimited()
	if err != nil || string(b) != "also keep" {
		t.Fatalf("third field value = (%q, %v)", b, err)
	}
}

func TestReaderRejectsTruncatedInput(t *testing.T) {
	var w Writer
	w.String(1, "a longer string than the truncation leaves room for")
	full := w.Bytes()

	for n := 1; n < len(full); n++ {
		r := NewReader(full[:n])
		var err error
		for err == nil && !r.Done() {
			var wt int
			_, wt, err = r.Tag()
			if err != nil {
				break // truncation surfaced as an error somewhere — acceptable for any prefix
			}
			if wt == WireBytes {
				_, err = r.LengthDelimited()
			} else {
				err = r.Skip(wt)
			}
		}
		if err == nil {
			t.Fatalf("prefix of length %d decoded without error", n)
		}
	}
}
