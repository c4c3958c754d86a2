package wire

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"
)

func mustDecodeEntry(t *testing.T, b []byte) (time.Time, []byte) {
	t.Helper()
	exp, p, err := DecodeEntry(b)
	if err != nil {
		t.Fatalf("DecodeEntry error: %v", err)
	}
	return exp, p
}

func TestEntryRTEmptyAndNonEmpty(t *testing.T) {
	cases := []struct {
		exp     time.Time
		payload []byte
	}{
		{time.Time{}, nil},
		{time.Unix(0, 1_700_000_000_123_456_789), []byte("hello")},
		{time.Unix(1, 0), []byte{0, 1, 2, 3, 4}},
	}
	for _, tc := range cases {
		enc := EncodeEntry(tc.exp, tc.payload)
		exp, p := mustDecodeEntry(t, enc)
		if !exp.Equal(tc.exp) {
			t.Fatalf("expiry mismatch: got %v want %v", exp, tc.exp)
		}
		if !bytes.Equal(p, tc.payload) {
			t.Fatalf("payload mismatch: got %x want %x", p, tc.payload)
		}
	}
}

func TestEntryRejectsTrailingBytes(t *testing.T) {
	enc := EncodeEntry(time.Time{}, []byte("x"))
	enc = append(enc, 0xDE, 0xAD)
	if _, _, err := DecodeEntry(enc); err == nil {
		t.Fatalf("expected error on trailing bytes")
	}
}

func TestEntryCorruptHeadersAndLengths(t *testing.T) {
	enc := EncodeEntry(time.Unix(5, 0), []byte("abc"))

	badMagic := append([]byte(nil), enc...)
	badMagic[0] = 'X'
	if _, _, err := DecodeEntry(badMagic); err == nil {
		t.Fatalf("expected error on bad magic")
	}

	badVer := append([]byte(nil), enc...)
	badVer[4] = version + 1
	if _, _, err := DecodeEntry(badVer); err == nil {
		t.Fatalf("expected error on bad version")
	}

	badKind := append([]byte(nil), enc...)
	badKind[5] = kindEntry + 1
	if _, _, err := DecodeEntry(badKind); err == nil {
		t.Fatalf("expected error on bad kind")
	}

	// vlen is at offset 14..17 (4 magic +1 ver +1 kind +8 expiry)
	tooLong := append([]byte(nil), enc...)
	binary.BigEndian.PutUint32(tooLong[14:18], uint32(len("abc")+1))
	if _, _, err := DecodeEntry(tooLong); err == nil {
		t.Fatalf("expected error on vlen beyond buffer")
	}

	if _, _, err := DecodeEntry(enc[:len(enc)-1]); err == nil {
		t.Fatalf("expected error on truncated buffer")
	}
	if _, _, err := DecodeEntry([]byte("plain bytes")); err == nil {
		t.Fatalf("expected error on foreign value")
	}
}

func TestEntryZeroCopyPayload(t *testing.T) {
	enc := EncodeEntry(time.Time{}, []byte("Z"))
	_, p := mustDecodeEntry(t, enc)
	p[0] = 'Q'
	_, p2 := mustDecodeEntry(t, enc)
	if p2[0] != 'Q' {
		t.Fatalf("expected zero-copy slice into enc buffer")
	}
}

func TestExpiresAtAndExpired(t *testing.T) {
	now := time.Unix(100, 0)
	if !ExpiresAt(now, 0).IsZero() || !ExpiresAt(now, -time.Second).IsZero() {
		t.Fatalf("ttl<=0 must map to never")
	}
	exp := ExpiresAt(now, time.Second)
	if Expired(exp, now) {
		t.Fatalf("not yet expired")
	}
	if !Expired(exp, now.Add(2*time.Second)) {
		t.Fatalf("should be expired")
	}
	if Expired(time.Time{}, now.Add(time.Hour*1e4)) {
		t.Fatalf("zero deadline never expires")
	}
}
