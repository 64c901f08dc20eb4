// SPDX-License-Identifier: MIT

package textcodec

import "testing"

func TestLookup(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"", false},
		{"utf8", false},
		{"UTF-8", false},
		{"ascii", false},
		{"latin1", false},
		{"iso-8859-1", false},
		{"shift-jis", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Lookup(tt.name)
			if (err != nil) != tt.wantErr {
				t.Errorf("Lookup(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
		})
	}
}

func TestASCIICodec(t *testing.T) {
	c, _ := Lookup("ascii")
	got, err := c.Decode([]byte{'h', 'i', 0xff})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hi�" {
		t.Errorf("got %q", got)
	}
	if _, err := c.Encode("café"); err == nil {
		t.Fatal("expected an error encoding a non-ASCII rune")
	}
	enc, err := c.Encode("hi")
	if err != nil || string(enc) != "hi" {
		t.Errorf("Encode(\"hi\") = %v, %v", enc, err)
	}
}

func TestLatin1Codec(t *testing.T) {
	c, _ := Lookup("latin1")
	got, err := c.Decode([]byte{0xe9})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "é" {
		t.Errorf("got %q, want %q", got, "é")
	}
	enc, err := c.Encode("é")
	if err != nil || len(enc) != 1 || enc[0] != 0xe9 {
		t.Errorf("Encode(\"é\") = %v, %v", enc, err)
	}
}

func TestUTF8CodecRejectsInvalid(t *testing.T) {
	c, _ := Lookup("utf8")
	if _, err := c.Decode([]byte{0xff, 0xfe}); err == nil {
		t.Fatal("expected an error decoding invalid utf-8")
	}
}
