package netstring

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "0:,"},
		{"hello", "5:hello,"},
		{"outstanding", "11:outstanding,"},
		{"a,b:c", "5:a,b:c,"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := string(Encode([]byte(tt.input))); got != tt.want {
				t.Errorf("Encode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "simple", input: "5:hello,", want: "hello"},
		{name: "empty", input: "0:,", want: ""},
		{
			name:  "url",
			input: "96:http://1.bp.blogspot.com/-1qAfAl__h58/TXoZ_-4ZiMI/AAAAAAAAAOs/jsPA-xb3Yvs/s1600/luxury-car-6.jpg,",
			want:  "http://1.bp.blogspot.com/-1qAfAl__h58/TXoZ_-4ZiMI/AAAAAAAAAOs/jsPA-xb3Yvs/s1600/luxury-car-6.jpg",
		},
		{name: "separators in payload", input: "3:,:,,", want: ",:,"},
		{name: "bad length", input: "a:hello,", wantErr: ErrInvalidLengthField},
		{name: "bad digit", input: "1x:a,", wantErr: ErrInvalidLengthField},
		{name: "bad terminator", input: "5:hello;", wantErr: ErrInvalidTerminatingCharacter},
		{name: "leading zero", input: "00:,", wantErr: ErrInvalidLengthTerminator},
		{name: "leading zero digit", input: "05:hello,", wantErr: ErrInvalidLengthTerminator},
		{name: "truncated", input: "5:hel", wantErr: ErrIncomplete},
		{name: "empty input", input: "", wantErr: ErrIncomplete},
		{name: "trailing", input: "5:hello,5:", wantErr: ErrTrailingData},
		{name: "overflow", input: "99999999999999999999999:", wantErr: ErrLengthTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.input))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Decode(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode(%q) unexpected error: %v", tt.input, err)
			}
			if string(got) != tt.want {
				t.Errorf("Decode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	payloads := [][]byte{
		{},
		[]byte("x"),
		[]byte("0:,"),
		[]byte("http://example.com/a,b:c"),
		bytes.Repeat([]byte{0, ',', ':', 0xff}, 1000),
	}

	for _, p := range payloads {
		got, err := Decode(Encode(p))
		if err != nil {
			t.Fatalf("Decode(Encode(%q)) error: %v", p, err)
		}
		if !bytes.Equal(got, p) {
			t.Errorf("Decode(Encode(%q)) = %q", p, got)
		}
	}
}

func TestReader_FeedChunked(t *testing.T) {
	want := []string{"http://example.com/one", "", "two,:"}
	var stream []byte
	for _, s := range want {
		stream = append(stream, EncodeString(s)...)
	}

	for _, size := range []int{1, 2, 3, 7, len(stream)} {
		r := NewReader()
		var got []string
		for i := 0; i < len(stream); i += size {
			end := min(i+size, len(stream))
			msgs, err := r.Feed(stream[i:end])
			if err != nil {
				t.Fatalf("chunk size %d: Feed error: %v", size, err)
			}
			for _, m := range msgs {
				got = append(got, string(m))
			}
		}

		if len(got) != len(want) {
			t.Fatalf("chunk size %d: got %d messages, want %d", size, len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("chunk size %d: message %d = %q, want %q", size, i, got[i], want[i])
			}
		}
		if r.State() != StateReadFirstDigit {
			t.Errorf("chunk size %d: State() = %s, want %s", size, r.State(), StateReadFirstDigit)
		}
	}
}

func TestReader_FeedUntilDone(t *testing.T) {
	r := NewReader()
	data := []byte("5:hello,3:abc,")

	n, err := r.FeedUntilDone(data)
	if err != nil {
		t.Fatalf("FeedUntilDone error: %v", err)
	}
	if n != 8 {
		t.Errorf("FeedUntilDone consumed %d bytes, want 8", n)
	}
	if r.State() != StateFinished {
		t.Fatalf("State() = %s, want %s", r.State(), StateFinished)
	}
	if got := string(r.Message()); got != "hello" {
		t.Errorf("Message() = %q, want %q", got, "hello")
	}

	// a finished reader consumes nothing until reset
	if n, _ := r.FeedUntilDone(data[8:]); n != 0 {
		t.Errorf("FeedUntilDone on finished reader consumed %d bytes, want 0", n)
	}
}

func TestReader_BytesStateConsumesAvailable(t *testing.T) {
	r := NewReader()
	if n, err := r.FeedUntilDone([]byte("10:abc")); err != nil || n != 6 {
		t.Fatalf("FeedUntilDone = %d, %v; want 6, nil", n, err)
	}
	if r.State() != StateReadBytes {
		t.Errorf("State() = %s, want %s", r.State(), StateReadBytes)
	}
}

func TestReader_ErrorIsSticky(t *testing.T) {
	r := NewReader()

	msgs, err := r.Feed([]byte("2:ok,x:bad,"))
	if !errors.Is(err, ErrInvalidLengthField) {
		t.Fatalf("Feed error = %v, want %v", err, ErrInvalidLengthField)
	}
	if len(msgs) != 1 || string(msgs[0]) != "ok" {
		t.Errorf("Feed messages = %q, want [\"ok\"]", msgs)
	}
	if r.State() != StateError {
		t.Fatalf("State() = %s, want %s", r.State(), StateError)
	}

	if _, err := r.Feed([]byte("2:ok,")); !errors.Is(err, ErrInvalidLengthField) {
		t.Errorf("Feed after error = %v, want sticky %v", err, ErrInvalidLengthField)
	}

	r.Reset()
	msgs, err = r.Feed([]byte("2:ok,"))
	if err != nil || len(msgs) != 1 {
		t.Errorf("Feed after Reset = %q, %v", msgs, err)
	}
}

func TestReader_MaxLength(t *testing.T) {
	r := &Reader{MaxLength: 4}

	if _, err := r.Feed([]byte("4:abcd,")); err != nil {
		t.Fatalf("Feed within limit: %v", err)
	}
	if _, err := r.Feed([]byte("5:abcde,")); !errors.Is(err, ErrLengthTooLarge) {
		t.Errorf("Feed over limit error = %v, want %v", err, ErrLengthTooLarge)
	}
}
