package netstring

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// State is the parse state of a Reader.
type State int

const (
	StateReadFirstDigit State = iota
	StateReadLengthDigit
	StateReadColon
	StateReadBytes
	StateReadComma
	StateFinished
	StateError
)

func (s State) String() string {
	switch s {
	case StateReadFirstDigit:
		return "read-first-digit"
	case StateReadLengthDigit:
		return "read-length-digit"
	case StateReadColon:
		return "read-colon"
	case StateReadBytes:
		return "read-bytes"
	case StateReadComma:
		return "read-comma"
	case StateFinished:
		return "finished"
	case StateError:
		return "error"
	}
	return "unknown"
}

var (
	// ErrInvalidLengthField is returned when the length field holds a byte
	// that is not a digit.
	ErrInvalidLengthField = errors.New("netstring: invalid length field")

	// ErrInvalidLengthTerminator is returned when a zero length is not
	// followed directly by a colon.
	ErrInvalidLengthTerminator = errors.New("netstring: invalid length terminator")

	// ErrInvalidTerminatingCharacter is returned when the payload is not
	// followed by a comma.
	ErrInvalidTerminatingCharacter = errors.New("netstring: invalid terminating character")

	// ErrLengthTooLarge is returned when the length field exceeds the
	// reader's MaxLength or the range of int.
	ErrLengthTooLarge = errors.New("netstring: length too large")

	// ErrIncomplete is returned by Decode when the input ends mid-frame.
	ErrIncomplete = errors.New("netstring: incomplete netstring")

	// ErrTrailingData is returned by Decode when bytes follow the frame.
	ErrTrailingData = errors.New("netstring: trailing data after netstring")
)

// Reader is an incremental netstring decoder.
//
// A Reader is not safe for concurrent use. Once it reports an error it stays
// in StateError and refuses more input until Reset is called.
type Reader struct {
	// MaxLength bounds the accepted payload length. Zero means no limit
	// other than the range of int.
	MaxLength int

	state State
	left  int
	buf   []byte
	err   error
}

// NewReader creates a Reader in its initial state.
func NewReader() *Reader {
	return &Reader{}
}

// Reset returns the reader to StateReadFirstDigit, dropping any partial
// frame and any recorded error.
func (r *Reader) Reset() {
	r.state = StateReadFirstDigit
	r.left = 0
	r.buf = nil
	r.err = nil
}

// State returns the current parse state.
func (r *Reader) State() State {
	return r.state
}

// Err returns the error that moved the reader into StateError, if any.
func (r *Reader) Err() error {
	return r.err
}

// Message returns the payload of the completed frame. It is only meaningful
// in StateFinished.
func (r *Reader) Message() []byte {
	if r.state != StateFinished {
		return nil
	}
	if r.buf == nil {
		return []byte{}
	}
	return r.buf
}

// FeedUntilDone consumes bytes from data until a frame is complete or data
// is exhausted, and returns the number of bytes consumed. Bytes after the end
// of a completed frame are left unconsumed.
func (r *Reader) FeedUntilDone(data []byte) (int, error) {
	if r.state == StateError {
		return 0, r.err
	}

	done := 0
	for done < len(data) && r.state != StateFinished {
		n, err := r.step(data[done:])
		done += n
		if err != nil {
			r.state = StateError
			r.err = err
			return done, err
		}
	}
	return done, nil
}

// Feed consumes all of data and returns the payloads of every frame it
// completes, in order. The reader resets itself after each frame so partial
// frames carry over to the next call.
//
// On a framing error Feed returns the payloads completed before the error
// together with the error.
func (r *Reader) Feed(data []byte) ([][]byte, error) {
	var msgs [][]byte
	done := 0
	for {
		if r.state == StateFinished {
			msgs = append(msgs, r.Message())
			r.Reset()
		}
		if done == len(data) {
			return msgs, nil
		}

		n, err := r.FeedUntilDone(data[done:])
		done += n
		if err != nil {
			return msgs, err
		}
	}
}

// step handles a single state and returns the number of bytes it consumed.
// data is never empty.
func (r *Reader) step(data []byte) (int, error) {
	c := data[0]

	switch r.state {
	case StateReadFirstDigit:
		switch {
		case c == '0':
			r.left = 0
			r.state = StateReadColon
		case c >= '1' && c <= '9':
			r.left = int(c - '0')
			r.state = StateReadLengthDigit
		default:
			return 0, fmt.Errorf("%w: unexpected %q", ErrInvalidLengthField, c)
		}
		return 1, nil

	case StateReadLengthDigit:
		if c == ':' {
			if r.MaxLength > 0 && r.left > r.MaxLength {
				return 0, fmt.Errorf("%w: %d exceeds %d bytes", ErrLengthTooLarge, r.left, r.MaxLength)
			}
			r.buf = make([]byte, 0, min(r.left, 4096))
			r.state = StateReadBytes
			return 1, nil
		}
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: unexpected %q", ErrInvalidLengthField, c)
		}
		digit := int(c - '0')
		if r.left > (math.MaxInt-digit)/10 {
			return 0, ErrLengthTooLarge
		}
		r.left = r.left*10 + digit
		return 1, nil

	case StateReadColon:
		if c != ':' {
			return 0, fmt.Errorf("%w: unexpected %q", ErrInvalidLengthTerminator, c)
		}
		r.state = StateReadComma
		return 1, nil

	case StateReadBytes:
		n := min(r.left, len(data))
		r.buf = append(r.buf, data[:n]...)
		r.left -= n
		if r.left == 0 {
			r.state = StateReadComma
		}
		return n, nil

	case StateReadComma:
		if c != ',' {
			return 0, fmt.Errorf("%w: unexpected %q", ErrInvalidTerminatingCharacter, c)
		}
		r.state = StateFinished
		return 1, nil
	}

	return 0, fmt.Errorf("netstring: feed in state %s", r.state)
}

// Decode parses data as exactly one netstring and returns its payload.
func Decode(data []byte) ([]byte, error) {
	r := NewReader()
	n, err := r.FeedUntilDone(data)
	if err != nil {
		return nil, err
	}
	if r.state != StateFinished {
		return nil, ErrIncomplete
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: %d bytes", ErrTrailingData, len(data)-n)
	}
	return r.Message(), nil
}

// Encode frames payload as a netstring. An empty payload encodes as "0:,".
func Encode(payload []byte) []byte {
	out := make([]byte, 0, len(payload)+24)
	out = strconv.AppendInt(out, int64(len(payload)), 10)
	out = append(out, ':')
	out = append(out, payload...)
	return append(out, ',')
}

// EncodeString frames s as a netstring.
func EncodeString(s string) []byte {
	return Encode([]byte(s))
}
