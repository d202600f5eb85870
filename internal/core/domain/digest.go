package domain

import (
	"encoding/binary"
	"encoding/hex"
	"math"

	"github.com/cespare/xxhash/v2"
)

// Digest is a 128-bit content fingerprint. Transfers with equal digests carry
// interchangeable contents.
type Digest struct {
	Hi uint64
	Lo uint64
}

// Xor returns the bitwise exclusive-or of two digests.
func (d Digest) Xor(o Digest) Digest {
	return Digest{Hi: d.Hi ^ o.Hi, Lo: d.Lo ^ o.Lo}
}

// IsZero reports whether every bit of the digest is clear.
func (d Digest) IsZero() bool {
	return d.Hi == 0 && d.Lo == 0
}

// String returns the digest as 32 lowercase hex characters.
func (d Digest) String() string {
	var b [16]byte
	binary.BigEndian.PutUint64(b[:8], d.Hi)
	binary.BigEndian.PutUint64(b[8:], d.Lo)
	return hex.EncodeToString(b[:])
}

// MarshalText implements encoding.TextMarshaler.
func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Digest) UnmarshalText(text []byte) error {
	var b [16]byte
	if hex.DecodedLen(len(text)) != len(b) {
		return ErrInvalidDigest
	}
	if _, err := hex.Decode(b[:], text); err != nil {
		return ErrInvalidDigest
	}
	d.Hi = binary.BigEndian.Uint64(b[:8])
	d.Lo = binary.BigEndian.Uint64(b[8:])
	return nil
}

// lane salts keep the two 64-bit halves of a digest independent.
var (
	hiSalt = []byte{0x9e, 0x37, 0x79, 0xb9, 0x7f, 0x4a, 0x7c, 0x15}
	loSalt = []byte{0xc2, 0xb2, 0xae, 0x3d, 0x27, 0xd4, 0xeb, 0x4f}
)

// Digester accumulates values into a 128-bit Digest.
// Each value is written length-delimited so that concatenations never collide.
type Digester struct {
	hi  *xxhash.Digest
	lo  *xxhash.Digest
	buf [8]byte
}

// NewDigester creates an empty Digester.
func NewDigester() *Digester {
	d := &Digester{hi: xxhash.New(), lo: xxhash.New()}
	_, _ = d.hi.Write(hiSalt)
	_, _ = d.lo.Write(loSalt)
	return d
}

// WriteString consumes a string.
func (d *Digester) WriteString(s string) *Digester {
	d.WriteUint64(uint64(len(s)))
	_, _ = d.hi.WriteString(s)
	_, _ = d.lo.WriteString(s)
	return d
}

// WriteBytes consumes a byte slice.
func (d *Digester) WriteBytes(b []byte) *Digester {
	d.WriteUint64(uint64(len(b)))
	_, _ = d.hi.Write(b)
	_, _ = d.lo.Write(b)
	return d
}

// WriteUint64 consumes an integer.
func (d *Digester) WriteUint64(v uint64) *Digester {
	binary.LittleEndian.PutUint64(d.buf[:], v)
	_, _ = d.hi.Write(d.buf[:])
	_, _ = d.lo.Write(d.buf[:])
	return d
}

// WriteInt consumes a signed integer.
func (d *Digester) WriteInt(v int) *Digester {
	return d.WriteUint64(uint64(int64(v))) //nolint:gosec // bit pattern is what is hashed
}

// WriteFloat64 consumes a float by its IEEE-754 bits.
func (d *Digester) WriteFloat64(v float64) *Digester {
	return d.WriteUint64(math.Float64bits(v))
}

// WriteDigest consumes another digest.
func (d *Digester) WriteDigest(o Digest) *Digester {
	return d.WriteUint64(o.Hi).WriteUint64(o.Lo)
}

// Sum returns the digest of everything consumed so far.
func (d *Digester) Sum() Digest {
	return Digest{Hi: d.hi.Sum64(), Lo: d.lo.Sum64()}
}

// DigestOf returns the digest of the given strings.
func DigestOf(parts ...string) Digest {
	d := NewDigester()
	for _, p := range parts {
		d.WriteString(p)
	}
	return d.Sum()
}
