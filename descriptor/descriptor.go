// Package descriptor implements the binary key that identifies a strike.
//
// A Descriptor is a checksummed, self-describing buffer:
//
//	checksum:u32 length:u32 count:u32 { tag:u32 len:u32 payload[len] }*count
//
// All integers are little-endian. The checksum covers every byte after the
// checksum field, so two descriptors are equal exactly when their bytes from
// the length field onward are equal. That makes [Descriptor.Key] usable as a
// map key.
//
// Descriptors are built with a [Builder] and are immutable once sealed.
// Descriptors that arrive from another process must go through [FromBytes],
// which validates the structure before anything else looks at it.
package descriptor

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"strings"
)

// Tag identifies an entry inside a descriptor. Tags are four-character codes
// and must be non-zero.
type Tag uint32

// MakeTag packs four characters into a Tag, most significant first.
func MakeTag(a, b, c, d byte) Tag {
	return Tag(uint32(a)<<24 | uint32(b)<<16 | uint32(c)<<8 | uint32(d))
}

// Well-known tags.
var (
	// TagScalerRec holds the fixed-size ScalerRec.
	TagScalerRec = MakeTag('s', 'r', 'e', 'c')

	// TagEffects holds opaque serialized effects (path effect, mask filter).
	TagEffects = MakeTag('e', 'f', 'c', 't')
)

// String returns the four-character form of the tag.
func (t Tag) String() string {
	b := []byte{byte(t >> 24), byte(t >> 16), byte(t >> 8), byte(t)}
	for i, c := range b {
		if c < 0x20 || c > 0x7e {
			b[i] = '?'
		}
	}
	return string(b)
}

const (
	// HeaderSize is the size of the checksum, length and count fields.
	HeaderSize = 12

	// EntryHeaderSize is the size of an entry's tag and length fields.
	EntryHeaderSize = 8

	// Alignment is the required alignment of entry lengths and of the
	// descriptor as a whole.
	Alignment = 4

	offChecksum = 0
	offLength   = 4
	offCount    = 8
)

// Descriptor is a sealed, immutable strike key.
//
// The zero value is not usable; obtain descriptors from a Builder, Make, or
// FromBytes.
type Descriptor struct {
	// data holds at least Length() bytes. Bytes past Length() are slack and
	// are ignored by every operation.
	data []byte
}

func (d *Descriptor) u32(off int) uint32 {
	return binary.LittleEndian.Uint32(d.data[off:])
}

// Checksum returns the stored checksum.
func (d *Descriptor) Checksum() uint32 { return d.u32(offChecksum) }

// Length returns the declared total length in bytes, header included.
func (d *Descriptor) Length() int { return int(d.u32(offLength)) }

// EntryCount returns the declared number of entries.
func (d *Descriptor) EntryCount() int { return int(d.u32(offCount)) }

// ComputeChecksum hashes every byte following the checksum field.
func (d *Descriptor) ComputeChecksum() uint32 {
	return checksum(d.data[:d.Length()])
}

func checksum(b []byte) uint32 {
	h := fnv.New32a()
	_, _ = h.Write(b[offLength:]) // fnv.Write never returns an error
	return h.Sum32()
}

// IsValid walks the entries and reports whether they fit inside the declared
// length. It does not look at the checksum.
//
// Slack past the last entry is permitted. An entry tagged TagScalerRec must
// be exactly ScalerRecSize bytes long.
func (d *Descriptor) IsValid() bool {
	if d == nil || len(d.data) < HeaderSize {
		return false
	}
	length := uint64(d.u32(offLength))
	if length < HeaderSize || length > uint64(len(d.data)) {
		return false
	}

	offset := uint64(HeaderSize)
	for count := d.u32(offCount); count > 0; count-- {
		if offset+EntryHeaderSize > length {
			return false
		}
		tag := Tag(binary.LittleEndian.Uint32(d.data[offset:]))
		entryLen := uint64(binary.LittleEndian.Uint32(d.data[offset+4:]))
		if tag == TagScalerRec && entryLen != ScalerRecSize {
			return false
		}
		offset += EntryHeaderSize + entryLen
		if offset > length {
			return false
		}
	}
	return offset <= length
}

// FindEntry returns the payload of the first entry with the given tag.
// The returned slice aliases the descriptor and must not be modified.
func (d *Descriptor) FindEntry(tag Tag) ([]byte, bool) {
	var (
		payload []byte
		found   bool
	)
	d.entries(func(t Tag, p []byte) bool {
		if t == tag {
			payload, found = p, true
			return false
		}
		return true
	})
	return payload, found
}

// entries calls fn for every entry in order until fn returns false.
// The descriptor must be valid.
func (d *Descriptor) entries(fn func(Tag, []byte) bool) {
	offset := HeaderSize
	for i := 0; i < d.EntryCount(); i++ {
		tag := Tag(d.u32(offset))
		n := int(d.u32(offset + 4))
		offset += EntryHeaderSize
		if !fn(tag, d.data[offset:offset+n:offset+n]) {
			return
		}
		offset += n
	}
}

// Equal reports whether d and other describe the same strike. Only the bytes
// from the length field up to the declared length are compared.
func (d *Descriptor) Equal(other *Descriptor) bool {
	if d == other {
		return true
	}
	if d == nil || other == nil || d.Length() != other.Length() {
		return false
	}
	n := d.Length()
	return string(d.data[offLength:n]) == string(other.data[offLength:n])
}

// Key returns a comparable value that is equal for equal descriptors.
func (d *Descriptor) Key() string {
	return string(d.data[offLength:d.Length()])
}

// Copy returns an independent copy trimmed to the declared length.
func (d *Descriptor) Copy() *Descriptor {
	n := d.Length()
	data := make([]byte, n)
	copy(data, d.data[:n])
	return &Descriptor{data: data}
}

// Bytes returns a copy of the encoded descriptor.
func (d *Descriptor) Bytes() []byte {
	return d.Copy().data
}

// AppendTo appends the encoded descriptor to dst.
func (d *Descriptor) AppendTo(dst []byte) []byte {
	return append(dst, d.data[:d.Length()]...)
}

// FromBytes validates untrusted bytes and returns a descriptor that owns a
// copy of them. The declared length must match len(b) exactly and the
// checksum must agree with the contents.
func FromBytes(b []byte) (*Descriptor, error) {
	if len(b) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooShort, len(b))
	}
	if len(b)%Alignment != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrMisaligned, len(b))
	}
	data := make([]byte, len(b))
	copy(data, b)
	d := &Descriptor{data: data}
	if d.Length() != len(data) {
		return nil, fmt.Errorf("%w: declared %d, have %d", ErrLengthMismatch, d.Length(), len(data))
	}
	if !d.IsValid() {
		return nil, ErrInvalid
	}
	if d.Checksum() != d.ComputeChecksum() {
		return nil, ErrChecksum
	}
	return d, nil
}

// String dumps the header and entries for debugging.
func (d *Descriptor) String() string {
	if !d.IsValid() {
		return "descriptor{invalid}"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "descriptor{checksum=%08x length=%d count=%d", d.Checksum(), d.Length(), d.EntryCount())
	d.entries(func(t Tag, p []byte) bool {
		if t == TagScalerRec {
			if rec, err := DecodeScalerRec(p); err == nil {
				fmt.Fprintf(&sb, " %s=%v", t, rec)
				return true
			}
		}
		fmt.Fprintf(&sb, " %s[%d]", t, len(p))
		return true
	})
	sb.WriteByte('}')
	return sb.String()
}
