package descriptor

import (
	"encoding/binary"
	"math"
	"sync"
)

// inlineCapacity is the scratch space every Builder starts with. Typical
// descriptors (one scaler rec and no effects) fit with room to spare, so a
// pooled Builder never reallocates for them.
const inlineCapacity = 128

// Builder assembles a descriptor entry by entry. The accumulated length
// only ever grows; Seal computes the checksum and returns an immutable,
// exactly sized Descriptor.
//
// A Builder can be reused after Reset. It must not be copied.
type Builder struct {
	buf []byte
}

// NewBuilder returns a Builder whose scratch buffer can hold capacity bytes
// without growing. capacity must be a multiple of Alignment.
func NewBuilder(capacity int) (*Builder, error) {
	if capacity < 0 || capacity%Alignment != 0 {
		return nil, &EntryError{Length: capacity, Err: ErrMisalignedLength}
	}
	b := &Builder{buf: make([]byte, 0, max(capacity, inlineCapacity))}
	b.Reset()
	return b, nil
}

// Reset discards all entries, keeping the scratch buffer.
func (b *Builder) Reset() {
	b.buf = append(b.buf[:0], make([]byte, HeaderSize)...)
	binary.LittleEndian.PutUint32(b.buf[offLength:], HeaderSize)
}

// Len returns the current total length in bytes.
func (b *Builder) Len() int { return len(b.buf) }

// AddEntry appends an entry and returns its payload for in-place filling.
// If data is non-nil it is copied into the payload and must be exactly
// length bytes long. The returned slice is only valid until the next call
// on b.
func (b *Builder) AddEntry(tag Tag, length int, data []byte) ([]byte, error) {
	switch {
	case tag == 0:
		return nil, &EntryError{Tag: tag, Length: length, Err: ErrZeroTag}
	case length < 0 || length%Alignment != 0:
		return nil, &EntryError{Tag: tag, Length: length, Err: ErrMisalignedLength}
	case data != nil && len(data) != length:
		return nil, &EntryError{Tag: tag, Length: length, Err: ErrDataLength}
	case uint64(len(b.buf))+EntryHeaderSize+uint64(length) > math.MaxUint32:
		return nil, &EntryError{Tag: tag, Length: length, Err: ErrEntryTooLarge}
	}

	b.buf = binary.LittleEndian.AppendUint32(b.buf, uint32(tag))
	b.buf = binary.LittleEndian.AppendUint32(b.buf, uint32(length))
	payloadStart := len(b.buf)
	if data != nil {
		b.buf = append(b.buf, data...)
	} else {
		b.buf = append(b.buf, make([]byte, length)...)
	}

	binary.LittleEndian.PutUint32(b.buf[offLength:], uint32(len(b.buf)))
	count := binary.LittleEndian.Uint32(b.buf[offCount:])
	binary.LittleEndian.PutUint32(b.buf[offCount:], count+1)

	end := payloadStart + length
	return b.buf[payloadStart:end:end], nil
}

// Seal computes the checksum and returns the finished descriptor. The
// Builder keeps its contents and may be sealed again or reset.
func (b *Builder) Seal() *Descriptor {
	data := make([]byte, len(b.buf))
	copy(data, b.buf)
	binary.LittleEndian.PutUint32(data[offChecksum:], checksum(data))
	return &Descriptor{data: data}
}

var builderPool = sync.Pool{
	New: func() any {
		b := &Builder{buf: make([]byte, 0, inlineCapacity)}
		b.Reset()
		return b
	},
}

// Make builds the canonical strike descriptor: a scaler rec entry followed
// by an optional effects entry. Effects are zero-padded to Alignment.
func Make(rec ScalerRec, effects []byte) (*Descriptor, error) {
	b := builderPool.Get().(*Builder)
	defer func() {
		b.Reset()
		builderPool.Put(b)
	}()

	payload, err := b.AddEntry(TagScalerRec, ScalerRecSize, nil)
	if err != nil {
		return nil, err
	}
	rec.encode(payload)

	if len(effects) > 0 {
		padded := (len(effects) + Alignment - 1) &^ (Alignment - 1)
		payload, err := b.AddEntry(TagEffects, padded, nil)
		if err != nil {
			return nil, err
		}
		copy(payload, effects)
	}
	return b.Seal(), nil
}
