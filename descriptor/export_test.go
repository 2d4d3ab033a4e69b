package descriptor

import "encoding/binary"

// Test-only mutators. They bypass every invariant the Builder maintains so
// tests can construct malformed descriptors.

func (d *Descriptor) SetLengthForTesting(n int) {
	binary.LittleEndian.PutUint32(d.data[offLength:], uint32(n))
}

func (d *Descriptor) SetCountForTesting(n int) {
	binary.LittleEndian.PutUint32(d.data[offCount:], uint32(n))
}

func (d *Descriptor) SetChecksumForTesting(c uint32) {
	binary.LittleEndian.PutUint32(d.data[offChecksum:], c)
}

// GrowForTesting appends zeroed slack without changing the declared length.
func (d *Descriptor) GrowForTesting(extra int) {
	d.data = append(d.data, make([]byte, extra)...)
}

// SetEntryLengthForTesting rewrites the length field of the i-th entry,
// walking the entries by their current lengths.
func (d *Descriptor) SetEntryLengthForTesting(i, n int) {
	offset := HeaderSize
	for ; i > 0; i-- {
		offset += EntryHeaderSize + int(binary.LittleEndian.Uint32(d.data[offset+4:]))
	}
	binary.LittleEndian.PutUint32(d.data[offset+4:], uint32(n))
}

func (d *Descriptor) RawForTesting() []byte { return d.data }
