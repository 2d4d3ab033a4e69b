// Package glyphsync keeps a glyph cache in one process in step with a
// renderer in another.
//
// # Overview
//
// A process that lays out text (the server) owns the real fonts. A process
// that draws (the client) has no font access at all. The server records
// which glyphs each frame needs, rasterizes the ones the client has never
// seen, and sends them in a single binary delta. The client merges the
// delta into its strike cache before drawing, so every lookup the frame
// makes is a hit.
//
// # Packages
//
//   - descriptor: the checksummed binary key of a strike
//   - glyph: packed glyph ids, metrics, images, outlines
//   - scaler: the backend interfaces a font implementation provides
//   - scaler/ximage: a backend built on golang.org/x/image
//   - strike: per-strike glyph storage and the byte-budgeted strike cache
//   - wire: the aligned binary encoding used by deltas
//   - remote: the server, its per-strike shadows, and the client
//   - remote/memhandles: an in-process handle manager for tests and demos
//
// # Quick Start
//
//	handles := memhandles.New()
//	server := remote.NewServer(handles)
//	client := remote.NewClient(handles)
//
//	// Once per typeface.
//	client.DeserializeTypeface(server.SerializeTypeface(tf))
//
//	// Each frame.
//	sh, _ := server.FindOrCreateShadow(remote.StrikeSpec{Descriptor: desc, Typeface: tf})
//	sh.PrepareForMaskDrawing(ids)
//	w := wire.NewWriter(0)
//	if server.WriteDelta(w) {
//	    client.ReadDelta(w.Bytes())
//	}
//
// # Logging
//
// Nothing is logged by default. See [SetLogger].
package glyphsync
