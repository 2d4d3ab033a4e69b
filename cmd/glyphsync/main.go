// Command glyphsync runs a text renderer and a drawing side in one process
// and reports what the glyph deltas between them cost.
//
// The renderer owns the font (Go Regular) and lays out the text each frame.
// The drawing side only ever sees what arrives in deltas.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/gogpu/glyphsync"
	"github.com/gogpu/glyphsync/glyph"
	"github.com/gogpu/glyphsync/remote"
	"github.com/gogpu/glyphsync/remote/memhandles"
	"github.com/gogpu/glyphsync/scaler/ximage"
	"github.com/gogpu/glyphsync/strike"
	"github.com/gogpu/glyphsync/wire"
)

func main() {
	var (
		text    = flag.String("text", "The quick brown fox jumps over the lazy dog", "text to draw")
		size    = flag.Float64("size", 16, "text size in pixels")
		frames  = flag.Int("frames", 3, "number of frames")
		format  = flag.String("format", "a8", "mask format: a8 or bw")
		verbose = flag.Bool("v", false, "log debug output")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	glyphsync.SetLogger(log)

	if err := run(log, *text, float32(*size), *frames, *format); err != nil {
		log.Error("glyphsync failed", "err", err)
		os.Exit(1)
	}
}

func parseFormat(s string) (glyph.MaskFormat, error) {
	switch s {
	case "a8":
		return glyph.FormatA8, nil
	case "bw":
		return glyph.FormatBW, nil
	}
	return 0, fmt.Errorf("unknown mask format %q", s)
}

func run(log *slog.Logger, text string, size float32, frames int, formatName string) error {
	format, err := parseFormat(formatName)
	if err != nil {
		return err
	}
	tf, err := ximage.NewTypeface(1, goregular.TTF)
	if err != nil {
		return err
	}
	desc, err := tf.Descriptor(size, format, true)
	if err != nil {
		return err
	}

	handles := memhandles.New()
	server := remote.NewServer(handles)
	client := remote.NewClient(handles)
	if _, err := client.DeserializeTypeface(server.SerializeTypeface(tf)); err != nil {
		return err
	}

	// The renderer measures with its own strikes.
	layoutCache := strike.NewCache()
	layout, err := layoutCache.FindOrCreateStrike(desc, tf)
	if err != nil {
		return err
	}
	ids := tf.GlyphIDs(text)

	w := wire.NewWriter(4096)
	clientDesc := desc
	for frame := range frames {
		// Each frame starts half a pixel further right so sub-pixel
		// positions change while the text stays the same.
		pen := 10 + float64(frame%2)*0.5
		packed := make([]glyph.PackedID, len(ids))
		for i, id := range ids {
			packed[i] = glyph.PackedIDAt(id, pen, 20, glyph.AxisX)
			pen += float64(layout.Metrics(packed[i : i+1])[0].Metrics().AdvanceX)
		}

		sh, err := server.FindOrCreateShadow(remote.StrikeSpec{Descriptor: desc, Typeface: tf})
		if err != nil {
			return err
		}
		rejects := sh.PrepareForMaskDrawing(packed)
		if len(rejects) > 0 {
			sh.PrepareForPathDrawing(rejects)
		}

		w.Reset()
		if server.WriteDelta(w) {
			if err := client.ReadDelta(w.Bytes()); err != nil {
				return err
			}
		}

		if frame == 0 {
			if clientDesc, err = client.TranslateTypefaceID(desc); err != nil {
				return err
			}
		}
		st := client.StrikeCache().FindStrike(clientDesc)
		if st == nil {
			return errors.New("client has no strike after the first delta")
		}
		var pixels int
		for _, g := range st.Images(packed) {
			pixels += len(g.Image())
		}
		handles.UnlockAll()

		log.Info("frame", "n", frame, "glyphs", len(packed), "delta_bytes", w.Len(),
			"image_bytes", pixels, "client_glyphs", st.Len())
	}

	if misses := handles.CacheMisses(); len(misses) > 0 {
		log.Warn("client cache misses", "count", len(misses))
	}
	return nil
}
