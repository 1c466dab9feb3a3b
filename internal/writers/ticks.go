// internal/writers/ticks.go
package writers

import (
	"encoding/json"
	"io"

	"github.com/14rynx/heat-simulator/internal/jsonlutil"
	"github.com/14rynx/heat-simulator/internal/output"
	"github.com/14rynx/heat-simulator/pkg/api"
)

func init() {
	RegisterTick(output.FormatText, func(w io.Writer, a TickArgs) error {
		return output.StreamText(w, a.Meta, a.In, a.Header)
	})
	RegisterTick(output.FormatTSV, func(w io.Writer, a TickArgs) error {
		return output.StreamTSV(w, a.Meta, a.In, a.Header)
	})
	RegisterTick(output.FormatJSON, func(w io.Writer, a TickArgs) error {
		list := make([]api.TickV1, 0, 256)
		for t := range a.In {
			list = append(list, t)
		}
		return output.WriteJSON(w, a.Meta, list)
	})
	RegisterTick(output.FormatJSONL, func(w io.Writer, a TickArgs) error {
		pipe, done := StartJSONLWriter(w, 64)
		for t := range a.In {
			pipe <- t
		}
		close(pipe)
		return <-done
	})
}

// StartJSONLWriter streams each row as one JSON line (v1).
func StartJSONLWriter(out io.Writer, bufSize int) (chan<- api.TickV1, <-chan error) {
	return jsonlutil.Start[api.TickV1](out, bufSize,
		func(enc *json.Encoder, t api.TickV1) error { return enc.Encode(t) },
		IsBrokenPipe,
	)
}

// StartTickWriter spins up a writer goroutine for rows in the given format.
// The returned channel must be closed by the caller; the error channel then
// yields exactly one value. Rows sent after a write failure are discarded so
// the producer never blocks.
func StartTickWriter(out io.Writer, format string, header bool, meta output.Meta, bufSize int) (chan<- api.TickV1, <-chan error) {
	if bufSize <= 0 {
		bufSize = 64
	}
	in := make(chan api.TickV1, bufSize)
	errCh := make(chan error, 1)
	go func() {
		err := WriteTicks(format, out, TickArgs{Meta: meta, Header: header, In: in})
		for range in {
		}
		errCh <- err
	}()
	return in, errCh
}
