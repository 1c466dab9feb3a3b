// internal/writers/registry.go
package writers

import (
	"fmt"
	"io"

	"github.com/14rynx/heat-simulator/internal/output"
	"github.com/14rynx/heat-simulator/pkg/api"
)

// TickArgs is the payload handed to a registered tick writer.
type TickArgs struct {
	Meta   output.Meta
	Header bool
	In     <-chan api.TickV1
}

// TickWriters maps a format name to its handler. Last registration wins.
var TickWriters = map[string]func(w io.Writer, args TickArgs) error{}

func RegisterTick(format string, fn func(io.Writer, TickArgs) error) { TickWriters[format] = fn }

// WriteTicks dispatches to the writer registered for format.
func WriteTicks(format string, w io.Writer, args TickArgs) error {
	fn, ok := TickWriters[format]
	if !ok {
		return fmt.Errorf("unknown tick format %q (no writer registered)", format)
	}
	return fn(w, args)
}
