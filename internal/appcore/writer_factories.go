package appcore

import (
	"io"

	"github.com/14rynx/heat-simulator/internal/output"
	"github.com/14rynx/heat-simulator/internal/writers"
	"github.com/14rynx/heat-simulator/pkg/api"
)

// TickWriterFactory starts the registered writer for per-tick rows.
type TickWriterFactory struct {
	Format string
	Header bool
	Meta   output.Meta
}

func NewTickWriterFactory(format string, header bool, meta output.Meta) TickWriterFactory {
	return TickWriterFactory{Format: format, Header: header, Meta: meta}
}

func (w TickWriterFactory) Start(out io.Writer, bufSize int) (chan<- api.TickV1, <-chan error) {
	return writers.StartTickWriter(out, w.Format, w.Header, w.Meta, bufSize)
}
