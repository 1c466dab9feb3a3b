// internal/output/json.go
package output

import (
	"encoding/json"
	"io"

	"github.com/14rynx/heat-simulator/pkg/api"
)

// EncodePretty writes v as indented JSON to w.
func EncodePretty(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ToAPIRun wraps collected rows in the v1 run document.
func ToAPIRun(m Meta, ticks []api.TickV1) api.RunV1 {
	if ticks == nil {
		ticks = []api.TickV1{}
	}
	return api.RunV1{
		RunID:       m.RunID,
		Scenario:    m.Scenario,
		Slots:       append([]string(nil), m.Slots...),
		Attenuation: m.Attenuation,
		Thresholds:  append([]float64(nil), m.Thresholds...),
		Ticks:       ticks,
	}
}

// WriteJSON writes a single pretty-indented v1 run document.
func WriteJSON(w io.Writer, m Meta, ticks []api.TickV1) error {
	return EncodePretty(w, ToAPIRun(m, ticks))
}
