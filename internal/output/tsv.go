// internal/output/tsv.go
package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/14rynx/heat-simulator/pkg/api"
)

func ff(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }

func level(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// TSVHeader returns tick, rack_heat, then <slot>.alive, <slot>.expected and
// one <slot>.over_<level> column per threshold, slot by slot.
func TSVHeader(m Meta) string {
	cols := []string{TSVBaseHeader}
	for _, name := range m.Slots {
		cols = append(cols, name+".alive", name+".expected")
		for _, th := range m.Thresholds {
			cols = append(cols, name+".over_"+level(th))
		}
	}
	return strings.Join(cols, "\t")
}

// FormatRowTSV returns one row (no trailing newline) matching TSVHeader.
func FormatRowTSV(t api.TickV1) string {
	cols := []string{strconv.Itoa(t.Tick), ff(t.RackHeat)}
	for _, s := range t.Slots {
		cols = append(cols, ff(s.Alive), ff(s.Expected))
		for _, o := range s.Over {
			cols = append(cols, ff(o.Chance))
		}
	}
	return strings.Join(cols, "\t")
}

// StreamTSV writes rows as they arrive.
func StreamTSV(w io.Writer, m Meta, in <-chan api.TickV1, header bool) error {
	bw := bufio.NewWriter(w)
	if header {
		if _, err := bw.WriteString(TSVHeader(m) + "\n"); err != nil {
			return err
		}
	}
	for t := range in {
		if _, err := bw.WriteString(FormatRowTSV(t) + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
