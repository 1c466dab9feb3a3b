// internal/output/text.go
package output

import (
	"bufio"
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/14rynx/heat-simulator/pkg/api"
)

var printer = message.NewPrinter(language.English)

// FormatTextLine renders one human-readable line (no trailing newline):
//
//	Tick: 4, Rack Heat: 0.040    gun alive 99.9% E 0.11 >2.5 4.000%    rep1 alive 100.0% E 0.00
func FormatTextLine(t api.TickV1) string {
	var b strings.Builder
	b.WriteString(printer.Sprintf("Tick: %d, ", t.Tick))
	if t.Cycle != nil {
		b.WriteString(printer.Sprintf("Cycle: %d, ", *t.Cycle))
	}
	b.WriteString(printer.Sprintf("Rack Heat: %.3f", t.RackHeat))
	for _, s := range t.Slots {
		b.WriteString("    ")
		b.WriteString(printer.Sprintf("%s alive %.1f%% E %.2f", s.Name, s.Alive*100, s.Expected))
		for _, o := range s.Over {
			b.WriteString(printer.Sprintf(" >%s %.3f%%", level(o.Level), o.Chance*100))
		}
	}
	return b.String()
}

// TextHeader is the one-line preamble of text output.
func TextHeader(m Meta) string {
	name := m.Scenario
	if name == "" {
		name = "rack"
	}
	return printer.Sprintf("# %s: %d slots, attenuation %.4f", name, len(m.Slots), m.Attenuation)
}

// StreamText writes one line per row as rows arrive.
func StreamText(w io.Writer, m Meta, in <-chan api.TickV1, header bool) error {
	bw := bufio.NewWriter(w)
	if header {
		if _, err := bw.WriteString(TextHeader(m) + "\n"); err != nil {
			return err
		}
	}
	for t := range in {
		if _, err := bw.WriteString(FormatTextLine(t) + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
