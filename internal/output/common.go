package output

// Output formats.
const (
	FormatText  = "text"
	FormatTSV   = "tsv"
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
)

// Formats lists every supported format in help order.
var Formats = []string{FormatText, FormatTSV, FormatJSON, FormatJSONL}

// TSVBaseHeader is the fixed prefix of every TSV header row.
// Per-slot columns follow; see TSVHeader.
const TSVBaseHeader = "tick\track_heat"

// Meta describes a run independently of its rows.
type Meta struct {
	RunID       string
	Scenario    string
	Slots       []string
	Thresholds  []float64
	Attenuation float64
}
