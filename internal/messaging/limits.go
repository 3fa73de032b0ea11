package messaging

// WhatsApp Cloud API interactive-message constraints.
const (
	MaxButtons        = 3
	MaxButtonLabel    = 20
	MaxListRows       = 10
	MaxRowTitle       = 24
	MaxRowDescription = 72
)

const ellipsis = "..."

// Truncate shortens s to at most max runes, replacing the tail with an
// ellipsis when truncation happens. Strings already within the limit pass
// through unmodified.
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= len(ellipsis) {
		return string(r[:max])
	}
	return string(r[:max-len(ellipsis)]) + ellipsis
}

// ClampButtons truncates labels and drops buttons beyond the API maximum.
func ClampButtons(buttons []Button) []Button {
	if len(buttons) > MaxButtons {
		buttons = buttons[:MaxButtons]
	}
	out := make([]Button, len(buttons))
	for i, b := range buttons {
		out[i] = Button{ID: b.ID, Label: Truncate(b.Label, MaxButtonLabel)}
	}
	return out
}

// ClampSections truncates row titles and descriptions and caps the total row
// count across all sections at the API maximum, preserving order.
func ClampSections(sections []Section) []Section {
	out := make([]Section, 0, len(sections))
	total := 0
	for _, sec := range sections {
		if total >= MaxListRows {
			break
		}
		rows := make([]Row, 0, len(sec.Rows))
		for _, row := range sec.Rows {
			if total >= MaxListRows {
				break
			}
			rows = append(rows, Row{
				ID:          row.ID,
				Title:       Truncate(row.Title, MaxRowTitle),
				Description: Truncate(row.Description, MaxRowDescription),
			})
			total++
		}
		if len(rows) > 0 {
			out = append(out, Section{Title: Truncate(sec.Title, MaxRowTitle), Rows: rows})
		}
	}
	return out
}
