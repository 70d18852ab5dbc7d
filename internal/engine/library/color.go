package library

import (
	"hash/fnv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// colorFor picks the colour of a new annotation: an explicit colour,
// then the codebook's, then one derived from the value.
func (l *Library) colorFor(variable, value, explicit string) string {
	if explicit != "" {
		return StandardizeColor(explicit)
	}
	if c, ok := l.variables.Color(variable, value); ok {
		return StandardizeColor(c)
	}
	return SeededColor(value)
}

// SeededColor returns a light colour that is always the same for value.
func SeededColor(value string) string {
	h := fnv.New32a()
	h.Write([]byte(value)) //nolint:errcheck
	sum := h.Sum32()

	hue := float64(sum % 360)
	sat := 0.55 + float64((sum>>9)%30)/100
	light := 0.72 + float64((sum>>17)%12)/100
	return colorful.Hsl(hue, sat, light).Clamped().Hex()
}

// StandardizeColor normalises hex colours to lower-case #rrggbb.
// Anything that is not a hex colour is returned trimmed.
func StandardizeColor(c string) string {
	c = strings.TrimSpace(c)
	if !strings.HasPrefix(c, "#") {
		return c
	}
	col, err := colorful.Hex(c)
	if err != nil {
		return c
	}
	return col.Hex()
}

// ColorFor resolves the colour of a new annotation staged in the transaction.
func (t *Txn) ColorFor(variable, value, explicit string) string {
	return t.l.colorFor(variable, value, explicit)
}
