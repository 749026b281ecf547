package apod

import (
	"strings"
)

const (
	// WrapWidth is the text window width on the client.
	WrapWidth = 40
	// Filler pads every title line out to WrapWidth.
	Filler = '_'
	// EOL is the ATASCII end-of-line byte that terminates the description.
	EOL byte = 0x9B
)

// DescriptionRecord is the caption block appended after the raster bytes.
type DescriptionRecord struct {
	Title       string
	Description string
	Bytes       []byte
}

func (d DescriptionRecord) Len() int {
	return len(d.Bytes)
}

// IsZero reports whether the record was never built.
func (d DescriptionRecord) IsZero() bool {
	return len(d.Bytes) == 0
}

// NewDescriptionRecord formats title and description for the client: the
// title is wrapped at WrapWidth, every line padded with Filler, then the
// description follows verbatim and EOL ends the block.
func NewDescriptionRecord(title, description string) DescriptionRecord {
	var b strings.Builder
	for _, line := range WrapWords(title, WrapWidth) {
		b.WriteString(line)
		if pad := len(line) % WrapWidth; pad != 0 {
			b.WriteString(strings.Repeat(string(Filler), WrapWidth-pad))
		}
	}
	b.WriteString(description)
	b.WriteByte(EOL)

	return DescriptionRecord{
		Title:       title,
		Description: description,
		Bytes:       []byte(b.String()),
	}
}

// ParseDescriptionRecord wraps bytes previously produced by NewDescriptionRecord,
// as loaded back from disk. Title and Description are not recovered.
func ParseDescriptionRecord(raw []byte) DescriptionRecord {
	return DescriptionRecord{Bytes: append([]byte(nil), raw...)}
}

// WrapWords breaks text into lines of at most width bytes on spaces. A word
// longer than width is kept whole on its own line. Empty text yields one
// empty line.
func WrapWords(text string, width int) []string {
	words := strings.Split(text, " ")
	lines := make([]string, 0, len(text)/width+1)
	current := ""
	started := false
	for _, word := range words {
		if !started {
			current = word
			started = true
			continue
		}
		if len(current)+1+len(word) <= width {
			current += " " + word
			continue
		}
		lines = append(lines, current)
		current = word
	}
	return append(lines, current)
}
