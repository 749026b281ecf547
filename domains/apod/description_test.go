package apod

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapWords_DoesNotBreakWords(t *testing.T) {
	title := "The Horsehead Nebula and Flame Nebula in Orion Seen from a Dark Site"
	lines := WrapWords(title, WrapWidth)

	require.Greater(t, len(lines), 1)
	for _, line := range lines {
		assert.LessOrEqual(t, len(line), WrapWidth)
		assert.False(t, strings.HasPrefix(line, " "))
		assert.False(t, strings.HasSuffix(line, " "))
	}
	assert.Equal(t, title, strings.Join(lines, " "))
}

func TestWrapWords_ExactWidthStaysOnOneLine(t *testing.T) {
	title := strings.Repeat("a", 19) + " " + strings.Repeat("b", 20)
	assert.Equal(t, []string{title}, WrapWords(title, WrapWidth))
}

func TestWrapWords_LongWordKeptWhole(t *testing.T) {
	long := strings.Repeat("x", 45)
	assert.Equal(t, []string{"Hi", long, "there"}, WrapWords("Hi "+long+" there", WrapWidth))
}

func TestNewDescriptionRecord_TitleSegmentRoundTrip(t *testing.T) {
	title := "NGC 2818: A Planetary Nebula in an Open Star Cluster Far Away"
	descr := "What will become of our Sun?"
	rec := NewDescriptionRecord(title, descr)

	raw := string(rec.Bytes)
	require.True(t, strings.HasSuffix(raw, descr+string([]byte{EOL})))

	segment := strings.TrimSuffix(raw, descr+string([]byte{EOL}))
	require.Zero(t, len(segment)%WrapWidth)

	var rebuilt []string
	for i := 0; i < len(segment); i += WrapWidth {
		line := segment[i : i+WrapWidth]
		assert.Len(t, line, WrapWidth)
		rebuilt = append(rebuilt, strings.TrimRight(line, string(Filler)))
	}
	assert.Equal(t, WrapWords(title, WrapWidth), rebuilt)
	assert.Equal(t, title, strings.Join(rebuilt, " "))
}

func TestNewDescriptionRecord_Length(t *testing.T) {
	rec := NewDescriptionRecord("Short title", "Body text.")
	assert.Equal(t, WrapWidth+len("Body text.")+1, rec.Len())
	assert.Equal(t, EOL, rec.Bytes[rec.Len()-1])
}

func TestNewDescriptionRecord_EmptyTitle(t *testing.T) {
	rec := NewDescriptionRecord("", "only body")
	assert.Equal(t, append([]byte("only body"), EOL), rec.Bytes)
}
