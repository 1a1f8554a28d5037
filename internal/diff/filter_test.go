package diff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripIgnoredLineMarker(t *testing.T) {
	text := "diff --git a/a.go b/a.go\n" +
		"+kept line\n" +
		"+secret := 1 // scrutiny-ignore\n" +
		"+also kept\n"
	got := StripIgnored(text)
	assert.NotContains(t, got, "secret")
	assert.Contains(t, got, "kept line")
	assert.Contains(t, got, "also kept")
}

func TestStripIgnoredNextLineMarker(t *testing.T) {
	text := "diff --git a/a.go b/a.go\n" +
		"+// scrutiny-ignore-next-line\n" +
		"+dropped := true\n" +
		"+kept := true\n"
	got := StripIgnored(text)
	assert.NotContains(t, got, "dropped")
	assert.Contains(t, got, "kept := true")
}

func TestStripIgnoredFileMarker(t *testing.T) {
	text := "diff --git a/gen.go b/gen.go\n" +
		"+// scrutiny-ignore-file\n" +
		"+everything here goes\n" +
		"+and this too\n" +
		"diff --git a/b.go b/b.go\n" +
		"+next file survives\n"
	got := StripIgnored(text)
	assert.NotContains(t, got, "everything here goes")
	assert.NotContains(t, got, "and this too")
	assert.Contains(t, got, "diff --git a/b.go b/b.go")
	assert.Contains(t, got, "next file survives")
}

func TestStripIgnoredFileMarkerResetAtHeader(t *testing.T) {
	text := "diff --git a/one.go b/one.go\n" +
		"+pre-marker stays\n" +
		"+// scrutiny-ignore-file\n" +
		"+gone\n" +
		"diff --git a/two.go b/two.go\n" +
		"+fresh state\n"
	got := StripIgnored(text)
	lines := strings.Split(got, "\n")
	assert.Contains(t, lines, "+pre-marker stays")
	assert.NotContains(t, lines, "+gone")
	assert.Contains(t, lines, "+fresh state")
}

func TestStripIgnoredNoMarkers(t *testing.T) {
	assert.Equal(t, sampleDiff, StripIgnored(sampleDiff))
	assert.Equal(t, "", StripIgnored(""))
}
