package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// specimenFile builds the canonical single-hunk file used across the
// anchor tests: newStart=1 with [context@1, delete, add@2, add@3,
// context@4].
func specimenFile() *FileDiff {
	return &FileDiff{
		OldPath: "api.py",
		NewPath: "api.py",
		Hunks: []Hunk{{
			OldStart: 1, OldLines: 4, NewStart: 1, NewLines: 5,
			Changes: []Change{
				{Kind: ChangeContext, OldLine: 1, NewLine: 1},
				{Kind: ChangeDelete, OldLine: 2},
				{Kind: ChangeAdd, NewLine: 2},
				{Kind: ChangeAdd, NewLine: 3},
				{Kind: ChangeContext, OldLine: 3, NewLine: 4},
			},
		}},
		Additions: 2,
		Deletions: 1,
	}
}

func TestMapToAnchorLineModeExact(t *testing.T) {
	anchor, ok := MapToAnchor(specimenFile(), 2, AnchorNewLine, DefaultAnchorWindow)
	assert.True(t, ok)
	assert.Equal(t, 2, anchor)
}

func TestMapToAnchorPositionModeExact(t *testing.T) {
	// Ordinal walk: context=1, delete=2, add@2=3.
	anchor, ok := MapToAnchor(specimenFile(), 2, AnchorDiffPosition, DefaultAnchorWindow)
	assert.True(t, ok)
	assert.Equal(t, 3, anchor)
}

func TestMapToAnchorContextLineResolves(t *testing.T) {
	anchor, ok := MapToAnchor(specimenFile(), 4, AnchorNewLine, DefaultAnchorWindow)
	assert.True(t, ok)
	assert.Equal(t, 4, anchor)
}

func farAddFile() *FileDiff {
	return &FileDiff{
		NewPath: "far.go",
		Hunks: []Hunk{{
			OldStart: 9, NewStart: 10,
			Changes: []Change{
				{Kind: ChangeAdd, NewLine: 10},
			},
		}},
		Additions: 1,
	}
}

func TestMapToAnchorFallbackWithinWindow(t *testing.T) {
	// Target exactly 5 lines from the nearest add resolves to it.
	anchor, ok := MapToAnchor(farAddFile(), 15, AnchorNewLine, 5)
	assert.True(t, ok)
	assert.Equal(t, 10, anchor)

	pos, ok := MapToAnchor(farAddFile(), 15, AnchorDiffPosition, 5)
	assert.True(t, ok)
	assert.Equal(t, 1, pos)
}

func TestMapToAnchorFallbackBeyondWindow(t *testing.T) {
	// 6 lines away resolves to nothing.
	_, ok := MapToAnchor(farAddFile(), 16, AnchorNewLine, 5)
	assert.False(t, ok)

	_, ok = MapToAnchor(farAddFile(), 16, AnchorDiffPosition, 5)
	assert.False(t, ok)
}

func TestMapToAnchorFallbackIgnoresContext(t *testing.T) {
	fd := &FileDiff{
		NewPath: "ctx.go",
		Hunks: []Hunk{{
			OldStart: 1, NewStart: 1,
			Changes: []Change{
				{Kind: ChangeContext, OldLine: 1, NewLine: 1},
				{Kind: ChangeContext, OldLine: 2, NewLine: 2},
			},
		}},
	}
	// Line 3 is not in the hunk and there are no add lines to snap to.
	_, ok := MapToAnchor(fd, 3, AnchorNewLine, 5)
	assert.False(t, ok)
}

func TestMapToAnchorFallbackTieBreakFirstWins(t *testing.T) {
	fd := &FileDiff{
		NewPath: "tie.go",
		Hunks: []Hunk{{
			OldStart: 1, NewStart: 1,
			Changes: []Change{
				{Kind: ChangeAdd, NewLine: 3},
				{Kind: ChangeContext, OldLine: 1, NewLine: 4},
				{Kind: ChangeAdd, NewLine: 5},
			},
		}},
	}
	// Target 4 is a context line; pretend it is absent by asking for a
	// line equidistant from both adds. Line 4 matches context exactly,
	// so use a file without that context line instead.
	fd.Hunks[0].Changes = []Change{
		{Kind: ChangeAdd, NewLine: 3},
		{Kind: ChangeAdd, NewLine: 5},
	}
	anchor, ok := MapToAnchor(fd, 4, AnchorNewLine, 5)
	assert.True(t, ok)
	assert.Equal(t, 3, anchor, "first found wins on distance ties")
}

func TestMapToAnchorNilAndInvalid(t *testing.T) {
	_, ok := MapToAnchor(nil, 1, AnchorNewLine, 5)
	assert.False(t, ok)

	_, ok = MapToAnchor(specimenFile(), 0, AnchorNewLine, 5)
	assert.False(t, ok)
}
