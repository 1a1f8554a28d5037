package diff

// AnchorMode selects how a comment anchor is addressed on the hosting
// platform: by ordinal position within the diff body, or directly by
// new-file line number.
type AnchorMode string

const (
	// AnchorDiffPosition counts every change line (add, delete,
	// context) from the start of the file's diff body. GitHub's review
	// API anchors by this ordinal.
	AnchorDiffPosition AnchorMode = "position"
	// AnchorNewLine anchors directly by new-file line number, as
	// GitLab's discussion API does.
	AnchorNewLine AnchorMode = "line"
)

// DefaultAnchorWindow is the fallback distance within which a target
// line may snap to the nearest added line. The model sometimes reports
// a line adjacent to, but not literally inside, the diff body; this is
// a precision/recall tradeoff, tunable via the anchorWindow config key.
const DefaultAnchorWindow = 5

// MapToAnchor resolves targetLine (new-file coordinates) to a comment
// anchor for fd in the given mode. An exact match against add/context
// changes wins; otherwise the nearest add-type change within window
// lines is used, first found winning ties. Returns false when nothing
// resolves.
func MapToAnchor(fd *FileDiff, targetLine int, mode AnchorMode, window int) (int, bool) {
	if fd == nil || targetLine <= 0 {
		return 0, false
	}
	if window < 0 {
		window = DefaultAnchorWindow
	}
	switch mode {
	case AnchorNewLine:
		return mapToLine(fd, targetLine, window)
	case AnchorDiffPosition:
		return mapToPosition(fd, targetLine, window)
	}
	return 0, false
}

func mapToLine(fd *FileDiff, targetLine, window int) (int, bool) {
	for _, hunk := range fd.Hunks {
		for _, ch := range hunk.Changes {
			if ch.Kind != ChangeDelete && ch.NewLine == targetLine {
				return targetLine, true
			}
		}
	}

	bestLine, bestDist := 0, window+1
	for _, hunk := range fd.Hunks {
		for _, ch := range hunk.Changes {
			if ch.Kind != ChangeAdd {
				continue
			}
			if d := abs(ch.NewLine - targetLine); d < bestDist {
				bestDist = d
				bestLine = ch.NewLine
			}
		}
	}
	if bestLine == 0 {
		return 0, false
	}
	return bestLine, true
}

func mapToPosition(fd *FileDiff, targetLine, window int) (int, bool) {
	ordinal := 0
	for _, hunk := range fd.Hunks {
		for _, ch := range hunk.Changes {
			ordinal++
			if ch.Kind != ChangeDelete && ch.NewLine == targetLine {
				return ordinal, true
			}
		}
	}

	// No exact hit: re-walk tracking the closest add-type change.
	ordinal = 0
	bestOrdinal, bestDist := 0, window+1
	for _, hunk := range fd.Hunks {
		for _, ch := range hunk.Changes {
			ordinal++
			if ch.Kind != ChangeAdd {
				continue
			}
			if d := abs(ch.NewLine - targetLine); d < bestDist {
				bestDist = d
				bestOrdinal = ordinal
			}
		}
	}
	if bestOrdinal == 0 {
		return 0, false
	}
	return bestOrdinal, true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
