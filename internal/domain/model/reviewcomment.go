package model

// ReviewComment is the normalized record for one inline review comment,
// flattened out of its thread. Line and StartLine refer to the comment's
// position in the current diff, not necessarily where it was originally
// posted; OriginalLine is retained identical to Line for compatibility with
// older output formats.
type ReviewComment struct {
	Path         string // File path the thread is anchored to; "unknown" if absent.
	Line         *int   // Final line of the diff anchor; nil when the comment is outdated.
	StartLine    *int   // First line when the anchor spans a range.
	OriginalLine *int   // Always equal to Line.
	DiffHunk     string // Raw unified-diff context; may be empty.
	AuthorLogin  string // "unknown" if the author is absent (e.g. deleted account).
	Body         string
	URL          string
}
