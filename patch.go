package nanogit

import (
	"strconv"
	"strings"

	fdiff "github.com/go-git/go-git/v5/plumbing/format/diff"

	"github.com/jmgilman/go/nanogit/engine"
)

// contextLines is the number of unchanged lines kept around each change.
const contextLines = 3

// diffLine is one line of a full-file diff with its position on both sides.
type diffLine struct {
	Line
	// oldBefore and newBefore count the lines of each side before this one.
	oldBefore int
	newBefore int
}

// buildHunks groups the changed lines of a full-file diff into hunks with up
// to context unchanged lines around them. Changes separated by at most
// 2*context unchanged lines share a hunk.
func buildHunks(chunks []engine.Chunk, context int) []Hunk {
	lines := flatten(chunks)

	var changed []int
	for i, l := range lines {
		if l.Kind != LineContext {
			changed = append(changed, i)
		}
	}
	if len(changed) == 0 {
		return nil
	}

	var hunks []Hunk
	start := 0
	for i := 1; i <= len(changed); i++ {
		if i < len(changed) && changed[i]-changed[i-1]-1 <= 2*context {
			continue
		}
		first := max(changed[start]-context, 0)
		last := min(changed[i-1]+context, len(lines)-1)
		hunks = append(hunks, newHunk(lines[first:last+1]))
		start = i
	}
	return hunks
}

func newHunk(lines []diffLine) Hunk {
	h := Hunk{
		Old:   Range{Start: lines[0].oldBefore},
		New:   Range{Start: lines[0].newBefore},
		Lines: make([]Line, 0, len(lines)),
	}
	for _, l := range lines {
		if l.Kind != LineAdded {
			h.Old.Lines++
		}
		if l.Kind != LineDeleted {
			h.New.Lines++
		}
		h.Lines = append(h.Lines, l.Line)
	}

	// An empty side names the line after which the change applies.
	if h.Old.Lines > 0 {
		h.Old.Start++
	}
	if h.New.Lines > 0 {
		h.New.Start++
	}
	return h
}

// flatten splits chunk contents into numbered lines.
func flatten(chunks []engine.Chunk) []diffLine {
	var (
		lines            []diffLine
		oldSeen, newSeen int
	)
	for _, c := range chunks {
		kind := lineKind(c.Op)
		for _, content := range splitLines(c.Content) {
			text, hasNewline := strings.CutSuffix(content, "\n")
			lines = append(lines, diffLine{
				Line:      Line{Kind: kind, Content: text, NoNewline: !hasNewline},
				oldBefore: oldSeen,
				newBefore: newSeen,
			})
			if kind != LineAdded {
				oldSeen++
			}
			if kind != LineDeleted {
				newSeen++
			}
		}
	}
	return lines
}

func lineKind(op fdiff.Operation) LineKind {
	switch op {
	case fdiff.Add:
		return LineAdded
	case fdiff.Delete:
		return LineDeleted
	default:
		return LineContext
	}
}

// splitLines splits s after each newline. A trailing fragment without a
// newline is its own line.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Unified renders entries as a unified diff, the text git diff prints.
//
// Example:
//
//	entries, _ := repo.Diff(ctx, nanogit.DiffScope{})
//	fmt.Print(nanogit.Unified(entries))
func Unified(entries []DiffEntry) string {
	var b strings.Builder
	for _, e := range entries {
		oldPath := e.Path
		if e.OldPath != "" {
			oldPath = e.OldPath
		}

		b.WriteString("diff --git a/" + oldPath + " b/" + e.Path + "\n")
		if e.Change == ChangeRenamed {
			b.WriteString("rename from " + oldPath + "\nrename to " + e.Path + "\n")
		}

		from, to := "a/"+oldPath, "b/"+e.Path
		if e.Change == ChangeAdded {
			from = "/dev/null"
		}
		if e.Change == ChangeDeleted {
			to = "/dev/null"
		}

		if e.Binary {
			b.WriteString("Binary files " + from + " and " + to + " differ\n")
			continue
		}
		if len(e.Hunks) == 0 {
			continue
		}

		b.WriteString("--- " + from + "\n")
		b.WriteString("+++ " + to + "\n")
		for _, h := range e.Hunks {
			b.WriteString("@@ -" + formatRange(h.Old) + " +" + formatRange(h.New) + " @@\n")
			for _, l := range h.Lines {
				switch l.Kind {
				case LineAdded:
					b.WriteByte('+')
				case LineDeleted:
					b.WriteByte('-')
				default:
					b.WriteByte(' ')
				}
				b.WriteString(l.Content)
				b.WriteByte('\n')
				if l.NoNewline {
					b.WriteString("\\ No newline at end of file\n")
				}
			}
		}
	}
	return b.String()
}

// formatRange omits the line count when it is one, as git does.
func formatRange(r Range) string {
	if r.Lines == 1 {
		return strconv.Itoa(r.Start)
	}
	return strconv.Itoa(r.Start) + "," + strconv.Itoa(r.Lines)
}
