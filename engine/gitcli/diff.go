package gitcli

import (
	"context"
	"math"
	"strconv"
	"strings"

	fdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	platformerrors "github.com/jmgilman/go/errors"

	"github.com/jmgilman/go/nanogit/engine"
)

// fullContext asks git for a single hunk spanning the whole file.
var fullContext = "--unified=" + strconv.Itoa(math.MaxInt32)

// ComputeDiff runs git diff with unlimited context so each file comes back as
// one hunk covering both sides in full. Untracked files are not part of any
// diff.
func (e *Engine) ComputeDiff(ctx context.Context, scope engine.DiffScope) ([]engine.FilePatch, error) {
	args := []string{
		"-c", "core.quotePath=false",
		"diff", "--no-color", "--no-ext-diff", "--no-textconv", "--no-renames", fullContext,
	}

	switch scope.Mode {
	case engine.DiffUnstaged:
	case engine.DiffStaged, engine.DiffHead:
		if scope.Mode == engine.DiffStaged {
			args = append(args, "--cached")
		}
		base, err := e.baseTree(ctx)
		if err != nil {
			return nil, err
		}
		args = append(args, base)
	default:
		return nil, platformerrors.New(platformerrors.CodeInvalidInput, "unknown diff mode "+scope.Mode.String())
	}

	args = append(args, "--")
	args = append(args, pathspecs(scope.Paths)...)

	result, err := e.run(ctx, args...)
	if err != nil {
		return nil, mapExecError(err, "failed to compute diff")
	}
	return parseDiff(result.Stdout)
}

// baseTree returns HEAD, or the empty tree while HEAD is unborn.
func (e *Engine) baseTree(ctx context.Context) (string, error) {
	head, err := e.Head(ctx)
	if err != nil {
		return "", err
	}
	if head.Unborn {
		return emptyTree, nil
	}
	return head.Hash.String(), nil
}

// diffParser decodes the output of git diff.
type diffParser struct {
	lines   []string
	pos     int
	patches []engine.FilePatch
}

func parseDiff(out string) ([]engine.FilePatch, error) {
	p := &diffParser{lines: strings.Split(out, "\n")}
	for p.pos < len(p.lines) {
		line := p.lines[p.pos]
		if !strings.HasPrefix(line, "diff --git ") {
			p.pos++
			continue
		}
		if err := p.file(); err != nil {
			return nil, err
		}
	}
	return p.patches, nil
}

// file parses one file section starting at its "diff --git" line.
func (p *diffParser) file() error {
	header := p.lines[p.pos]
	name, err := headerPath(strings.TrimPrefix(header, "diff --git "))
	if err != nil {
		return err
	}
	p.pos++

	var (
		created, deleted bool
		patch            engine.FilePatch
	)

	for p.pos < len(p.lines) {
		line := p.lines[p.pos]
		switch {
		case strings.HasPrefix(line, "diff --git "):
			p.emit(name, created, deleted, patch)
			return nil
		case strings.HasPrefix(line, "new file mode "):
			created = true
		case strings.HasPrefix(line, "deleted file mode "):
			deleted = true
		case strings.HasPrefix(line, "Binary files "):
			patch.Binary = true
		case strings.HasPrefix(line, "@@ "):
			chunks, err := p.hunk()
			if err != nil {
				return err
			}
			patch.Chunks = append(patch.Chunks, chunks...)
			continue
		}
		p.pos++
	}

	p.emit(name, created, deleted, patch)
	return nil
}

func (p *diffParser) emit(name string, created, deleted bool, patch engine.FilePatch) {
	if !created && !deleted && !patch.Binary && len(patch.Chunks) == 0 {
		// Mode-only change.
		return
	}
	if !created {
		patch.From = name
	}
	if !deleted {
		patch.To = name
	}
	p.patches = append(p.patches, patch)
}

// hunk consumes a hunk header and exactly the lines it announces.
func (p *diffParser) hunk() ([]engine.Chunk, error) {
	header := p.lines[p.pos]
	oldLines, newLines, err := hunkCounts(header)
	if err != nil {
		return nil, err
	}
	p.pos++

	var chunks []engine.Chunk
	add := func(op fdiff.Operation, content string) {
		if n := len(chunks); n > 0 && chunks[n-1].Op == op {
			chunks[n-1].Content += content
			return
		}
		chunks = append(chunks, engine.Chunk{Op: op, Content: content})
	}

	for oldLines > 0 || newLines > 0 {
		if p.pos >= len(p.lines) {
			return nil, platformerrors.New(platformerrors.CodeInternal, "truncated hunk "+strconv.Quote(header))
		}
		line := p.lines[p.pos]
		p.pos++

		if line == "" {
			// diff.suppressBlankEmpty drops the marker of empty context lines.
			line = " "
		}

		switch line[0] {
		case ' ':
			add(fdiff.Equal, line[1:]+"\n")
			oldLines--
			newLines--
		case '-':
			add(fdiff.Delete, line[1:]+"\n")
			oldLines--
		case '+':
			add(fdiff.Add, line[1:]+"\n")
			newLines--
		case '\\':
			trimNewline(chunks)
		default:
			return nil, platformerrors.New(platformerrors.CodeInternal, "unexpected hunk line "+strconv.Quote(line))
		}
	}

	// A missing newline on the final line is reported after it.
	if p.pos < len(p.lines) && strings.HasPrefix(p.lines[p.pos], "\\") {
		trimNewline(chunks)
		p.pos++
	}
	return chunks, nil
}

func trimNewline(chunks []engine.Chunk) {
	if n := len(chunks); n > 0 {
		chunks[n-1].Content = strings.TrimSuffix(chunks[n-1].Content, "\n")
	}
}

// hunkCounts returns the old and new line counts of "@@ -a,b +c,d @@". An
// omitted count means one line.
func hunkCounts(header string) (int, int, error) {
	fields := strings.Fields(header)
	if len(fields) < 4 || fields[0] != "@@" || fields[3] != "@@" {
		return 0, 0, platformerrors.New(platformerrors.CodeInternal, "malformed hunk header "+strconv.Quote(header))
	}
	oldLines, err := rangeCount(fields[1], "-")
	if err != nil {
		return 0, 0, err
	}
	newLines, err := rangeCount(fields[2], "+")
	if err != nil {
		return 0, 0, err
	}
	return oldLines, newLines, nil
}

func rangeCount(field, prefix string) (int, error) {
	spec, ok := strings.CutPrefix(field, prefix)
	if !ok {
		return 0, platformerrors.New(platformerrors.CodeInternal, "malformed hunk range "+strconv.Quote(field))
	}
	_, count, found := strings.Cut(spec, ",")
	if !found {
		return 1, nil
	}
	n, err := strconv.Atoi(count)
	if err != nil {
		return 0, platformerrors.Wrap(err, platformerrors.CodeInternal, "malformed hunk range "+strconv.Quote(field))
	}
	return n, nil
}

// headerPath extracts the path from "a/PATH b/PATH". Renames are disabled, so
// both sides name the same path. Either side may be C-quoted.
func headerPath(s string) (string, error) {
	if strings.HasPrefix(s, "\"") {
		quoted, err := strconv.QuotedPrefix(s)
		if err != nil {
			return "", platformerrors.Wrap(err, platformerrors.CodeInternal, "malformed diff header "+strconv.Quote(s))
		}
		name, err := strconv.Unquote(quoted)
		if err != nil {
			return "", platformerrors.Wrap(err, platformerrors.CodeInternal, "malformed diff header "+strconv.Quote(s))
		}
		return strings.TrimPrefix(name, "a/"), nil
	}

	if len(s) < 7 || (len(s)-5)%2 != 0 || !strings.HasPrefix(s, "a/") {
		return "", platformerrors.New(platformerrors.CodeInternal, "malformed diff header "+strconv.Quote(s))
	}
	n := (len(s) - 5) / 2
	name := s[2 : 2+n]
	if s[2+n:2+n+3] != " b/" || s[2+n+3:] != name {
		return "", platformerrors.New(platformerrors.CodeInternal, "malformed diff header "+strconv.Quote(s))
	}
	return name, nil
}
