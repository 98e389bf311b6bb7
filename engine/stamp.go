package engine

import (
	"encoding/binary"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/zeebo/xxh3"
)

// Absent is the stamp of a file that does not exist.
const Absent = "absent"

// StampOptions controls how StampTree and StampFile observe files.
type StampOptions struct {
	// Content digests file contents instead of modification times. Use it for
	// filesystems that do not report stable modification times (memfs).
	Content bool
	// Skip excludes a path, and everything below it if it is a directory.
	Skip func(path string, fi os.FileInfo) bool
}

// SkipGitDir skips the repository's .git entry at the worktree root.
func SkipGitDir(path string, _ os.FileInfo) bool {
	return path == ".git"
}

// StampTree returns a digest over path, size, mode and modification time of
// every entry below root. A missing root stamps as zero.
func StampTree(fs billy.Filesystem, root string, opts StampOptions) (uint64, error) {
	h := xxh3.New()
	if err := stampDir(fs, root, opts, h); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}

func stampDir(fs billy.Filesystem, dir string, opts StampOptions, h *xxh3.Hasher) error {
	entries, err := fs.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return NewError(KindIO, err, "failed to read directory "+dir)
	}
	slices.SortFunc(entries, func(a, b os.FileInfo) int {
		return strings.Compare(a.Name(), b.Name())
	})

	for _, fi := range entries {
		path := fi.Name()
		if dir != "" {
			path = fs.Join(dir, fi.Name())
		}
		if opts.Skip != nil && opts.Skip(path, fi) {
			continue
		}

		if err := writeStat(h, fs, path, fi, opts.Content); err != nil {
			return err
		}
		if fi.IsDir() {
			if err := stampDir(fs, path, opts, h); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeStat(h *xxh3.Hasher, fs billy.Filesystem, path string, fi os.FileInfo, content bool) error {
	var buf [8]byte

	_, _ = h.WriteString(path)
	_, _ = h.Write([]byte{0})
	_, _ = h.Write(binary.LittleEndian.AppendUint32(buf[:0], uint32(fi.Mode())))
	_, _ = h.Write(binary.LittleEndian.AppendUint64(buf[:0], uint64(fi.Size())))

	if fi.IsDir() {
		return nil
	}
	if !content || !fi.Mode().IsRegular() {
		_, _ = h.Write(binary.LittleEndian.AppendUint64(buf[:0], uint64(fi.ModTime().UnixNano())))
		return nil
	}

	f, err := fs.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return NewError(KindIO, err, "failed to open "+path)
	}
	defer func() {
		_ = f.Close()
	}()
	if _, err := io.Copy(h, f); err != nil {
		return NewError(KindIO, err, "failed to read "+path)
	}
	return nil
}

// StampFile returns the identity of a single file: size, mode and
// modification time, or a content digest when opts.Content is set.
// Missing files stamp as Absent.
func StampFile(fs billy.Filesystem, path string, opts StampOptions) (string, error) {
	fi, err := fs.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Absent, nil
		}
		return "", NewError(KindIO, err, "failed to stat "+path)
	}

	h := xxh3.New()
	if err := writeStat(h, fs, path, fi, opts.Content); err != nil {
		return "", err
	}
	return formatDigest(h.Sum64()), nil
}

// StampHead combines the content of HEAD in dotgit with the stamp of the
// loose reference it points at in common. Packed references are covered by
// StampRefs.
func StampHead(dotgit, common billy.Filesystem, opts StampOptions) (string, error) {
	content, err := util.ReadFile(dotgit, "HEAD")
	if err != nil {
		return "", NewError(KindIO, err, "failed to read HEAD")
	}
	head := strings.TrimSpace(string(content))

	target, ok := strings.CutPrefix(head, "ref: ")
	if !ok {
		return head, nil
	}
	stamp, err := StampFile(common, target, opts)
	if err != nil {
		return "", err
	}
	return head + "@" + stamp, nil
}

// StampRefs digests the loose reference tree and packed-refs of common.
func StampRefs(common billy.Filesystem, opts StampOptions) (uint64, error) {
	loose, err := StampTree(common, "refs", opts)
	if err != nil {
		return 0, err
	}
	packed, err := StampFile(common, "packed-refs", opts)
	if err != nil {
		return 0, err
	}
	return Digest(strconv.FormatUint(loose, 16), packed), nil
}

// Digest hashes a list of strings in order.
func Digest(parts ...string) uint64 {
	h := xxh3.New()
	for _, p := range parts {
		_, _ = h.WriteString(p)
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}

func formatDigest(v uint64) string {
	return strconv.FormatUint(v, 16)
}
