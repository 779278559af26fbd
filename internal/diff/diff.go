// Package diff splits a unified multi-file diff into per-file segments with
// classified lines and add/remove counts.
package diff

import (
	"strings"
)

type Kind string

const (
	KindAdd     Kind = "add"
	KindDelete  Kind = "delete"
	KindHunk    Kind = "hunk"
	KindContext Kind = "context"
)

type Line struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text"`
}

// File is one file's section of a diff.
type File struct {
	Path    string `json:"path"`
	Added   int    `json:"added"`
	Removed int    `json:"removed"`
	Lines   []Line `json:"lines"`
}

const fileMarker = "diff --git "

// Parse segments text on lines starting with "diff --git ". Files whose
// header has no " b/" destination are skipped. A "+++ b/" line overrides the
// header path. Metadata before the first hunk header (index, mode, ---/+++
// lines) is not part of the content.
func Parse(text string) []File {
	var (
		files   []File
		current *File
		inHunk  bool
	)
	flush := func() {
		if current != nil {
			trimTrailingBlank(current)
			files = append(files, *current)
		}
		current = nil
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSuffix(raw, "\r")
		if strings.HasPrefix(line, fileMarker) {
			flush()
			path, ok := destinationPath(line[len(fileMarker):])
			inHunk = false
			if ok {
				current = &File{Path: path}
			}
			continue
		}
		if current == nil {
			continue
		}
		if strings.HasPrefix(line, "@@") {
			inHunk = true
			current.Lines = append(current.Lines, Line{Kind: KindHunk, Text: line})
			continue
		}
		if !inHunk {
			if path, ok := strings.CutPrefix(line, "+++ b/"); ok && path != "" {
				current.Path = path
			}
			continue
		}
		switch {
		case strings.HasPrefix(line, "+"):
			current.Added++
			current.Lines = append(current.Lines, Line{Kind: KindAdd, Text: line})
		case strings.HasPrefix(line, "-"):
			current.Removed++
			current.Lines = append(current.Lines, Line{Kind: KindDelete, Text: line})
		default:
			current.Lines = append(current.Lines, Line{Kind: KindContext, Text: line})
		}
	}
	flush()
	return files
}

func destinationPath(header string) (string, bool) {
	// "a/P b/P" splits unambiguously in the middle even when P contains " b/"
	if n := len(header); n > 5 && n%2 == 1 && strings.HasPrefix(header, "a/") {
		half := (n - 1) / 2
		if header[half:half+3] == " b/" && header[2:half] == header[half+3:] {
			return header[half+3:], true
		}
	}
	idx := strings.Index(header, " b/")
	if idx < 0 {
		return "", false
	}
	path := strings.TrimSpace(header[idx+len(" b/"):])
	if path == "" {
		return "", false
	}
	return path, true
}

// trimTrailingBlank drops the empty context line a trailing newline produces.
func trimTrailingBlank(f *File) {
	if n := len(f.Lines); n > 0 && f.Lines[n-1].Kind == KindContext && f.Lines[n-1].Text == "" {
		f.Lines = f.Lines[:n-1]
	}
}
