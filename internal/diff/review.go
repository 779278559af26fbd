package diff

// Summary is the per-file line count shown in a review listing.
type Summary struct {
	Path    string `json:"path"`
	Added   int    `json:"added"`
	Removed int    `json:"removed"`
}

// Review holds the most recently loaded diff for one session.
type Review struct {
	Stat  string
	Files []File
}

// Load replaces the review contents with a freshly parsed diff.
func (r *Review) Load(stat, text string) {
	r.Stat = stat
	r.Files = Parse(text)
}

// Select returns the file with the given path from the loaded set.
func (r *Review) Select(path string) (File, bool) {
	for _, f := range r.Files {
		if f.Path == path {
			return f, true
		}
	}
	return File{}, false
}

func (r *Review) Summary() []Summary {
	out := make([]Summary, 0, len(r.Files))
	for _, f := range r.Files {
		out = append(out, Summary{Path: f.Path, Added: f.Added, Removed: f.Removed})
	}
	return out
}
