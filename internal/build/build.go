package build

import (
	"log/slog"
	"time"
)

// Stamped with -ldflags "-X github.com/ihorzashchelkin/nylawm/internal/build.version=...".
var (
	commit  = ""
	date    = ""
	version = "v0.0.1"
	repoURL = "https://github.com/ihorzashchelkin/nylawm"
)

func init() {
	date, _ := time.Parse(time.RFC3339, date)

	Current = Build{
		Commit:    commit,
		Version:   version,
		Date:      date,
		RepoURL:   repoURL,
		CommitURL: repoURL + "/tree/" + commit,
	}
	if commit == "" {
		Current.CommitURL = ""
	}
}

var Current Build

type Build struct {
	Commit    string    `json:"commit,omitempty"`
	Version   string    `json:"version,omitempty"`
	Date      time.Time `json:"date,omitempty"`
	RepoURL   string    `json:"repo_url,omitempty"`
	CommitURL string    `json:"commit_url,omitempty"`
}

// VersionString renders the "-v" output for the given program name.
func VersionString(argv0 string) string {
	return argv0 + "-" + Current.Version
}

// LogValue groups the stamped fields for the startup log, leaving out the
// ones that were not stamped.
func (b Build) LogValue() slog.Value {
	attrs := []slog.Attr{slog.String("version", b.Version)}
	if b.Commit != "" {
		attrs = append(attrs, slog.String("commit", b.Commit), slog.String("commit_url", b.CommitURL))
	}
	if !b.Date.IsZero() {
		attrs = append(attrs, slog.Time("date", b.Date))
	}
	attrs = append(attrs, slog.String("repo", b.RepoURL))
	return slog.GroupValue(attrs...)
}
