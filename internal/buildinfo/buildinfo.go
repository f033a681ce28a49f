package buildinfo

import (
	"fmt"
	"io"
)

const unknown = "N/A"

// Info is the version stamp injected with -ldflags at build time.
type Info struct {
	Version string
	Date    string
	Commit  string
}

// New fills empty fields with "N/A".
func New(version, date, commit string) Info {
	or := func(s string) string {
		if s == "" {
			return unknown
		}
		return s
	}
	return Info{Version: or(version), Date: or(date), Commit: or(commit)}
}

// Fprint writes the build info in the same three-line form for every binary.
func (i Info) Fprint(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Build version: %s\nBuild date: %s\nBuild commit: %s\n", i.Version, i.Date, i.Commit)
	return err
}

// UserAgent is sent with every delivery request.
func (i Info) UserAgent(program string) string {
	return program + "/" + i.Version
}
