package backend

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Reference is a parsed package reference. Three forms are accepted:
//
//	name@version          registry package
//	url#rev               git package, name derived from the URL
//	name@url#rev          git package with an explicit name
type Reference struct {
	Raw     string
	Name    string
	Version string
	URL     string
	Rev     string
}

// IsGit reports whether the reference points at a git repository.
func (r Reference) IsGit() bool {
	return r.URL != ""
}

// ID is the identifier recorded for an installed reference.
func (r Reference) ID() string {
	if r.IsGit() {
		id := r.Name + "@" + r.URL
		if r.Rev != "" {
			id += "#" + r.Rev
		}
		return id
	}
	return r.Name + "@" + r.Version
}

// ParseReference parses one of the supported reference forms.
func ParseReference(raw string) (Reference, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Reference{}, fmt.Errorf("empty package reference")
	}
	ref := Reference{Raw: raw}

	name, rest := "", raw
	if at := strings.Index(raw, "@"); at > 0 && !isURL(raw) {
		name, rest = raw[:at], raw[at+1:]
	}

	if isURL(rest) {
		u, rev, _ := strings.Cut(rest, "#")
		ref.URL = u
		ref.Rev = rev
		ref.Version = strings.TrimPrefix(rev, "v")
		ref.Name = name
		if ref.Name == "" {
			derived, err := nameFromURL(u)
			if err != nil {
				return Reference{}, err
			}
			ref.Name = derived
		}
		return ref, nil
	}

	if name == "" || rest == "" {
		return Reference{}, fmt.Errorf("invalid package reference %q: expected name@version", raw)
	}
	ref.Name = name
	ref.Version = rest
	return ref, nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://") ||
		strings.HasPrefix(s, "ssh://") || strings.HasPrefix(s, "git@") || strings.HasPrefix(s, "file://")
}

func nameFromURL(raw string) (string, error) {
	p := raw
	if strings.HasPrefix(raw, "git@") {
		// git@host:owner/repo.git
		if _, after, ok := strings.Cut(raw, ":"); ok {
			p = after
		}
	} else if u, err := url.Parse(raw); err == nil {
		p = u.Path
	}
	name := strings.TrimSuffix(path.Base(strings.TrimSuffix(p, "/")), ".git")
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("cannot derive package name from %q", raw)
	}
	return name, nil
}
