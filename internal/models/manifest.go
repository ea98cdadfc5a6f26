package models

import (
	"encoding/json"
	"fmt"
)

// PackageManifest is the package descriptor (package.json) of a repository
// at one reference. A manifest that could not be fetched or parsed is the
// zero-valued EmptyManifest, never nil.
type PackageManifest struct {
	Name                   string            `json:"name"`
	Version                string            `json:"version"`
	DisplayName            string            `json:"displayName"`
	Description            string            `json:"description"`
	DocumentationURL       string            `json:"documentationUrl"`
	LicensesURL            string            `json:"licensesUrl"`
	IconPath               string            `json:"iconPath"`
	Dependencies           map[string]string `json:"dependencies"`
	ThirdPartyDependencies map[string]string `json:"thirdPartyDependencies"`
}

// EmptyManifest returns a manifest with empty strings and empty, non-nil maps.
func EmptyManifest() PackageManifest {
	return PackageManifest{
		Dependencies:           map[string]string{},
		ThirdPartyDependencies: map[string]string{},
	}
}

// IsEmpty reports whether the manifest carries no package identity.
func (m PackageManifest) IsEmpty() bool {
	return m.Name == "" && m.Version == ""
}

// rawManifest accepts non-string scalars where strings are expected, since
// hand-written package.json files routinely carry numbers or booleans.
type rawManifest struct {
	Name                   any            `json:"name"`
	Version                any            `json:"version"`
	DisplayName            any            `json:"displayName"`
	Description            any            `json:"description"`
	DocumentationURL       any            `json:"documentationUrl"`
	LicensesURL            any            `json:"licensesUrl"`
	IconPath               any            `json:"iconPath"`
	Dependencies           map[string]any `json:"dependencies"`
	ThirdPartyDependencies map[string]any `json:"thirdPartyDependencies"`
}

// ParseManifest decodes package.json content. On error the returned manifest
// is EmptyManifest so callers can use it without checking.
func ParseManifest(data []byte) (PackageManifest, error) {
	var raw rawManifest
	if err := json.Unmarshal(data, &raw); err != nil {
		return EmptyManifest(), fmt.Errorf("failed to parse package manifest: %w", err)
	}

	m := EmptyManifest()
	m.Name = stringValue(raw.Name)
	m.Version = stringValue(raw.Version)
	m.DisplayName = stringValue(raw.DisplayName)
	m.Description = stringValue(raw.Description)
	m.DocumentationURL = stringValue(raw.DocumentationURL)
	m.LicensesURL = stringValue(raw.LicensesURL)
	m.IconPath = stringValue(raw.IconPath)
	for k, v := range raw.Dependencies {
		m.Dependencies[k] = stringValue(v)
	}
	for k, v := range raw.ThirdPartyDependencies {
		m.ThirdPartyDependencies[k] = stringValue(v)
	}
	return m, nil
}

func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case map[string]any, []any:
		b, _ := json.Marshal(t)
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}
