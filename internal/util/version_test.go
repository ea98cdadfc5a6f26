package util

import "testing"

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		name     string
		v1       string
		v2       string
		expected int
		wantErr  bool
	}{
		{"Equal versions", "1.0.0", "1.0.0", 0, false},
		{"v1 less than v2", "1.0.0", "1.0.1", -1, false},
		{"v1 greater than v2", "1.0.1", "1.0.0", 1, false},
		{"Minor version difference", "1.0.0", "1.1.0", -1, false},
		{"Pre-release vs release", "1.0.0-alpha", "1.0.0", -1, false},
		{"Build metadata", "1.0.0", "1.0.0+build", 0, false},
		{"Invalid version v1", "invalid", "1.0.0", 0, true},
		{"Invalid version v2", "1.0.0", "invalid", 0, true},
		{"Version with leading v", "v1.0.0", "1.0.0", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := CompareVersions(tt.v1, tt.v2)
			if (err != nil) != tt.wantErr {
				t.Errorf("CompareVersions() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && result != tt.expected {
				t.Errorf("CompareVersions() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestIsNewerVersion(t *testing.T) {
	tests := []struct {
		name     string
		v1       string
		v2       string
		expected bool
		wantErr  bool
	}{
		{"v2 is newer", "1.0.0", "1.0.1", true, false},
		{"v2 is older", "1.0.1", "1.0.0", false, false},
		{"Same version", "1.0.0", "1.0.0", false, false},
		{"Invalid version", "invalid", "1.0.0", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := IsNewerVersion(tt.v1, tt.v2)
			if (err != nil) != tt.wantErr {
				t.Errorf("IsNewerVersion() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && result != tt.expected {
				t.Errorf("IsNewerVersion() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestIsValidVersion(t *testing.T) {
	if !IsValidVersion("v1.2.3") {
		t.Error("expected v1.2.3 to be valid")
	}
	if IsValidVersion("") || IsValidVersion("not.a.version") {
		t.Error("expected empty and malformed versions to be invalid")
	}
}

func TestTagVersion(t *testing.T) {
	cases := map[string]string{"1.2.0": "v1.2.0", "v1.2.0": "v1.2.0", "": ""}
	for in, want := range cases {
		if got := TagVersion(in); got != want {
			t.Errorf("TagVersion(%q) = %q, want %q", in, got, want)
		}
	}
}
