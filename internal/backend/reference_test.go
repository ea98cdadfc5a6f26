package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReference(t *testing.T) {
	testCases := []struct {
		name     string
		raw      string
		wantName string
		wantVer  string
		wantURL  string
		wantID   string
	}{
		{
			name:     "registry reference",
			raw:      "com.acme.core@1.0.0",
			wantName: "com.acme.core",
			wantVer:  "1.0.0",
			wantID:   "com.acme.core@1.0.0",
		},
		{
			name:     "constraint is kept verbatim",
			raw:      "com.acme.core@^1.2",
			wantName: "com.acme.core",
			wantVer:  "^1.2",
			wantID:   "com.acme.core@^1.2",
		},
		{
			name:     "named git reference",
			raw:      "com.acme.tool@https://github.com/acme/tool.git#v1.2.0",
			wantName: "com.acme.tool",
			wantVer:  "1.2.0",
			wantURL:  "https://github.com/acme/tool.git",
			wantID:   "com.acme.tool@https://github.com/acme/tool.git#v1.2.0",
		},
		{
			name:     "bare git URL derives the name",
			raw:      "https://github.com/acme/helpers.git#main",
			wantName: "helpers",
			wantVer:  "main",
			wantURL:  "https://github.com/acme/helpers.git",
			wantID:   "helpers@https://github.com/acme/helpers.git#main",
		},
		{
			name:     "scp style URL",
			raw:      "git@github.com:acme/lib.git",
			wantName: "lib",
			wantURL:  "git@github.com:acme/lib.git",
			wantID:   "lib@git@github.com:acme/lib.git",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ref, err := ParseReference(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.wantName, ref.Name)
			assert.Equal(t, tc.wantVer, ref.Version)
			assert.Equal(t, tc.wantURL, ref.URL)
			assert.Equal(t, tc.wantID, ref.ID())
		})
	}

	t.Run("invalid", func(t *testing.T) {
		for _, raw := range []string{"", "   ", "noversion", "@1.0.0", "name@"} {
			_, err := ParseReference(raw)
			assert.Error(t, err, raw)
		}
	})
}
