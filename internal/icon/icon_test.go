package icon

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/2389/folder-icons/internal/symbols"
)

const testIdentity = "3f2b8a3e-9a55-4c1e-a1c4-0a3f8f1d2b6c"

func TestValidate(t *testing.T) {
	catalog := symbols.New(map[string]string{"build": "ionicon-build"})

	tests := []struct {
		name    string
		cfg     Config
		catalog *symbols.Catalog
		wantErr bool
	}{
		{"zero value is status", Config{}, catalog, false},
		{"status with jobs", Status("a", "b"), catalog, false},
		{"status with blank job", Status("a", " "), catalog, true},
		{"custom", Custom(testIdentity), catalog, false},
		{"custom without asset", Custom(""), catalog, true},
		{"custom traversal", Custom("../../etc/passwd"), catalog, true},
		{"url", Config{Kind: KindURL, URL: "https://example.com/icon.png"}, catalog, false},
		{"relative url", Config{Kind: KindURL, URL: "/icon.png"}, catalog, true},
		{"ftp url", Config{Kind: KindURL, URL: "ftp://example.com/icon.png"}, catalog, true},
		{"known symbol", Config{Kind: KindSymbol, Symbol: "build"}, catalog, false},
		{"unknown symbol", Config{Kind: KindSymbol, Symbol: "rocket"}, catalog, true},
		{"unknown symbol with degraded catalog", Config{Kind: KindSymbol, Symbol: "rocket"}, symbols.Empty(), false},
		{"blank symbol", Config{Kind: KindSymbol}, symbols.Empty(), true},
		{"unknown kind", Config{Kind: "emoji"}, catalog, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate(tt.catalog)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalid)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAssetIdentity(t *testing.T) {
	id, ok := Custom(" " + testIdentity + " ").AssetIdentity()
	assert.True(t, ok)
	assert.Equal(t, testIdentity, id)

	_, ok = Custom("  ").AssetIdentity()
	assert.False(t, ok)

	_, ok = Config{Kind: KindURL, Asset: testIdentity}.AssetIdentity()
	assert.False(t, ok)
}

func TestNormalize(t *testing.T) {
	cfg := Config{Kind: KindURL, URL: "https://example.com/x.png", Asset: testIdentity, Jobs: []string{"a"}}
	assert.Equal(t, Config{Kind: KindURL, URL: "https://example.com/x.png"}, cfg.Normalize())

	assert.Equal(t, KindStatus, Config{}.Normalize().Kind)
}
