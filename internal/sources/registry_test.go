package sources

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreerrors "github.com/lueurxax/scholarfeed/internal/core/errors"
)

func TestCatalogue_BuildsInOrder(t *testing.T) {
	defs := Catalogue()

	reg, err := NewRegistry(testDeps(t), defs...)
	require.NoError(t, err)

	want := make([]string, 0, len(defs))
	for _, d := range defs {
		want = append(want, d.Name)
	}

	assert.Equal(t, want, reg.Names())
	assert.Len(t, reg.Sources(), len(defs))
}

func TestApplyOverrides(t *testing.T) {
	data := []byte(`
sources:
  - name: lwn
    username: alice
    password: secret
  - name: gigazine
    disabled: true
  - name: the-register
    listing_url: https://mirror.example/register.atom
    cookie: "a=1; b=2"
`)

	overrides, err := ParseOverrides(data)
	require.NoError(t, err)
	require.Len(t, overrides, 3)

	base := Catalogue()
	defs, err := ApplyOverrides(base, overrides)
	require.NoError(t, err)

	byName := map[string]Definition{}
	for _, d := range defs {
		byName[d.Name] = d
	}

	assert.True(t, byName["gigazine"].Disabled)
	assert.Equal(t, "https://mirror.example/register.atom", byName["the-register"].ListingURL)
	assert.Equal(t, "a=1; b=2", byName["the-register"].Cookie)
	require.NotNil(t, byName["lwn"].Login)
	assert.True(t, byName["lwn"].Login.HasCredentials())

	for _, d := range base {
		if d.Name == "lwn" {
			assert.False(t, d.Login.HasCredentials(), "catalogue entry must not be mutated")
		}
	}

	reg, err := NewRegistry(testDeps(t), defs...)
	require.NoError(t, err)
	assert.NotContains(t, reg.Names(), "gigazine")

	_, err = reg.Lookup("gigazine")
	assert.ErrorIs(t, err, coreerrors.ErrUnknownSource)

	src, err := reg.Lookup("lwn")
	require.NoError(t, err)
	assert.Equal(t, "https://lwn.net", src.Identity().Domain)
}

func TestApplyOverrides_UnknownName(t *testing.T) {
	_, err := ApplyOverrides(Catalogue(), []Override{{Name: "nope"}})
	assert.ErrorIs(t, err, coreerrors.ErrUnknownSource)
}

func TestParseOverrides_RejectsUnknownKeys(t *testing.T) {
	_, err := ParseOverrides([]byte("sources:\n  - name: lwn\n    colour: red\n"))
	assert.Error(t, err)

	overrides, err := ParseOverrides(nil)
	require.NoError(t, err)
	assert.Empty(t, overrides)
}

func TestLoadOverrides(t *testing.T) {
	overrides, err := LoadOverrides("")
	require.NoError(t, err)
	assert.Nil(t, overrides)

	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sources:\n  - name: arxiv-cs-cr\n    disabled: true\n"), 0o600))

	overrides, err = LoadOverrides(path)
	require.NoError(t, err)
	require.Len(t, overrides, 1)
	require.NotNil(t, overrides[0].Disabled)
	assert.True(t, *overrides[0].Disabled)

	_, err = LoadOverrides(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNewRegistry_Validation(t *testing.T) {
	deps := testDeps(t)

	_, err := NewRegistry(deps, Definition{Name: "x", Kind: KindFeed, ListingURL: "http://a"}, Definition{Name: "x", Kind: KindFeed, ListingURL: "http://b"})
	assert.ErrorIs(t, err, errDuplicateSource)

	_, err = NewRegistry(deps, Definition{Name: "x", Kind: "ftp", ListingURL: "http://a"})
	assert.ErrorIs(t, err, coreerrors.ErrInvalidInput)

	_, err = NewRegistry(deps, Definition{Name: "x", Kind: KindPage, ListingURL: "http://a"})
	assert.ErrorIs(t, err, coreerrors.ErrInvalidInput)

	reg, err := NewRegistry(deps, Definition{Name: "off", Disabled: true})
	require.NoError(t, err)
	assert.Empty(t, reg.Names())
}
