package export

import (
	"testing"

	"github.com/jamesainslie/depotscan/pkg/depotscan/types"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Spacewar", "Spacewar"},
		{`Half-Life 2: Episode One`, "Half-Life 2_ Episode One"},
		{`a<b>c:d"e/f\g|h?i*j`, "a_b_c_d_e_f_g_h_i_j"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeName(tt.in), tt.in)
	}
}

func TestSave(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/steam/depotcache/481_111.manifest", []byte("abc"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/lib/depotcache/482_222.manifest", []byte("defg"), 0o644))

	script := "addappid(480)\nsetManifestid(480,\"111\")\n"
	res, err := Save(fs, Request{
		OutputDir: "/out",
		Name:      "Space: War?",
		AppID:     "480",
		Records: []types.ManifestRecord{
			{File: "481_111.manifest", Path: "/steam/depotcache/481_111.manifest"},
			{File: "482_222.manifest", Path: "/lib/depotcache/482_222.manifest"},
		},
		Script: script,
	})
	require.NoError(t, err)

	assert.Equal(t, "/out/Space_ War_", res.Dir)
	assert.Equal(t, "/out/Space_ War_/script_480.lua", res.Script)
	assert.Len(t, res.Manifests, 2)
	assert.Equal(t, int64(3+4+len(script)), res.Bytes)

	got, err := afero.ReadFile(fs, "/out/Space_ War_/482_222.manifest")
	require.NoError(t, err)
	assert.Equal(t, "defg", string(got))

	got, err = afero.ReadFile(fs, res.Script)
	require.NoError(t, err)
	assert.Equal(t, script, string(got))
}

func TestSave_MissingManifestFails(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := Save(fs, Request{
		OutputDir: "/out",
		Name:      "Game",
		AppID:     "10",
		Records:   []types.ManifestRecord{{File: "11_1.manifest", Path: "/gone/11_1.manifest"}},
		Script:    "addappid(10)\n",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrNotFound)

	exists, _ := afero.Exists(fs, "/out/Game/script_10.lua")
	assert.False(t, exists)
}

func TestSave_FallbackName(t *testing.T) {
	fs := afero.NewMemMapFs()
	res, err := Save(fs, Request{OutputDir: "/out", Name: "", AppID: "10", Script: "addappid(10)\n"})
	require.NoError(t, err)
	assert.Equal(t, "/out/10", res.Dir)
}

func TestSave_InvalidInput(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := Save(fs, Request{AppID: "10"})
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	_, err = Save(fs, Request{OutputDir: "/out"})
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}
