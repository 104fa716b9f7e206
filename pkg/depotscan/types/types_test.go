package types

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidAppID(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"480", true},
		{"0", true},
		{"", false},
		{"48a", false},
		{"-1", false},
		{" 480", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidAppID(tt.in))
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"not exist", fs.ErrNotExist, KindNotFound},
		{"wrapped not found", fmt.Errorf("reading: %w", ErrNotFound), KindNotFound},
		{"parse", fmt.Errorf("doc: %w", ErrParse), KindParse},
		{"client", ErrClientNotFound, KindConfigurationMissing},
		{"invalid", ErrInvalidInput, KindInvalidInput},
		{"permission", fs.ErrPermission, KindIO},
		{"unknown", errors.New("boom"), KindIO},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestWrapFS(t *testing.T) {
	assert.NoError(t, WrapFS("read", "/x", nil))

	err := WrapFS("read", "/x", fs.ErrNotExist)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	err = WrapFS("list", "/y", fs.ErrPermission)
	assert.ErrorIs(t, err, ErrIO)
	assert.Contains(t, err.Error(), "/y")
}

func TestNewWarning(t *testing.T) {
	w := NewWarning("/root", "/root/config/config.vdf", fmt.Errorf("x: %w", ErrParse))
	assert.Equal(t, KindParse, w.Kind)
	assert.Equal(t, "/root", w.Root)
	assert.Contains(t, w.String(), "config.vdf")
	assert.ErrorIs(t, w.Err, ErrParse)
}

func TestScanResultCounts(t *testing.T) {
	var nilResult *ScanResult
	assert.True(t, nilResult.Empty())
	assert.Equal(t, 0, nilResult.KeyedRecords())

	r := &ScanResult{Records: []ManifestRecord{
		{DepotID: "481", ManifestID: "1", DecryptionKey: "aa"},
		{DepotID: "482", ManifestID: "2"},
	}}
	assert.False(t, r.Empty())
	assert.Equal(t, 1, r.KeyedRecords())
}

func TestKeyTableGet(t *testing.T) {
	var nilTable KeyTable
	assert.Equal(t, "", nilTable.Get("1"))
	assert.Equal(t, "k", KeyTable{"1": "k"}.Get("1"))
}

func TestCountKind(t *testing.T) {
	ws := []Warning{{Kind: KindIO}, {Kind: KindParse}, {Kind: KindIO}}
	assert.Equal(t, 2, CountKind(ws, KindIO))
	assert.Equal(t, 0, CountKind(ws, KindKeyConflict))
}
