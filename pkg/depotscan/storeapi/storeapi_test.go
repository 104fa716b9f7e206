package storeapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jamesainslie/depotscan/pkg/depotscan/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const spacewar = `{"480":{"success":true,"data":{"type":"game","name":"Spacewar","steam_appid":480,"header_image":"https://cdn/480/header.jpg"}}}`

func newTestClient(t *testing.T, h http.HandlerFunc, cache Cache) (*Client, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	c := New(Options{
		BaseURL:    srv.URL + "/",
		Rate:       -1,
		RetryDelay: time.Millisecond,
		Cache:      cache,
	})
	return c, &hits
}

func TestAppDetails(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/appdetails", r.URL.Path)
		assert.Equal(t, "480", r.URL.Query().Get("appids"))
		fmt.Fprint(w, spacewar)
	}, nil)

	info, err := c.AppDetails(context.Background(), "480")
	require.NoError(t, err)
	assert.Equal(t, "480", info.AppID)
	assert.Equal(t, "Spacewar", info.Name)
	assert.Equal(t, "game", info.Type)
	assert.Equal(t, "https://cdn/480/header.jpg", info.HeaderImage)
	assert.False(t, info.FetchedAt.IsZero())
	assert.Equal(t, int32(1), hits.Load())
}

func TestAppDetails_NotFound(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"1":{"success":false}}`)
	}, nil)

	_, err := c.AppDetails(context.Background(), "1")
	assert.ErrorIs(t, err, ErrAppNotFound)
	assert.Equal(t, int32(1), hits.Load())
}

func TestAppDetails_RetriesTransient(t *testing.T) {
	var n atomic.Int32
	c, hits := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		switch n.Add(1) {
		case 1:
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			w.WriteHeader(http.StatusBadGateway)
		default:
			fmt.Fprint(w, spacewar)
		}
	}, nil)

	info, err := c.AppDetails(context.Background(), "480")
	require.NoError(t, err)
	assert.Equal(t, "Spacewar", info.Name)
	assert.Equal(t, int32(3), hits.Load())
}

func TestAppDetails_GivesUp(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}, nil)

	_, err := c.AppDetails(context.Background(), "480")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Equal(t, int32(DefaultAttempts), hits.Load())
}

func TestAppDetails_NoRetryOnClientError(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}, nil)

	_, err := c.AppDetails(context.Background(), "480")
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestAppDetails_InvalidAppID(t *testing.T) {
	c := New(Options{})
	_, err := c.AppDetails(context.Background(), "abc")
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

type memCache struct {
	mu   sync.Mutex
	data map[string]types.AppInfo
}

func (m *memCache) Lookup(appID string) (types.AppInfo, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info, ok := m.data[appID]
	return info, ok, nil
}

func (m *memCache) Store(info types.AppInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[info.AppID] = info
	return nil
}

func TestAppDetails_UsesCache(t *testing.T) {
	cache := &memCache{data: map[string]types.AppInfo{}}
	c, hits := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, spacewar)
	}, cache)

	for i := 0; i < 3; i++ {
		info, err := c.AppDetails(context.Background(), "480")
		require.NoError(t, err)
		assert.Equal(t, "Spacewar", info.Name)
	}
	assert.Equal(t, int32(1), hits.Load())
	assert.Contains(t, cache.data, "480")
}

func TestName_Fallback(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}, nil)

	assert.Equal(t, "Half-Life", c.Name(context.Background(), "70", "Half-Life"))
}

func TestDecodeAppDetails(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    types.AppInfo
		wantErr error
	}{
		{
			name: "defaults",
			body: `{"10":{"success":true,"data":{}}}`,
			want: types.AppInfo{AppID: "10", Name: DefaultName, Type: DefaultType},
		},
		{
			name: "dlc",
			body: `{"10":{"success":true,"data":{"type":"dlc","name":"Soundtrack"}}}`,
			want: types.AppInfo{AppID: "10", Name: "Soundtrack", Type: "dlc"},
		},
		{name: "other key", body: `{"11":{"success":true}}`, wantErr: ErrAppNotFound},
		{name: "not json", body: `<html>`, wantErr: types.ErrParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeAppDetails("10", []byte(tt.body))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
