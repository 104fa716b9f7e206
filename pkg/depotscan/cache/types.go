package cache

import (
	"bytes"
	"encoding/gob"
	"time"

	"github.com/jamesainslie/depotscan/pkg/depotscan/types"
)

// CacheVersion is incremented when the entry format changes.
const CacheVersion = 1

// KeySeparator separates the namespace from the app ID in keys.
const KeySeparator = '\x00'

// appNamespace prefixes store metadata entries.
const appNamespace = "app"

// CachedApp is the stored form of types.AppInfo.
type CachedApp struct {
	Version     int
	AppID       string
	Name        string
	Type        string
	HeaderImage string
	FetchedAt   int64 // UnixNano
}

// FromAppInfo converts metadata into its stored form.
func FromAppInfo(info types.AppInfo) *CachedApp {
	var fetched int64
	if !info.FetchedAt.IsZero() {
		fetched = info.FetchedAt.UnixNano()
	}
	return &CachedApp{
		Version:     CacheVersion,
		AppID:       info.AppID,
		Name:        info.Name,
		Type:        info.Type,
		HeaderImage: info.HeaderImage,
		FetchedAt:   fetched,
	}
}

// AppInfo converts the stored form back.
func (e *CachedApp) AppInfo() types.AppInfo {
	info := types.AppInfo{
		AppID:       e.AppID,
		Name:        e.Name,
		Type:        e.Type,
		HeaderImage: e.HeaderImage,
	}
	if e.FetchedAt != 0 {
		info.FetchedAt = time.Unix(0, e.FetchedAt)
	}
	return info
}

// Encode serializes the entry to bytes using gob.
func (e *CachedApp) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode deserializes bytes into the entry using gob.
func (e *CachedApp) Decode(data []byte) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(e)
}

// MakeKey creates the key for an app.
// Format: app\x00<appid>
func MakeKey(appID string) []byte {
	return []byte(appNamespace + string(KeySeparator) + appID)
}

// ParseKey extracts the app ID from a key.
func ParseKey(key []byte) string {
	idx := bytes.IndexByte(key, KeySeparator)
	if idx == -1 {
		return string(key)
	}
	return string(key[idx+1:])
}

// KeyPrefix returns the prefix shared by every app key.
func KeyPrefix() []byte {
	return []byte(appNamespace + string(KeySeparator))
}
