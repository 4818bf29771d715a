package web

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFSContainsPrecachedAssets(t *testing.T) {
	static, err := FS()
	require.NoError(t, err)

	for _, name := range []string{"index.html", "app.js", "styles.css", "manifest.json", "icons/icon-192.png", "icons/badge-72.png", ServiceWorker} {
		info, err := fs.Stat(static, name)
		require.NoError(t, err, name)
		require.NotZero(t, info.Size(), name)
	}
}

func TestServiceWorkerPrecacheList(t *testing.T) {
	static, err := FS()
	require.NoError(t, err)

	script, err := fs.ReadFile(static, ServiceWorker)
	require.NoError(t, err)

	// Every precached asset must be shipped, or cache.addAll rejects the install.
	for _, asset := range []string{"/index.html", "/app.js", "/styles.css", "/manifest.json", "/icons/icon-192.png", "/icons/badge-72.png"} {
		require.True(t, strings.Contains(string(script), "'"+asset+"'"), asset)
		_, err := fs.Stat(static, strings.TrimPrefix(asset, "/"))
		require.NoError(t, err, asset)
	}
}
