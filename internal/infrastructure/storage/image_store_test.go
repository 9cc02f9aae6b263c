package storage

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pulse_chat_server/pkg/errorx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 1x1 transparent png
var pngBytes, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII=")

func pngDataURL() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
}

func TestSaveDataURL(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalImageStore(filepath.Join(dir, "images"), "/static/images")

	url, err := store.SaveDataURL(context.Background(), pngDataURL())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/static/images/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	written, err := os.ReadFile(filepath.Join(dir, "images", filepath.Base(url)))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, written)
}

func TestSaveDataURLRejects(t *testing.T) {
	store := NewLocalImageStore(t.TempDir(), "/static/images")
	text := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("plain text, not an image"))

	cases := map[string]string{
		"not a data url": "https://example.com/a.png",
		"not base64":     "data:image/png;base64,@@@",
		"wrong media":    "data:text/plain;base64,aGk=",
		"sniffed text":   text,
		"empty":          "data:image/png;base64,",
	}
	for name, in := range cases {
		_, err := store.SaveDataURL(context.Background(), in)
		assert.Equal(t, errorx.CodeInvalidParam, errorx.GetCode(err), name)
	}

	small := &LocalImageStore{dir: t.TempDir(), urlPrefix: "/x", maxSize: 8}
	_, err := small.SaveDataURL(context.Background(), pngDataURL())
	assert.Equal(t, errorx.CodeInvalidParam, errorx.GetCode(err))
}
