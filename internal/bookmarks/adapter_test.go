package bookmarks

import (
	"testing"

	"github.com/ppiankov/tabrules/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_FindAdapter(t *testing.T) {
	registry := NewRegistry()

	tests := []struct {
		name     string
		filename string
		content  string
		want     string
	}{
		{"html by marker", "export.txt", NetscapeMarker + "<DL></DL>", "netscape"},
		{"html by extension", "bookmarks.HTML", "<html></html>", "netscape"},
		{"xbel by extension", "marks.xbel", "", "xbel"},
		{"xbel by content", "marks", `<?xml version="1.0"?><xbel version="1.0"></xbel>`, "xbel"},
		{"chrome array", "tree", `  [{"title":"x"}]`, "chrome"},
		{"chrome profile", "Bookmarks", "\xef\xbb\xbf{\"roots\":{}}", "chrome"},
		{"json extension", "dump.json", "", "chrome"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter, err := registry.FindAdapter(tt.filename, []byte(tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.want, adapter.Name())
		})
	}
}

func TestRegistry_Unrecognized(t *testing.T) {
	_, err := NewRegistry().FindAdapter("notes.txt", []byte("hello"))
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidFormat))
}

func TestRegistry_Get(t *testing.T) {
	registry := NewRegistry()

	adapter, err := registry.Get("XBEL")
	require.NoError(t, err)
	assert.Equal(t, "xbel", adapter.Name())

	_, err = registry.Get("opml")
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
	assert.Equal(t, []string{"netscape", "xbel", "chrome"}, registry.Names())
}

func TestHTMLFileWithoutMarkerIsRejected(t *testing.T) {
	registry := NewRegistry()
	content := []byte("<html><body><a href=\"https://a.com\">a</a></body></html>")

	adapter, err := registry.FindAdapter("bookmarks.html", content)
	require.NoError(t, err)

	_, err = adapter.Parse(content, seqOpts())
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidFormat))
}
