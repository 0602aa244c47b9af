package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManHeaderUsesBuildDate(t *testing.T) {
	header := manHeader("1.2.0", "2026-03-01T12:00:00Z")
	require.NotNil(t, header.Date)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), *header.Date)
	assert.Equal(t, "skillpack 1.2.0", header.Source)

	assert.Nil(t, manHeader("dev", "unknown").Date)
}

func TestRenderSinglePage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render(&buf, ""))

	assert.Contains(t, buf.String(), `.TH "SP" "1"`)
	assert.Contains(t, buf.String(), "Skillpack Commands")
}

func TestRenderTree(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "man1")
	require.NoError(t, render(nil, dir))

	for _, page := range []string{"sp.1", "sp-install.1", "sp-show.1"} {
		_, err := os.Stat(filepath.Join(dir, page))
		assert.NoError(t, err, page)
	}
}
