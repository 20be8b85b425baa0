package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDocumentParserPlainText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jd.md")
	require.NoError(t, os.WriteFile(path, []byte("  # Staff Engineer  \n\n\n  Own the platform.\n"), 0o644))

	p := NewDocumentParser(zap.NewNop())
	text, err := p.ExtractText(path)
	require.NoError(t, err)
	assert.Equal(t, "# Staff Engineer\nOwn the platform.", text)

	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("\n \n"), 0o644))
	_, err = p.ExtractText(empty)
	require.Error(t, err)

	_, err = p.ExtractText(filepath.Join(dir, "missing.pdf"))
	require.Error(t, err)
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "a\nb", CleanText("\n  a \n\n\t b\t\n"))
	assert.Equal(t, "", CleanText("   "))
}
