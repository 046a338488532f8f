package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medassist/internal/domain"
)

func TestExtract(t *testing.T) {
	ctx := context.Background()
	e := NewFileExtractor(nil)

	t.Run("Plain text file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "notes.txt")
		require.NoError(t, os.WriteFile(path, []byte("aspirin 81mg daily"), 0o644))

		text, err := e.Extract(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, "aspirin 81mg daily", text)
	})

	t.Run("Extension is case insensitive", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "NOTES.TXT")
		require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))

		text, err := e.Extract(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, "content", text)
	})

	t.Run("Unsupported extension", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "report.docx")
		require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))

		_, err := e.Extract(ctx, path)
		var extractionErr *domain.ExtractionError
		require.ErrorAs(t, err, &extractionErr)
		assert.Equal(t, "report.docx", extractionErr.Source)
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := e.Extract(ctx, filepath.Join(t.TempDir(), "absent.txt"))
		var extractionErr *domain.ExtractionError
		require.ErrorAs(t, err, &extractionErr)
		assert.Equal(t, "absent.txt", extractionErr.Source)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("Malformed PDF", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.pdf")
		require.NoError(t, os.WriteFile(path, []byte("not a pdf at all"), 0o644))

		_, err := e.Extract(ctx, path)
		var extractionErr *domain.ExtractionError
		require.ErrorAs(t, err, &extractionErr)
	})
}
