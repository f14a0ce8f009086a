package templates

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ojtetr/tracker/internal/app/models"
	"github.com/ojtetr/tracker/internal/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("docx"), 0o644))
}

func TestCatalogLookup(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "application_letter.docx")
	writeFile(t, dir, "not_a_type.docx")
	writeFile(t, dir, "moa.pdf")

	c, err := NewCatalog(dir)
	require.NoError(t, err)

	tpl, err := c.Lookup(models.DocApplicationLetter)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "application_letter.docx"), tpl.Path)
	assert.Equal(t, "APPLICATION LETTER.docx", tpl.DownloadName)

	_, err = c.Lookup(models.DocMOA)
	assert.ErrorIs(t, err, apperrors.ErrTemplateNotFound)

	_, err = c.Lookup(models.DocType("../etc/passwd"))
	assert.ErrorIs(t, err, apperrors.ErrInvalidDocType)

	assert.Len(t, c.Available(), 1)
}

func TestCatalogMissingDirectoryIsEmpty(t *testing.T) {
	c, err := NewCatalog(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Empty(t, c.Available())
}

func TestCatalogWatchPicksUpNewTemplates(t *testing.T) {
	dir := t.TempDir()
	c, err := NewCatalog(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, c.Watch(ctx))

	writeFile(t, dir, "waiver.docx")

	assert.Eventually(t, func() bool {
		_, err := c.Lookup(models.DocWaiver)
		return err == nil
	}, 5*time.Second, 50*time.Millisecond)
}
