package migration

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add invoices table", "add_invoices_table"},
		{"Add-Reminder-Column", "add_reminder_column"},
		{"add__late__fees", "add_late_fees"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "add late fees", "Late fee column on invoices")
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_add_late_fees.up.sql"), first.UpPath)
	assert.Equal(t, filepath.Join(dir, "000001_add_late_fees.down.sql"), first.DownPath)

	content, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Late fee column on invoices")

	second, err := CreateMigration(dir, "index reminders", "")
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)

	_, err = CreateMigration(dir, "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	t.Run("orders by version and skips stray files", func(t *testing.T) {
		fsys := fstest.MapFS{
			"000010_tenth.up.sql":    {},
			"000002_second.up.sql":   {},
			"000002_second.down.sql": {},
			"README.md":              {},
			"notes.up.sql":           {},
		}
		entries, err := ListMigrations(fsys)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, Entry{Version: 2, Name: "000002_second"}, entries[0])
		assert.Equal(t, uint(10), entries[1].Version)
	})

	t.Run("missing directory is empty", func(t *testing.T) {
		entries, err := ListMigrations(os.DirFS(filepath.Join(t.TempDir(), "nope")))
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("embedded schema is present", func(t *testing.T) {
		entries, err := ListMigrations(Embedded())
		require.NoError(t, err)
		require.NotEmpty(t, entries)
		assert.Equal(t, uint(1), entries[0].Version)
	})
}
