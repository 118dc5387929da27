package flatfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talkincode/toughpos/internal/domain"
)

type itemRow struct {
	ID    int64  `csv:"id"`
	Label string `csv:"label"`
	Count int    `csv:"count"`
}

func newTestStore(t *testing.T) *Store[itemRow] {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "items.txt")
	return New[itemRow](path, "id", "label", "count")
}

func writeRaw(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestReadAllMissingFile(t *testing.T) {
	s := newTestStore(t)

	rows, err := s.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestEnsureFileWritesHeader(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.EnsureFile())
	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, "id|label|count\n", string(data))

	// second call keeps existing content
	writeRaw(t, s.Path(), "id|label|count\n1|a|2\n")
	require.NoError(t, s.EnsureFile())
	rows, err := s.ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestWriteReadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	in := []itemRow{
		{ID: 1, Label: "Kopi Susu", Count: 3},
		{ID: 2, Label: `{"json":[1,2]}`, Count: 0},
		{ID: 7, Label: "Teh Manis", Count: 12},
	}

	require.NoError(t, s.WriteAll(in))
	out, err := s.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, in, out)

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, "id|label|count\n1|Kopi Susu|3\n2|{\"json\":[1,2]}|0\n7|Teh Manis|12\n", string(data))
}

func TestWriteAllEmptyKeepsHeader(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.WriteAll([]itemRow{{ID: 1, Label: "x", Count: 1}}))
	require.NoError(t, s.WriteAll(nil))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, "id|label|count\n", string(data))
}

func TestReadAllSkipsBlankLines(t *testing.T) {
	s := newTestStore(t)
	writeRaw(t, s.Path(), "id|label|count\r\n1|a|1\r\n\n   \n2|b|2\n")

	rows, err := s.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "b", rows[1].Label)
}

func TestReadAllRejectsMalformedContent(t *testing.T) {
	cases := []struct {
		name    string
		content string
		match   string
	}{
		{"wrong header", "id|name|count\n1|a|1\n", "unexpected header"},
		{"too few fields", "id|label|count\n1|a|1\n2|b\n", "line 3"},
		{"too many fields", "id|label|count\n1|a|b|1\n", "line 2"},
		{"not a number", "id|label|count\nx|a|1\n", "decode records"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestStore(t)
			writeRaw(t, s.Path(), tc.content)

			_, err := s.ReadAll()
			var se *domain.StorageError
			require.True(t, errors.As(err, &se), "got %v", err)
			assert.Equal(t, s.Path(), se.Path)
			assert.Contains(t, err.Error(), tc.match)
		})
	}
}

func TestWriteAllRejectsDelimiterAndKeepsFile(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.WriteAll([]itemRow{{ID: 1, Label: "safe", Count: 1}}))

	for _, bad := range []string{"a|b", "line\nbreak", "cr\rhere"} {
		err := s.WriteAll([]itemRow{{ID: 2, Label: bad, Count: 1}})
		var se *domain.StorageError
		require.True(t, errors.As(err, &se), "label %q", bad)
	}

	rows, err := s.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []itemRow{{ID: 1, Label: "safe", Count: 1}}, rows)

	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestUpdate(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.WriteAll([]itemRow{{ID: 1, Label: "a", Count: 1}}))

	require.NoError(t, s.Update(func(rows []itemRow) ([]itemRow, error) {
		rows[0].Count = 5
		return append(rows, itemRow{ID: 2, Label: "b", Count: 2}), nil
	}))
	rows, err := s.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []itemRow{{ID: 1, Label: "a", Count: 5}, {ID: 2, Label: "b", Count: 2}}, rows)

	boom := errors.New("boom")
	err = s.Update(func(rows []itemRow) ([]itemRow, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	after, err := s.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, rows, after)
}

func TestReadAllAcceptsHeaderAlias(t *testing.T) {
	s := newTestStore(t).WithHeaderAlias("id", "nama", "jumlah")
	writeRaw(t, s.Path(), "id|nama|jumlah\n1|kopi|3\n")

	rows, err := s.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, itemRow{ID: 1, Label: "kopi", Count: 3}, rows[0])

	// the next write restores the canonical header
	require.NoError(t, s.WriteAll(rows))
	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, "id|label|count\n1|kopi|3\n", string(data))

	writeRaw(t, s.Path(), "id|nama|lain\n1|kopi|3\n")
	_, err = s.ReadAll()
	var se *domain.StorageError
	assert.True(t, errors.As(err, &se))
}
