package fileset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o770))
	require.NoError(t, os.WriteFile(path, nil, 0o600))
}

func TestFlatten_NestedDirectories(t *testing.T) {
	tmp := t.TempDir()

	topFile := filepath.Join(tmp, "top_level_file")
	nested := filepath.Join(tmp, "top_level_dir", "nested_file.txt")
	deep := filepath.Join(tmp, "top_level_dir", "nested_dir", "doubly_nested_file.csv")
	touch(t, topFile)
	touch(t, nested)
	touch(t, deep)

	got, err := Flatten([]string{filepath.Join(tmp, "top_level_dir"), topFile})
	require.NoError(t, err)

	want := map[string]string{
		"top_level_file":                                  topFile,
		"top_level_dir/nested_file.txt":                   nested,
		"top_level_dir/nested_dir/doubly_nested_file.csv": deep,
	}
	require.Equal(t, want, got)
}

func TestFlatten_SingleFile(t *testing.T) {
	tmp := t.TempDir()
	f := filepath.Join(tmp, "report.pdf")
	touch(t, f)

	got, err := Flatten([]string{f})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"report.pdf": f}, got)
}

func TestFlatten_MissingPath(t *testing.T) {
	_, err := Flatten([]string{filepath.Join(t.TempDir(), "absent")})
	require.Error(t, err)
}

func TestFlatten_EmptyDirectory(t *testing.T) {
	tmp := t.TempDir()
	dir := filepath.Join(tmp, "empty")
	require.NoError(t, os.MkdirAll(dir, 0o770))

	got, err := Flatten([]string{dir})
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestEnsureDir_CreatesAndAcceptsExisting(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out", "nested")
	require.NoError(t, EnsureDir(dir))
	require.NoError(t, EnsureDir(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestEnsureDir_FailsOnFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "occupied")
	touch(t, f)
	require.Error(t, EnsureDir(f))
}
