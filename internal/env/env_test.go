package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, ".env")
	second := filepath.Join(dir, ".env.local")
	require.NoError(t, os.WriteFile(first, []byte("# comment\nRESTAURANT_TEST_A=from-env\nexport RESTAURANT_TEST_B=\"quoted\"\n"), 0o600))
	require.NoError(t, os.WriteFile(second, []byte("RESTAURANT_TEST_A=from-local\nRESTAURANT_TEST_C=local\n"), 0o600))

	t.Setenv("RESTAURANT_TEST_C", "process")
	t.Setenv("RESTAURANT_TEST_A", "")
	os.Unsetenv("RESTAURANT_TEST_A")
	t.Setenv("RESTAURANT_TEST_B", "")
	os.Unsetenv("RESTAURANT_TEST_B")

	require.NoError(t, Load("", filepath.Join(dir, "missing"), first, second))

	assert.Equal(t, "from-env", os.Getenv("RESTAURANT_TEST_A"))
	assert.Equal(t, "quoted", os.Getenv("RESTAURANT_TEST_B"))
	assert.Equal(t, "process", os.Getenv("RESTAURANT_TEST_C"))
}
