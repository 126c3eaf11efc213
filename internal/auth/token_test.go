package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCookieFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cookies.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestStaticToken(t *testing.T) {
	token, err := NewStaticToken("abc").Token()
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	_, err = NewStaticToken("").Token()
	require.Error(t, err)
}

func TestCookieFileToken(t *testing.T) {
	path := writeCookieFile(t, "# Netscape HTTP Cookie File\n"+
		"localhost\tFALSE\t/\tFALSE\t0\tsessionid\ts3ss10n\n"+
		"localhost\tFALSE\t/\tFALSE\t0\tcsrftoken\tt0k3n-v4lue\n")

	token, err := NewCookieFileToken(path, "csrftoken").Token()
	require.NoError(t, err)
	assert.Equal(t, "t0k3n-v4lue", token)
}

func TestCookieFileTokenMissingCookie(t *testing.T) {
	path := writeCookieFile(t, "localhost\tFALSE\t/\tFALSE\t0\tsessionid\ts3ss10n\n")

	_, err := NewCookieFileToken(path, "csrftoken").Token()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "csrftoken")
}

func TestCookieFileTokenMissingFile(t *testing.T) {
	_, err := NewCookieFileToken(filepath.Join(t.TempDir(), "absent.txt"), "csrftoken").Token()
	require.Error(t, err)
}

func TestChainFallsBack(t *testing.T) {
	path := writeCookieFile(t, "localhost\tFALSE\t/\tFALSE\t0\tcsrftoken\tfrom-cookie\n")

	chain := NewChain(
		NewStaticToken(""), // unavailable, chain moves on
		NewCookieFileToken(path, "csrftoken"),
	)

	token, err := chain.Token()
	require.NoError(t, err)
	assert.Equal(t, "from-cookie", token)
}

func TestChainPrefersFirstAvailable(t *testing.T) {
	chain := NewChain(
		NewStaticToken("explicit"),
		NewStaticToken("fallback"),
	)

	token, err := chain.Token()
	require.NoError(t, err)
	assert.Equal(t, "explicit", token)
}

func TestChainExhausted(t *testing.T) {
	_, err := NewChain(NewStaticToken("")).Token()
	require.Error(t, err)

	_, err = NewChain().Token()
	require.Error(t, err)
}
