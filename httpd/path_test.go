package httpd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentDecode(t *testing.T) {
	out, err := percentDecode([]byte("foo%20bar"))
	require.NoError(t, err)
	assert.Equal(t, []byte("foo bar"), out)

	out, err = percentDecode([]byte("no-escapes"))
	require.NoError(t, err)
	assert.Equal(t, []byte("no-escapes"), out)

	out, err = percentDecode([]byte("%2F"))
	require.NoError(t, err)
	assert.Equal(t, []byte("/"), out)
}

func TestPercentDecodeRejectsBadEscapes(t *testing.T) {
	cases := [][]byte{
		[]byte("%"),
		[]byte("%2"),
		[]byte("%ZZ"),
		[]byte("%2Z"),
	}
	for _, c := range cases {
		_, err := percentDecode(c)
		require.Error(t, err, "input %q", c)
		var httpErr *HttpError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, KindBadRequest, httpErr.Kind)
	}
}

func TestPercentDecodeIsIdentityWithoutEscapes(t *testing.T) {
	// No '%' present: decode is the identity function.
	for _, s := range []string{"", "plain", "a/b/c", "weird bytes \x01\x02"} {
		out, err := percentDecode([]byte(s))
		require.NoError(t, err)
		assert.Equal(t, []byte(s), out)
	}
}

func TestSanitizeCollapsesSlashes(t *testing.T) {
	assert.Equal(t, []byte("./a/b"), sanitize([]byte("./a//b")))
	assert.Equal(t, []byte("./a/b"), sanitize([]byte("./a///b")))
}

func TestSanitizeBlocksDotfilesAndTraversal(t *testing.T) {
	out := sanitize([]byte("./host/../etc/passwd"))
	assert.NotContains(t, string(out), "/..")

	out = sanitize([]byte("./host/.hidden"))
	assert.Equal(t, []byte("./host/:hidden"), out)
}

func TestSanitizeRewritesNUL(t *testing.T) {
	out := sanitize([]byte("./a\x00b"))
	assert.Equal(t, []byte("./a_b"), out)
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{
		"./host/foo/bar.html",
		"./host//foo///bar",
		"./host/../../etc/passwd",
		"./host/.git/config",
		"./host/a\x00b//c/.d",
	}
	for _, in := range inputs {
		once := sanitize([]byte(in))
		twice := sanitize(once)
		assert.Equal(t, once, twice, "sanitize not idempotent for %q", in)
	}
}

func TestNormalizeHost(t *testing.T) {
	assert.Equal(t, []byte("example.com"), normalizeHost([]byte("Example.COM:80")))
	assert.Equal(t, []byte("example.com"), normalizeHost([]byte("EXAMPLE.COM")))
	assert.Equal(t, []byte("a.b"), normalizeHost([]byte("a.b")))
}
