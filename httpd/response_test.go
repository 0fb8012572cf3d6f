package httpd

import (
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempResource(t *testing.T, body string) OpenFile {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "resource")
	require.NoError(t, err)
	_, err = f.WriteString(body)
	require.NoError(t, err)
	_, err = f.Seek(0, 0)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return OpenFile{File: f, Mtime: time.Unix(1000000, 0), Length: int64(len(body))}
}

func TestSendHttp10UsesIdentityFramingAndCloses(t *testing.T) {
	con, out, _ := newTestConnection("")
	resource := tempResource(t, "hello world")
	req := &Request{Method: MethodGet, Protocol: ProtocolHttp10}

	err := send(con, req, "text/plain", encodingIdentity, resource)

	var httpErr *HttpError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, KindConnectionClosed, httpErr.Kind)

	got := out.String()
	assert.Contains(t, got, "HTTP/1.0 200 OK")
	assert.Contains(t, got, "Content-Length: 11\r\n")
	assert.True(t, strings.HasSuffix(got, "hello world"))
}

func TestSendHttp11UsesChunkedFramingAndStaysOpen(t *testing.T) {
	con, out, _ := newTestConnection("")
	resource := tempResource(t, "hello")
	req := &Request{Method: MethodGet, Protocol: ProtocolHttp11}

	err := send(con, req, "text/plain", encodingIdentity, resource)
	require.NoError(t, err)

	got := out.String()
	assert.Contains(t, got, "Transfer-Encoding: chunked\r\n")
	assert.True(t, strings.HasSuffix(got, "0\r\n\r\n"))
	assert.Contains(t, got, "5\r\nhello\r\n")
}

func TestSendHeadCarriesNoBody(t *testing.T) {
	con, out, _ := newTestConnection("")
	resource := tempResource(t, "hello")
	req := &Request{Method: MethodHead, Protocol: ProtocolHttp11}

	err := send(con, req, "text/plain", encodingIdentity, resource)
	require.NoError(t, err)

	got := out.String()
	// A HEAD response declares chunked framing but sends no chunks at all --
	// the headers' terminating blank line is the entire response.
	assert.True(t, strings.HasSuffix(got, "Transfer-Encoding: chunked\r\n\r\n"))
	assert.NotContains(t, got, "hello")
}

func TestSendConditionalGetReturns304WithNoBody(t *testing.T) {
	con, out, _ := newTestConnection("")
	resource := tempResource(t, "hello")
	mtime := formatHTTPDate(resource.Mtime)
	req := &Request{
		Method:          MethodGet,
		Protocol:        ProtocolHttp11,
		IfModifiedSince: []byte(mtime),
	}

	err := send(con, req, "text/plain", encodingIdentity, resource)
	require.NoError(t, err)

	got := out.String()
	assert.Contains(t, got, "HTTP/1.1 304 not modified")
	assert.NotContains(t, got, "hello")
}

func TestSendGzipEncodingSetsContentEncodingHeader(t *testing.T) {
	con, out, _ := newTestConnection("")
	resource := tempResource(t, "gz-bytes")
	req := &Request{Method: MethodGet, Protocol: ProtocolHttp11}

	err := send(con, req, "text/plain", encodingGzip, resource)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Content-Encoding: gzip\r\n")
}

func TestBarfErrorBodyLengthInvariant(t *testing.T) {
	con, out, _ := newTestConnection("")
	protocol := ProtocolHttp11

	err := barf(con, &protocol, true, errBadRequest())
	require.NoError(t, err)

	_, reason, ok := errBadRequest().Status()
	require.True(t, ok)

	got := out.String()
	assert.Contains(t, got, "Content-Length: "+strconv.Itoa(len(reason)+28))
	assert.Contains(t, got, "Connection: close\r\n")
	assert.Contains(t, got, "<html><body>"+reason+"</body></html>\r\n")
}

func TestBarfConnectionClosedProducesNoResponse(t *testing.T) {
	con, out, _ := newTestConnection("")
	err := barf(con, nil, true, errConnectionClosed())
	require.NoError(t, err)
	assert.Empty(t, out.String())
}

func TestRedirectHttp11StaysOpen(t *testing.T) {
	con, out, _ := newTestConnection("")
	err := redirect(con, ProtocolHttp11, true, []byte("http://a.b/dir/"))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "301 moved permanently")
	assert.Contains(t, out.String(), "Location: http://a.b/dir/")
}

func TestRedirectHttp10Closes(t *testing.T) {
	con, _, _ := newTestConnection("")
	err := redirect(con, ProtocolHttp10, true, []byte("http://a.b/dir/"))
	var httpErr *HttpError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, KindConnectionClosed, httpErr.Kind)
}
