package object

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKeyNamespacesByOwner(t *testing.T) {
	a, err := NewKey("case:case-1", "Letters Testamentary.pdf")
	require.NoError(t, err)
	b, err := NewKey("case:case-1", "Letters Testamentary.pdf")
	require.NoError(t, err)

	dirA, nameA, _ := strings.Cut(a, "/")
	dirB, _, _ := strings.Cut(b, "/")
	assert.Equal(t, dirA, dirB)
	assert.Len(t, dirA, 32)
	assert.True(t, strings.HasSuffix(nameA, "_Letters Testamentary.pdf"), nameA)
	assert.NotEqual(t, a, b)

	other, err := NewKey("case:case-2", "Letters Testamentary.pdf")
	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(other, dirA))
}

func TestNewKeyRejectsTraversal(t *testing.T) {
	_, err := NewKey("case:case-1", "../../etc/passwd")
	assert.Error(t, err)
}

func TestSniffKeepsStream(t *testing.T) {
	body := "%PDF-1.4 " + strings.Repeat("x", 1024)
	mimeType, r, err := Sniff(strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", mimeType)

	counter := &CountingReader{R: r}
	data, err := io.ReadAll(counter)
	require.NoError(t, err)
	assert.Equal(t, body, string(data))
	assert.Equal(t, int64(len(body)), counter.N)
}

func TestSniffShortInput(t *testing.T) {
	mimeType, r, err := Sniff(strings.NewReader("hi"))
	require.NoError(t, err)
	assert.Equal(t, "text/plain; charset=utf-8", mimeType)
	data, _ := io.ReadAll(r)
	assert.Equal(t, "hi", string(data))
}
