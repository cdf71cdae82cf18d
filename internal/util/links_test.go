package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScrapeLinks(t *testing.T) {
	listing := `<html><body><pre>
<a href="/">../</a>
<a href="prompts_a.jsonl">prompts_a.jsonl</a>
<a href="/data/PROMPTS_B.JSONL">PROMPTS_B.JSONL</a>
<a href="notes.txt">notes.txt</a>
<a name="anchor-without-href">skip</a>
</pre></body></html>`

	links, err := ScrapeLinks(strings.NewReader(listing), ".jsonl")
	require.NoError(t, err)
	assert.Equal(t, []string{"prompts_a.jsonl", "/data/PROMPTS_B.JSONL"}, links)
}

func TestScrapeLinks_NoMatches(t *testing.T) {
	links, err := ScrapeLinks(strings.NewReader("<html><body><a href='x.txt'>x</a></body></html>"), ".jsonl")
	require.NoError(t, err)
	assert.Empty(t, links)
}
