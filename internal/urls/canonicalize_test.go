package urls

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize_StripsTrackingParamsPreservingOrder(t *testing.T) {
	got := Canonicalize("http://x.test/a?ref_src=foo&q=1#x")
	assert.Equal(t, "https://x.test/a?q=1", got)
}

func TestCanonicalize_Idempotent(t *testing.T) {
	inputs := []string{
		"http://example.com/path/#frag",
		"https://example.com/a/b/?ref_src=x&_sm_au_=y&keep=1",
		"https://example.com/a%2Fb",
		"not a url at all",
		"",
	}
	for _, in := range inputs {
		once := Canonicalize(in)
		twice := Canonicalize(once)
		assert.Equal(t, once, twice, "not idempotent for %q", in)
	}
}

func TestCanonicalize_UpgradesSchemeAndDropsFragment(t *testing.T) {
	got := Canonicalize("http://example.com/page#section")
	assert.Equal(t, "https://example.com/page", got)
}

func TestCanonicalize_TrimsTrailingSlash(t *testing.T) {
	assert.Equal(t, "https://example.com/a", Canonicalize("https://example.com/a/"))
	assert.Equal(t, "https://example.com", Canonicalize("https://example.com/"))
}

func TestCanonicalize_EmptyAfterHashTrim(t *testing.T) {
	assert.Equal(t, "", Canonicalize("#"))
}

func TestCanonicalize_UnparsableReturnsUnchanged(t *testing.T) {
	in := "http://[::1"
	assert.Equal(t, in, Canonicalize(in))
}
