package httpapi

import (
	"fmt"
	"net/http"
)

const openSearchTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<OpenSearchDescription xmlns="http://a9.com/-/spec/opensearch/1.1/">
  <ShortName>ambit</ShortName>
  <Description>Privacy-respecting metasearch</Description>
  <InputEncoding>UTF-8</InputEncoding>
  <Url type="text/html" template="%s/search?q={searchTerms}"/>
  <Url type="application/x-suggestions+json" template="%s/autocomplete?q={searchTerms}"/>
</OpenSearchDescription>
`

func (h *Handler) handleOpenSearch(w http.ResponseWriter, r *http.Request) {
	base := requestBaseURL(r)
	w.Header().Set("Content-Type", "application/opensearchdescription+xml")
	fmt.Fprintf(w, openSearchTemplate, base, base)
}

func requestBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
