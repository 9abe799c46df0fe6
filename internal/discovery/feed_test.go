// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svskaushik/ArxivPulse/internal/apperr"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:opensearch="http://a9.com/-/spec/opensearch/1.1/" xmlns:arxiv="http://arxiv.org/schemas/atom">
  <title type="html">ArXiv Query</title>
  <opensearch:totalResults>1250</opensearch:totalResults>
  <entry>
    <id>http://arxiv.org/abs/2301.07041v2</id>
    <updated>2023-02-01T10:00:00Z</updated>
    <published>2023-01-17T18:59:59Z</published>
    <title>Attention Is
      Still All You Need</title>
    <summary>  We revisit attention.
    Results follow.  </summary>
    <author><name>Ada Lovelace</name></author>
    <author><name>Alan M. Turing</name></author>
    <arxiv:doi>10.1145/1234567.1234568</arxiv:doi>
    <link title="doi" href="http://dx.doi.org/10.1145/1234567.1234568" rel="related"/>
    <link href="http://arxiv.org/abs/2301.07041v2" rel="alternate" type="text/html"/>
    <link title="pdf" href="http://arxiv.org/pdf/2301.07041v2" rel="related" type="application/pdf"/>
    <category term="cs.AI" scheme="http://arxiv.org/schemas/atom"/>
    <category term="cs.LG" scheme="http://arxiv.org/schemas/atom"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/hep-th/9901001v1</id>
    <updated>1999-01-01T00:00:00Z</updated>
    <published>1999-01-01T00:00:00Z</published>
    <title>Strings</title>
    <summary>Old style identifier.</summary>
    <author><name>Ed Witten</name></author>
    <link href="http://arxiv.org/abs/hep-th/9901001v1" rel="alternate" type="text/html"/>
    <category term="hep-th" scheme="http://arxiv.org/schemas/atom"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2402.00001v1</id>
    <published>2024-02-01T00:00:00Z</published>
    <title>Third</title>
    <summary>No link element.</summary>
  </entry>
</feed>`

func TestDecodeFeedMapsEntriesInOrder(t *testing.T) {
	page, err := DecodeFeed(strings.NewReader(sampleFeed))
	require.NoError(t, err)
	require.Len(t, page.Papers, 3)
	assert.Equal(t, 1250, page.Total)

	p := page.Papers[0]
	assert.Equal(t, "http://arxiv.org/abs/2301.07041v2", p.ID)
	assert.Equal(t, "2301.07041", p.ArxivID)
	assert.Equal(t, "Attention Is Still All You Need", p.Title)
	assert.Equal(t, "We revisit attention. Results follow.", p.Abstract)
	assert.Equal(t, "http://arxiv.org/abs/2301.07041v2", p.Link)
	assert.Equal(t, "https://arxiv.org/pdf/2301.07041v2", p.PDFURL)
	assert.Equal(t, "10.1145/1234567.1234568", p.DOI)
	assert.Equal(t, []string{"cs.AI", "cs.LG"}, p.Categories)
	assert.Equal(t, time.Date(2023, 1, 17, 18, 59, 59, 0, time.UTC), p.Published)
	assert.Equal(t, time.Date(2023, 2, 1, 10, 0, 0, 0, time.UTC), p.Updated)
	require.Len(t, p.Authors, 2)
	assert.Equal(t, "Ada Lovelace", p.Authors[0].Name)
	assert.Equal(t, "https://scholar.google.com/scholar?q=Alan+M.+Turing", p.Authors[1].ProfileURL)
	assert.Zero(t, p.CitationCount)
	assert.Zero(t, p.Altmetric)
	assert.Empty(t, p.Summary)
	assert.NotNil(t, p.RelatedPapers)

	old := page.Papers[1]
	assert.Equal(t, "hep-th/9901001", old.ArxivID)
	assert.Equal(t, "https://arxiv.org/pdf/hep-th/9901001v1", old.PDFURL)
	assert.Empty(t, old.DOI)

	third := page.Papers[2]
	assert.Equal(t, "Third", third.Title)
	assert.Equal(t, third.ID, third.Link)
	assert.True(t, third.Updated.IsZero())
}

func TestDecodeFeedMissingTitleFailsWholePage(t *testing.T) {
	feed := strings.Replace(sampleFeed, "<title>Strings</title>", "", 1)

	page, err := DecodeFeed(strings.NewReader(feed))
	require.Error(t, err)
	assert.Empty(t, page.Papers)

	var de *apperr.DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "title", de.Field)
	assert.Contains(t, de.Source, "entry 1")
}

func TestDecodeFeedMissingID(t *testing.T) {
	feed := strings.Replace(sampleFeed, "<id>http://arxiv.org/abs/2402.00001v1</id>", "<id> </id>", 1)

	_, err := DecodeFeed(strings.NewReader(feed))
	var de *apperr.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "id", de.Field)
}

func TestDecodeFeedMalformedXML(t *testing.T) {
	_, err := DecodeFeed(strings.NewReader(`<feed><entry><id>x</id>`))
	var de *apperr.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Empty(t, de.Field)
}

func TestDecodeFeedAPIErrorEntry(t *testing.T) {
	feed := `<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/api/errors#incorrect_id_format_for_1234</id>
    <title>Error</title>
    <summary>incorrect id format for 1234</summary>
  </entry>
</feed>`
	_, err := DecodeFeed(strings.NewReader(feed))
	var de *apperr.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Contains(t, err.Error(), "incorrect id format")
}

func TestDecodeFeedEmpty(t *testing.T) {
	page, err := DecodeFeed(strings.NewReader(`<feed xmlns="http://www.w3.org/2005/Atom"></feed>`))
	require.NoError(t, err)
	assert.Empty(t, page.Papers)
}

func TestExtractArxivID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"http://arxiv.org/abs/2301.07041v1", "2301.07041"},
		{"http://arxiv.org/abs/2301.07041v12", "2301.07041"},
		{"http://arxiv.org/abs/2301.07041", "2301.07041"},
		{"http://arxiv.org/abs/hep-th/9901001v3", "hep-th/9901001"},
		{"http://arxiv.org/abs/solv-int/9901001", "solv-int/9901001"},
		{"2301.07041v2", "2301.07041"},
		{"hep-th/9901001v1", "hep-th/9901001"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractArxivID(tt.in), tt.in)
	}
}
