// Package search maintains a local full-text index over the article cache,
// so previously seen articles stay searchable when the backend is not.
package search

import (
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/jsokolov/newsdeck/internal/storage"
)

type Index struct {
	store *storage.Store
	idx   bleve.Index
}

// Open creates or opens the index at indexPath and seeds it from the
// article cache.
func Open(store *storage.Store, indexPath string) (*Index, error) {
	if mkErr := os.MkdirAll(filepath.Dir(indexPath), 0o755); mkErr != nil {
		// Open/create below will surface a usable error.
		_ = mkErr
	}

	idx, err := bleve.Open(indexPath)
	if err != nil {
		idx, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, err
		}
	}

	s := &Index{store: store, idx: idx}
	if err := s.reindexAll(); err != nil {
		return nil, err
	}
	return s, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	title := bleve.NewTextFieldMapping()
	title.Analyzer = standard.Name
	title.Store = true
	title.IncludeTermVectors = true

	summary := bleve.NewTextFieldMapping()
	summary.Analyzer = standard.Name
	summary.Store = true

	sourceTitle := bleve.NewTextFieldMapping()
	sourceTitle.Analyzer = standard.Name
	sourceTitle.Store = true

	sourceKey := bleve.NewTextFieldMapping()
	sourceKey.Store = true
	sourceKey.Index = false

	url := bleve.NewTextFieldMapping()
	url.Store = true
	url.Index = false

	published := bleve.NewTextFieldMapping()
	published.Store = true
	published.Index = false

	dm.AddFieldMappingsAt("title", title)
	dm.AddFieldMappingsAt("summary", summary)
	dm.AddFieldMappingsAt("source_title", sourceTitle)
	dm.AddFieldMappingsAt("source_key", sourceKey)
	dm.AddFieldMappingsAt("url", url)
	dm.AddFieldMappingsAt("published_at", published)

	im.DefaultMapping = dm
	return im
}

func (s *Index) Close() error {
	return s.idx.Close()
}

func (s *Index) reindexAll() error {
	articles, err := s.store.CachedArticles(0)
	if err != nil {
		return err
	}
	return s.batchIndex(articles)
}

// IndexArticles adds freshly fetched articles to the index. Indexing is
// best-effort: a broken index must never break a feed load.
func (s *Index) IndexArticles(articles []*storage.Article) {
	_ = s.batchIndex(articles)
}

func (s *Index) batchIndex(articles []*storage.Article) error {
	if len(articles) == 0 {
		return nil
	}
	batch := s.idx.NewBatch()
	for _, a := range articles {
		if a.URL == "" {
			continue
		}
		doc := map[string]any{
			"title":        a.Title,
			"summary":      a.Text(),
			"source_key":   a.SourceKey,
			"source_title": a.SourceTitle,
			"url":          a.URL,
		}
		if a.PublishedAt != nil {
			doc["published_at"] = a.PublishedAt.Format(time.RFC3339)
		}
		_ = batch.Index(a.URL, doc)
	}
	return s.idx.Batch(batch)
}

// Search queries the local index. Articles are reconstructed from stored
// fields, so results remain available with no cache round trip.
func (s *Index) Search(query string, limit int) ([]*storage.Article, error) {
	if len(strings.TrimSpace(query)) < 2 {
		return []*storage.Article{}, nil
	}

	tokens := tokenize(query)
	var qs []bleveQuery.Query
	for _, tok := range tokens {
		qt := bleve.NewMatchQuery(tok)
		qt.SetField("title")
		qt.SetBoost(4.0)
		qs = append(qs, qt)
		qtp := bleve.NewPrefixQuery(tok)
		qtp.SetField("title")
		qtp.SetBoost(3.5)
		qs = append(qs, qtp)

		qd := bleve.NewMatchQuery(tok)
		qd.SetField("summary")
		qd.SetBoost(2.0)
		qs = append(qs, qd)
		qdp := bleve.NewPrefixQuery(tok)
		qdp.SetField("summary")
		qdp.SetBoost(1.8)
		qs = append(qs, qdp)

		qst := bleve.NewMatchQuery(tok)
		qst.SetField("source_title")
		qst.SetBoost(1.0)
		qs = append(qs, qst)
	}
	if len(qs) == 0 {
		return []*storage.Article{}, nil
	}

	q := bleve.NewDisjunctionQuery(qs...)
	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.Fields = []string{"title", "summary", "source_key", "source_title", "url", "published_at"}
	res, err := s.idx.Search(req)
	if err != nil {
		return nil, err
	}

	out := make([]*storage.Article, 0, len(res.Hits))
	for _, h := range res.Hits {
		a := &storage.Article{URL: h.ID}
		if t, ok := h.Fields["title"].(string); ok {
			a.Title = t
		}
		if sum, ok := h.Fields["summary"].(string); ok {
			a.Summary = sum
		}
		if k, ok := h.Fields["source_key"].(string); ok {
			a.SourceKey = k
		}
		if st, ok := h.Fields["source_title"].(string); ok {
			a.SourceTitle = st
		}
		if p, ok := h.Fields["published_at"].(string); ok && p != "" {
			if ts, parseErr := time.Parse(time.RFC3339, p); parseErr == nil {
				a.PublishedAt = &ts
			}
		}
		out = append(out, a)
	}
	return out, nil
}

// DocCount reports how many articles are indexed.
func (s *Index) DocCount() (uint64, error) {
	return s.idx.DocCount()
}

// tokenize breaks a query into lowercase terms, dropping single characters.
func tokenize(text string) []string {
	var terms []string
	current := strings.Builder{}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
		} else if current.Len() > 0 {
			if term := current.String(); len(term) > 1 {
				terms = append(terms, term)
			}
			current.Reset()
		}
	}

	if current.Len() > 1 {
		terms = append(terms, current.String())
	}

	return terms
}
