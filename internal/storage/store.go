package storage

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	settingsBucket = []byte("settings")
	articlesBucket = []byte("articles")
	metaBucket     = []byte("metadata")
)

// Keys inside the settings bucket. Filter settings and theme are independent
// records: an incompatible future schema gets a new key, not a version field.
var (
	filtersKey     = []byte("filters")
	themeKey       = []byte("theme")
	lastRefreshKey = []byte("last_refresh")
)

type Store struct {
	db *bolt.DB
}

func NewStore(dbPath string) (*Store, error) {
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{settingsBucket, articlesBucket, metaBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// LoadSettings reads the persisted filter settings. Missing or corrupt data
// is treated as "no settings" and yields a zero record, never an error.
func (s *Store) LoadSettings() Settings {
	var settings Settings
	_ = s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(settingsBucket).Get(filtersKey)
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &settings); err != nil {
			settings = Settings{}
		}
		return nil
	})
	return settings
}

// SaveSettings stores the full settings record. Callers are expected to pass
// the merged record (LoadSettings + their changes) so fields they did not
// touch survive the write.
func (s *Store) SaveSettings(settings Settings) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(settings)
		if err != nil {
			return err
		}
		return tx.Bucket(settingsBucket).Put(filtersKey, data)
	})
}

// LoadTheme returns the persisted theme preference, defaulting to dark.
func (s *Store) LoadTheme() string {
	theme := ThemeDark
	_ = s.db.View(func(tx *bolt.Tx) error {
		if data := tx.Bucket(settingsBucket).Get(themeKey); len(data) > 0 {
			switch string(data) {
			case ThemeLight:
				theme = ThemeLight
			case ThemeDark:
				theme = ThemeDark
			}
		}
		return nil
	})
	return theme
}

func (s *Store) SaveTheme(theme string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(settingsBucket).Put(themeKey, []byte(theme))
	})
}

// CacheArticles upserts fetched articles into the offline cache, keyed by a
// hash of their URL so repeated loads of the same page do not duplicate.
func (s *Store) CacheArticles(articles []*Article) error {
	now := time.Now()
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(articlesBucket)
		for _, article := range articles {
			if article.URL == "" {
				continue
			}
			a := *article
			a.FetchedAt = now
			data, err := json.Marshal(&a)
			if err != nil {
				return err
			}
			if err := b.Put(articleKey(a.URL), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// CachedArticles returns cached articles, newest published first.
// A limit of 0 means no limit.
func (s *Store) CachedArticles(limit int) ([]*Article, error) {
	var articles []*Article
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(articlesBucket).ForEach(func(_ []byte, v []byte) error {
			var article Article
			if err := json.Unmarshal(v, &article); err != nil {
				return nil
			}
			articles = append(articles, &article)
			return nil
		})
	})
	sort.Slice(articles, func(i, j int) bool {
		ti, tj := articles[i].PublishedAt, articles[j].PublishedAt
		if ti == nil {
			return false
		}
		if tj == nil {
			return true
		}
		return ti.After(*tj)
	})
	if limit > 0 && len(articles) > limit {
		articles = articles[:limit]
	}
	return articles, err
}

// PruneCache removes cached articles fetched before the cutoff and reports
// how many were deleted.
func (s *Store) PruneCache(olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		c := tx.Bucket(articlesBucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var article Article
			if err := json.Unmarshal(v, &article); err != nil {
				continue
			}
			if article.FetchedAt.Before(cutoff) {
				if err := c.Delete(); err != nil {
					return err
				}
				removed++
			}
		}
		return nil
	})
	return removed, err
}

// LastRefresh returns the time of the last successful server-side refresh,
// or the zero time if none is recorded.
func (s *Store) LastRefresh() time.Time {
	var t time.Time
	_ = s.db.View(func(tx *bolt.Tx) error {
		if data := tx.Bucket(metaBucket).Get(lastRefreshKey); len(data) > 0 {
			_ = t.UnmarshalText(data)
		}
		return nil
	})
	return t
}

func (s *Store) SetLastRefresh(t time.Time) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := t.MarshalText()
		if err != nil {
			return err
		}
		return tx.Bucket(metaBucket).Put(lastRefreshKey, data)
	})
}

func articleKey(url string) []byte {
	sum := sha256.Sum256([]byte(url))
	return []byte(fmt.Sprintf("%x", sum))
}
