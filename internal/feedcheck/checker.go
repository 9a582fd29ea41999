// Package feedcheck vets user-provided RSS URLs before they are attached
// to a refresh request, confirming each one parses as a live feed.
package feedcheck

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/jsokolov/newsdeck/internal/validation"
)

// MaxExtraFeeds caps how many user RSS URLs a single refresh may carry,
// matching the backend's limit.
const MaxExtraFeeds = 10

// Preview describes a validated feed.
type Preview struct {
	URL   string
	Title string
	Items int
}

type Checker struct {
	validator *validation.FeedURLValidator
	parser    *gofeed.Parser
}

func NewChecker(timeout time.Duration, userAgent string) *Checker {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}
	parser.UserAgent = userAgent
	return &Checker{
		validator: validation.NewFeedURLValidator(),
		parser:    parser,
	}
}

// SetPermissiveValidation relaxes host checks for development setups.
func (c *Checker) SetPermissiveValidation(permissive bool) {
	if permissive {
		c.validator = validation.NewPermissiveFeedURLValidator()
	} else {
		c.validator = validation.NewFeedURLValidator()
	}
}

// Check validates the URL, fetches it, and confirms it parses as a feed.
func (c *Checker) Check(ctx context.Context, rawURL string) (Preview, error) {
	normalized, err := c.validator.ValidateAndNormalize(rawURL)
	if err != nil {
		return Preview{}, fmt.Errorf("invalid feed URL: %w", err)
	}

	feed, err := c.parser.ParseURLWithContext(normalized, ctx)
	if err != nil {
		return Preview{}, fmt.Errorf("not a usable feed: %w", err)
	}

	return Preview{
		URL:   normalized,
		Title: feed.Title,
		Items: len(feed.Items),
	}, nil
}

// Append adds a checked URL to a pending list, enforcing the cap and
// rejecting duplicates.
func Append(pending []string, url string) ([]string, error) {
	if len(pending) >= MaxExtraFeeds {
		return pending, fmt.Errorf("too many extra feeds (max %d)", MaxExtraFeeds)
	}
	for _, existing := range pending {
		if existing == url {
			return pending, fmt.Errorf("feed already added")
		}
	}
	return append(pending, url), nil
}
