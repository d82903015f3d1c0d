package scrape

import (
	"context"

	"github.com/sirupsen/logrus"

	"teashelf/internal/browser"
	"teashelf/internal/models"
	"teashelf/internal/ssrf"
)

// BrowserSession hands out the shared browser process handle.
type BrowserSession interface {
	Acquire(ctx context.Context) (context.Context, error)
}

// PageFetcher loads one page per request on the shared process.
type PageFetcher interface {
	Fetch(handle context.Context, rawURL string) (Document, error)
}

// Importer composes guard, session, fetcher and extractor into the single
// externally callable operation: validate, fetch, extract, return candidate.
type Importer struct {
	session   BrowserSession
	fetcher   PageFetcher
	extractor *Extractor
	log       *logrus.Entry
}

// NewImporter wires the concrete browser session and fetcher.
func NewImporter(session *browser.Session, fetcher *browser.Fetcher, extractor *Extractor) *Importer {
	return &Importer{
		session:   session,
		fetcher:   chromeFetcher{fetcher},
		extractor: extractor,
		log:       logrus.WithField("component", "importer"),
	}
}

// chromeFetcher adapts the concrete fetcher to the Document-returning
// interface.
type chromeFetcher struct {
	f *browser.Fetcher
}

func (c chromeFetcher) Fetch(handle context.Context, rawURL string) (Document, error) {
	p, err := c.f.Fetch(handle, rawURL)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Import validates the URL, fetches the page on the shared browser process
// and extracts a tea candidate. Guard rejections return before any network
// access; the page context is released on every exit path. A partial
// candidate is a success, never an error.
func (i *Importer) Import(ctx context.Context, rawURL string) (models.Candidate, error) {
	if res := ssrf.Validate(rawURL); !res.Valid {
		i.log.WithFields(logrus.Fields{
			"url":  rawURL,
			"kind": res.Kind.String(),
		}).Info("import URL rejected")
		return models.Candidate{}, &models.URLRejectedError{Kind: res.Kind, Reason: res.Reason}
	}

	handle, err := i.session.Acquire(ctx)
	if err != nil {
		return models.Candidate{}, err
	}

	page, err := i.fetcher.Fetch(handle, rawURL)
	if err != nil {
		return models.Candidate{}, err
	}
	defer page.Close()

	cand := i.extractor.Extract(ctx, page)
	i.log.WithFields(logrus.Fields{
		"url":                 rawURL,
		"name_strategy":       cand.Sources.Name,
		"image_strategy":      cand.Sources.Image,
		"type_strategy":       cand.Sources.Type,
		"steep_time_strategy": cand.Sources.SteepTimes,
	}).Debug("extraction finished")

	return cand, nil
}
