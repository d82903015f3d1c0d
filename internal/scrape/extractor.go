// Package scrape turns a fetched product page into a best-effort tea
// candidate and orchestrates the whole import operation. Extraction never
// fails: every field strategy degrades independently to an empty value.
package scrape

import (
	"context"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/sirupsen/logrus"

	"teashelf/internal/models"
)

// Document is a loaded page handed to extraction. The fetcher's page type
// implements it; tests supply static HTML.
type Document interface {
	HTML(ctx context.Context) (string, error)
	Close()
}

const (
	// Known product-title markup on tea shop pages; first h1 is the fallback.
	productTitleSelector = "h1.product-title"
	// Gallery placeholder whose attribute holds the main product image URL.
	// Only the attribute value is read; image bytes are never fetched.
	galleryImageSelector = "img.gallery-placeholder__image"

	categoriesLabel = "Categories"
)

// Integer-plus-seconds-unit tokens: "30s", "30 s", "30sec", "30 seconds".
var secondsTokenRe = regexp.MustCompile(`(?i)\b(\d{1,4})\s*s(?:ec(?:ond)?s?)?\b`)

// Steep times at or above this are treated as typo/sensor noise.
const maxSteepSeconds = 600

// Fewer matching tokens than this implies noise rather than steep-time data.
const minSteepTokens = 3

// Word-boundary patterns per tea type; PuEr covers the common spellings.
var teaTypePatterns = map[models.TeaType]*regexp.Regexp{
	models.TeaTypeGreen:  regexp.MustCompile(`(?i)\bgreen\b`),
	models.TeaTypeBlack:  regexp.MustCompile(`(?i)\bblack\b`),
	models.TeaTypePuEr:   regexp.MustCompile(`(?i)\bpu[ '’-]?erh?\b`),
	models.TeaTypeYellow: regexp.MustCompile(`(?i)\byellow\b`),
	models.TeaTypeWhite:  regexp.MustCompile(`(?i)\bwhite\b`),
	models.TeaTypeOolong: regexp.MustCompile(`(?i)\boolong\b`),
}

// Extractor recovers name/image/type/steep-times from arbitrary,
// non-cooperating product HTML.
type Extractor struct {
	sanitizer *bluemonday.Policy
	log       *logrus.Entry
}

func NewExtractor() *Extractor {
	return &Extractor{
		sanitizer: bluemonday.StrictPolicy(),
		log:       logrus.WithField("component", "extractor"),
	}
}

// Extract reads the document and runs every field strategy. It always
// returns a candidate; a document that cannot be read yields an empty one.
func (e *Extractor) Extract(ctx context.Context, page Document) models.Candidate {
	raw, err := page.HTML(ctx)
	if err != nil {
		e.log.WithError(err).Warn("could not read document, returning empty candidate")
		return models.EmptyCandidate()
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		e.log.WithError(err).Warn("could not parse document, returning empty candidate")
		return models.EmptyCandidate()
	}

	return e.extractFromDoc(doc)
}

func (e *Extractor) extractFromDoc(doc *goquery.Document) models.Candidate {
	cand := models.EmptyCandidate()

	cand.Name, cand.Sources.Name = e.extractName(doc)
	cand.ImageURL, cand.Sources.Image = e.extractImage(doc)

	text := visibleText(doc)
	cand.Type, cand.Sources.Type = e.extractType(doc, text, cand.Name)
	if times := extractSteepTimes(text); len(times) > 0 {
		cand.SteepTimes = times
		cand.Sources.SteepTimes = models.StrategySecondsScan
	}

	return cand
}

// extractName tries the known product-title selector, then the first
// top-level heading.
func (e *Extractor) extractName(doc *goquery.Document) (string, models.Strategy) {
	if s := doc.Find(productTitleSelector).First(); s.Length() > 0 {
		if name := e.sanitizeText(s.Text()); name != "" {
			return name, models.StrategyProductTitle
		}
	}
	if s := doc.Find("h1").First(); s.Length() > 0 {
		if name := e.sanitizeText(s.Text()); name != "" {
			return name, models.StrategyHeading
		}
	}
	return "", models.StrategyNone
}

// extractImage tries the social-preview meta image, then the gallery
// placeholder attribute.
func (e *Extractor) extractImage(doc *goquery.Document) (string, models.Strategy) {
	if v := findMetaContent(doc, "og:image", ""); v != "" {
		return v, models.StrategyMetaImage
	}
	if v := findMetaContent(doc, "og:image:secure_url", ""); v != "" {
		return v, models.StrategyMetaImage
	}

	img := doc.Find(galleryImageSelector).First()
	for _, attr := range []string{"src", "data-src"} {
		if v, ok := img.Attr(attr); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v, models.StrategyGalleryImage
			}
		}
	}
	return "", models.StrategyNone
}

// extractType looks for an info block labeled "Categories" first. Failing
// that it scans the full visible text, but only accepts a type whose name
// also occurs in the extracted product name, which filters false positives
// from unrelated mentions elsewhere on the page.
func (e *Extractor) extractType(doc *goquery.Document, fullText, name string) (models.TeaType, models.Strategy) {
	var blockText string
	doc.Find("dt, th, label, strong, b, h2, h3, h4, h5, span, div").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !strings.EqualFold(strings.TrimSpace(s.Text()), categoriesLabel) {
			return true
		}
		blockText = s.Parent().Text()
		return false
	})
	if blockText != "" {
		if tt, ok := matchTeaType(blockText); ok {
			return tt, models.StrategyCategoryBlock
		}
	}

	if name != "" {
		for _, tt := range models.TeaTypes {
			re := teaTypePatterns[tt]
			if re.MatchString(fullText) && re.MatchString(name) {
				return tt, models.StrategyFullTextScan
			}
		}
	}

	return "", models.StrategyNone
}

// matchTeaType returns the first enumerated type whose pattern matches.
func matchTeaType(text string) (models.TeaType, bool) {
	for _, tt := range models.TeaTypes {
		if teaTypePatterns[tt].MatchString(text) {
			return tt, true
		}
	}
	return "", false
}

// extractSteepTimes scans visible text for seconds tokens. At least three
// tokens must be present before any are accepted; fewer implies noise, not
// real steep-time data. Out-of-range values are dropped, order is preserved.
func extractSteepTimes(text string) []int {
	matches := secondsTokenRe.FindAllStringSubmatch(text, -1)
	if len(matches) < minSteepTokens {
		return nil
	}

	times := make([]int, 0, len(matches))
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 || n >= maxSteepSeconds {
			continue
		}
		times = append(times, n)
	}
	return times
}

// visibleText approximates the page's rendered text: body content with
// non-visible elements removed.
func visibleText(doc *goquery.Document) string {
	body := doc.Find("body")
	if body.Length() == 0 {
		return doc.Text()
	}
	clone := body.Clone()
	clone.Find("script, style, noscript, template").Remove()
	return clone.Text()
}

// findMetaContent searches meta tags by property or name attribute.
func findMetaContent(doc *goquery.Document, property, name string) string {
	var value string
	doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if p, ok := s.Attr("property"); ok && property != "" && p == property {
			value, _ = s.Attr("content")
			value = strings.TrimSpace(value)
			return value == ""
		}
		if n, ok := s.Attr("name"); ok && name != "" && n == name {
			value, _ = s.Attr("content")
			value = strings.TrimSpace(value)
			return value == ""
		}
		return true
	})
	return value
}

// sanitizeText strips any markup that leaked into a text node and collapses
// whitespace.
func (e *Extractor) sanitizeText(text string) string {
	s := e.sanitizer.Sanitize(text)
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}
