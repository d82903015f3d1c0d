// Package models defines the shared data shapes of the import subsystem:
// the tea candidate produced by extraction, the API request/response bodies,
// and the typed errors the orchestrator returns.
package models

// TeaType is one of the known tea categories a product page can be matched to.
type TeaType string

const (
	TeaTypeGreen  TeaType = "Green"
	TeaTypeBlack  TeaType = "Black"
	TeaTypePuEr   TeaType = "PuEr"
	TeaTypeYellow TeaType = "Yellow"
	TeaTypeWhite  TeaType = "White"
	TeaTypeOolong TeaType = "Oolong"
)

// TeaTypes lists every known category in matching order.
var TeaTypes = []TeaType{
	TeaTypeGreen,
	TeaTypeBlack,
	TeaTypePuEr,
	TeaTypeYellow,
	TeaTypeWhite,
	TeaTypeOolong,
}

// Strategy identifies which extraction strategy produced a field value, so
// extraction stays testable strategy-by-strategy.
type Strategy string

const (
	StrategyNone          Strategy = ""
	StrategyProductTitle  Strategy = "product-title"
	StrategyHeading       Strategy = "heading"
	StrategyMetaImage     Strategy = "meta-image"
	StrategyGalleryImage  Strategy = "gallery-image"
	StrategyCategoryBlock Strategy = "category-block"
	StrategyFullTextScan  Strategy = "fulltext-scan"
	StrategySecondsScan   Strategy = "seconds-scan"
)

// FieldSources records the winning strategy per candidate field.
type FieldSources struct {
	Name       Strategy
	Image      Strategy
	Type       Strategy
	SteepTimes Strategy
}

// Candidate is the best-effort result of extracting a tea from a product
// page. Every field is independently optional; the record as a whole is never
// invalid, only more or less complete.
type Candidate struct {
	Name       string
	ImageURL   string
	Type       TeaType // empty when no category matched
	SteepTimes []int   // seconds, each in (0, 600)
	Sources    FieldSources
}

// EmptyCandidate returns a candidate with no extracted fields. SteepTimes is
// a non-nil empty slice so the JSON rendering is always an array.
func EmptyCandidate() Candidate {
	return Candidate{SteepTimes: []int{}}
}

// ImportRequest is the body of POST /api/v1/teas/import.
type ImportRequest struct {
	URL string `json:"url"`
}

// ImportResponse is the successful import result, shaped for the tea-record
// form the caller pre-fills.
type ImportResponse struct {
	Name       string `json:"name"`
	Type       string `json:"type,omitempty"`
	Image      string `json:"image"`
	SteepTimes []int  `json:"steepTimes"`
}

// NewImportResponse converts an extraction candidate to the wire shape.
func NewImportResponse(c Candidate) ImportResponse {
	times := c.SteepTimes
	if times == nil {
		times = []int{}
	}
	return ImportResponse{
		Name:       c.Name,
		Type:       string(c.Type),
		Image:      c.ImageURL,
		SteepTimes: times,
	}
}

// ErrorResponse is the error body returned by the API. Message is safe for
// end users; Detail is diagnostic and intended for logs/clients that want it.
type ErrorResponse struct {
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}
