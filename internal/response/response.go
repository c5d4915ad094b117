// Package response shapes analysis results into the JSON document returned
// for every alert dataset.
package response

import (
	"net/url"
	"strings"
	"time"

	gostac "github.com/planetlabs/go-stac"

	"github.com/robert-malhotra/glad-analysis/internal/aggregate"
	"github.com/robert-malhotra/glad-analysis/internal/alerts"
	"github.com/robert-malhotra/glad-analysis/internal/translate"
)

// Download formats offered for every analysis.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// Document is the top-level response envelope.
type Document struct {
	Data Resource `json:"data"`
}

// Resource is the single resource carried by a Document.
type Resource struct {
	Type       string         `json:"type"`
	ID         string         `json:"id"`
	Attributes any            `json:"attributes"`
	Links      []*gostac.Link `json:"links,omitempty"`
}

// AnalysisAttributes is the payload of an analysis document.
type AnalysisAttributes struct {
	// Value is an int, or []alerts.Bucket when aggregated.
	Value        any          `json:"value"`
	AreaHa       *float64     `json:"areaHa,omitempty"`
	Density      *float64     `json:"density,omitempty"`
	DownloadURLs *DownloadURLs `json:"downloadUrls,omitempty"`
	Period       string       `json:"period"`
	AggregateBy  string       `json:"aggregateBy,omitempty"`
}

// DownloadURLs point at the row-level export of an analysis.
type DownloadURLs struct {
	CSV  string `json:"csv"`
	JSON string `json:"json"`
}

// DateRangeAttributes is the payload of the date-range and latest documents.
type DateRangeAttributes struct {
	MinDate string `json:"minDate,omitempty"`
	MaxDate string `json:"maxDate"`
}

// Result is what the analysis pipeline hands to the standardizer.
type Result struct {
	Count       int
	Buckets     []alerts.Bucket
	Aggregated  bool
	Granularity aggregate.Granularity
	AreaHa      float64
	Period      translate.Period

	// DownloadSQL and GeostoreID build the download links. Downloadable is
	// false when the export could not be restricted to the analysed area.
	DownloadSQL  string
	GeostoreID   string
	Downloadable bool
}

// Standardizer builds response documents. It is safe for concurrent use.
type Standardizer struct {
	apiBaseURL string
}

// NewStandardizer creates a standardizer whose download links point at apiBaseURL.
func NewStandardizer(apiBaseURL string) *Standardizer {
	return &Standardizer{apiBaseURL: strings.TrimSuffix(apiBaseURL, "/")}
}

// Analysis builds the analysis document for ds.
func (s *Standardizer) Analysis(ds *alerts.Dataset, r Result) *Document {
	attrs := AnalysisAttributes{Period: r.Period.String()}
	var links []*gostac.Link
	if r.Downloadable {
		urls := &DownloadURLs{
			CSV:  s.DownloadURL(ds, r.DownloadSQL, r.GeostoreID, FormatCSV),
			JSON: s.DownloadURL(ds, r.DownloadSQL, r.GeostoreID, FormatJSON),
		}
		attrs.DownloadURLs = urls
		links = []*gostac.Link{
			{Rel: "download", Href: urls.CSV, Type: "text/csv"},
			{Rel: "download", Href: urls.JSON, Type: "application/json"},
		}
	}

	total := r.Count
	if r.Aggregated {
		buckets := r.Buckets
		if buckets == nil {
			buckets = []alerts.Bucket{}
		}
		attrs.Value = buckets
		attrs.AggregateBy = string(r.Granularity)
		total = aggregate.Total(buckets)
	} else {
		attrs.Value = r.Count
	}

	if r.AreaHa > 0 {
		area := r.AreaHa
		density := float64(total) / area
		attrs.AreaHa = &area
		attrs.Density = &density
	}

	return &Document{Data: Resource{
		Type:       ds.ResponseType(),
		ID:         ds.DatasetID,
		Attributes: attrs,
		Links:      links,
	}}
}

// DateRange builds the document describing the indexed span of ds.
func (s *Standardizer) DateRange(ds *alerts.Dataset, minDate, maxDate time.Time) *Document {
	return &Document{Data: Resource{
		Type: ds.ResponseType(),
		ID:   ds.DatasetID,
		Attributes: DateRangeAttributes{
			MinDate: minDate.Format(translate.PeriodLayout),
			MaxDate: maxDate.Format(translate.PeriodLayout),
		},
	}}
}

// Latest builds the document holding only the newest indexed date of ds.
func (s *Standardizer) Latest(ds *alerts.Dataset, maxDate time.Time) *Document {
	return &Document{Data: Resource{
		Type:       ds.ResponseType(),
		ID:         ds.DatasetID,
		Attributes: DateRangeAttributes{MaxDate: maxDate.Format(translate.PeriodLayout)},
	}}
}

// DownloadURL builds the export link for a row-level query.
func (s *Standardizer) DownloadURL(ds *alerts.Dataset, sql, geostoreID, format string) string {
	values := url.Values{}
	values.Set("sql", sql)
	if geostoreID != "" {
		values.Set("geostore", geostoreID)
	}
	values.Set("format", format)
	return s.apiBaseURL + "/v1/download/" + url.PathEscape(ds.DatasetID) + "?" + values.Encode()
}
