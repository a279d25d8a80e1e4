package output

import (
	"time"

	"github.com/rgehrsitz/matricula/internal/calculation"
	"github.com/rgehrsitz/matricula/internal/domain"
)

// Proposal is the priced offer shown to a family: the quote plus the labels
// needed to read it without the catalogs at hand.
type Proposal struct {
	StudentName string       `json:"studentName,omitempty"`
	SeriesID    string       `json:"seriesId"`
	SeriesName  string       `json:"seriesName,omitempty"`
	TrackID     string       `json:"trackId"`
	TrackName   string       `json:"trackName,omitempty"`
	Quote       domain.Quote `json:"quote"`
	CapBanner   string       `json:"capBanner"`
	GeneratedAt time.Time    `json:"generatedAt"`
}

// NewProposal assembles a proposal from a derived quote
func NewProposal(quote domain.Quote, snapshot domain.FormSnapshot, refs *domain.ReferenceData, now time.Time) Proposal {
	p := Proposal{
		StudentName: snapshot.Student.Name,
		SeriesID:    quote.Base.SeriesID,
		TrackID:     quote.TrackID,
		Quote:       quote,
		CapBanner:   calculation.CapBanner(quote.Cap),
		GeneratedAt: now,
	}
	if series, ok := refs.FindSeries(quote.Base.SeriesID); ok {
		p.SeriesName = series.Name
	}
	if track, ok := refs.FindTrack(quote.TrackID); ok {
		p.TrackName = track.Name
	}
	return p
}

func (p Proposal) seriesLabel() string {
	if p.SeriesName != "" {
		return p.SeriesName
	}
	return p.SeriesID
}

func (p Proposal) trackLabel() string {
	if p.TrackName != "" {
		return p.TrackName
	}
	return p.TrackID
}
