package score

import (
	"math"
	"sort"
	"strconv"

	"github.com/mchmarny/scoring/pkg/api"
)

const (
	// BarScale is the bar width in percent per unit of importance.
	BarScale = 50

	StatusApproved = "Одобрено"
	StatusDeclined = "Отказано"

	classPositive = "positive"
	classNegative = "negative"
)

// Bar is one feature row of the importance breakdown.
type Bar struct {
	Feature string
	Value   float64
	Width   float64
	Text    string
}

// Positive reports whether the feature pushed the decision towards approval.
func (b Bar) Positive() bool {
	return b.Value > 0
}

// Class is the CSS class of the bar.
func (b Bar) Class() string {
	if b.Positive() {
		return classPositive
	}
	return classNegative
}

// Page is the render model of the results page.
type Page struct {
	Approved       bool
	Status         string
	HasProbability bool
	Probability    string
	Bars           []Bar
}

// NewPage builds the results page. A nil prediction yields the declined
// status with no probability and no factors.
func NewPage(p *api.Prediction) *Page {
	page := &Page{Status: StatusDeclined}
	if p == nil {
		return page
	}

	page.Approved = p.Approved
	if p.Approved {
		page.Status = StatusApproved
	}
	page.HasProbability = true
	page.Probability = strconv.FormatFloat(p.Probability*100, 'f', 1, 64)
	page.Bars = Bars(p.Importance)
	return page
}

// Bars orders the importance mapping by absolute value, largest first.
// Equal magnitudes are ordered by feature name.
func Bars(importance map[string]float64) []Bar {
	bars := make([]Bar, 0, len(importance))
	for k, v := range importance {
		bars = append(bars, Bar{
			Feature: k,
			Value:   v,
			Width:   math.Round(math.Abs(v)*BarScale*100) / 100,
			Text:    strconv.FormatFloat(v, 'f', 2, 64),
		})
	}

	sort.SliceStable(bars, func(i, j int) bool {
		ai, aj := math.Abs(bars[i].Value), math.Abs(bars[j].Value)
		if ai != aj {
			return ai > aj
		}
		return bars[i].Feature < bars[j].Feature
	})
	return bars
}
