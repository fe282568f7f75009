// Package search ranks tracked properties, loaded registry records and
// geocoder matches for a free-text query.
//
// Ranking is by source priority, not relevance: tracked properties first,
// then registry records, then geocoder matches. Within a source the input
// order is kept.
package search

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Rhymond/go-money"
	"github.com/stwalsh4118/propmap/internal/geocode"
	"github.com/stwalsh4118/propmap/internal/logger"
	"github.com/stwalsh4118/propmap/internal/models"
	"github.com/stwalsh4118/propmap/internal/regions"
)

// Search limits
const (
	MinQueryLength         = 2
	TrackedLimit           = 3
	RegistryPerRegionLimit = 2
	RegistryLimit          = 3
	GeocodeMinLength       = 5 // normalized runes; the geocoder runs only for longer queries
	GeocodeLimit           = 2
)

// Display tags for non-registry sources. Registry results use the region color.
const (
	trackedColor  = "#2563eb"
	geocodedColor = "#6b7280"
	trackedIcon   = "home"
	registryIcon  = "hmo"
	geocodedIcon  = "pin"
)

// Geocoder resolves free text to places.
type Geocoder interface {
	Geocode(ctx context.Context, query string, limit int) ([]geocode.Place, error)
}

// RegistrySource provides the currently loaded registry datasets.
type RegistrySource interface {
	Loaded() []regions.Dataset
}

// Index runs searches. It holds no state of its own; tracked properties are
// passed per call and registry datasets are read from the source.
type Index struct {
	registry RegistrySource
	geocoder Geocoder
	log      *logger.Logger
}

// NewIndex creates an Index. geocoder may be nil to disable the fallback.
func NewIndex(registry RegistrySource, geocoder Geocoder, log *logger.Logger) *Index {
	return &Index{registry: registry, geocoder: geocoder, log: log}
}

// Search returns ranked results for query over the tracked (already
// filtered) properties, the loaded registries and, only when both of those
// come up empty, the geocoder. Queries shorter than MinQueryLength return
// nothing without searching. Geocoder failures are logged and yield no
// results.
func (ix *Index) Search(ctx context.Context, query string, tracked []models.Property) []models.SearchResult {
	trimmed := strings.TrimSpace(query)
	if utf8.RuneCountInString(trimmed) < MinQueryLength {
		return []models.SearchResult{}
	}
	q := Normalize(trimmed)
	if q == "" {
		return []models.SearchResult{}
	}

	results := make([]models.SearchResult, 0, TrackedLimit+RegistryLimit)
	results = append(results, matchTracked(q, tracked)...)
	if ix.registry != nil {
		results = append(results, matchRegistry(q, ix.registry.Loaded())...)
	}

	if len(results) > 0 || ix.geocoder == nil || utf8.RuneCountInString(q) <= GeocodeMinLength {
		return results
	}

	places, err := ix.geocoder.Geocode(ctx, trimmed, GeocodeLimit)
	if err != nil {
		if ctx.Err() == nil {
			ix.log.Warn("Geocoding fallback failed", map[string]interface{}{
				"query": trimmed,
				"error": err.Error(),
			})
		}
		return results
	}

	return append(results, geocodedResults(places)...)
}

func matchTracked(q string, props []models.Property) []models.SearchResult {
	var out []models.SearchResult
	for _, p := range props {
		if len(out) == TrackedLimit {
			break
		}
		if !matchesAny(q, p.Address, p.Postcode, p.AdvertiserName) {
			continue
		}

		r := models.SearchResult{
			ID:       fmt.Sprintf("tracked:%d", p.ID),
			Source:   models.SourceTracked,
			Title:    p.Address,
			Subtitle: trackedSubtitle(p),
			Ref:      models.ResultRef{PropertyID: p.ID},
			Color:    trackedColor,
			Icon:     trackedIcon,
		}
		if ll, ok := p.Coordinates(); ok {
			r.Coordinates = &ll
		}
		out = append(out, r)
	}
	return out
}

func trackedSubtitle(p models.Property) string {
	income := money.New(p.MonthlyIncome.Shift(2).Round(0).IntPart(), money.GBP).Display()
	parts := []string{}
	if p.Postcode != "" {
		parts = append(parts, p.Postcode)
	}
	parts = append(parts, income+" pcm")
	return strings.Join(parts, " · ")
}

func matchRegistry(q string, datasets []regions.Dataset) []models.SearchResult {
	var out []models.SearchResult
	for _, ds := range datasets {
		perRegion := 0
		for i, rec := range ds.Records {
			if perRegion == RegistryPerRegionLimit {
				break
			}
			if !matchesAny(q, rec.Address, rec.Postcode, rec.Licensee, rec.CaseNumber) {
				continue
			}
			perRegion++
			out = append(out, registryResult(ds.Region, rec, i))
		}
	}
	if len(out) > RegistryLimit {
		out = out[:RegistryLimit]
	}
	return out
}

func registryResult(region regions.Region, rec models.RegistryRecord, index int) models.SearchResult {
	key := rec.KeyAt(index)
	subtitle := []string{region.Name + " HMO", string(rec.LicenceStatus)}
	if rec.Licensee != "" {
		subtitle = append(subtitle, rec.Licensee)
	}

	r := models.SearchResult{
		ID:       "registry:" + region.Key + ":" + key,
		Source:   models.SourceRegistry,
		Title:    rec.Address,
		Subtitle: strings.Join(subtitle, " · "),
		Ref:      models.ResultRef{Region: region.Key, RecordID: key},
		Color:    region.Color,
		Icon:     registryIcon,
	}
	if ll, ok := rec.Coordinates(); ok {
		r.Coordinates = &ll
	}
	return r
}

func geocodedResults(places []geocode.Place) []models.SearchResult {
	out := make([]models.SearchResult, 0, len(places))
	for i, p := range places {
		if i == GeocodeLimit {
			break
		}
		pos := p.Position
		out = append(out, models.SearchResult{
			ID:          fmt.Sprintf("geocoded:%d:%.6f,%.6f", i, pos.Lat, pos.Lng),
			Source:      models.SourceGeocoded,
			Title:       p.DisplayName,
			Subtitle:    p.Postcode,
			Coordinates: &pos,
			Ref:         models.ResultRef{Postcode: p.Postcode},
			Color:       geocodedColor,
			Icon:        geocodedIcon,
		})
	}
	return out
}
