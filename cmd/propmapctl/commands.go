package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/stwalsh4118/propmap/internal/backend"
	"github.com/stwalsh4118/propmap/internal/geocode"
	"github.com/stwalsh4118/propmap/internal/logger"
	"github.com/stwalsh4118/propmap/internal/models"
	"github.com/stwalsh4118/propmap/internal/regions"
	"github.com/stwalsh4118/propmap/internal/search"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func newLogger(c *cli.Context) *logger.Logger {
	if c.Bool("verbose") {
		return logger.NewWithWriter("development", c.App.ErrWriter)
	}
	return logger.Nop()
}

func newBackend(c *cli.Context) *backend.Client {
	return backend.NewClient(c.String("backend-url"), c.Duration("timeout"), newLogger(c))
}

func newGeocoder(c *cli.Context) *geocode.Client {
	return geocode.NewClient(geocode.Config{
		BaseURL:   c.String("geocoder-url"),
		UserAgent: c.String("user-agent"),
	}, newLogger(c))
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func regionsCommand(c *cli.Context) error {
	catalog := regions.Catalog()
	if c.Bool("json") {
		return writeJSON(c.App.Writer, catalog)
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tNAME\tCOLOR")
	for _, r := range catalog {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Key, r.Name, r.Color)
	}
	return tw.Flush()
}

// fetchResult is one region's fetch outcome.
type fetchResult struct {
	Statistics *models.RegionStatistics `json:"statistics,omitempty"`
	Region     string                   `json:"region"`
	Error      string                   `json:"error,omitempty"`
}

func fetchCommand(c *cli.Context) error {
	keys := c.Args().Slice()
	if len(keys) == 0 {
		return errors.New("usage: propmapctl fetch <region>...")
	}
	for _, key := range keys {
		if _, ok := regions.Lookup(key); !ok {
			return fmt.Errorf("%w: %s", regions.ErrUnknownRegion, key)
		}
	}

	results := fetchAll(c.Context, newBackend(c), keys, c.Int("concurrency"))

	if c.Bool("json") {
		return writeJSON(c.App.Writer, results)
	}
	return printFetchResults(c.App.Writer, results)
}

// fetchAll fetches regions concurrently. One region failing does not stop
// the others; its error is recorded in its result.
func fetchAll(ctx context.Context, fetcher regions.Fetcher, keys []string, limit int) []fetchResult {
	results := make([]fetchResult, len(keys))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, key := range keys {
		g.Go(func() error {
			results[i].Region = key
			payload, err := fetcher.FetchRegion(ctx, key)
			if err != nil {
				results[i].Error = err.Error()
				return nil
			}
			stats := payload.Statistics
			if stats == nil {
				computed := models.ComputeStatistics(payload.Data)
				stats = &computed
			}
			results[i].Statistics = stats
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func printFetchResults(w io.Writer, results []fetchResult) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "REGION\tTOTAL\tGEOCODED\tACTIVE\tEXPIRED\tERROR")
	for _, r := range results {
		if r.Statistics == nil {
			fmt.Fprintf(tw, "%s\t-\t-\t-\t-\t%s\n", r.Region, r.Error)
			continue
		}
		s := r.Statistics
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t\n", r.Region, s.TotalRecords, s.GeocodedRecords, s.ActiveLicences, s.ExpiredLicences)
	}
	return tw.Flush()
}

func geocodeCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return errors.New("usage: propmapctl geocode <query>")
	}

	places, err := newGeocoder(c).Geocode(c.Context, query, c.Int("limit"))
	if err != nil {
		return err
	}

	if c.Bool("json") {
		return writeJSON(c.App.Writer, places)
	}
	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LAT\tLNG\tPOSTCODE\tNAME")
	for _, p := range places {
		fmt.Fprintf(tw, "%.6f\t%.6f\t%s\t%s\n", p.Position.Lat, p.Position.Lng, p.Postcode, p.DisplayName)
	}
	return tw.Flush()
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return errors.New("usage: propmapctl search <query>")
	}

	log := newLogger(c)
	client := newBackend(c)
	cache := regions.NewCache(client, c.Duration("timeout"), log)

	var props []models.Property
	g, ctx := errgroup.WithContext(c.Context)
	g.Go(func() error {
		var err error
		props, err = client.ListProperties(ctx)
		return err
	})
	if keys := c.StringSlice("region"); len(keys) > 0 {
		g.Go(func() error {
			_, err := cache.Preload(ctx, keys)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var geocoder search.Geocoder
	if !c.Bool("no-geocode") {
		geocoder = newGeocoder(c)
	}
	results := search.NewIndex(cache, geocoder, log).Search(c.Context, query, props)

	if c.Bool("json") {
		return writeJSON(c.App.Writer, results)
	}
	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tID\tTITLE\tSUBTITLE")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Source, r.ID, r.Title, r.Subtitle)
	}
	return tw.Flush()
}
