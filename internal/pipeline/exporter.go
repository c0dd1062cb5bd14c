package pipeline

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"time"

	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/wegman-software/osm2sql-go/internal/element"
	"github.com/wegman-software/osm2sql-go/internal/geometry"
	"github.com/wegman-software/osm2sql-go/internal/logger"
	"github.com/wegman-software/osm2sql-go/internal/store"
	"github.com/wegman-software/osm2sql-go/internal/style"
)

// Generator is written into exported OSM documents.
const Generator = "osm2sql-go"

// Exporter reconstructs the stored entities and writes them out.
type Exporter struct {
	store *store.Store
}

// NewExporter creates an exporter reading from s.
func NewExporter(s *store.Store) *Exporter {
	return &Exporter{store: s}
}

func (e *Exporter) fetch(ctx context.Context, format string) (*element.Collection, *ExportStats, error) {
	c, err := e.store.FetchAll(ctx)
	if err != nil {
		return nil, nil, err
	}
	stats := &ExportStats{Format: format}
	stats.Nodes, stats.Ways, stats.Relations = c.Counts()
	return c, stats, nil
}

// WriteOSM writes the whole store as an OSM XML document.
func (e *Exporter) WriteOSM(ctx context.Context, w io.Writer) (*ExportStats, error) {
	start := time.Now()
	c, stats, err := e.fetch(ctx, "osm")
	if err != nil {
		return nil, err
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return nil, fmt.Errorf("failed to write OSM header: %w", err)
	}
	if err := encodeOSM(w, c); err != nil {
		return nil, fmt.Errorf("failed to write OSM XML: %w", err)
	}

	stats.Duration = time.Since(start)
	logger.Get().Info("OSM export complete",
		zap.Int("nodes", stats.Nodes),
		zap.Int("ways", stats.Ways),
		zap.Int("relations", stats.Relations),
		zap.String("duration", FormatDuration(stats.Duration)))
	return stats, nil
}

func encodeOSM(w io.Writer, c *element.Collection) error {
	root := xml.StartElement{
		Name: xml.Name{Local: "osm"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "version"}, Value: "0.6"},
			{Name: xml.Name{Local: "generator"}, Value: Generator},
		},
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", " ")
	if err := enc.EncodeToken(root); err != nil {
		return err
	}
	for i := range c.Nodes {
		if err := enc.Encode(toOSMNode(&c.Nodes[i])); err != nil {
			return err
		}
	}
	for i := range c.Ways {
		if err := enc.Encode(toOSMWay(&c.Ways[i])); err != nil {
			return err
		}
	}
	for i := range c.Relations {
		if err := enc.Encode(toOSMRelation(&c.Relations[i])); err != nil {
			return err
		}
	}
	if err := enc.EncodeToken(root.End()); err != nil {
		return err
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// WriteGeoJSON writes tagged nodes and renderable ways as a GeoJSON feature
// collection. Features rejected by filter are left out; a nil filter keeps
// everything.
func (e *Exporter) WriteGeoJSON(ctx context.Context, w io.Writer, filter *style.Filter) (*ExportStats, error) {
	start := time.Now()
	c, stats, err := e.fetch(ctx, "geojson")
	if err != nil {
		return nil, err
	}

	features := geometry.BuildPoints(c.Nodes)
	features = append(features, geometry.BuildWays(geometry.NewIndex(c.Nodes), c.Ways)...)

	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		if !filter.Match(f.Kind, f.Tags) {
			stats.Skipped++
			continue
		}
		fc.Append(toGeoJSON(f))
	}
	stats.Features = len(fc.Features)

	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to encode GeoJSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write GeoJSON: %w", err)
	}

	stats.Duration = time.Since(start)
	logger.Get().Info("GeoJSON export complete",
		zap.Int("features", stats.Features),
		zap.Int("skipped", stats.Skipped),
		zap.String("duration", FormatDuration(stats.Duration)))
	return stats, nil
}

func toGeoJSON(f geometry.Feature) *geojson.Feature {
	gf := geojson.NewFeature(f.Geometry)
	gf.ID = fmt.Sprintf("%s/%d", f.Entity, f.ID)
	gf.Properties["osm_type"] = f.Entity.String()
	gf.Properties["osm_id"] = f.ID
	gf.Properties["kind"] = f.Kind.String()
	for _, tag := range f.Tags {
		// Entity fields win over same-named tags.
		if _, taken := gf.Properties[tag.Key]; taken {
			continue
		}
		gf.Properties[tag.Key] = tag.Value
	}
	return gf
}
