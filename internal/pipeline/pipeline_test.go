package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/wegman-software/osm2sql-go/internal/config"
	"github.com/wegman-software/osm2sql-go/internal/element"
	"github.com/wegman-software/osm2sql-go/internal/parser"
	"github.com/wegman-software/osm2sql-go/internal/store"
	"github.com/wegman-software/osm2sql-go/internal/style"
)

const testDoc = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6">
  <node id="1" lat="0" lon="0" version="1" timestamp="2024-01-15T12:00:00Z" changeset="5" uid="7" user="alice"/>
  <node id="2" lat="0" lon="1" version="1" timestamp="2024-01-15T12:00:00Z" changeset="5" uid="7" user="alice"/>
  <node id="3" lat="1" lon="1" version="1" timestamp="2024-01-15T12:00:00Z" changeset="5" uid="7" user="alice"/>
  <node id="4" lat="1" lon="0" version="2" timestamp="2024-01-16T08:30:00Z" changeset="6" uid="8" user="bob">
    <tag k="amenity" v="cafe"/>
    <tag k="addr:street" v="Main St, East"/>
  </node>
  <way id="10" version="1" timestamp="2024-01-15T12:00:00Z" changeset="5" uid="7" user="alice">
    <nd ref="1"/><nd ref="2"/><nd ref="3"/><nd ref="4"/><nd ref="1"/>
    <tag k="building" v="yes"/>
  </way>
  <way id="11" version="1" timestamp="2024-01-15T12:00:00Z" changeset="5" uid="7" user="alice">
    <nd ref="7"/><nd ref="3"/><nd ref="9"/><nd ref="2"/>
    <tag k="highway" v="residential"/>
  </way>
  <relation id="100" version="1" timestamp="2024-01-15T12:00:00Z" changeset="5" uid="7" user="alice">
    <member type="node" ref="5" role="outer"/>
    <member type="way" ref="9" role=""/>
    <member type="area" ref="1" role="x"/>
    <tag k="type" v="multipolygon"/>
  </relation>
</osm>
`

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DBPath = filepath.Join(t.TempDir(), "osm.db")
	s, err := store.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("store.Open failed: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func importTestDoc(t *testing.T) (*store.Store, string) {
	t.Helper()
	s := openTestStore(t)
	path := writeTestFile(t, "sample.osm", testDoc)
	if _, err := NewImporter(s, false).Run(context.Background(), path); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	return s, path
}

func TestImporterRun(t *testing.T) {
	s := openTestStore(t)
	path := writeTestFile(t, "sample.osm", testDoc)

	stats, err := NewImporter(s, true).Run(context.Background(), path)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if stats.Nodes != 4 || stats.Ways != 2 || stats.Relations != 1 {
		t.Errorf("counts = %d/%d/%d", stats.Nodes, stats.Ways, stats.Relations)
	}
	if stats.Format != "xml" {
		t.Errorf("Format = %q", stats.Format)
	}
	// 4 nodes + 2 tags + 2 ways + 9 refs + 2 tags + 1 relation + 2 members + 1 tag
	if got := stats.Rows(); got != 23 {
		t.Errorf("Rows() = %d, want 23", got)
	}
	if stats.Statements() != 8 {
		t.Errorf("Statements() = %d, want 8", stats.Statements())
	}
}

func TestImportTwiceIsIdempotent(t *testing.T) {
	s, path := importTestDoc(t)
	ctx := context.Background()

	before, err := s.CountRows(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewImporter(s, false).Run(ctx, path); err != nil {
		t.Fatalf("second import failed: %v", err)
	}
	after, err := s.CountRows(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for table, n := range before {
		if after[table] != n {
			t.Errorf("%s: %d rows before, %d after", table, n, after[table])
		}
	}
}

func TestVerify(t *testing.T) {
	s, path := importTestDoc(t)

	report, err := Verify(context.Background(), s, path)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !report.OK() {
		t.Errorf("unexpected differences: %v", report.Differences)
	}

	// A file with changed content must not verify.
	changed := writeTestFile(t, "changed.osm", strings.Replace(testDoc, `v="cafe"`, `v="bar"`, 1))
	report, err = Verify(context.Background(), s, changed)
	if err != nil {
		t.Fatal(err)
	}
	if report.OK() {
		t.Error("changed file verified against store")
	}
}

func TestWriteOSMRoundTrip(t *testing.T) {
	s, path := importTestDoc(t)
	ctx := context.Background()

	var buf bytes.Buffer
	stats, err := NewExporter(s).WriteOSM(ctx, &buf)
	if err != nil {
		t.Fatalf("WriteOSM failed: %v", err)
	}
	if stats.Nodes != 4 || stats.Ways != 2 || stats.Relations != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if !strings.HasPrefix(buf.String(), `<?xml`) || !strings.Contains(buf.String(), `generator="osm2sql-go"`) {
		t.Errorf("unexpected document start: %.120s", buf.String())
	}

	exported, err := parser.ParseXML(ctx, &buf)
	if err != nil {
		t.Fatalf("re-parsing export failed: %v", err)
	}
	source, err := parser.ParseFile(ctx, path, 1)
	if err != nil {
		t.Fatal(err)
	}
	if diffs := element.Compare(source, exported); len(diffs) != 0 {
		t.Errorf("export differs from source: %v", diffs)
	}
}

func TestWriteGeoJSON(t *testing.T) {
	s, _ := importTestDoc(t)

	var buf bytes.Buffer
	stats, err := NewExporter(s).WriteGeoJSON(context.Background(), &buf, nil)
	if err != nil {
		t.Fatalf("WriteGeoJSON failed: %v", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(buf.Bytes())
	if err != nil {
		t.Fatalf("invalid GeoJSON: %v", err)
	}
	// cafe point, building polygon, highway line (nodes 7 and 9 unknown)
	if len(fc.Features) != 3 || stats.Features != 3 {
		t.Fatalf("features = %d (stats %d), want 3", len(fc.Features), stats.Features)
	}

	kinds := map[string]string{}
	for _, f := range fc.Features {
		kinds[f.ID.(string)] = f.Geometry.GeoJSONType()
	}
	want := map[string]string{"node/4": "Point", "way/10": "Polygon", "way/11": "LineString"}
	for id, typ := range want {
		if kinds[id] != typ {
			t.Errorf("%s = %q, want %q", id, kinds[id], typ)
		}
	}
	if fc.Features[0].Properties["addr:street"] != "Main St, East" {
		t.Errorf("properties = %v", fc.Features[0].Properties)
	}
}

func TestWriteGeoJSONWithStyle(t *testing.T) {
	s, _ := importTestDoc(t)
	filter := style.NewFilter(&style.Config{
		Polygons: &style.Rules{Exclude: map[string][]string{"building": nil}},
	})

	var buf bytes.Buffer
	stats, err := NewExporter(s).WriteGeoJSON(context.Background(), &buf, filter)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Features != 2 || stats.Skipped != 1 {
		t.Errorf("features = %d, skipped = %d", stats.Features, stats.Skipped)
	}
}

func TestFormatHelpers(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{FormatDuration(250 * time.Millisecond), "250ms"},
		{FormatDuration(65 * time.Second), "1m 5s"},
		{FormatDuration(2*time.Hour + 3*time.Second), "2h 0m 3s"},
		{FormatThroughput(1500), "1.5K/s"},
		{FormatThroughput(42), "42/s"},
		{FormatBytes(2048), "2.0 KB"},
		{FormatBytes(12), "12 B"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
	if Throughput(10, 0) != 0 || Throughput(10, 2*time.Second) != 5 {
		t.Error("Throughput mismatch")
	}
}
