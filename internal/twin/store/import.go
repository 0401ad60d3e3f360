package store

import (
	"fmt"
	"strings"

	pkgstore "github.com/gsconfig-go/gsconfig/pkg/store"
)

// Coverage store types the twin knows how to import.
const (
	GeoTIFFType    = "GeoTIFF"
	WorldImageType = "WorldImage"
	ShapefileType  = "Shapefile"
)

var worldBBox = BBox{MinX: -180, MaxX: 180, MinY: -90, MaxY: 90, CRS: "EPSG:4326"}

// ImportShapefile configures a Shapefile data store from an uploaded bundle
// and publishes one feature type and layer per shapefile. The store is
// created when missing. Existing feature types are replaced only when
// overwrite is set.
func (s *MemoryStore) ImportShapefile(ws, store string, shapefiles []string, overwrite bool, charset string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, err := s.requireWorkspaceLocked(ws)
	if err != nil {
		return err
	}
	if len(shapefiles) == 0 {
		return fmt.Errorf("bundle contains no .shp file: %w", ErrInvalid)
	}
	key := pkgstore.Key(ws, store)
	if s.CoverageStores.Has(key) {
		return fmt.Errorf("store '%s' is a coverage store: %w", store, ErrExists)
	}
	if !s.DataStores.Has(key) {
		params := map[string]string{
			"url":       fmt.Sprintf("file:data/%s/%s", ws, store),
			"namespace": ws,
		}
		if charset != "" {
			params["charset"] = charset
		}
		s.DataStores.Set(key, DataStore{
			Workspace:            ws,
			Name:                 store,
			Type:                 ShapefileType,
			Enabled:              true,
			ConnectionParameters: params,
		})
	}

	for _, name := range shapefiles {
		if s.FeatureTypes.Has(pkgstore.Key(ws, store, name)) && !overwrite {
			continue
		}
		native := worldBBox
		latlon := worldBBox
		s.publishLocked(Resource{
			Kind:              FeatureTypeKind,
			Workspace:         ws,
			Store:             store,
			Name:              name,
			Title:             name,
			Enabled:           true,
			Keywords:          []string{name, "features"},
			SRS:               "EPSG:4326",
			ProjectionPolicy:  "FORCE_DECLARED",
			NativeBoundingBox: &native,
			LatLonBoundingBox: &latlon,
			Attributes: []Attribute{
				{Name: "the_geom", MinOccurs: 0, MaxOccurs: 1, Nillable: true, Binding: "org.locationtech.jts.geom.MultiPolygon"},
				{Name: "NAME", MinOccurs: 0, MaxOccurs: 1, Nillable: true, Binding: "java.lang.String"},
			},
		})
	}
	return nil
}

// ImportCoverage configures a coverage store from an uploaded raster and
// publishes a coverage named after the store.
func (s *MemoryStore) ImportCoverage(ws, store, storeType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, err := s.requireWorkspaceLocked(ws)
	if err != nil {
		return err
	}
	key := pkgstore.Key(ws, store)
	if s.DataStores.Has(key) {
		return fmt.Errorf("store '%s' is a data store: %w", store, ErrExists)
	}
	ext := "tif"
	formats := []string{"GEOTIFF", "GIF", "PNG", "JPEG", "TIFF"}
	if storeType == WorldImageType {
		ext = "png"
		formats = []string{"PNG", "GIF", "JPEG", "TIFF", "GEOTIFF"}
	}
	s.CoverageStores.Set(key, CoverageStore{
		Workspace: ws,
		Name:      store,
		Type:      storeType,
		Enabled:   true,
		URL:       fmt.Sprintf("file:data/%s/%s/%s.%s", ws, store, store, ext),
	})

	native := worldBBox
	latlon := worldBBox
	s.publishLocked(Resource{
		Kind:              CoverageKind,
		Workspace:         ws,
		Store:             store,
		Name:              store,
		Title:             store,
		Enabled:           true,
		Keywords:          []string{"WCS", strings.ToLower(storeType), store},
		SRS:               "EPSG:4326",
		ProjectionPolicy:  "REPROJECT_TO_DECLARED",
		NativeBoundingBox: &native,
		LatLonBoundingBox: &latlon,
		RequestSRS:        []string{"EPSG:4326"},
		ResponseSRS:       []string{"EPSG:4326"},
		SupportedFormats:  formats,
	})
	return nil
}

// ---------------------------------------------------------------------------
// Built-in styles
// ---------------------------------------------------------------------------

const sldTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<StyledLayerDescriptor version="1.0.0"
    xmlns="http://www.opengis.net/sld" xmlns:ogc="http://www.opengis.net/ogc"
    xmlns:xlink="http://www.w3.org/1999/xlink" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
  <NamedLayer>
    <Name>%s</Name>
    <UserStyle>
      <Name>%s</Name>
      <Title>%s</Title>
      <FeatureTypeStyle>
        <Rule>
          %s
        </Rule>
      </FeatureTypeStyle>
    </UserStyle>
  </NamedLayer>
</StyledLayerDescriptor>
`

// SLD renders a single-rule style document.
func SLD(name, title, symbolizer string) string {
	return fmt.Sprintf(sldTemplate, name, name, title, symbolizer)
}

func builtinStyles() []Style {
	defs := []struct{ name, title, symbolizer string }{
		{"point", "Red Square Point",
			`<PointSymbolizer><Graphic><Mark><WellKnownName>square</WellKnownName><Fill><CssParameter name="fill">#FF0000</CssParameter></Fill></Mark><Size>6</Size></Graphic></PointSymbolizer>`},
		{"line", "Blue Line",
			`<LineSymbolizer><Stroke><CssParameter name="stroke">#0000FF</CssParameter><CssParameter name="stroke-width">1</CssParameter></Stroke></LineSymbolizer>`},
		{"polygon", "Grey Polygon",
			`<PolygonSymbolizer><Fill><CssParameter name="fill">#AAAAAA</CssParameter></Fill><Stroke><CssParameter name="stroke">#000000</CssParameter></Stroke></PolygonSymbolizer>`},
		{"raster", "Opaque Raster",
			`<RasterSymbolizer><Opacity>1.0</Opacity></RasterSymbolizer>`},
	}
	out := make([]Style, 0, len(defs))
	for _, d := range defs {
		out = append(out, Style{
			Name:     d.name,
			Filename: d.name + ".sld",
			Body:     SLD(d.name, d.title, d.symbolizer),
		})
	}
	return out
}
