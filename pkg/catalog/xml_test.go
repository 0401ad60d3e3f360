package catalog

import (
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := New("http://geo.example.com/geoserver/rest")
	require.NoError(t, err)
	return c
}

func message(t *testing.T, obj Savable) string {
	t.Helper()
	msg, err := obj.Message()
	require.NoError(t, err)
	return string(msg)
}

func TestMessageOnlyDirtyFields(t *testing.T) {
	c := testCatalog(t)
	ws := newWorkspace(c, "topp")
	assert.Equal(t, "<workspace></workspace>", message(t, ws))

	ws.SetEnabled(false)
	assert.Equal(t, "<workspace><enabled>false</enabled></workspace>", message(t, ws))
	assert.True(t, ws.Dirty())
	assert.False(t, ws.Enabled())
}

func TestLayerMessage(t *testing.T) {
	c := testCatalog(t)
	l := newLayer(c, "states")
	l.SetStyles("line", "topp:local")
	l.SetDefaultStyle("point")
	l.SetEnabled(true)
	l.SetAdvertised(false)
	l.SetAttribution(Attribution{Title: "Census", LogoWidth: 20})

	want := "<layer>" +
		"<attribution><title>Census</title><logoWidth>20</logoWidth></attribution>" +
		"<enabled>true</enabled>" +
		"<advertised>false</advertised>" +
		"<defaultStyle><name>point</name></defaultStyle>" +
		"<styles><style><name>line</name></style><style><name>topp:local</name></style></styles>" +
		"</layer>"
	assert.Equal(t, want, message(t, l))
}

func TestLayerClearedDefaultStyle(t *testing.T) {
	l := newLayer(testCatalog(t), "states")
	l.SetDefaultStyle("")

	assert.Equal(t, "<layer><defaultStyle></defaultStyle></layer>", message(t, l))
	assert.Equal(t, "", l.DefaultStyleName())
}

func TestSetAttributionTextKeepsLogo(t *testing.T) {
	l := newLayer(testCatalog(t), "states")
	w, h := "16", "32"
	l.doc.Attribution = &attributionDoc{LogoWidth: &w, LogoHeight: &h}

	l.SetAttributionText("Census")

	assert.Equal(t, Attribution{Title: "Census", LogoWidth: 16, LogoHeight: 32}, l.Attribution())
	assert.Equal(t,
		"<layer><attribution><title>Census</title><logoWidth>16</logoWidth><logoHeight>32</logoHeight></attribution></layer>",
		message(t, l))
}

func TestResourceMessage(t *testing.T) {
	c := testCatalog(t)
	ds := newDataStore(c, newWorkspace(c, "topp"), "states")
	ft := newFeatureType(c, ds, "states")
	ft.SetTitle("US States")
	ft.SetKeywords([]string{"usa", "census"})
	ft.SetNativeBoundingBox(BoundingBox{MinX: -124.5, MaxX: -66.25, MinY: 24, MaxY: 49.5, CRS: "EPSG:4326"})
	ft.SetMetadataLinks([]MetadataLink{{Type: "text/xml", MetadataType: "FGDC", Content: "http://md"}})

	want := "<featureType>" +
		"<title>US States</title>" +
		"<keywords><string>usa</string><string>census</string></keywords>" +
		"<nativeBoundingBox><minx>-124.5</minx><maxx>-66.25</maxx><miny>24</miny><maxy>49.5</maxy><crs>EPSG:4326</crs></nativeBoundingBox>" +
		"<metadataLinks><metadataLink><type>text/xml</type><metadataType>FGDC</metadataType><content>http://md</content></metadataLink></metadataLinks>" +
		"</featureType>"
	assert.Equal(t, want, message(t, ft))
	assert.Equal(t,
		"http://geo.example.com/geoserver/rest/workspaces/topp/datastores/states/featuretypes/states.xml",
		ft.Href())
}

func TestCoverageMessage(t *testing.T) {
	c := testCatalog(t)
	cs := newCoverageStore(c, newWorkspace(c, "topp"), "dem")
	cv := newCoverage(c, cs, "dem")
	cv.SetEnabled(true)
	cv.SetSupportedFormats([]string{"GEOTIFF", "PNG"})

	assert.Equal(t,
		"<coverage><enabled>true</enabled><supportedFormats><string>GEOTIFF</string><string>PNG</string></supportedFormats></coverage>",
		message(t, cv))
}

func TestDataStoreMessage(t *testing.T) {
	c := testCatalog(t)
	ds := newDataStore(c, newWorkspace(c, "topp"), "pg")
	ds.SetConnectionParameters(map[string]string{"port": "5432", "host": "db & co"})
	ds.SetDescription("roads")

	assert.Equal(t,
		`<dataStore><description>roads</description><connectionParameters><entry key="host">db &amp; co</entry><entry key="port">5432</entry></connectionParameters></dataStore>`,
		message(t, ds))

	method, target := ds.saveTarget()
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, ds.Href(), target)
}

func TestLayerGroupMessage(t *testing.T) {
	c := testCatalog(t)
	g := newLayerGroup(c, "base")
	g.saved = false
	g.SetLayers("states", "roads")
	g.SetStyles("", "line")
	g.SetBounds(WorldBounds)

	want := "<layerGroup>" +
		"<layers><layer>states</layer><layer>roads</layer></layers>" +
		"<styles><style></style><style><name>line</name></style></styles>" +
		"<bounds><minx>-180</minx><maxx>180</maxx><miny>-90</miny><maxy>90</maxy><crs>EPSG:4326</crs></bounds>" +
		"</layerGroup>"
	assert.Equal(t, want, message(t, g))

	method, target := g.saveTarget()
	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "http://geo.example.com/geoserver/rest/layergroups?name=base", target)
}

func TestNamedRefDecodesAtomLink(t *testing.T) {
	const doc = `<layers>
  <layer>
    <name>states</name>
    <atom:link xmlns:atom="http://www.w3.org/2005/Atom" rel="alternate" href="http://h/rest/layers/states.xml" type="application/xml"/>
  </layer>
  <layer>roads</layer>
</layers>`
	var list layerList
	require.NoError(t, xml.Unmarshal([]byte(doc), &list))
	require.Len(t, list.Layers, 2)

	assert.Equal(t, "states", list.Layers[0].name())
	assert.Equal(t, "http://h/rest/layers/states.xml", list.Layers[0].Link.Href)
	assert.Equal(t, "roads", list.Layers[1].name())
}

func TestBBoxDecode(t *testing.T) {
	const doc = `<b><minx>-1.5</minx><maxx>2</maxx><miny>-3</miny><maxy>4.25</maxy><crs>EPSG:3857</crs></b>`
	var b bboxDoc
	require.NoError(t, xml.Unmarshal([]byte(doc), &b))

	want := &BoundingBox{MinX: -1.5, MaxX: 2, MinY: -3, MaxY: 4.25, CRS: "EPSG:3857"}
	if diff := cmp.Diff(want, b.box()); diff != "" {
		t.Errorf("bbox mismatch (-want +got):\n%s", diff)
	}
	assert.Nil(t, (*bboxDoc)(nil).box())
}

func TestDefaultsWhenElementsAbsent(t *testing.T) {
	c := testCatalog(t)
	assert.True(t, newWorkspace(c, "topp").Enabled(), "workspaces default to enabled")
	assert.True(t, newLayer(c, "states").Advertised(), "layers default to advertised")
	assert.False(t, newLayer(c, "states").Enabled())
}

func TestStyleHrefs(t *testing.T) {
	c := testCatalog(t)

	global := newStyle(c, nil, "polygon")
	assert.Equal(t, "http://geo.example.com/geoserver/rest/styles/polygon.xml", global.Href())
	assert.Equal(t, "http://geo.example.com/geoserver/rest/styles/polygon.sld", global.BodyHref())
	assert.Equal(t, "polygon", global.String())

	scoped := newStyle(c, newWorkspace(c, "topp"), "local")
	assert.Equal(t, "http://geo.example.com/geoserver/rest/workspaces/topp/styles/local.xml", scoped.Href())
	assert.Equal(t, "topp:local", scoped.String())
}

func TestURLHelpers(t *testing.T) {
	const base = "http://geo.example.com/geoserver/rest"

	assert.Equal(t,
		[]string{"workspaces", "my ws", "styles", "local"},
		restSegments(base, base+"/workspaces/my%20ws/styles/local.xml?quietOnNotFound=true"))
	assert.Equal(t, "topp", workspaceFromURL(base, "http://proxy/geoserver/rest/workspaces/topp/styles/x.xml"))
	assert.Equal(t, "", workspaceFromURL(base, base+"/styles/x.xml"))

	assert.True(t, sameHref("http://a/rest/layers/x.xml", "https://b/rest/layers/x"))
	assert.False(t, sameHref("http://a/rest/layers/x.xml", "http://a/rest/layers/y.xml"))
}

func TestNormalizeVersion(t *testing.T) {
	for in, want := range map[string]string{
		"2.2.x":           "2.2.0",
		"2.4-SNAPSHOT":    "2.4",
		" 2.24.2 ":        "2.24.2",
		"2.23.x-SNAPSHOT": "2.23.0",
	} {
		assert.Equal(t, want, normalizeVersion(in), in)
	}
}

func TestErrorClassification(t *testing.T) {
	notFoundResp := &RequestError{Method: http.MethodGet, URL: "u", StatusCode: http.StatusNotFound, Body: "gone\n"}
	assert.ErrorIs(t, fmt.Errorf("wrapped: %w", notFoundResp), ErrNotFound)
	assert.Equal(t, "GET u: status 404: gone", notFoundResp.Error())

	serverErr := &RequestError{Method: http.MethodPost, URL: "u", StatusCode: http.StatusInternalServerError}
	assert.False(t, errors.Is(serverErr, ErrNotFound))

	amb := &AmbiguousError{Kind: "store", Name: "states", Matches: []string{"a:states", "b:states"}}
	assert.ErrorIs(t, amb, ErrAmbiguous)
	assert.Contains(t, amb.Error(), "a:states, b:states")

	assert.ErrorIs(t, conflict("there is already a style named %s", "x"), ErrConflict)
	assert.ErrorIs(t, notFound("layer", "x"), ErrNotFound)

	var upload error = &UploadError{URL: "u", StatusCode: 400, Body: "bad"}
	var ue *UploadError
	require.ErrorAs(t, fmt.Errorf("ctx: %w", upload), &ue)
	assert.Equal(t, 400, ue.StatusCode)
}
