package api_test

import (
	"bytes"
	"net/http"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"

	"github.com/gsconfig-go/gsconfig/pkg/testutil"
)

func setupGeoServer(t *testing.T) *testutil.TwinClient {
	t.Helper()
	tw := testutil.NewTwin(t)
	tw.Client.PostXML("/rest/workspaces", `<workspace><name>topp</name></workspace>`).AssertStatus(http.StatusCreated)
	return tw.Client
}

func zipBundle(t *testing.T, files ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte("data")); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func uploadStates(t *testing.T, tc *testutil.TwinClient) {
	t.Helper()
	tc.Do(http.MethodPut, "/rest/workspaces/topp/datastores/states/file.shp", "application/zip",
		zipBundle(t, "states.shp", "states.shx", "states.dbf", "states.prj")).
		AssertStatus(http.StatusCreated)
}

// --- Auth and about ---

func TestGeoServerAuthRequired(t *testing.T) {
	tc := setupGeoServer(t)
	tc.NoAuth = true

	tc.Get("/rest/workspaces.xml").AssertStatus(http.StatusUnauthorized)
}

func TestAboutVersion(t *testing.T) {
	tc := setupGeoServer(t)

	var about struct {
		Resources []struct {
			Name    string `xml:"name,attr"`
			Version string `xml:"Version"`
		} `xml:"resource"`
	}
	tc.Get("/rest/about/version.xml").AssertStatus(http.StatusOK).XML(&about)
	if len(about.Resources) == 0 || about.Resources[0].Name != "GeoServer" || about.Resources[0].Version != testutil.Version {
		t.Errorf("unexpected about document: %+v", about)
	}
	tc.Get("/rest/about/version.html").AssertStatus(http.StatusOK).AssertBodyContains(testutil.Version)
}

func TestAboutMissingOnOldServers(t *testing.T) {
	tw := testutil.NewTwin(t, testutil.WithVersion(""))

	tw.Client.Get("/rest/about/version.xml").AssertStatus(http.StatusNotFound)
}

func TestReload(t *testing.T) {
	tc := setupGeoServer(t)

	tc.Do(http.MethodPost, "/rest/reload", "", nil).AssertStatus(http.StatusOK)
}

// --- Workspaces ---

func TestWorkspaceCreateConflict(t *testing.T) {
	tc := setupGeoServer(t)

	resp := tc.PostXML("/rest/workspaces", `<workspace><name>topp</name></workspace>`)
	resp.AssertStatus(http.StatusInternalServerError)
}

func TestWorkspaceLinks(t *testing.T) {
	tc := setupGeoServer(t)

	tc.Get("/rest/workspaces.xml").
		AssertStatus(http.StatusOK).
		AssertBodyContains(`<name>topp</name>`).
		AssertBodyContains(`rel="alternate"`).
		AssertBodyContains(`/rest/workspaces/topp.xml`)
}

func TestDefaultWorkspaceAlias(t *testing.T) {
	tc := setupGeoServer(t)
	tc.PostXML("/rest/namespaces", `<namespace><prefix>sf</prefix><uri>http://sf</uri></namespace>`).
		AssertStatus(http.StatusCreated)

	tc.Get("/rest/workspaces/default.xml").AssertStatus(http.StatusOK).AssertBodyContains("<name>topp</name>")
	tc.PutXML("/rest/workspaces/default.xml", `<workspace><name>sf</name></workspace>`).AssertStatus(http.StatusOK)
	tc.Get("/rest/workspaces/default.xml").AssertStatus(http.StatusOK).AssertBodyContains("<name>sf</name>")
}

func TestWorkspaceRenameForbidden(t *testing.T) {
	tc := setupGeoServer(t)

	tc.PutXML("/rest/workspaces/topp.xml", `<workspace><name>other</name></workspace>`).
		AssertStatus(http.StatusForbidden)
}

func TestNamespaceRequiresPrefixAndURI(t *testing.T) {
	tc := setupGeoServer(t)

	tc.PostXML("/rest/namespaces", `<namespace><prefix>sf</prefix></namespace>`).AssertStatus(http.StatusBadRequest)
	tc.Get("/rest/namespaces/topp.xml").AssertStatus(http.StatusOK).AssertBodyContains("<uri>http://topp</uri>")
}

func TestDeleteWorkspaceRecurse(t *testing.T) {
	tc := setupGeoServer(t)
	uploadStates(t, tc)

	tc.Delete("/rest/workspaces/topp").AssertStatus(http.StatusForbidden)
	tc.Delete("/rest/workspaces/topp?recurse=true").AssertStatus(http.StatusOK)
	tc.Get("/rest/layers/states.xml").AssertStatus(http.StatusNotFound)
}

// --- Stores ---

func TestDataStoreCRUD(t *testing.T) {
	tc := setupGeoServer(t)

	resp := tc.PostXML("/rest/workspaces/topp/datastores",
		`<dataStore><name>pg</name><type>PostGIS</type><connectionParameters><entry key="host">db</entry></connectionParameters></dataStore>`)
	resp.AssertStatus(http.StatusCreated)
	if loc := resp.Headers.Get("Location"); !strings.HasSuffix(loc, "/rest/workspaces/topp/datastores/pg") {
		t.Errorf("unexpected Location %q", loc)
	}

	tc.Get("/rest/workspaces/topp/datastores/pg.xml").
		AssertStatus(http.StatusOK).
		AssertBodyContains(`<entry key="host">db</entry>`).
		AssertBodyContains("<type>PostGIS</type>")

	tc.PutXML("/rest/workspaces/topp/datastores/pg.xml", `<dataStore><enabled>false</enabled></dataStore>`).
		AssertStatus(http.StatusOK)
	tc.Get("/rest/workspaces/topp/datastores/pg.xml").AssertBodyContains("<enabled>false</enabled>")

	tc.Delete("/rest/workspaces/topp/datastores/pg").AssertStatus(http.StatusOK)
	tc.Get("/rest/workspaces/topp/datastores/pg.xml").AssertStatus(http.StatusNotFound)
}

func TestCoverageStoreCRUD(t *testing.T) {
	tc := setupGeoServer(t)

	tc.PostXML("/rest/workspaces/topp/coveragestores",
		`<coverageStore><name>dem</name><type>GeoTIFF</type><url>file:dem.tif</url></coverageStore>`).
		AssertStatus(http.StatusCreated)
	tc.Get("/rest/workspaces/topp/coveragestores.xml").AssertStatus(http.StatusOK).AssertBodyContains("<name>dem</name>")
	tc.Get("/rest/workspaces/topp/coveragestores/dem.xml").AssertBodyContains("<url>file:dem.tif</url>")
	tc.Delete("/rest/workspaces/topp/coveragestores/dem").AssertStatus(http.StatusOK)
}

func TestListStoresUnknownWorkspace(t *testing.T) {
	tc := setupGeoServer(t)

	tc.Get("/rest/workspaces/nope/datastores.xml").AssertStatus(http.StatusNotFound)
}

// --- Uploads ---

func TestUploadShapefile(t *testing.T) {
	tc := setupGeoServer(t)
	uploadStates(t, tc)

	tc.Get("/rest/workspaces/topp/datastores/states/featuretypes.xml").
		AssertStatus(http.StatusOK).
		AssertBodyContains("<name>states</name>")
	tc.Get("/rest/workspaces/topp/datastores/states/featuretypes/states.xml").
		AssertStatus(http.StatusOK).
		AssertBodyContains("<name>the_geom</name>")
	tc.Get("/rest/layers/states.xml").
		AssertStatus(http.StatusOK).
		AssertBodyContains("<type>VECTOR</type>")
}

func TestUploadShapefileIncompleteBundle(t *testing.T) {
	tc := setupGeoServer(t)

	tc.Do(http.MethodPut, "/rest/workspaces/topp/datastores/states/file.shp", "application/zip",
		zipBundle(t, "states.shp", "states.dbf")).
		AssertStatus(http.StatusBadRequest).
		AssertBodyContains(".shx")
	tc.Do(http.MethodPut, "/rest/workspaces/topp/datastores/states/file.shp", "application/zip",
		[]byte("not a zip")).
		AssertStatus(http.StatusBadRequest)
}

func TestUploadUnknownMethod(t *testing.T) {
	tc := setupGeoServer(t)

	tc.Do(http.MethodPut, "/rest/workspaces/topp/datastores/states/file.gml", "application/zip",
		zipBundle(t, "states.shp")).
		AssertStatus(http.StatusNotFound)
}

func TestUploadGeoTIFF(t *testing.T) {
	tc := setupGeoServer(t)

	tc.Do(http.MethodPut, "/rest/workspaces/topp/coveragestores/dem/file.geotiff", "image/tiff",
		[]byte("II*\x00rest-of-tiff")).
		AssertStatus(http.StatusCreated)
	tc.Get("/rest/workspaces/topp/coveragestores/dem/coverages/dem.xml").
		AssertStatus(http.StatusOK).
		AssertBodyContains("<supportedFormats>")
	tc.Get("/rest/layers/dem.xml").AssertBodyContains("<type>RASTER</type>")

	tc.Do(http.MethodPut, "/rest/workspaces/topp/coveragestores/bad/file.geotiff", "image/tiff",
		[]byte("GIF89a")).
		AssertStatus(http.StatusBadRequest)
}

func TestUploadWorldImage(t *testing.T) {
	tc := setupGeoServer(t)

	tc.Do(http.MethodPut, "/rest/workspaces/topp/coveragestores/ortho/file.worldimage", "application/zip",
		zipBundle(t, "ortho.png")).
		AssertStatus(http.StatusBadRequest)
	tc.Do(http.MethodPut, "/rest/workspaces/topp/coveragestores/ortho/file.worldimage", "application/zip",
		zipBundle(t, "ortho.png", "ortho.pgw")).
		AssertStatus(http.StatusCreated)
	tc.Get("/rest/workspaces/topp/coveragestores/ortho.xml").AssertBodyContains("<type>WorldImage</type>")
}

// --- Resources ---

func TestUpdateFeatureType(t *testing.T) {
	tc := setupGeoServer(t)
	uploadStates(t, tc)
	const path = "/rest/workspaces/topp/datastores/states/featuretypes/states.xml"

	tc.PutXML(path, `<featureType><title>US States</title><keywords><string>usa</string></keywords></featureType>`).
		AssertStatus(http.StatusOK)
	tc.Get(path).
		AssertBodyContains("<title>US States</title>").
		AssertBodyContains("<string>usa</string>")

	tc.PutXML(path, `<featureType><name>renamed</name></featureType>`).AssertStatus(http.StatusForbidden)
}

func TestDeleteFeatureTypeWithLayer(t *testing.T) {
	tc := setupGeoServer(t)
	uploadStates(t, tc)
	const path = "/rest/workspaces/topp/datastores/states/featuretypes/states"

	tc.Delete(path).AssertStatus(http.StatusForbidden)
	tc.Delete(path + "?recurse=true").AssertStatus(http.StatusOK)
	tc.Get("/rest/layers/states.xml").AssertStatus(http.StatusNotFound)
}

// --- Layers ---

func TestUpdateLayerStyles(t *testing.T) {
	tc := setupGeoServer(t)
	uploadStates(t, tc)

	tc.PutXML("/rest/layers/states.xml",
		`<layer><defaultStyle><name>line</name></defaultStyle><styles><style><name>point</name></style></styles><enabled>false</enabled></layer>`).
		AssertStatus(http.StatusOK)

	var layer struct {
		DefaultStyle struct {
			Name string `xml:"name"`
		} `xml:"defaultStyle"`
		Styles []struct {
			Name string `xml:"name"`
		} `xml:"styles>style"`
		Enabled bool `xml:"enabled"`
	}
	tc.Get("/rest/layers/states.xml").AssertStatus(http.StatusOK).XML(&layer)
	if layer.DefaultStyle.Name != "line" || len(layer.Styles) != 1 || layer.Styles[0].Name != "point" || layer.Enabled {
		t.Errorf("unexpected layer: %+v", layer)
	}

	tc.PutXML("/rest/layers/states.xml", `<layer><defaultStyle><name>missing</name></defaultStyle></layer>`).
		AssertStatus(http.StatusBadRequest)
}

func TestLayerWorkspaceStyleReference(t *testing.T) {
	tc := setupGeoServer(t)
	uploadStates(t, tc)
	tc.Do(http.MethodPost, "/rest/workspaces/topp/styles?name=local", "application/vnd.ogc.sld+xml",
		[]byte(sld("local"))).
		AssertStatus(http.StatusCreated)

	tc.PutXML("/rest/layers/states.xml", `<layer><defaultStyle><name>local</name></defaultStyle></layer>`).
		AssertStatus(http.StatusOK)
	tc.Get("/rest/layers/states.xml").
		AssertBodyContains("<name>topp:local</name>").
		AssertBodyContains("/rest/workspaces/topp/styles/local.xml")
}

func TestLayerAttributionMerges(t *testing.T) {
	tc := setupGeoServer(t)
	uploadStates(t, tc)

	tc.PutXML("/rest/layers/states.xml", `<layer><attribution><title>Census</title></attribution></layer>`).
		AssertStatus(http.StatusOK)
	tc.PutXML("/rest/layers/states.xml", `<layer><attribution><logoWidth>20</logoWidth></attribution></layer>`).
		AssertStatus(http.StatusOK)
	tc.Get("/rest/layers/states.xml").
		AssertBodyContains("<title>Census</title>").
		AssertBodyContains("<logoWidth>20</logoWidth>")
}

// --- Styles ---

func sld(name string) string {
	return `<?xml version="1.0"?><StyledLayerDescriptor version="1.0.0"><NamedLayer><Name>` + name +
		`</Name><UserStyle><Name>` + name + `</Name></UserStyle></NamedLayer></StyledLayerDescriptor>`
}

func TestStyleCreateAndBody(t *testing.T) {
	tc := setupGeoServer(t)

	resp := tc.Do(http.MethodPost, "/rest/styles", "application/vnd.ogc.sld+xml", []byte(sld("fancy")))
	resp.AssertStatus(http.StatusCreated)

	tc.Get("/rest/styles/fancy.xml").
		AssertStatus(http.StatusOK).
		AssertBodyContains("<filename>fancy.sld</filename>")
	tc.Get("/rest/styles/fancy.sld").
		AssertStatus(http.StatusOK).
		AssertBodyContains("<Name>fancy</Name>")

	tc.Do(http.MethodPut, "/rest/styles/fancy.sld", "application/vnd.ogc.sld+xml", []byte(sld("fancier"))).
		AssertStatus(http.StatusOK)
	tc.Get("/rest/styles/fancy.sld").AssertBodyContains("<Name>fancier</Name>")
}

func TestStyleRejectsInvalidSLD(t *testing.T) {
	tc := setupGeoServer(t)

	tc.Do(http.MethodPost, "/rest/styles?name=bad", "application/vnd.ogc.sld+xml", []byte("<html/>")).
		AssertStatus(http.StatusBadRequest)
}

func TestStyleRegisteredWithoutBody(t *testing.T) {
	tc := setupGeoServer(t)

	tc.PostXML("/rest/styles", `<style><name>empty</name><filename>empty.sld</filename></style>`).
		AssertStatus(http.StatusCreated)
	tc.Get("/rest/styles/empty.sld").AssertStatus(http.StatusNotFound)
	tc.Do(http.MethodPut, "/rest/styles/missing.sld", "application/vnd.ogc.sld+xml", []byte(sld("missing"))).
		AssertStatus(http.StatusNotFound)
}

func TestWorkspaceStyles(t *testing.T) {
	tc := setupGeoServer(t)

	tc.Do(http.MethodPost, "/rest/workspaces/topp/styles?name=local", "application/vnd.ogc.sld+xml",
		[]byte(sld("local"))).
		AssertStatus(http.StatusCreated)
	tc.Get("/rest/workspaces/topp/styles.xml").AssertStatus(http.StatusOK).AssertBodyContains("<name>local</name>")
	tc.Get("/rest/styles/local.xml").AssertStatus(http.StatusNotFound)
	tc.Get("/rest/workspaces/topp/styles/local.xml").AssertBodyContains("<workspace>")
}

func TestDeleteStyleInUse(t *testing.T) {
	tc := setupGeoServer(t)
	uploadStates(t, tc)
	tc.Do(http.MethodPost, "/rest/styles?name=fancy", "application/vnd.ogc.sld+xml", []byte(sld("fancy"))).
		AssertStatus(http.StatusCreated)
	tc.PutXML("/rest/layers/states.xml", `<layer><defaultStyle><name>fancy</name></defaultStyle></layer>`).
		AssertStatus(http.StatusOK)

	tc.Delete("/rest/styles/fancy").AssertStatus(http.StatusForbidden)
	tc.Delete("/rest/styles/fancy?purge=true&recurse=true").AssertStatus(http.StatusOK)
	tc.Get("/rest/layers/states.xml").AssertBodyContains("<name>polygon</name>")
}

// --- Layer groups ---

func TestLayerGroupCRUD(t *testing.T) {
	tc := setupGeoServer(t)
	uploadStates(t, tc)

	tc.PostXML("/rest/layergroups", `<layerGroup><name>base</name><layers><layer>states</layer></layers><styles><style>polygon</style></styles></layerGroup>`).
		AssertStatus(http.StatusCreated)

	var group struct {
		Layers []struct {
			Name string `xml:"name"`
		} `xml:"layers>layer"`
		Styles []struct {
			Name string `xml:"name"`
		} `xml:"styles>style"`
	}
	tc.Get("/rest/layergroups/base.xml").AssertStatus(http.StatusOK).XML(&group)
	if len(group.Layers) != 1 || group.Layers[0].Name != "states" || group.Styles[0].Name != "polygon" {
		t.Errorf("unexpected group: %+v", group)
	}

	tc.PutXML("/rest/layergroups/base.xml", `<layerGroup><name>other</name></layerGroup>`).AssertStatus(http.StatusForbidden)
	tc.PutXML("/rest/layergroups/base.xml", `<layerGroup><styles><style><name>line</name></style></styles></layerGroup>`).
		AssertStatus(http.StatusOK)
	tc.Get("/rest/layergroups/base.xml").AssertBodyContains("<name>line</name>")

	tc.Delete("/rest/layergroups/base").AssertStatus(http.StatusOK)
	tc.Get("/rest/layergroups/base.xml").AssertStatus(http.StatusNotFound)
}

func TestLayerGroupMustNotBeEmpty(t *testing.T) {
	tc := setupGeoServer(t)

	tc.PostXML("/rest/layergroups?name=empty", `<layerGroup/>`).AssertStatus(http.StatusBadRequest)
}
