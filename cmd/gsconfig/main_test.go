package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gsconfig-go/gsconfig/internal/config"
	"github.com/gsconfig-go/gsconfig/pkg/catalog"
	"github.com/gsconfig-go/gsconfig/pkg/testutil"
)

// isolateConfig points the CLI at a config file inside the test's temp dir
// and clears the connection environment.
func isolateConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("GSCONFIG_CONFIG", path)
	for _, v := range []string{"GSCONFIG_PROFILE", "GSCONFIG_URL", "GSCONFIG_USERNAME", "GSCONFIG_PASSWORD"} {
		t.Setenv(v, "")
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd(&out, &errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// run executes the CLI against tw with the twin's credentials.
func run(t *testing.T, tw *testutil.Twin, args ...string) (string, error) {
	t.Helper()
	conn := []string{"--url", tw.RestURL(), "--username", testutil.Username, "--password", testutil.Password}
	return execute(t, append(args, conn...)...)
}

func mustRun(t *testing.T, tw *testutil.Twin, args ...string) string {
	t.Helper()
	out, err := run(t, tw, args...)
	require.NoError(t, err, "gsconfig %s", strings.Join(args, " "))
	return out
}

func newTwin(t *testing.T) *testutil.Twin {
	t.Helper()
	isolateConfig(t)
	tw := testutil.NewTwin(t)
	mustRun(t, tw, "workspaces", "create", "topp")
	return tw
}

func writeShapefile(t *testing.T, name string) string {
	t.Helper()
	dir := t.TempDir()
	for _, ext := range []string{"shp", "shx", "dbf", "prj"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+"."+ext), []byte(strings.Repeat(ext, 100)), 0o644))
	}
	return filepath.Join(dir, name+".shp")
}

const testSLD = `<StyledLayerDescriptor version="1.0.0" xmlns="http://www.opengis.net/sld">
  <NamedLayer><Name>fancy</Name><UserStyle><Name>fancy</Name><Title>Fancy</Title></UserStyle></NamedLayer>
</StyledLayerDescriptor>`

func TestVersion(t *testing.T) {
	tw := newTwin(t)
	out := mustRun(t, tw, "version")
	assert.Contains(t, out, "gsconfig dev")
	assert.Contains(t, out, "GeoServer "+testutil.Version)
}

func TestAboutAndReload(t *testing.T) {
	tw := newTwin(t)
	assert.Contains(t, mustRun(t, tw, "about"), testutil.Version)
	assert.Contains(t, mustRun(t, tw, "reload"), "Reloaded")
}

func TestWorkspaceCommands(t *testing.T) {
	tw := newTwin(t)

	out := mustRun(t, tw, "workspaces", "create", "sf", "--uri", "http://www.openplans.org/spearfish")
	assert.Contains(t, out, "Created workspace sf")

	out = mustRun(t, tw, "workspaces", "list")
	assert.Contains(t, out, "topp")
	assert.Contains(t, out, "sf")

	mustRun(t, tw, "workspaces", "default", "sf")
	assert.Equal(t, "sf", tw.Store.DefaultWorkspace())

	mustRun(t, tw, "ws", "delete", "sf")
	out = mustRun(t, tw, "workspaces", "list")
	assert.NotContains(t, out, "sf")

	_, err := run(t, tw, "workspaces", "delete", "nope")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestUploadAndLayerCommands(t *testing.T) {
	tw := newTwin(t)
	shp := writeShapefile(t, "states")

	out := mustRun(t, tw, "upload", "shapefile", "states", shp, "-w", "topp")
	assert.Contains(t, out, "Created store states (1.2 kB)")

	out = mustRun(t, tw, "stores", "list")
	assert.Contains(t, out, "Shapefile")

	out = mustRun(t, tw, "resources", "list", "--store", "states")
	assert.Contains(t, out, "EPSG:4326")

	out = mustRun(t, tw, "layers", "list")
	assert.Contains(t, out, "states")
	assert.Contains(t, out, "polygon")

	out = mustRun(t, tw, "layers", "set-style", "states", "line", "--alternates", "point,polygon")
	assert.Contains(t, out, "Layer states now uses line")

	out = mustRun(t, tw, "layers", "show", "states")
	assert.Contains(t, out, "point, polygon")

	mustRun(t, tw, "layers", "disable", "states")
	l, err := tw.Store.Layer("states")
	require.NoError(t, err)
	assert.False(t, l.Enabled)

	_, err = run(t, tw, "upload", "shapefile", "states", shp, "-w", "topp")
	assert.ErrorIs(t, err, catalog.ErrConflict)

	roads := writeShapefile(t, "roads")
	out = mustRun(t, tw, "upload", "shapefile", "states", roads, "--into")
	assert.Contains(t, out, "Added roads to store states")

	mustRun(t, tw, "layers", "delete", "roads", "--recurse")
	_, err = tw.Store.Layer("roads")
	assert.Error(t, err)

	mustRun(t, tw, "stores", "delete", "states", "--recurse")
	out = mustRun(t, tw, "layers", "list")
	assert.NotContains(t, out, "states")
}

func TestUploadShapefileMissingSidecar(t *testing.T) {
	tw := newTwin(t)
	shp := writeShapefile(t, "states")
	require.NoError(t, os.Remove(strings.TrimSuffix(shp, ".shp")+".dbf"))

	_, err := run(t, tw, "upload", "shapefile", "states", shp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing states.dbf")

	_, err = run(t, tw, "upload", "shapefile", "states", filepath.Join(t.TempDir(), "states.gpkg"))
	assert.ErrorContains(t, err, "expected a .shp or .zip file")
}

func TestUploadGeoTIFF(t *testing.T) {
	tw := newTwin(t)
	dir := t.TempDir()
	tif := filepath.Join(dir, "dem.tif")
	require.NoError(t, os.WriteFile(tif, []byte("II*\x00tiff"), 0o644))

	out := mustRun(t, tw, "upload", "geotiff", "dem", tif, "-w", "topp")
	assert.Contains(t, out, "Created coverage store dem (8 B)")

	png := filepath.Join(dir, "ortho.png")
	tfw := filepath.Join(dir, "ortho.tfw")
	require.NoError(t, os.WriteFile(png, []byte("png"), 0o644))
	require.NoError(t, os.WriteFile(tfw, []byte("1\n0\n0\n-1\n0\n0\n"), 0o644))
	mustRun(t, tw, "upload", "geotiff", "ortho", png, "-w", "topp", "--world-file", tfw)

	out = mustRun(t, tw, "stores", "list", "-w", "topp")
	assert.Contains(t, out, "GeoTIFF")
	assert.Contains(t, out, "WorldImage")
}

func TestStyleCommands(t *testing.T) {
	tw := newTwin(t)
	sld := filepath.Join(t.TempDir(), "fancy.sld")
	require.NoError(t, os.WriteFile(sld, []byte(testSLD), 0o644))

	assert.Contains(t, mustRun(t, tw, "styles", "create", "fancy", sld), "Created style fancy")
	assert.Contains(t, mustRun(t, tw, "styles", "create", "local", sld, "-w", "topp"), "Created style topp:local")

	out := mustRun(t, tw, "styles", "list")
	assert.Contains(t, out, "fancy.sld")
	assert.NotContains(t, out, "local")

	out = mustRun(t, tw, "styles", "list", "-w", "topp")
	assert.Contains(t, out, "topp:local")

	assert.Contains(t, mustRun(t, tw, "styles", "show", "local", "-w", "topp"), "<Title>Fancy</Title>")

	_, err := run(t, tw, "styles", "create", "fancy", sld)
	assert.ErrorIs(t, err, catalog.ErrConflict)
	assert.Contains(t, mustRun(t, tw, "styles", "create", "fancy", sld, "--overwrite"), "Updated style fancy")

	mustRun(t, tw, "styles", "delete", "local", "-w", "topp", "--purge")
	_, err = run(t, tw, "styles", "show", "local", "-w", "topp")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestLayerGroupCommands(t *testing.T) {
	tw := newTwin(t)
	mustRun(t, tw, "upload", "shapefile", "states", writeShapefile(t, "states"), "-w", "topp")

	out := mustRun(t, tw, "layergroups", "create", "base", "--layers", "states", "--styles", "line")
	assert.Contains(t, out, "Created layer group base with 1 layers")

	out = mustRun(t, tw, "lg", "list")
	assert.Contains(t, out, "base")
	assert.Contains(t, out, "line")

	_, err := run(t, tw, "layergroups", "create", "base", "--layers", "states")
	assert.ErrorIs(t, err, catalog.ErrConflict)

	mustRun(t, tw, "layergroups", "delete", "base")
	_, err = tw.Store.LayerGroup("base")
	assert.Error(t, err)
}

func TestApplyCommand(t *testing.T) {
	tw := newTwin(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fancy.sld"), []byte(testSLD), 0o644))
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
workspaces:
  - name: topp
  - name: sf
styles:
  - name: fancy
    file: fancy.sld
layergroups:
  - name: empty
    layers: [no-such-layer]
`), 0o644))

	out, err := run(t, tw, "apply", path)
	require.Error(t, err)
	assert.Contains(t, out, "exists")
	assert.Contains(t, out, "created")
	assert.Contains(t, out, "failed")

	_, err = tw.Store.Workspace("sf")
	assert.NoError(t, err)
}

func TestProfileCommands(t *testing.T) {
	path := isolateConfig(t)

	out, err := execute(t, "profile", "set", "staging", "--url", "https://staging/geoserver/rest", "--username", "deploy", "--use")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved profile staging")

	out, err = execute(t, "profile", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "https://staging/geoserver/rest")
	assert.Contains(t, out, "local")

	_, err = execute(t, "profile", "use", "local")
	require.NoError(t, err)
	cfg, err := config.LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "local", cfg.Current)
	assert.Equal(t, "deploy", cfg.Profiles["staging"].Username)

	_, err = execute(t, "profile", "use", "missing")
	assert.Error(t, err)
}

func TestCommandsUseSavedProfile(t *testing.T) {
	isolateConfig(t)
	tw := testutil.NewTwin(t)

	_, err := execute(t, "profile", "set", "twin", "--url", tw.RestURL(),
		"--username", testutil.Username, "--password", testutil.Password, "--use")
	require.NoError(t, err)

	out, err := execute(t, "workspaces", "create", "topp")
	require.NoError(t, err)
	assert.Contains(t, out, "Created workspace topp")

	t.Setenv("GSCONFIG_PASSWORD", "wrong")
	_, err = execute(t, "workspaces", "list")
	var reqErr *catalog.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, 401, reqErr.StatusCode)
}
