package manifest_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gsconfig-go/gsconfig/internal/manifest"
	"github.com/gsconfig-go/gsconfig/pkg/catalog"
	"github.com/gsconfig-go/gsconfig/pkg/testutil"
)

const fancySLD = `<StyledLayerDescriptor version="1.0.0" xmlns="http://www.opengis.net/sld">
  <NamedLayer><Name>fancy</Name><UserStyle><Name>fancy</Name><Title>Fancy</Title></UserStyle></NamedLayer>
</StyledLayerDescriptor>`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "styles/fancy.sld", fancySLD)
	path := writeFile(t, dir, "catalog.yaml", `
workspaces:
  - name: topp
    default: true
  - name: sf
    uri: http://www.openplans.org/spearfish
styles:
  - name: fancy
    file: styles/fancy.sld
    workspace: topp
    overwrite: true
layergroups:
  - name: base
    layers: [states, roads]
    styles: [polygon]
    bounds: {minx: -10, maxx: 10, miny: -5, maxy: 5}
`)

	m, err := manifest.Load(path)
	require.NoError(t, err)

	want := &manifest.Manifest{
		Workspaces: []manifest.Workspace{
			{Name: "topp", URI: "http://topp", Default: true},
			{Name: "sf", URI: "http://www.openplans.org/spearfish"},
		},
		Styles: []manifest.Style{
			{Name: "fancy", File: filepath.Join(dir, "styles", "fancy.sld"), Workspace: "topp", Overwrite: true},
		},
		LayerGroups: []manifest.LayerGroup{
			{Name: "base", Layers: []string{"states", "roads"}, Styles: []string{"polygon"},
				Bounds: &manifest.Bounds{MinX: -10, MaxX: 10, MinY: -5, MaxY: 5}},
		},
	}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Errorf("manifest mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"empty", "{}", "declares nothing"},
		{"invalid yaml", "workspaces: [", "parsing manifest"},
		{"workspace without name", "workspaces:\n  - uri: http://x\n", "name is required"},
		{"style without file", "styles:\n  - name: fancy\n", "file is required"},
		{"group without layers", "layergroups:\n  - name: base\n", "at least one layer"},
		{"too many styles", "layergroups:\n  - name: base\n    layers: [a]\n    styles: [x, y]\n", "more styles than layers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "catalog.yaml", tt.content)
			_, err := manifest.Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	_, err := manifest.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	tw := testutil.NewTwin(t)
	c := tw.Catalog()
	ctx := context.Background()
	dir := t.TempDir()
	sld := writeFile(t, dir, "fancy.sld", fancySLD)

	_, err := c.CreateWorkspace(ctx, "topp", "http://topp")
	require.NoError(t, err)
	uploadStates(t, c)

	m := &manifest.Manifest{
		Workspaces: []manifest.Workspace{
			{Name: "topp", URI: "http://topp"},
			{Name: "sf", URI: "http://sf", Default: true},
		},
		Styles: []manifest.Style{
			{Name: "fancy", File: sld},
			{Name: "local", File: sld, Workspace: "sf"},
		},
		LayerGroups: []manifest.LayerGroup{
			{Name: "base", Layers: []string{"states"}, Styles: []string{"fancy"}},
		},
	}

	outcomes, err := manifest.Apply(ctx, c, m)
	require.NoError(t, err)
	assert.Equal(t, []manifest.Outcome{
		{Kind: "workspace", Name: "topp", Action: manifest.Exists},
		{Kind: "workspace", Name: "sf", Action: manifest.Created},
		{Kind: "style", Name: "fancy", Action: manifest.Created},
		{Kind: "style", Name: "sf:local", Action: manifest.Created},
		{Kind: "layergroup", Name: "base", Action: manifest.Created},
	}, outcomes)
	assert.Equal(t, "sf", tw.Store.DefaultWorkspace())

	g, err := c.LayerGroup(ctx, "base")
	require.NoError(t, err)
	assert.Equal(t, []string{"fancy"}, g.Styles())

	// A second run changes nothing, except styles marked for overwrite.
	m.Styles[0].Overwrite = true
	outcomes, err = manifest.Apply(ctx, c, m)
	require.NoError(t, err)
	var actions []manifest.Action
	for _, o := range outcomes {
		actions = append(actions, o.Action)
	}
	assert.Equal(t, []manifest.Action{
		manifest.Exists, manifest.Exists, manifest.Updated, manifest.Exists, manifest.Exists,
	}, actions)
}

func TestApplyAggregatesFailures(t *testing.T) {
	tw := testutil.NewTwin(t)
	c := tw.Catalog()
	ctx := context.Background()

	m := &manifest.Manifest{
		Workspaces: []manifest.Workspace{{Name: "topp", URI: "http://topp"}},
		Styles: []manifest.Style{
			{Name: "ghost", File: filepath.Join(t.TempDir(), "missing.sld")},
		},
		LayerGroups: []manifest.LayerGroup{
			{Name: "base", Layers: []string{"no-such-layer"}},
		},
	}

	outcomes, err := manifest.Apply(ctx, c, m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 errors occurred")
	assert.Contains(t, err.Error(), "style ghost")
	assert.Contains(t, err.Error(), "layergroup base")

	require.Len(t, outcomes, 3)
	assert.Equal(t, manifest.Created, outcomes[0].Action, "earlier failures must not stop the run")
	assert.Equal(t, manifest.Failed, outcomes[1].Action)
	assert.Error(t, outcomes[1].Err)
	assert.Equal(t, manifest.Failed, outcomes[2].Action)

	var reqErr *catalog.RequestError
	assert.ErrorAs(t, outcomes[2].Err, &reqErr)
}

func uploadStates(t *testing.T, c *catalog.Catalog) {
	t.Helper()
	dir := t.TempDir()
	files := make(map[string]string)
	for _, ext := range []string{"shp", "shx", "dbf"} {
		files[ext] = writeFile(t, dir, "states."+ext, ext)
	}
	err := c.CreateFeatureStore(context.Background(), "states", catalog.UploadData{Files: files},
		catalog.UploadOptions{Workspace: "topp"})
	require.NoError(t, err)
}
