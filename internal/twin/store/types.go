// Package store defines the GeoServer twin's catalog model and its
// in-memory state.
package store

// ResourceKind tells feature types from coverages.
type ResourceKind string

const (
	FeatureTypeKind ResourceKind = "featureType"
	CoverageKind    ResourceKind = "coverage"
)

// BBox is an envelope in CRS.
type BBox struct {
	MinX float64 `json:"minx"`
	MaxX float64 `json:"maxx"`
	MinY float64 `json:"miny"`
	MaxY float64 `json:"maxy"`
	CRS  string  `json:"crs,omitempty"`
}

// Workspace doubles as the namespace of the same name.
type Workspace struct {
	Name    string `json:"name"`
	URI     string `json:"uri,omitempty"`
	Enabled bool   `json:"enabled"`
}

type DataStore struct {
	Workspace            string            `json:"workspace"`
	Name                 string            `json:"name"`
	Type                 string            `json:"type,omitempty"`
	Description          string            `json:"description,omitempty"`
	Enabled              bool              `json:"enabled"`
	ConnectionParameters map[string]string `json:"connection_parameters,omitempty"`
}

type CoverageStore struct {
	Workspace   string `json:"workspace"`
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
	Enabled     bool   `json:"enabled"`
	URL         string `json:"url,omitempty"`
}

type MetadataLink struct {
	Type         string `json:"type"`
	MetadataType string `json:"metadata_type"`
	Content      string `json:"content"`
}

type Attribute struct {
	Name      string `json:"name"`
	MinOccurs int    `json:"min_occurs"`
	MaxOccurs int    `json:"max_occurs"`
	Nillable  bool   `json:"nillable"`
	Binding   string `json:"binding"`
}

// Resource is a feature type or a coverage, keyed by workspace, store and name.
type Resource struct {
	Kind              ResourceKind   `json:"kind"`
	Workspace         string         `json:"workspace"`
	Store             string         `json:"store"`
	Name              string         `json:"name"`
	Title             string         `json:"title,omitempty"`
	Abstract          string         `json:"abstract,omitempty"`
	Enabled           bool           `json:"enabled"`
	Keywords          []string       `json:"keywords,omitempty"`
	SRS               string         `json:"srs,omitempty"`
	ProjectionPolicy  string         `json:"projection_policy,omitempty"`
	NativeBoundingBox *BBox          `json:"native_bbox,omitempty"`
	LatLonBoundingBox *BBox          `json:"latlon_bbox,omitempty"`
	MetadataLinks     []MetadataLink `json:"metadata_links,omitempty"`
	Attributes        []Attribute    `json:"attributes,omitempty"`
	RequestSRS        []string       `json:"request_srs,omitempty"`
	ResponseSRS       []string       `json:"response_srs,omitempty"`
	SupportedFormats  []string       `json:"supported_formats,omitempty"`
}

// ResourceRef points a layer at its resource.
type ResourceRef struct {
	Kind      ResourceKind `json:"kind"`
	Workspace string       `json:"workspace"`
	Store     string       `json:"store"`
	Name      string       `json:"name"`
}

// StyleRef names a style; an empty Workspace means a global style.
type StyleRef struct {
	Workspace string `json:"workspace,omitempty"`
	Name      string `json:"name"`
}

type Attribution struct {
	Title      string `json:"title,omitempty"`
	LogoWidth  int    `json:"logo_width,omitempty"`
	LogoHeight int    `json:"logo_height,omitempty"`
}

type Layer struct {
	Name         string       `json:"name"`
	Type         string       `json:"type"`
	Resource     ResourceRef  `json:"resource"`
	DefaultStyle StyleRef     `json:"default_style"`
	Styles       []StyleRef   `json:"styles,omitempty"`
	Enabled      bool         `json:"enabled"`
	Advertised   *bool        `json:"advertised,omitempty"`
	Attribution  *Attribution `json:"attribution,omitempty"`
}

type Style struct {
	Workspace string `json:"workspace,omitempty"`
	Name      string `json:"name"`
	Filename  string `json:"filename"`
	Body      string `json:"body"`
}

// LayerGroup pairs Layers and Styles by position; an empty style means the
// layer's default.
type LayerGroup struct {
	Name   string   `json:"name"`
	Layers []string `json:"layers"`
	Styles []string `json:"styles"`
	Bounds *BBox    `json:"bounds,omitempty"`
}
