package api

import (
	"encoding/xml"
	"strings"

	"github.com/gsconfig-go/gsconfig/internal/twin/store"
)

const atomNS = "http://www.w3.org/2005/Atom"

// atomLink renders as <atom:link xmlns:atom=".." rel="alternate" href=".."/>.
type atomLink struct {
	XMLName xml.Name `xml:"atom:link"`
	NS      string   `xml:"xmlns:atom,attr"`
	Rel     string   `xml:"rel,attr"`
	Href    string   `xml:"href,attr"`
	Type    string   `xml:"type,attr"`
}

func link(href string) *atomLink {
	return &atomLink{NS: atomNS, Rel: "alternate", Href: href, Type: "application/xml"}
}

// ref is an index entry or a reference to another object.
type ref struct {
	Name string    `xml:"name,omitempty"`
	Link *atomLink `xml:",omitempty"`
}

// linkHolder wraps a bare link, e.g. <featureTypes><atom:link/></featureTypes>.
type linkHolder struct {
	Link *atomLink
}

type stringList struct {
	Items []string `xml:"string"`
}

func newStringList(items []string) *stringList {
	if len(items) == 0 {
		return nil
	}
	return &stringList{Items: items}
}

func (l *stringList) values() []string {
	if l == nil {
		return nil
	}
	out := make([]string, 0, len(l.Items))
	for _, s := range l.Items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

type bboxXML struct {
	MinX float64 `xml:"minx"`
	MaxX float64 `xml:"maxx"`
	MinY float64 `xml:"miny"`
	MaxY float64 `xml:"maxy"`
	CRS  string  `xml:"crs,omitempty"`
}

func toBBoxXML(b *store.BBox) *bboxXML {
	if b == nil {
		return nil
	}
	return &bboxXML{MinX: b.MinX, MaxX: b.MaxX, MinY: b.MinY, MaxY: b.MaxY, CRS: b.CRS}
}

func (b *bboxXML) model() *store.BBox {
	if b == nil {
		return nil
	}
	return &store.BBox{MinX: b.MinX, MaxX: b.MaxX, MinY: b.MinY, MaxY: b.MaxY, CRS: strings.TrimSpace(b.CRS)}
}

type entryXML struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

type metadataLinkXML struct {
	Type         string `xml:"type"`
	MetadataType string `xml:"metadataType"`
	Content      string `xml:"content"`
}

type metadataLinksXML struct {
	Items []metadataLinkXML `xml:"metadataLink"`
}

// ---------------------------------------------------------------------------
// Lists
// ---------------------------------------------------------------------------

type workspaceList struct {
	XMLName xml.Name `xml:"workspaces"`
	Items   []ref    `xml:"workspace"`
}

type namespaceList struct {
	XMLName xml.Name `xml:"namespaces"`
	Items   []ref    `xml:"namespace"`
}

type dataStoreList struct {
	XMLName xml.Name `xml:"dataStores"`
	Items   []ref    `xml:"dataStore"`
}

type coverageStoreList struct {
	XMLName xml.Name `xml:"coverageStores"`
	Items   []ref    `xml:"coverageStore"`
}

type featureTypeList struct {
	XMLName xml.Name `xml:"featureTypes"`
	Items   []ref    `xml:"featureType"`
}

type coverageList struct {
	XMLName xml.Name `xml:"coverages"`
	Items   []ref    `xml:"coverage"`
}

type layerList struct {
	XMLName xml.Name `xml:"layers"`
	Items   []ref    `xml:"layer"`
}

type styleList struct {
	XMLName xml.Name `xml:"styles"`
	Items   []ref    `xml:"style"`
}

type layerGroupList struct {
	XMLName xml.Name `xml:"layerGroups"`
	Items   []ref    `xml:"layerGroup"`
}

// ---------------------------------------------------------------------------
// Documents
// ---------------------------------------------------------------------------

type workspaceXML struct {
	XMLName        xml.Name   `xml:"workspace"`
	Name           string     `xml:"name"`
	Enabled        bool       `xml:"enabled"`
	DataStores     linkHolder `xml:"dataStores"`
	CoverageStores linkHolder `xml:"coverageStores"`
}

type namespaceXML struct {
	XMLName xml.Name `xml:"namespace"`
	Prefix  string   `xml:"prefix"`
	URI     string   `xml:"uri"`
}

type dataStoreXML struct {
	XMLName              xml.Name   `xml:"dataStore"`
	Name                 string     `xml:"name"`
	Description          string     `xml:"description,omitempty"`
	Type                 string     `xml:"type,omitempty"`
	Enabled              bool       `xml:"enabled"`
	Workspace            ref        `xml:"workspace"`
	ConnectionParameters []entryXML `xml:"connectionParameters>entry"`
	FeatureTypes         linkHolder `xml:"featureTypes"`
}

type coverageStoreXML struct {
	XMLName     xml.Name   `xml:"coverageStore"`
	Name        string     `xml:"name"`
	Description string     `xml:"description,omitempty"`
	Type        string     `xml:"type,omitempty"`
	Enabled     bool       `xml:"enabled"`
	Workspace   ref        `xml:"workspace"`
	URL         string     `xml:"url,omitempty"`
	Coverages   linkHolder `xml:"coverages"`
}

type storeRef struct {
	Class string    `xml:"class,attr"`
	Name  string    `xml:"name"`
	Link  *atomLink `xml:",omitempty"`
}

// resourceXML holds the elements feature types and coverages share.
type resourceXML struct {
	Name              string            `xml:"name"`
	NativeName        string            `xml:"nativeName"`
	Namespace         ref               `xml:"namespace"`
	Title             string            `xml:"title,omitempty"`
	Abstract          string            `xml:"abstract,omitempty"`
	Keywords          *stringList       `xml:"keywords"`
	MetadataLinks     *metadataLinksXML `xml:"metadataLinks"`
	SRS               string            `xml:"srs,omitempty"`
	NativeBoundingBox *bboxXML          `xml:"nativeBoundingBox"`
	LatLonBoundingBox *bboxXML          `xml:"latLonBoundingBox"`
	ProjectionPolicy  string            `xml:"projectionPolicy,omitempty"`
	Enabled           bool              `xml:"enabled"`
	Store             storeRef          `xml:"store"`
}

type attributeXML struct {
	Name      string `xml:"name"`
	MinOccurs int    `xml:"minOccurs"`
	MaxOccurs int    `xml:"maxOccurs"`
	Nillable  bool   `xml:"nillable"`
	Binding   string `xml:"binding"`
}

type featureTypeXML struct {
	XMLName xml.Name `xml:"featureType"`
	resourceXML
	Attributes []attributeXML `xml:"attributes>attribute,omitempty"`
}

type coverageXML struct {
	XMLName xml.Name `xml:"coverage"`
	resourceXML
	RequestSRS       *stringList `xml:"requestSRS"`
	ResponseSRS      *stringList `xml:"responseSRS"`
	SupportedFormats *stringList `xml:"supportedFormats"`
}

type styleRefXML struct {
	Name      string    `xml:"name,omitempty"`
	Workspace string    `xml:"workspace,omitempty"`
	Link      *atomLink `xml:",omitempty"`
}

type resourceRefXML struct {
	Class string    `xml:"class,attr"`
	Name  string    `xml:"name"`
	Link  *atomLink `xml:",omitempty"`
}

type attributionXML struct {
	Title      string `xml:"title,omitempty"`
	LogoWidth  int    `xml:"logoWidth,omitempty"`
	LogoHeight int    `xml:"logoHeight,omitempty"`
}

type layerXML struct {
	XMLName      xml.Name        `xml:"layer"`
	Name         string          `xml:"name"`
	Type         string          `xml:"type"`
	DefaultStyle *styleRefXML    `xml:"defaultStyle"`
	Styles       []styleRefXML   `xml:"styles>style,omitempty"`
	Resource     resourceRefXML  `xml:"resource"`
	Enabled      bool            `xml:"enabled"`
	Advertised   *bool           `xml:"advertised"`
	Attribution  *attributionXML `xml:"attribution"`
}

type languageVersion struct {
	Version string `xml:"version"`
}

type styleXML struct {
	XMLName         xml.Name        `xml:"style"`
	Name            string          `xml:"name"`
	Workspace       *ref            `xml:"workspace"`
	Format          string          `xml:"format"`
	LanguageVersion languageVersion `xml:"languageVersion"`
	Filename        string          `xml:"filename"`
}

type layerGroupXML struct {
	XMLName xml.Name      `xml:"layerGroup"`
	Name    string        `xml:"name"`
	Mode    string        `xml:"mode"`
	Layers  []ref         `xml:"layers>layer"`
	Styles  []styleRefXML `xml:"styles>style"`
	Bounds  *bboxXML      `xml:"bounds"`
}

type aboutXML struct {
	XMLName   xml.Name        `xml:"about"`
	Resources []aboutResource `xml:"resource"`
}

type aboutResource struct {
	Name    string `xml:"name,attr"`
	Version string `xml:"Version"`
}

// ---------------------------------------------------------------------------
// Request bodies. Absent elements leave the stored value untouched.
// ---------------------------------------------------------------------------

// refIn accepts both <x><name>n</name></x> and the bare <x>n</x>.
type refIn struct {
	Text string `xml:",chardata"`
	Name string `xml:"name"`
}

func (r refIn) name() string {
	if n := strings.TrimSpace(r.Name); n != "" {
		return n
	}
	return strings.TrimSpace(r.Text)
}

type workspaceIn struct {
	Name    *string `xml:"name"`
	Enabled *bool   `xml:"enabled"`
}

type namespaceIn struct {
	Prefix string `xml:"prefix"`
	URI    string `xml:"uri"`
}

type entriesIn struct {
	Entries []entryXML `xml:"entry"`
}

type dataStoreIn struct {
	Name                 *string    `xml:"name"`
	Type                 *string    `xml:"type"`
	Description          *string    `xml:"description"`
	Enabled              *bool      `xml:"enabled"`
	ConnectionParameters *entriesIn `xml:"connectionParameters"`
}

type coverageStoreIn struct {
	Name        *string `xml:"name"`
	Type        *string `xml:"type"`
	Description *string `xml:"description"`
	Enabled     *bool   `xml:"enabled"`
	URL         *string `xml:"url"`
}

type resourceIn struct {
	Name              *string           `xml:"name"`
	Title             *string           `xml:"title"`
	Abstract          *string           `xml:"abstract"`
	Enabled           *bool             `xml:"enabled"`
	Keywords          *stringList       `xml:"keywords"`
	SRS               *string           `xml:"srs"`
	ProjectionPolicy  *string           `xml:"projectionPolicy"`
	NativeBoundingBox *bboxXML          `xml:"nativeBoundingBox"`
	LatLonBoundingBox *bboxXML          `xml:"latLonBoundingBox"`
	MetadataLinks     *metadataLinksXML `xml:"metadataLinks"`
	RequestSRS        *stringList       `xml:"requestSRS"`
	ResponseSRS       *stringList       `xml:"responseSRS"`
	SupportedFormats  *stringList       `xml:"supportedFormats"`
}

type refsIn struct {
	Items []refIn `xml:"style"`
}

type attributionIn struct {
	Title      *string `xml:"title"`
	LogoWidth  *int    `xml:"logoWidth"`
	LogoHeight *int    `xml:"logoHeight"`
}

type layerIn struct {
	DefaultStyle *refIn         `xml:"defaultStyle"`
	Styles       *refsIn        `xml:"styles"`
	Enabled      *bool          `xml:"enabled"`
	Advertised   *bool          `xml:"advertised"`
	Attribution  *attributionIn `xml:"attribution"`
}

type layersIn struct {
	Items []refIn `xml:"layer"`
}

type layerGroupIn struct {
	Name   *string   `xml:"name"`
	Layers *layersIn `xml:"layers"`
	Styles *refsIn   `xml:"styles"`
	Bounds *bboxXML  `xml:"bounds"`
}

type styleIn struct {
	Name     *string `xml:"name"`
	Filename *string `xml:"filename"`
}
