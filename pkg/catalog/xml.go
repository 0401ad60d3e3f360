package catalog

import (
	"bytes"
	"encoding/xml"
	"sort"
	"strconv"
	"strings"
)

// atomLink is the <atom:link> GeoServer attaches to every reference.
type atomLink struct {
	Rel  string `xml:"rel,attr"`
	Href string `xml:"href,attr"`
	Type string `xml:"type,attr"`
}

// namedRef is an index entry or a reference to another catalog object:
// <x><name>..</name><atom:link href=".."/></x>. Layer groups also accept the
// bare form <x>name</x>.
type namedRef struct {
	Text string   `xml:",chardata"`
	Name string   `xml:"name"`
	Link atomLink `xml:"http://www.w3.org/2005/Atom link"`
}

func (r namedRef) name() string {
	if n := strings.TrimSpace(r.Name); n != "" {
		return n
	}
	return strings.TrimSpace(r.Text)
}

// rootElement decodes just the root tag and name of a document.
type rootElement struct {
	XMLName xml.Name
	Name    string `xml:"name"`
}

// BoundingBox is an envelope in the given CRS.
type BoundingBox struct {
	MinX float64
	MaxX float64
	MinY float64
	MaxY float64
	CRS  string
}

type bboxDoc struct {
	MinX string `xml:"minx"`
	MaxX string `xml:"maxx"`
	MinY string `xml:"miny"`
	MaxY string `xml:"maxy"`
	CRS  string `xml:"crs"`
}

func (d *bboxDoc) box() *BoundingBox {
	if d == nil {
		return nil
	}
	parse := func(s string) float64 {
		f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f
	}
	return &BoundingBox{
		MinX: parse(d.MinX),
		MaxX: parse(d.MaxX),
		MinY: parse(d.MinY),
		MaxY: parse(d.MaxY),
		CRS:  strings.TrimSpace(d.CRS),
	}
}

// MetadataLink points at an external metadata document for a resource.
type MetadataLink struct {
	Type         string `xml:"type"`
	MetadataType string `xml:"metadataType"`
	Content      string `xml:"content"`
}

type entryDoc struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

func parseBool(p *string, def bool) bool {
	if p == nil {
		return def
	}
	return strings.TrimSpace(*p) == "true"
}

func textOf(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

// builder writes a message body. The first encoder error sticks and is
// reported by bytes.
type builder struct {
	buf bytes.Buffer
	enc *xml.Encoder
	err error
}

func newBuilder() *builder {
	b := &builder{}
	b.enc = xml.NewEncoder(&b.buf)
	return b
}

func (b *builder) start(name string, attrs ...xml.Attr) {
	if b.err == nil {
		b.err = b.enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: name}, Attr: attrs})
	}
}

func (b *builder) end(name string) {
	if b.err == nil {
		b.err = b.enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: name}})
	}
}

func (b *builder) data(s string) {
	if b.err == nil && s != "" {
		b.err = b.enc.EncodeToken(xml.CharData(s))
	}
}

func (b *builder) element(name, text string) {
	b.start(name)
	b.data(text)
	b.end(name)
}

func (b *builder) bytes() ([]byte, error) {
	if b.err == nil {
		b.err = b.enc.Flush()
	}
	if b.err != nil {
		return nil, b.err
	}
	return b.buf.Bytes(), nil
}

// fieldWriter serializes one dirty field into a message.
type fieldWriter struct {
	field string
	write func(b *builder, v any)
}

// writeMessage renders root with only the dirty fields, in writer order.
func writeMessage(root string, dirty map[string]any, writers []fieldWriter) ([]byte, error) {
	b := newBuilder()
	b.start(root)
	for _, w := range writers {
		if v, ok := dirty[w.field]; ok {
			w.write(b, v)
		}
	}
	b.end(root)
	return b.bytes()
}

func writeString(tag string) func(*builder, any) {
	return func(b *builder, v any) {
		b.element(tag, v.(string))
	}
}

func writeBool(tag string) func(*builder, any) {
	return func(b *builder, v any) {
		b.element(tag, strconv.FormatBool(v.(bool)))
	}
}

func writeStringList(tag, item string) func(*builder, any) {
	return func(b *builder, v any) {
		b.start(tag)
		for _, s := range v.([]string) {
			b.element(item, s)
		}
		b.end(tag)
	}
}

// writeNested renders <tag><name>v</name></tag>.
func writeNested(tag string) func(*builder, any) {
	return func(b *builder, v any) {
		b.start(tag)
		if s := v.(string); s != "" {
			b.element("name", s)
		}
		b.end(tag)
	}
}

func writeBBox(tag string) func(*builder, any) {
	return func(b *builder, v any) {
		box := v.(BoundingBox)
		format := func(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
		b.start(tag)
		b.element("minx", format(box.MinX))
		b.element("maxx", format(box.MaxX))
		b.element("miny", format(box.MinY))
		b.element("maxy", format(box.MaxY))
		if box.CRS != "" {
			b.element("crs", box.CRS)
		}
		b.end(tag)
	}
}

func writeMetadataLinks(b *builder, v any) {
	b.start("metadataLinks")
	for _, l := range v.([]MetadataLink) {
		b.start("metadataLink")
		b.element("type", l.Type)
		b.element("metadataType", l.MetadataType)
		b.element("content", l.Content)
		b.end("metadataLink")
	}
	b.end("metadataLinks")
}

func writeEntries(tag string) func(*builder, any) {
	return func(b *builder, v any) {
		params := v.(map[string]string)
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.start(tag)
		for _, k := range keys {
			b.start("entry", xml.Attr{Name: xml.Name{Local: "key"}, Value: k})
			b.data(params[k])
			b.end("entry")
		}
		b.end(tag)
	}
}
