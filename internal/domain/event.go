package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"
)

// SummaryEvent is a read-only view of one search-result feature.
// It is constructed once per GeoJSON feature and never mutated.
type SummaryEvent struct {
	ID        string
	Time      time.Time
	Updated   time.Time
	Latitude  float64
	Longitude float64
	Depth     float64
	Magnitude *float64 // nil when the catalog has no magnitude
	Location  string
	URL       string
	DetailURL string

	// Properties holds every summary property as decoded, including the
	// ones surfaced as fields above. PropertyOrder preserves the JSON
	// document order so tabular output never depends on map iteration.
	Properties    map[string]any
	PropertyOrder []string
}

// DetailEvent is the full per-event document: the summary identity fields
// plus the raw product submissions keyed by product type.
type DetailEvent struct {
	SummaryEvent

	Products map[string][]ProductSubmission
}

// ProductSubmission is one raw per-type submission from a contributing
// network, exactly as served in the detail document.
type ProductSubmission struct {
	ID              string
	Type            string
	Code            string
	Source          string
	Status          string
	UpdateTime      time.Time
	PreferredWeight int64

	Properties    map[string]string
	PropertyOrder []string
	Contents      map[string]ContentFile
}

// ContentFile describes one downloadable file in a product's manifest.
type ContentFile struct {
	URL          string
	ContentType  string
	Length       int64
	LastModified time.Time
}

// Deleted reports whether this submission is a retraction. Deleted
// submissions are invisible to all version resolution.
func (p ProductSubmission) Deleted() bool {
	return strings.EqualFold(p.Status, "delete")
}

// ContentMatching selects the content file whose name matches the glob
// pattern, preferring the shortest matching name (ties broken
// lexicographically). Names with directory components also match on their
// base name, so "grid.xml" finds "download/grid.xml".
func (p ProductSubmission) ContentMatching(pattern string) (string, ContentFile, error) {
	best := ""
	for name := range p.Contents {
		ok, err := path.Match(pattern, name)
		if err != nil {
			return "", ContentFile{}, fmt.Errorf("content pattern %q: %w", pattern, err)
		}
		if !ok {
			ok, _ = path.Match(pattern, path.Base(name))
		}
		if !ok {
			continue
		}
		if best == "" || len(name) < len(best) || (len(name) == len(best) && name < best) {
			best = name
		}
	}
	if best == "" {
		return "", ContentFile{}, fmt.Errorf("no content matching %q in product %s: %w", pattern, p.ID, ErrContentNotFound)
	}
	return best, p.Contents[best], nil
}

// ContentNames lists the submission's content paths, sorted for stable
// display.
func (p ProductSubmission) ContentNames() []string {
	names := make([]string, 0, len(p.Contents))
	for name := range p.Contents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasProduct reports whether the event carries at least one non-deleted
// submission of the given product type.
func (d DetailEvent) HasProduct(productType string) bool {
	for _, sub := range d.Products[productType] {
		if !sub.Deleted() {
			return true
		}
	}
	return false
}

// ProductTypes lists the product types with at least one non-deleted
// submission, sorted for stable display.
func (d DetailEvent) ProductTypes() []string {
	types := make([]string, 0, len(d.Products))
	for name := range d.Products {
		if d.HasProduct(name) {
			types = append(types, name)
		}
	}
	sort.Strings(types)
	return types
}

// SingleProductType returns the event's only non-deleted product type.
// Events carrying several types yield ErrProductNotSpecified; events with
// none yield ErrProductNotFound.
func (d DetailEvent) SingleProductType() (string, error) {
	types := d.ProductTypes()
	switch len(types) {
	case 0:
		return "", fmt.Errorf("event %s has no products: %w", d.ID, ErrProductNotFound)
	case 1:
		return types[0], nil
	default:
		return "", fmt.Errorf("event %s has %d product types: %w", d.ID, len(types), ErrProductNotSpecified)
	}
}

// Alert returns the PAGER alert level ("green".."red") or "" when absent.
func (e SummaryEvent) Alert() string {
	s, _ := stringProperty(e.Properties, "alert")
	return s
}

// Tsunami reports whether the event was flagged for tsunami potential.
func (e SummaryEvent) Tsunami() bool {
	n, ok := numberProperty(e.Properties, "tsunami")
	return ok && n != 0
}

// Significance returns the ComCat significance score (0-1000+).
func (e SummaryEvent) Significance() int {
	n, _ := numberProperty(e.Properties, "sig")
	return int(n)
}

// Felt returns the number of "Did You Feel It?" responses.
func (e SummaryEvent) Felt() int {
	n, _ := numberProperty(e.Properties, "felt")
	return int(n)
}

// ParseFeatureCollection decodes a search response (GeoJSON
// FeatureCollection) into summary events in document order.
func ParseFeatureCollection(data []byte) ([]SummaryEvent, error) {
	var coll struct {
		Features []json.RawMessage `json:"features"`
	}
	if err := json.Unmarshal(data, &coll); err != nil {
		return nil, &ParseError{Err: fmt.Errorf("feature collection: %w", err)}
	}
	events := make([]SummaryEvent, 0, len(coll.Features))
	for i, raw := range coll.Features {
		ev, err := ParseSummaryFeature(raw)
		if err != nil {
			return nil, &ParseError{Err: fmt.Errorf("feature %d: %w", i, err)}
		}
		events = append(events, ev)
	}
	return events, nil
}

// ParseSummaryFeature decodes one GeoJSON feature into a SummaryEvent.
func ParseSummaryFeature(data []byte) (SummaryEvent, error) {
	var f struct {
		ID       string `json:"id"`
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return SummaryEvent{}, fmt.Errorf("summary feature: %w", err)
	}
	if f.ID == "" {
		return SummaryEvent{}, fmt.Errorf("summary feature missing id")
	}

	props, order, err := decodeOrderedObject(f.Properties)
	if err != nil {
		return SummaryEvent{}, fmt.Errorf("summary properties: %w", err)
	}

	ev := SummaryEvent{
		ID:            f.ID,
		Properties:    props,
		PropertyOrder: order,
	}
	// GeoJSON order is [longitude, latitude, depth].
	if len(f.Geometry.Coordinates) >= 2 {
		ev.Longitude = f.Geometry.Coordinates[0]
		ev.Latitude = f.Geometry.Coordinates[1]
	}
	if len(f.Geometry.Coordinates) >= 3 {
		ev.Depth = f.Geometry.Coordinates[2]
	}
	if ms, ok := numberProperty(props, "time"); ok {
		ev.Time = time.UnixMilli(int64(ms)).UTC()
	}
	if ms, ok := numberProperty(props, "updated"); ok {
		ev.Updated = time.UnixMilli(int64(ms)).UTC()
	}
	if mag, ok := numberProperty(props, "mag"); ok {
		ev.Magnitude = &mag
	}
	ev.Location, _ = stringProperty(props, "place")
	ev.URL, _ = stringProperty(props, "url")
	ev.DetailURL, _ = stringProperty(props, "detail")
	return ev, nil
}

// ParseDetailFeature decodes a detail document (a GeoJSON Feature whose
// properties carry the products map) into a DetailEvent.
func ParseDetailFeature(data []byte) (DetailEvent, error) {
	summary, err := ParseSummaryFeature(data)
	if err != nil {
		return DetailEvent{}, err
	}

	var f struct {
		Properties struct {
			Products map[string][]json.RawMessage `json:"products"`
		} `json:"properties"`
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return DetailEvent{}, fmt.Errorf("detail feature: %w", err)
	}

	detail := DetailEvent{
		SummaryEvent: summary,
		Products:     make(map[string][]ProductSubmission, len(f.Properties.Products)),
	}
	for name, raws := range f.Properties.Products {
		subs := make([]ProductSubmission, 0, len(raws))
		for i, raw := range raws {
			sub, err := parseProductSubmission(raw)
			if err != nil {
				return DetailEvent{}, fmt.Errorf("product %s[%d]: %w", name, i, err)
			}
			subs = append(subs, sub)
		}
		detail.Products[name] = subs
	}
	// The products map itself is consumed; keep the summary view clean.
	delete(detail.Properties, "products")
	detail.PropertyOrder = removeString(detail.PropertyOrder, "products")
	return detail, nil
}

func parseProductSubmission(data []byte) (ProductSubmission, error) {
	var p struct {
		ID              string          `json:"id"`
		Type            string          `json:"type"`
		Code            string          `json:"code"`
		Source          string          `json:"source"`
		Status          string          `json:"status"`
		UpdateTime      int64           `json:"updateTime"`
		PreferredWeight int64           `json:"preferredWeight"`
		Properties      json.RawMessage `json:"properties"`
		Contents        map[string]struct {
			ContentType  string `json:"contentType"`
			LastModified int64  `json:"lastModified"`
			Length       int64  `json:"length"`
			URL          string `json:"url"`
		} `json:"contents"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return ProductSubmission{}, err
	}

	sub := ProductSubmission{
		ID:              p.ID,
		Type:            p.Type,
		Code:            p.Code,
		Source:          p.Source,
		Status:          p.Status,
		UpdateTime:      time.UnixMilli(p.UpdateTime).UTC(),
		PreferredWeight: p.PreferredWeight,
		Contents:        make(map[string]ContentFile, len(p.Contents)),
	}
	for name, c := range p.Contents {
		sub.Contents[name] = ContentFile{
			URL:          c.URL,
			ContentType:  c.ContentType,
			Length:       c.Length,
			LastModified: time.UnixMilli(c.LastModified).UTC(),
		}
	}

	if len(p.Properties) > 0 {
		props, order, err := decodeOrderedObject(p.Properties)
		if err != nil {
			return ProductSubmission{}, fmt.Errorf("properties: %w", err)
		}
		sub.Properties = make(map[string]string, len(props))
		sub.PropertyOrder = order
		for key, value := range props {
			sub.Properties[key] = scalarString(value)
		}
	}
	return sub, nil
}

// decodeOrderedObject decodes a JSON object into a map while recording the
// document key order. Numbers decode as json.Number so values round-trip
// into tabular output without float re-formatting.
func decodeOrderedObject(data []byte) (map[string]any, []string, error) {
	if len(data) == 0 {
		return map[string]any{}, nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("expected object, got %v", tok)
	}

	values := make(map[string]any)
	var order []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key := keyTok.(string)
		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, nil, fmt.Errorf("key %q: %w", key, err)
		}
		if _, seen := values[key]; !seen {
			order = append(order, key)
		}
		values[key] = value
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return values, order, nil
}

func stringProperty(props map[string]any, key string) (string, bool) {
	v, ok := props[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func numberProperty(props map[string]any, key string) (float64, bool) {
	v, ok := props[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// scalarString renders any decoded JSON scalar as its wire string form.
func scalarString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case json.Number:
		return s.String()
	case bool:
		return strconv.FormatBool(s)
	default:
		b, err := json.Marshal(s)
		if err != nil {
			return fmt.Sprintf("%v", s)
		}
		return string(b)
	}
}

func removeString(list []string, target string) []string {
	out := list[:0]
	for _, s := range list {
		if s != target {
			out = append(out, s)
		}
	}
	return out
}
