package domain

import (
	"fmt"
	"strconv"
	"time"
)

// Typed views over product property maps. ComCat serves every product
// property value as a string; these schemas convert the well-known fields
// for the common product types while the raw Properties map remains the
// forward-compatible fallback for anything unrecognized.

// OriginProperties are the well-known fields of an "origin" or
// "phase-data" product.
type OriginProperties struct {
	Latitude        float64
	Longitude       float64
	Depth           float64
	Magnitude       float64
	MagnitudeType   string
	EventTime       time.Time
	ReviewStatus    string
	AzimuthalGap    float64
	NumStationsUsed int
	StandardError   float64
	HorizontalError float64
	VerticalError   float64
	MinimumDistance float64
	EventType       string
	OriginSource    string
	MagnitudeSource string
}

// Origin decodes the submission's properties as an origin schema.
func (p ProductSubmission) Origin() (OriginProperties, error) {
	var o OriginProperties
	var err error
	if o.Latitude, err = p.floatProp("latitude"); err != nil {
		return OriginProperties{}, err
	}
	if o.Longitude, err = p.floatProp("longitude"); err != nil {
		return OriginProperties{}, err
	}
	if o.Depth, err = p.floatProp("depth"); err != nil {
		return OriginProperties{}, err
	}
	if o.Magnitude, err = p.floatProp("magnitude"); err != nil {
		return OriginProperties{}, err
	}
	if o.AzimuthalGap, err = p.floatProp("azimuthal-gap"); err != nil {
		return OriginProperties{}, err
	}
	if o.NumStationsUsed, err = p.intProp("num-stations-used"); err != nil {
		return OriginProperties{}, err
	}
	if o.StandardError, err = p.floatProp("standard-error"); err != nil {
		return OriginProperties{}, err
	}
	if o.HorizontalError, err = p.floatProp("horizontal-error"); err != nil {
		return OriginProperties{}, err
	}
	if o.VerticalError, err = p.floatProp("vertical-error"); err != nil {
		return OriginProperties{}, err
	}
	if o.MinimumDistance, err = p.floatProp("minimum-distance"); err != nil {
		return OriginProperties{}, err
	}
	if o.EventTime, err = p.timeProp("eventtime"); err != nil {
		return OriginProperties{}, err
	}
	o.MagnitudeType = p.Properties["magnitude-type"]
	o.ReviewStatus = p.Properties["review-status"]
	o.EventType = p.Properties["event-type"]
	o.OriginSource = p.Properties["origin-source"]
	o.MagnitudeSource = p.Properties["magnitude-source"]
	return o, nil
}

// MomentTensorProperties are the well-known fields of a "moment-tensor"
// or "focal-mechanism" product. Tensor components are in newton-meters.
type MomentTensorProperties struct {
	Mrr, Mtt, Mpp float64
	Mrt, Mrp, Mtp float64

	ScalarMoment        float64
	DerivedMagnitude    float64
	DerivedMagnitudeTyp string
	PercentDoubleCouple float64
	Method              string

	NodalPlane1Strike float64
	NodalPlane1Dip    float64
	NodalPlane1Rake   float64
	NodalPlane2Strike float64
	NodalPlane2Dip    float64
	NodalPlane2Rake   float64
}

// MomentTensor decodes the submission's properties as a moment tensor
// schema.
func (p ProductSubmission) MomentTensor() (MomentTensorProperties, error) {
	var mt MomentTensorProperties
	fields := []struct {
		key string
		dst *float64
	}{
		{"tensor-mrr", &mt.Mrr},
		{"tensor-mtt", &mt.Mtt},
		{"tensor-mpp", &mt.Mpp},
		{"tensor-mrt", &mt.Mrt},
		{"tensor-mrp", &mt.Mrp},
		{"tensor-mtp", &mt.Mtp},
		{"scalar-moment", &mt.ScalarMoment},
		{"derived-magnitude", &mt.DerivedMagnitude},
		{"percent-double-couple", &mt.PercentDoubleCouple},
		{"nodal-plane-1-strike", &mt.NodalPlane1Strike},
		{"nodal-plane-1-dip", &mt.NodalPlane1Dip},
		{"nodal-plane-1-rake", &mt.NodalPlane1Rake},
		{"nodal-plane-2-strike", &mt.NodalPlane2Strike},
		{"nodal-plane-2-dip", &mt.NodalPlane2Dip},
		{"nodal-plane-2-rake", &mt.NodalPlane2Rake},
	}
	for _, f := range fields {
		v, err := p.floatProp(f.key)
		if err != nil {
			return MomentTensorProperties{}, err
		}
		*f.dst = v
	}
	mt.DerivedMagnitudeTyp = p.Properties["derived-magnitude-type"]
	mt.Method = p.Properties["beachball-type"]
	return mt, nil
}

// ShakeMapProperties are the well-known fields of a "shakemap" product.
type ShakeMapProperties struct {
	MaxMMI    float64
	MaxPGA    float64
	MaxPGV    float64
	MapStatus string
	Version   int
}

// ShakeMap decodes the submission's properties as a shakemap schema.
func (p ProductSubmission) ShakeMap() (ShakeMapProperties, error) {
	var sm ShakeMapProperties
	var err error
	if sm.MaxMMI, err = p.floatProp("maxmmi"); err != nil {
		return ShakeMapProperties{}, err
	}
	if sm.MaxPGA, err = p.floatProp("maxpga"); err != nil {
		return ShakeMapProperties{}, err
	}
	if sm.MaxPGV, err = p.floatProp("maxpgv"); err != nil {
		return ShakeMapProperties{}, err
	}
	if sm.Version, err = p.intProp("version"); err != nil {
		return ShakeMapProperties{}, err
	}
	sm.MapStatus = p.Properties["map-status"]
	return sm, nil
}

// PagerProperties are the well-known fields of a "losspager" product.
type PagerProperties struct {
	AlertLevel string
	MaxMMI     float64
}

// Pager decodes the submission's properties as a PAGER schema.
func (p ProductSubmission) Pager() (PagerProperties, error) {
	mmi, err := p.floatProp("maxmmi")
	if err != nil {
		return PagerProperties{}, err
	}
	return PagerProperties{
		AlertLevel: p.Properties["alertlevel"],
		MaxMMI:     mmi,
	}, nil
}

// DYFIProperties are the well-known fields of a "dyfi" (Did You Feel It?)
// product.
type DYFIProperties struct {
	MaxMMI       float64
	NumResponses int
}

// DYFI decodes the submission's properties as a DYFI schema.
func (p ProductSubmission) DYFI() (DYFIProperties, error) {
	var d DYFIProperties
	var err error
	if d.MaxMMI, err = p.floatProp("maxmmi"); err != nil {
		return DYFIProperties{}, err
	}
	if d.NumResponses, err = p.intProp("num-responses"); err != nil {
		return DYFIProperties{}, err
	}
	return d, nil
}

// floatProp parses a numeric property, returning 0 when absent or empty so
// unseen server fields degrade instead of failing.
func (p ProductSubmission) floatProp(key string) (float64, error) {
	s, ok := p.Properties[key]
	if !ok || s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("product %s property %q: %w", p.ID, key, err)
	}
	return v, nil
}

func (p ProductSubmission) intProp(key string) (int, error) {
	s, ok := p.Properties[key]
	if !ok || s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("product %s property %q: %w", p.ID, key, err)
	}
	return v, nil
}

// timeProp parses an ISO 8601 property such as origin eventtime.
func (p ProductSubmission) timeProp(key string) (time.Time, error) {
	s, ok := p.Properties[key]
	if !ok || s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("product %s property %q: %w", p.ID, key, err)
	}
	return t.UTC(), nil
}
