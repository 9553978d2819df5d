package client

import "strconv"

type AnonymizationType string

const (
	AnonymizationBlur     AnonymizationType = "blur"
	AnonymizationOpaque   AnonymizationType = "opaque"
	AnonymizationPixelate AnonymizationType = "pixelate"
)

// AnonymizationOptions configures a job. Every field is optional; unset
// fields are left out of the request.
type AnonymizationOptions struct {
	ActivationFacesBlur  *bool
	ActivationPlatesBlur *bool
	OutputDetectionsURL  *bool

	IncludedArea *Area
	BlurType     *BlurType

	// Extra is appended after the known fields, for options this package
	// does not model.
	Extra Fields
}

// Area is the rectangle of the media to process.
type Area struct {
	Top    *float64
	Bottom *float64
	Left   *float64
	Right  *float64
}

type BlurType struct {
	AnonymizationType AnonymizationType // empty means unset
	SmoothPadding     *bool
	HexColor          string // empty means unset
	NumPixels         *int
}

func Bool(v bool) *bool        { return &v }
func Int(v int) *int           { return &v }
func Float(v float64) *float64 { return &v }

// FormFields renders the options as a nested form. Unset fields carry a nil
// value and are skipped by the encoder.
func (o *AnonymizationOptions) FormFields() Fields {
	if o == nil {
		return nil
	}

	fields := Fields{
		{Key: "activation_faces_blur", Value: boolValue(o.ActivationFacesBlur)},
		{Key: "activation_plates_blur", Value: boolValue(o.ActivationPlatesBlur)},
		{Key: "output_detections_url", Value: boolValue(o.OutputDetectionsURL)},
		{Key: "included_area", Value: o.IncludedArea.fields()},
		{Key: "blur_type", Value: o.BlurType.fields()},
	}
	return append(fields, o.Extra...)
}

func (a *Area) fields() FormValue {
	if a == nil {
		return nil
	}
	return Fields{
		{Key: "top", Value: floatValue(a.Top)},
		{Key: "bottom", Value: floatValue(a.Bottom)},
		{Key: "left", Value: floatValue(a.Left)},
		{Key: "right", Value: floatValue(a.Right)},
	}
}

func (b *BlurType) fields() FormValue {
	if b == nil {
		return nil
	}
	return Fields{
		{Key: "anonymization_type", Value: stringValue(string(b.AnonymizationType))},
		{Key: "smooth_padding", Value: boolValue(b.SmoothPadding)},
		{Key: "hex_color", Value: stringValue(b.HexColor)},
		{Key: "num_pixels", Value: intValue(b.NumPixels)},
	}
}

func boolValue(v *bool) FormValue {
	if v == nil {
		return nil
	}
	return Scalar(strconv.FormatBool(*v))
}

func intValue(v *int) FormValue {
	if v == nil {
		return nil
	}
	return Scalar(strconv.Itoa(*v))
}

func floatValue(v *float64) FormValue {
	if v == nil {
		return nil
	}
	return Scalar(strconv.FormatFloat(*v, 'f', -1, 64))
}

func stringValue(v string) FormValue {
	if v == "" {
		return nil
	}
	return Scalar(v)
}
