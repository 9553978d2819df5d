package jobs

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/PiotrWarzachowski/go-anonymizer/client"
)

// newOptionFlags returns fresh job option flags; flags hold parse state.
func newOptionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "faces",
			Usage: "Blur faces",
		},
		&cli.BoolFlag{
			Name:  "plates",
			Usage: "Blur license plates",
		},
		&cli.BoolFlag{
			Name:  "detections",
			Usage: "Also produce a detections JSON file",
		},
		&cli.StringFlag{
			Name:  "area",
			Usage: "Included area as top,bottom,left,right; leave a value empty to skip it",
		},
		&cli.StringFlag{
			Name:  "blur-type",
			Usage: "Anonymization type: blur, opaque or pixelate",
		},
		&cli.StringFlag{
			Name:  "hex-color",
			Usage: "Fill color for opaque anonymization, e.g. #000000",
		},
		&cli.IntFlag{
			Name:  "num-pixels",
			Usage: "Pixel block size for pixelate",
		},
		&cli.BoolFlag{
			Name:  "smooth-padding",
			Usage: "Smooth the edges of anonymized regions",
		},
	}
}

// optionsFromCommand maps the flags that were set to job options. Flags
// left unset stay out of the request.
func optionsFromCommand(cmd *cli.Command) (*client.AnonymizationOptions, error) {
	opts := &client.AnonymizationOptions{}

	if cmd.IsSet("faces") {
		opts.ActivationFacesBlur = client.Bool(cmd.Bool("faces"))
	}
	if cmd.IsSet("plates") {
		opts.ActivationPlatesBlur = client.Bool(cmd.Bool("plates"))
	}
	if cmd.IsSet("detections") {
		opts.OutputDetectionsURL = client.Bool(cmd.Bool("detections"))
	}

	if cmd.IsSet("area") {
		area, err := parseArea(cmd.String("area"))
		if err != nil {
			return nil, err
		}
		opts.IncludedArea = area
	}

	blur := &client.BlurType{}
	if cmd.IsSet("blur-type") {
		kind, err := parseAnonymizationType(cmd.String("blur-type"))
		if err != nil {
			return nil, err
		}
		blur.AnonymizationType = kind
	}
	if cmd.IsSet("hex-color") {
		blur.HexColor = strings.TrimSpace(cmd.String("hex-color"))
	}
	if cmd.IsSet("num-pixels") {
		blur.NumPixels = client.Int(int(cmd.Int("num-pixels")))
	}
	if cmd.IsSet("smooth-padding") {
		blur.SmoothPadding = client.Bool(cmd.Bool("smooth-padding"))
	}
	if *blur != (client.BlurType{}) {
		opts.BlurType = blur
	}

	return opts, nil
}

func parseArea(raw string) (*client.Area, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("area must have 4 comma-separated values (top,bottom,left,right), got %q", raw)
	}

	values := make([]*float64, 4)
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid area value %q: %w", part, err)
		}
		values[i] = client.Float(v)
	}

	return &client.Area{Top: values[0], Bottom: values[1], Left: values[2], Right: values[3]}, nil
}

func parseAnonymizationType(raw string) (client.AnonymizationType, error) {
	switch kind := client.AnonymizationType(strings.ToLower(strings.TrimSpace(raw))); kind {
	case client.AnonymizationBlur, client.AnonymizationOpaque, client.AnonymizationPixelate:
		return kind, nil
	default:
		return "", fmt.Errorf("unknown anonymization type %q (want blur, opaque or pixelate)", raw)
	}
}
