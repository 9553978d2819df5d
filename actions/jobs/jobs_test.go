package jobs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"

	"github.com/PiotrWarzachowski/go-anonymizer/client"
)

func parseOptions(t *testing.T, args ...string) (*client.AnonymizationOptions, error) {
	t.Helper()

	var (
		opts     *client.AnonymizationOptions
		parseErr error
	)
	cmd := &cli.Command{
		Name:  "submit",
		Flags: newOptionFlags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			opts, parseErr = optionsFromCommand(cmd)
			return nil
		},
	}
	if err := cmd.Run(context.Background(), append([]string{"submit"}, args...)); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	return opts, parseErr
}

func TestOptionsFromCommand_UnsetFlagsStayUnset(t *testing.T) {
	opts, err := parseOptions(t)
	if err != nil {
		t.Fatalf("optionsFromCommand returned error: %v", err)
	}
	if len(opts.FormFields()) != 5 {
		t.Fatalf("fields = %d, want the five known keys", len(opts.FormFields()))
	}
	if opts.ActivationFacesBlur != nil || opts.IncludedArea != nil || opts.BlurType != nil {
		t.Fatalf("opts = %#v, want everything unset", opts)
	}
}

func TestOptionsFromCommand_MapsSetFlags(t *testing.T) {
	opts, err := parseOptions(t,
		"--faces",
		"--plates=false",
		"--area", "0.1,,0.25,",
		"--blur-type", "Pixelate",
		"--num-pixels", "16",
	)
	if err != nil {
		t.Fatalf("optionsFromCommand returned error: %v", err)
	}

	if opts.ActivationFacesBlur == nil || !*opts.ActivationFacesBlur {
		t.Fatalf("faces = %v, want true", opts.ActivationFacesBlur)
	}
	if opts.ActivationPlatesBlur == nil || *opts.ActivationPlatesBlur {
		t.Fatalf("plates = %v, want explicit false", opts.ActivationPlatesBlur)
	}
	if opts.OutputDetectionsURL != nil {
		t.Fatalf("detections set without flag")
	}

	area := opts.IncludedArea
	if area == nil || area.Top == nil || *area.Top != 0.1 || area.Bottom != nil || area.Left == nil || *area.Left != 0.25 || area.Right != nil {
		t.Fatalf("area = %#v", area)
	}

	blur := opts.BlurType
	if blur == nil || blur.AnonymizationType != client.AnonymizationPixelate || blur.NumPixels == nil || *blur.NumPixels != 16 {
		t.Fatalf("blur = %#v", blur)
	}
	if blur.HexColor != "" || blur.SmoothPadding != nil {
		t.Fatalf("blur has fields that were not set: %#v", blur)
	}
}

func TestOptionsFromCommand_RejectsBadValues(t *testing.T) {
	if _, err := parseOptions(t, "--area", "1,2,3"); err == nil {
		t.Fatalf("short area returned nil error")
	}
	if _, err := parseOptions(t, "--area", "a,b,c,d"); err == nil {
		t.Fatalf("non-numeric area returned nil error")
	}
	if _, err := parseOptions(t, "--blur-type", "smudge"); err == nil || !strings.Contains(err.Error(), "smudge") {
		t.Fatalf("unknown blur type error = %v", err)
	}
}

func TestDownload_SavesEachResultUnderDir(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/innovation-service/result/")
		if name == "missing.jpg" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("payload:" + name))
	}))
	t.Cleanup(server.Close)

	c, err := client.New(client.WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	dir := filepath.Join(t.TempDir(), "out")

	saved, err := download(context.Background(), c, dir, []string{"a.jpg", "a.json"})
	if err != nil {
		t.Fatalf("download returned error: %v", err)
	}
	for i, name := range []string{"a.jpg", "a.json"} {
		if saved[i] != filepath.Join(dir, name) {
			t.Fatalf("saved[%d] = %q", i, saved[i])
		}
		data, err := os.ReadFile(saved[i])
		if err != nil {
			t.Fatalf("ReadFile: %v", err)
		}
		if string(data) != "payload:"+name {
			t.Fatalf("%s = %q", name, data)
		}
	}

	saved, err = download(context.Background(), c, dir, []string{"missing.jpg"})
	if err == nil || !strings.Contains(err.Error(), "download missing.jpg") {
		t.Fatalf("download error = %v, want operation error", err)
	}
	if saved[0] != "" {
		t.Fatalf("failed download reported path %q", saved[0])
	}
}
