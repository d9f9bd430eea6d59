package client

import (
	"io"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestForm(t *testing.T) {
	var nilMap map[string]int
	var nilSlice []string
	n := 7

	p, err := Form(map[any]any{
		"str":      "v",
		"int":      3,
		"ptr":      &n,
		"nil":      nil,
		"nilPtr":   (*int)(nil),
		"nilMap":   nilMap,
		"nilSlice": nilSlice,
		1:          "dropped",
		true:       "dropped",
	}).encode(JSONCodec{})
	if err != nil {
		t.Fatal(err)
	}

	b, _ := io.ReadAll(p.r)
	got, err := url.ParseQuery(string(b))
	if err != nil {
		t.Fatal(err)
	}

	exp := url.Values{"str": {"v"}, "int": {"3"}, "ptr": {"7"}}
	if diff := cmp.Diff(exp, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if p.contentType != contentTypeForm {
		t.Errorf("content type = %q", p.contentType)
	}
}

func TestUploadBody_Stream(t *testing.T) {
	part, err := NewUpload(FromBytes([]byte("content")), "image/png", `we"ird.png`)
	if err != nil {
		t.Fatal(err)
	}

	p, err := Upload(part).encode(JSONCodec{})
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(p.contentType, "multipart/form-data; boundary=") {
		t.Errorf("content type = %q", p.contentType)
	}
	if p.curl != `-F 'file=@we"ird.png;type=image/png'` {
		t.Errorf("curl = %q", p.curl)
	}

	b, err := io.ReadAll(p.r)
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		`Content-Disposition: form-data; name="file"; filename="we\"ird.png"`,
		"Content-Type: image/png",
		"content",
	} {
		if !strings.Contains(string(b), want) {
			t.Errorf("expected %q in body:\n%s", want, b)
		}
	}
}

func TestShapeKinds(t *testing.T) {
	testCases := map[string]struct {
		got kind
		exp string
	}{
		"json":  {got: JSON[struct{}]().kind, exp: "json"},
		"bytes": {got: Bytes().kind, exp: "bytes"},
		"text":  {got: Text().kind, exp: "text"},
		"file":  {got: TempFile().kind, exp: "file"},
		"none":  {got: NoPayload().kind, exp: "none"},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			if tc.got.String() != tc.exp {
				t.Errorf("kind = %s, want %s", tc.got, tc.exp)
			}
		})
	}
}
