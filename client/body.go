package client

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

const (
	contentTypeJSON = "application/json; charset=utf-8"
	contentTypeForm = "application/x-www-form-urlencoded"
)

// Body is the payload of a POST. Construct one with [Raw], [Multipart],
// [EncodedForm], [Upload], [Form], [FormFrom], [JSONText] or [JSONBody].
type Body interface {
	encode(codec Codec) (payload, error)
}

// payload is an encoded Body ready for the wire.
type payload struct {
	r           io.Reader
	contentType string

	// curl is the curl flag describing the body in diagnostics.
	curl string
}

type rawBody struct {
	contentType string
	r           io.Reader
}

func (b rawBody) encode(Codec) (payload, error) {
	return payload{r: b.r, contentType: b.contentType, curl: "--data-binary @-"}, nil
}

// Raw sends r as is, labelled with contentType.
func Raw(contentType string, r io.Reader) Body {
	return rawBody{contentType: contentType, r: r}
}

// Multipart sends a body already encoded as multipart, typically built with
// mime/multipart. contentType must carry the boundary.
func Multipart(r io.Reader, contentType string) Body {
	return rawBody{contentType: contentType, r: r}
}

type encodedFormBody url.Values

func (b encodedFormBody) encode(Codec) (payload, error) {
	s := url.Values(b).Encode()
	return payload{r: strings.NewReader(s), contentType: contentTypeForm, curl: curlData(s)}, nil
}

// EncodedForm sends v as an urlencoded form without filtering.
func EncodedForm(v url.Values) Body {
	return encodedFormBody(v)
}

type uploadBody struct {
	part UploadPart
}

func (b uploadBody) encode(Codec) (payload, error) {
	if b.part.src == nil {
		return payload{}, fmt.Errorf("%w: upload part has no source", ErrEncode)
	}

	src, err := b.part.src.open()
	if err != nil {
		return payload{}, fmt.Errorf("%w: opening upload source: %w", ErrEncode, err)
	}

	pr, pw := io.Pipe()
	w := multipart.NewWriter(pw)

	go func() {
		defer src.Close()

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(b.part.alias), quoteEscaper.Replace(b.part.name)))
		h.Set("Content-Type", b.part.contentType)

		part, err := w.CreatePart(h)
		if err != nil {
			pw.CloseWithError(err)
			return
		}

		if _, err := io.Copy(part, src); err != nil {
			pw.CloseWithError(err)
			return
		}

		pw.CloseWithError(w.Close())
	}()

	return payload{
		r:           pr,
		contentType: w.FormDataContentType(),
		curl:        fmt.Sprintf("-F '%s=@%s;type=%s'", b.part.alias, b.part.name, b.part.contentType),
	}, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Upload sends part as a single part multipart/form-data body. The
// content is streamed, never buffered whole.
func Upload(part UploadPart) Body {
	return uploadBody{part: part}
}

type formBody struct {
	values url.Values
	err    error
}

func (b formBody) encode(Codec) (payload, error) {
	if b.err != nil {
		return payload{}, fmt.Errorf("%w: %w", ErrEncode, b.err)
	}

	return encodedFormBody(b.values).encode(nil)
}

// Form sends m as an urlencoded form. Entries with a non-string key or a
// nil value are dropped; the rest are formatted with fmt.Sprint, after
// following pointers.
func Form[K comparable](m map[K]any) Body {
	values := make(url.Values, len(m))
	for k, v := range m {
		key, ok := any(k).(string)
		if !ok || isNil(v) {
			continue
		}
		values.Set(key, fmt.Sprint(reflect.Indirect(reflect.ValueOf(v)).Interface()))
	}

	return formBody{values: values}
}

// FormFrom flattens the struct v into an urlencoded form, naming fields by
// their `form` tag, then applies the rules of [Form].
func FormFrom(v any) Body {
	var m map[string]any
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &m,
		TagName: "form",
	})
	if err != nil {
		return formBody{err: err}
	}
	if err := dec.Decode(v); err != nil {
		return formBody{err: fmt.Errorf("flattening form: %w", err)}
	}

	return Form(m)
}

type jsonTextBody string

func (b jsonTextBody) encode(Codec) (payload, error) {
	return payload{r: strings.NewReader(string(b)), contentType: contentTypeJSON, curl: curlData(string(b))}, nil
}

// JSONText sends s verbatim as JSON. s is not checked.
func JSONText(s string) Body {
	return jsonTextBody(s)
}

type jsonBody struct {
	v any
}

func (b jsonBody) encode(codec Codec) (payload, error) {
	data, err := codec.Marshal(b.v)
	if err != nil {
		return payload{}, fmt.Errorf("%w: %w", ErrEncode, err)
	}

	return payload{r: strings.NewReader(string(data)), contentType: contentTypeJSON, curl: curlData(string(data))}, nil
}

// JSONBody sends v marshalled by the client's [Codec].
func JSONBody(v any) Body {
	return jsonBody{v: v}
}

func curlData(s string) string {
	return "-d '" + s + "'"
}

func isNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Chan, reflect.Func:
		return rv.IsNil()
	}

	return false
}
