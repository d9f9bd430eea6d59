// Package client issues typed HTTP calls and returns every outcome,
// failures included, as a [Response] value.
//
// # Building a Client
//
// Use [Build] to create a [Client] with functional options:
//
//	c, err := client.Build(
//		client.WithTimeout(10 * time.Second),
//		client.WithUserAgent("myapp/1.0"),
//	)
//
// A nil *Client passed to a call uses [Default], which [SetDefault]
// replaces at startup.
//
// # Making Calls
//
// [Get], [Head] and [Post] take the result [Shape] the payload should be
// decoded into:
//
//	resp := client.Get(ctx, c, "https://api.example.com/users?", client.JSON[[]User](),
//		client.WithQuery(map[string]string{"page": "2"}),
//		client.WithAuth(client.Bearer(token)),
//	)
//	if !resp.IsOK() {
//		// resp.Code is the status, or NoStatus with resp.Err set.
//	}
//
// Non-2xx statuses are not faults: Err stays nil and Code carries the
// status. [Response.Error] converts the envelope into a Go error when that
// is more convenient.
//
// # URLs
//
// [BuildURL] appends query parts either as "k=v&k=v" when the base ends
// in '?' or as path segments "k/v" otherwise.
//
// # Bodies
//
// POST bodies are built with [JSONBody], [JSONText], [Form], [FormFrom],
// [EncodedForm], [Upload], [Multipart] or [Raw].
//
// # Temp Files
//
// [TempFile] streams the payload to disk with optional checksum
// verification and progress reporting:
//
//	resp := client.Get(ctx, c, u, client.TempFile(
//		client.WithChecksum(sha256.New(), expectedHex),
//		client.WithProgress(),
//	))
//	defer resp.Data.Remove()
//
// Files are never removed automatically.
//
// For lower-level control see the
// [github.com/adamwoolhether/httpcall/client/download] package.
package client
