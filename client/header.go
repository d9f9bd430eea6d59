package client

import (
	"encoding/base64"
	"maps"
	"net/http"
	"slices"
)

// Auth supplies the authentication header of a call.
type Auth interface {
	Header() (key, value string)
}

// HeaderAuth is an [Auth] with a fixed header.
type HeaderAuth struct {
	Key   string
	Value string
}

func (a HeaderAuth) Header() (string, string) {
	return a.Key, a.Value
}

// Basic returns an Authorization header carrying name and pass.
func Basic(name, pass string) HeaderAuth {
	token := base64.StdEncoding.EncodeToString([]byte(name + ":" + pass))
	return HeaderAuth{Key: "Authorization", Value: "Basic " + token}
}

// Bearer returns an Authorization header carrying token.
func Bearer(token string) HeaderAuth {
	return HeaderAuth{Key: "Authorization", Value: "Bearer " + token}
}

// applyHeaders adds the caller's headers in key order, skipping any with
// an empty key or value, then sets auth so it replaces a header of the
// same name.
func applyHeaders(h http.Header, headers map[string]string, auth Auth) {
	for _, k := range slices.Sorted(maps.Keys(headers)) {
		v := headers[k]
		if k == "" || v == "" {
			continue
		}
		h.Add(k, v)
	}

	if auth != nil {
		k, v := auth.Header()
		h.Set(k, v)
	}
}
