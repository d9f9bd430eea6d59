// Package httpcall exposes the client builders.
package httpcall

import (
	"fmt"

	"github.com/adamwoolhether/httpcall/client"
	"github.com/adamwoolhether/httpcall/config"
)

// NewClient instantiates a new *Client with the provided options.
// If not specified, the default http.Client and http.Transport are used.
func NewClient(opts ...client.Option) (*client.Client, error) {
	return client.Build(opts...)
}

// NewClientFromConfig loads settings with [config.Load] and builds a
// *Client from them. Options in extra are applied last.
func NewClientFromConfig(path string, extra ...client.Option) (*client.Client, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	return client.Build(append(cfg.Options(), extra...)...)
}
