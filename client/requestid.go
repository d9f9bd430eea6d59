package client

import "sync/atomic"

var requestID atomic.Uint64

// nextRequestID allocates the id of a call. Ids start at 0 and wrap.
func nextRequestID() uint64 {
	return requestID.Add(1) - 1
}
