package throttle

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

var (
	ErrMustNotBeZero = errors.New("must be greater than zero")
	ErrWaitingFailed = errors.New("limiter waiting failed")
	ErrContextEnded  = errors.New("throttle context ended")
)

// Config defines the throttler's Requests Per Second and Burst Rate.
// With PerHost set, every destination host gets its own bucket.
type Config struct {
	RPS     int  `yaml:"rps" validate:"gt=0"`
	Burst   int  `yaml:"burst" validate:"gt=0"`
	PerHost bool `yaml:"perHost"`
}

// throttle is an http.RoundTripper, using the time/rate token
// bucket limiter to restrict outbound calls.
type throttle struct {
	cfg   Config
	next  http.RoundTripper
	logFn func() *slog.Logger

	mu       sync.Mutex
	shared   *rate.Limiter
	limiters map[string]*rate.Limiter
}
