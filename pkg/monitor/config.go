package monitor

import (
	"time"

	"github.com/levenlabs/go-lflag"

	"github.com/luxbridge/luxbridge/pkg/common"
)

// Configured sets up the Lux client based on flags.
func Configured() *Lux {
	baseURL := lflag.String("upstream-base-url", defaultBaseURL, "Base URL of the LuxPower monitor API")
	timeout := lflag.Duration("upstream-timeout", time.Minute, "Timeout for requests to the monitor API")

	l := newLux()

	lflag.Do(func() {
		l.baseURL = *baseURL
		l.client = common.HTTPClient(*timeout)
	})

	return l
}
