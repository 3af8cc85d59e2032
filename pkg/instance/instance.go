package instance

import (
	"os"

	"github.com/drinkroute/distribution-backend/pkg/env"
)

// ID names the running replica in logs. DISTRO_INSTANCE_ID wins, then the
// hostname, then the supplied fallback.
func ID(fallback string) string {
	if id := env.Get("DISTRO_INSTANCE_ID", ""); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallback
}
