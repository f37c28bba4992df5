package mongo

import "time"

// Config for the legacy document store. Only services that still serve the
// unmigrated invoice archive set MONGODB_URL; everything else runs without it.
type Config struct {
	ConnectionURL   string        `env:"MONGODB_URL" envDefault:""`                    // ConnectionURL is the URL of the legacy database; empty disables the path.
	ConnectTimeout  time.Duration `env:"MONGODB_CONNECT_TIMEOUT" envDefault:"10s"`     // ConnectTimeout is the timeout for connecting.
	MaxPoolSize     uint64        `env:"MONGODB_MAX_POOL_SIZE" envDefault:"100"`       // MaxPoolSize is the maximum number of pooled connections.
	MinPoolSize     uint64        `env:"MONGODB_MIN_POOL_SIZE" envDefault:"1"`         // MinPoolSize is the minimum number of pooled connections.
	MaxConnIdleTime time.Duration `env:"MONGODB_MAX_CONN_IDLE_TIME" envDefault:"300s"` // MaxConnIdleTime is the idle timeout for pooled connections.
	RetryAttempts   int           `env:"MONGODB_RETRY_ATTEMPTS" envDefault:"3"`        // RetryAttempts is the number of connection attempts.
	RetryInterval   time.Duration `env:"MONGODB_RETRY_INTERVAL" envDefault:"5s"`       // RetryInterval is the interval between attempts.
}

// Enabled reports whether the legacy path is configured.
func (c Config) Enabled() bool {
	return c.ConnectionURL != ""
}
