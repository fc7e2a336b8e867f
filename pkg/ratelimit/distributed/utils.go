package distributed

import (
	"crypto/rand"
	"fmt"
	"os"
	"time"
)

// limiterKeys are the Redis keys one limiter owns under its prefix.
type limiterKeys struct {
	log       string
	config    string
	stats     string
	instances string
}

func keysFor(prefix string) limiterKeys {
	return limiterKeys{
		log:       prefix + ":log",
		config:    prefix + ":config",
		stats:     prefix + ":stats",
		instances: prefix + ":instances",
	}
}

// generateInstanceID builds a process-unique identifier from hostname,
// pid, and random bytes.
func generateInstanceID() string {
	hostname, _ := os.Hostname()
	pid := os.Getpid()

	randomBytes := make([]byte, 4)
	_, _ = rand.Read(randomBytes)

	return fmt.Sprintf("%s-%d-%x-%d", hostname, pid, randomBytes, time.Now().Unix())
}
