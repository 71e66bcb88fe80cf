package middlewares

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

var (
	visitorsMu sync.Mutex
	visitors   = make(map[string]*visitor)
)

func getVisitor(ip string, r rate.Limit, burst int) *rate.Limiter {
	visitorsMu.Lock()
	defer visitorsMu.Unlock()

	v, ok := visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(r, burst)}
		visitors[ip] = v
	}
	v.lastSeen = time.Now()

	// opportunistic cleanup of stale entries
	for k, vv := range visitors {
		if time.Since(vv.lastSeen) > 10*time.Minute {
			delete(visitors, k)
		}
	}
	return v.limiter
}

// RateLimit guards the public webhook endpoints against floods; legitimate
// provider retries are well under these numbers.
func RateLimit(r rate.Limit, burst int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !getVisitor(c.ClientIP(), r, burst).Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{"ok": false, "error": "too many requests"})
			c.Abort()
			return
		}
		c.Next()
	}
}
