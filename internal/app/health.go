package app

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 2 * time.Second

// Pinger is a dependency that can report its availability
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker pings every dependency concurrently
type HealthChecker struct {
	deps map[string]Pinger
}

func NewHealthChecker(deps map[string]Pinger) *HealthChecker {
	return &HealthChecker{deps: deps}
}

func (h *HealthChecker) check(ctx context.Context) (map[string]string, bool) {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		healthy = true
		checks  = make(map[string]string, len(h.deps))
	)

	for name, dep := range h.deps {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status := "pass"
			if err := dep.Ping(ctx); err != nil {
				status = "fail: " + err.Error()
			}

			mu.Lock()
			defer mu.Unlock()
			checks[name] = status
			if status != "pass" {
				healthy = false
			}
		}()
	}
	wg.Wait()

	return checks, healthy
}

func (h *HealthChecker) Handler(c *gin.Context) {
	checks, healthy := h.check(c.Request.Context())
	if !healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "fail",
			"checks": checks,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "pass",
		"checks": checks,
	})
}
