package health

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sparkmcp/spark-history-mcp/internal/spark"
)

// Status represents the health status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

const checkTimeout = 5 * time.Second

// Check represents a health check result for one History Server
type Check struct {
	Name      string        `json:"name"`
	Status    Status        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`
}

// Checker probes every configured Spark History Server
type Checker struct {
	registry *spark.Registry
	logger   *zap.Logger
}

// New creates a new health checker
func New(registry *spark.Registry, logger *zap.Logger) *Checker {
	return &Checker{
		registry: registry,
		logger:   logger,
	}
}

// CheckAll probes every configured History Server. The overall status is
// unhealthy only when no server is reachable; one reachable server out of
// several means degraded, since tools targeting it still work.
func (c *Checker) CheckAll(ctx context.Context) (Status, []Check) {
	names := c.registry.Names()
	checks := make([]Check, 0, len(names))

	healthy := 0
	for _, name := range names {
		check := c.checkServer(ctx, name)
		if check.Status == StatusHealthy {
			healthy++
		}
		checks = append(checks, check)
	}

	switch {
	case healthy == len(names):
		return StatusHealthy, checks
	case healthy > 0:
		return StatusDegraded, checks
	default:
		return StatusUnhealthy, checks
	}
}

// checkServer verifies one History Server answers its version endpoint
func (c *Checker) checkServer(ctx context.Context, name string) Check {
	start := time.Now()
	check := Check{
		Name:      name,
		Timestamp: start,
	}

	client, err := c.registry.Get(name)
	if err != nil {
		check.Status = StatusUnhealthy
		check.Message = err.Error()
		check.Duration = time.Since(start)
		return check
	}

	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	version, err := client.GetVersion(checkCtx)
	check.Duration = time.Since(start)

	if err != nil {
		check.Status = StatusUnhealthy
		check.Message = fmt.Sprintf("History Server unreachable: %v", err)
		c.logger.Warn("Health check failed",
			zap.String("server", name),
			zap.Error(err),
			zap.Duration("duration", check.Duration),
		)
	} else {
		check.Status = StatusHealthy
		check.Message = fmt.Sprintf("Spark %s reachable", version.Spark)
		c.logger.Debug("Health check passed",
			zap.String("server", name),
			zap.Duration("duration", check.Duration),
		)
	}

	return check
}
