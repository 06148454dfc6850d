package health

import (
	"context"
	"net/http"
	"time"

	"github.com/heptiolabs/healthcheck"

	"relaybot/backend/internal/storage"
)

// Checker 聚合存活与就绪检查。
type Checker struct {
	handler healthcheck.Handler
}

// NewChecker 创建健康检查器：就绪依赖存储连通性。
func NewChecker(repo storage.Repository) *Checker {
	h := healthcheck.NewHandler()

	h.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(500))
	h.AddReadinessCheck("storage", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return repo.Ping(ctx)
	})

	return &Checker{handler: h}
}

// LiveEndpoint 存活检查的 HTTP 入口
func (c *Checker) LiveEndpoint(w http.ResponseWriter, r *http.Request) {
	c.handler.LiveEndpoint(w, r)
}

// ReadyEndpoint 就绪检查的 HTTP 入口
func (c *Checker) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	c.handler.ReadyEndpoint(w, r)
}
