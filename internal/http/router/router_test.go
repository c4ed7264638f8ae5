package router

import (
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/culturekart/marketplace-backend/internal/config"
)

// The public REST surface is consumed by an existing frontend, so the
// route paths are part of the contract and must not drift.
func TestSetupRouter_MountsContractRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Env:             "test",
		AllowedOrigins:  []string{"http://localhost:3000"},
		RateLimitLimit:  60,
		RateLimitPeriod: time.Minute,
	}

	r := SetupRouter(cfg, Handlers{}, nil)

	mounted := make(map[string]bool)
	for _, route := range r.Routes() {
		mounted[route.Method+" "+route.Path] = true
	}

	for _, want := range []string{
		"GET /api/verification/:code",
		"POST /api/verification/:code/confirm-delivery",
		"POST /api/payments/create-intent",
		"GET /api/admin/escrow/pending",
		"GET /api/admin/escrow/released",
		"POST /api/admin/escrow/:orderId/release",
		"POST /api/admin/escrow/bulk-release",
		"POST /api/orders",
		"POST /api/withdrawals",
	} {
		assert.True(t, mounted[want], "route not mounted: %s", want)
	}
}
