package spacecachefx

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap/zaptest"

	"github.com/unkn0wn-root/spacecache"
	"github.com/unkn0wn-root/spacecache/stats"
)

func TestModuleProvidesCache(t *testing.T) {
	root := t.TempDir()
	var cache *spacecache.Cache

	app := fxtest.New(t,
		fx.Supply(Config{Path: root, Compress: true}, zaptest.NewLogger(t)),
		Module,
		fx.Populate(&cache),
	)
	app.RequireStart()

	ctx := context.Background()
	require.NoError(t, cache.Space("fx").SetString(ctx, "k", "v"))
	assert.Equal(t, "v", cache.Space("fx").GetString(ctx, "k"))

	app.RequireStop()

	// the stop hook released the directory, so it can be opened again
	reopened, err := spacecache.OpenPath(root)
	require.NoError(t, err)
	defer reopened.Close(ctx)
	assert.Equal(t, "v", reopened.Space("fx").GetString(ctx, "k"))
}

func TestModuleExportsPrometheusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	var cache *spacecache.Cache

	app := fxtest.New(t,
		fx.Supply(Config{Name: "metrics", Path: t.TempDir()}, zaptest.NewLogger(t)),
		fx.Provide(func() prometheus.Registerer { return reg }),
		Module,
		fx.Populate(&cache),
	)
	app.RequireStart()
	defer app.RequireStop()

	ctx := context.Background()
	_ = cache.Space("s").SetBool(ctx, "k", true)
	_ = cache.Space("s").GetBool(ctx, "k")
	_ = cache.Space("s").GetBool(ctx, "missing")

	n, err := testutil.GatherAndCount(reg, stats.MetricMemoryHits, stats.MetricMisses)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
