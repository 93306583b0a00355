package authcache_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vearutop/authcache"
)

func TestCollector(t *testing.T) {
	users := newCache(t, alwaysPrincipal("user"), authcache.Config{Name: "users", MaximumSize: 1})
	tokens := newCache(t, alwaysPrincipal("token"), authcache.Config{Name: "tokens"})

	fillCache(t, users, "u1", "u1", "u2")
	fillCache(t, tokens, "t1")

	_, _, err := tokens.Authenticate(context.Background(), "t1")
	require.NoError(t, err)

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(authcache.NewCollector("app", users, tokens)))

	families, err := reg.Gather()
	require.NoError(t, err)

	values := map[string]map[string]float64{}

	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			name := labelValue(m, "name")

			if values[name] == nil {
				values[name] = map[string]float64{}
			}

			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				values[name][mf.GetName()] = m.GetCounter().GetValue()
			case dto.MetricType_GAUGE:
				values[name][mf.GetName()] = m.GetGauge().GetValue()
			default:
			}
		}
	}

	assert.Equal(t, 2.0, values["users"]["app_auth_cache_loads_total"])
	assert.Equal(t, 1.0, values["users"]["app_auth_cache_hits_total"])
	assert.Equal(t, 2.0, values["users"]["app_auth_cache_misses_total"])
	assert.Equal(t, 1.0, values["users"]["app_auth_cache_evictions_total"])
	assert.Equal(t, 0.0, values["users"]["app_auth_cache_load_failures_total"])
	assert.Equal(t, 1.0, values["users"]["app_auth_cache_size"])

	assert.Equal(t, 1.0, values["tokens"]["app_auth_cache_loads_total"])
	assert.Equal(t, 1.0, values["tokens"]["app_auth_cache_hits_total"])
	assert.Equal(t, 1.0, values["tokens"]["app_auth_cache_size"])
	assert.Contains(t, values["tokens"], "app_auth_cache_load_seconds_total")
}

func labelValue(m *dto.Metric, name string) string {
	for _, l := range m.GetLabel() {
		if l.GetName() == name {
			return l.GetValue()
		}
	}

	return ""
}
