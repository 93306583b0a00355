package authcache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vearutop/authcache"
	"gopkg.in/yaml.v3"
)

func TestParseSpec(t *testing.T) {
	cfg, err := authcache.ParseSpec("maximumSize=1000, expireAfterWrite=10m,expireAfterAccess=90,cleanUpInterval=1d,name=users")
	require.NoError(t, err)

	assert.Equal(t, authcache.Config{
		Name:              "users",
		MaximumSize:       1000,
		ExpireAfterWrite:  10 * time.Minute,
		ExpireAfterAccess: 90 * time.Second,
		CleanUpInterval:   24 * time.Hour,
	}, cfg)

	cfg, err = authcache.ParseSpec("")
	require.NoError(t, err)
	assert.Equal(t, authcache.Config{}, cfg)

	cfg, err = authcache.ParseSpec("maximumSize=1")
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.MaximumSize)
}

func TestParseSpec_invalid(t *testing.T) {
	for _, spec := range []string{
		"maximumSize",
		"maximumSize=",
		"maximumSize=ten",
		"maximumSize=1,maximumSize=2",
		"expireAfterWrite=soon",
		"expireAfterAccess=xd",
		"refreshAfterWrite=1m",
	} {
		_, err := authcache.ParseSpec(spec)
		assert.ErrorIs(t, err, authcache.ErrInvalidSpec, spec)
	}
}

func TestConfig_UnmarshalYAML(t *testing.T) {
	var svc struct {
		Users  authcache.Config `yaml:"users"`
		Tokens authcache.Config `yaml:"tokens"`
	}

	err := yaml.Unmarshal([]byte(`
users: maximumSize=100,expireAfterWrite=5m
tokens:
  name: tokens
  maximumSize: 10
  expireAfterAccess: 30s
`), &svc)
	require.NoError(t, err)

	assert.Equal(t, 100, svc.Users.MaximumSize)
	assert.Equal(t, 5*time.Minute, svc.Users.ExpireAfterWrite)

	assert.Equal(t, "tokens", svc.Tokens.Name)
	assert.Equal(t, 10, svc.Tokens.MaximumSize)
	assert.Equal(t, 30*time.Second, svc.Tokens.ExpireAfterAccess)

	err = yaml.Unmarshal([]byte(`users: maximumSize=many`), &svc)
	assert.ErrorIs(t, err, authcache.ErrInvalidSpec)
}
