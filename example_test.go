package authcache_test

import (
	"context"
	"fmt"
	"time"

	"github.com/bool64/ctxd"
	"github.com/vearutop/authcache"
)

func ExampleNew() {
	// Underlying authenticator, for example a call to identity provider.
	idp := authcache.AuthenticatorFunc[string, string](func(ctx context.Context, token string) (string, bool, error) {
		if token != "secret-token" {
			return "", false, nil
		}

		return "alice", true, nil
	})

	// Create cache instance.
	c := authcache.New[string, string](idp, authcache.Config{
		Name:             "tokens",
		MaximumSize:      10000,
		ExpireAfterWrite: 10 * time.Minute,
		Logger:           ctxd.NoOpLogger{},
	})
	defer c.Close()

	ctx := context.TODO()

	// First call is delegated to idp, second one is served from cache.
	for i := 0; i < 2; i++ {
		user, found, err := c.Authenticate(ctx, "secret-token")
		fmt.Println(user, found, err)
	}

	// Rejected credentials are not cached.
	_, found, _ := c.Authenticate(ctx, "wrong-token")
	fmt.Println(found, c.Size(), c.Stats().LoadCount)

	// Output:
	// alice true <nil>
	// alice true <nil>
	// false 1 2
}

func ExampleParseSpec() {
	cfg, err := authcache.ParseSpec("maximumSize=1000,expireAfterAccess=5m")
	if err != nil {
		panic(err)
	}

	fmt.Println(cfg.MaximumSize, cfg.ExpireAfterAccess)

	// Output:
	// 1000 5m0s
}
