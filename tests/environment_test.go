package tests

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestEnvironment provides Postgres and Redis for the service under test.
// With USE_LOCAL_ENV=true the running services from TEST_POSTGRES_URL and
// TEST_REDIS_ADDR are used instead of containers.
type TestEnvironment struct {
	PostgresURL string
	RedisAddr   string

	cleanup []func() error
}

func NewTestEnvironment(t *testing.T) (*TestEnvironment, error) {
	env := &TestEnvironment{}

	if os.Getenv("USE_LOCAL_ENV") == "true" {
		env.PostgresURL = os.Getenv("TEST_POSTGRES_URL")
		env.RedisAddr = os.Getenv("TEST_REDIS_ADDR")
		if env.PostgresURL == "" || env.RedisAddr == "" {
			return nil, fmt.Errorf("TEST_POSTGRES_URL and TEST_REDIS_ADDR are required when USE_LOCAL_ENV=true")
		}
		return env, nil
	}

	testcontainers.SkipIfProviderIsNotHealthy(t)

	if err := env.setupPostgres(); err != nil {
		env.Cleanup()
		return nil, fmt.Errorf("postgres setup failed: %w", err)
	}
	if err := env.setupRedis(); err != nil {
		env.Cleanup()
		return nil, fmt.Errorf("redis setup failed: %w", err)
	}

	return env, nil
}

func (env *TestEnvironment) setupPostgres() error {
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "ticketing",
				"POSTGRES_PASSWORD": "ticketing",
				"POSTGRES_DB":       "ticketing",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return err
	}
	env.cleanup = append(env.cleanup, func() error {
		return container.Terminate(context.Background())
	})

	endpoint, err := container.PortEndpoint(ctx, "5432/tcp", "")
	if err != nil {
		return err
	}
	env.PostgresURL = fmt.Sprintf("postgres://ticketing:ticketing@%s/ticketing?sslmode=disable", endpoint)
	return nil
}

func (env *TestEnvironment) setupRedis() error {
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		return err
	}
	env.cleanup = append(env.cleanup, func() error {
		return container.Terminate(context.Background())
	})

	endpoint, err := container.PortEndpoint(ctx, "6379/tcp", "")
	if err != nil {
		return err
	}
	env.RedisAddr = endpoint
	return nil
}

func (env *TestEnvironment) Cleanup() {
	for i := len(env.cleanup) - 1; i >= 0; i-- {
		if err := env.cleanup[i](); err != nil {
			fmt.Printf("Cleanup error: %v\n", err)
		}
	}
}
