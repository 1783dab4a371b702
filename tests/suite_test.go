package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"ticketing/internal/app"
	"ticketing/internal/config"
	"ticketing/internal/entities"
	"ticketing/internal/repository"
)

type ComponentTestSuite struct {
	suite.Suite

	env         *TestEnvironment
	db          *sqlx.DB
	redisClient *redis.Client
	baseURL     string

	notifications <-chan *message.Message

	cancel context.CancelFunc
	done   chan error
}

func TestComponent(t *testing.T) {
	if testing.Short() {
		t.Skip("component tests need docker")
	}
	suite.Run(t, new(ComponentTestSuite))
}

func (s *ComponentTestSuite) SetupSuite() {
	env, err := NewTestEnvironment(s.T())
	s.Require().NoError(err)
	s.env = env

	s.db, err = sqlx.Open("postgres", env.PostgresURL)
	s.Require().NoError(err)

	s.redisClient = redis.NewClient(&redis.Options{Addr: env.RedisAddr})

	addr := freeAddr(s.T())
	s.baseURL = "http://" + addr
	cfg := &config.Config{
		HTTPAddr:       addr,
		PostgresURL:    env.PostgresURL,
		RedisAddr:      env.RedisAddr,
		PassSigningKey: "component-test-signing-key-0123456789",
		NotifyTimeout:  5 * time.Second,
	}
	s.Require().NoError(cfg.Validate())

	sub, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
		Client:        s.redisClient,
		ConsumerGroup: "component-tests",
	}, watermill.NopLogger{})
	s.Require().NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.notifications, err = sub.Subscribe(ctx, "commands.SendNotification")
	s.Require().NoError(err)

	application, err := app.NewApp(cfg, watermill.NopLogger{}, s.redisClient, s.db)
	s.Require().NoError(err)

	s.done = make(chan error, 1)
	go func() {
		s.done <- application.Run(ctx)
	}()

	s.waitForHttpServer()
}

func (s *ComponentTestSuite) TearDownSuite() {
	if s.cancel != nil {
		s.cancel()
		select {
		case <-s.done:
		case <-time.After(10 * time.Second):
			s.T().Log("app did not stop in time")
		}
	}
	if s.redisClient != nil {
		_ = s.redisClient.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.env != nil {
		s.env.Cleanup()
	}
}

func (s *ComponentTestSuite) waitForHttpServer() {
	s.T().Helper()

	require.EventuallyWithT(
		s.T(),
		func(t *assert.CollectT) {
			resp, err := http.Get(s.baseURL + "/health")
			if !assert.NoError(t, err) {
				return
			}
			defer resp.Body.Close()

			assert.Equal(t, http.StatusOK, resp.StatusCode)
		},
		30*time.Second,
		100*time.Millisecond,
	)
}

// grant gives userID a capability directly in the database, there is no
// HTTP surface for it.
func (s *ComponentTestSuite) grant(userID uuid.UUID, capability entities.Capability) {
	s.Require().NoError(repository.NewCapabilitiesRepo(s.db).Grant(context.Background(), userID, capability))
}

func (s *ComponentTestSuite) do(method, path string, actorID uuid.UUID, body any, out any) int {
	s.T().Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, s.baseURL+path, reader)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if actorID != uuid.Nil {
		req.Header.Set("X-User-ID", actorID.String())
	}

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func freeAddr(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	return fmt.Sprintf("127.0.0.1:%d", l.Addr().(*net.TCPAddr).Port)
}
