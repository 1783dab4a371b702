package main

import (
	"fmt"
	"log"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"

	"ticketing/internal/poisonqueue"
)

func newQueue() (*poisonqueue.Queue, func(), error) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})

	pub, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{Client: client},
		watermill.NewStdLogger(false, false),
	)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}

	return poisonqueue.NewQueue(client, pub), func() { _ = client.Close() }, nil
}

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "poison-queue-cli",
		Usage: "Manage the ticketing service poison queue",
		Commands: []*cli.Command{
			{
				Name:  "preview",
				Usage: "preview messages",
				Action: func(c *cli.Context) error {
					q, closeQueue, err := newQueue()
					if err != nil {
						return err
					}
					defer closeQueue()

					messages, err := q.Preview(c.Context)
					if err != nil {
						return err
					}

					for _, m := range messages {
						fmt.Printf("%v\t%v\t%v\t%v\n", m.ID, m.Topic, m.Handler, m.Reason)
					}

					return nil
				},
			},
			{
				Name:      "remove",
				ArgsUsage: "<message_id>",
				Usage:     "remove message",
				Action: func(c *cli.Context) error {
					if c.Args().Len() != 1 {
						return cli.Exit("expected exactly one message id", 2)
					}

					q, closeQueue, err := newQueue()
					if err != nil {
						return err
					}
					defer closeQueue()

					return q.Remove(c.Context, c.Args().First())
				},
			},
			{
				Name:      "requeue",
				ArgsUsage: "<message_id>",
				Usage:     "publish message back to its original topic",
				Action: func(c *cli.Context) error {
					if c.Args().Len() != 1 {
						return cli.Exit("expected exactly one message id", 2)
					}

					q, closeQueue, err := newQueue()
					if err != nil {
						return err
					}
					defer closeQueue()

					return q.Requeue(c.Context, c.Args().First())
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
