package commands

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
)

const topicPrefix = "commands."

// Topic returns the topic a command with the given name is sent to.
func Topic(commandName string) string {
	return topicPrefix + commandName
}

func NewCommandBus(
	pub message.Publisher,
	logger watermill.LoggerAdapter,
) (*cqrs.CommandBus, error) {
	return cqrs.NewCommandBusWithConfig(
		pub,
		cqrs.CommandBusConfig{
			GeneratePublishTopic: func(params cqrs.CommandBusGeneratePublishTopicParams) (string, error) {
				return Topic(params.CommandName), nil
			},
			Marshaler: cqrs.JSONMarshaler{
				GenerateName: cqrs.StructName,
			},
			Logger: logger,
		},
	)
}
