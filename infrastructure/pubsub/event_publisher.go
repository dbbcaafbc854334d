package pubsub

import (
	"context"
	"encoding/json"

	"cloud.google.com/go/pubsub"

	"crossposter/domain/model"
	"crossposter/infrastructure/logger"
)

type ICrosspostEvents interface {
	PublishOutcome(ctx context.Context, entry *model.CrosspostAudit) (string, error)
}

// CrosspostEvents publishes crosspost outcomes to a Pub/Sub topic so other
// systems can react to published and failed posts. Nil client makes every
// publish a logged no-op.
type CrosspostEvents struct {
	PubSubClient *pubsub.Client
	TopicName    string
}

func NewCrosspostEvents(pubSubClient *pubsub.Client, topicName string) ICrosspostEvents {
	return &CrosspostEvents{PubSubClient: pubSubClient, TopicName: topicName}
}

func (e *CrosspostEvents) PublishOutcome(ctx context.Context, entry *model.CrosspostAudit) (string, error) {
	if e.PubSubClient == nil {
		logger.GetLogger().Debug("PubSub client is nil - skipping event publish")
		return "", nil
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return "", err
	}

	topic := e.PubSubClient.Topic(e.TopicName)

	// Create the topic if it doesn't exist.
	exists, err := topic.Exists(ctx)
	if err != nil {
		return "", err
	}
	if !exists {
		logger.GetLogger().WithField("topic", e.TopicName).Info("Topic doesn't exist - creating it")
		if _, err := e.PubSubClient.CreateTopic(ctx, e.TopicName); err != nil {
			return "", err
		}
		topic = e.PubSubClient.Topic(e.TopicName)
	}

	serverId, err := topic.Publish(ctx, &pubsub.Message{Data: payload}).Get(ctx)
	if err != nil {
		return "", err
	}
	logger.GetLogger().WithField("server ID", serverId).Info("Crosspost event published")
	return serverId, nil
}
