package pubsub

import (
	"context"
	"encoding/json"
	"log"

	"cloud.google.com/go/pubsub"

	"my-campaign/domain/model"
	"my-campaign/infrastructure/logger"
)

type ICampaignEvents interface {
	PublishRecordEvent(ctx context.Context, topic string, rec *model.PublishRecord) (string, error)
}

// CampaignEvents publishes ledger records to a Pub/Sub topic so downstream
// analytics can consume the publish trail.
type CampaignEvents struct {
	PubSubClient *pubsub.Client
}

func NewCampaignEvents(pubSubClient *pubsub.Client) ICampaignEvents {
	return &CampaignEvents{PubSubClient: pubSubClient}
}

func (c *CampaignEvents) PublishRecordEvent(ctx context.Context, topicName string, rec *model.PublishRecord) (string, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}

	topic := c.PubSubClient.Topic(topicName)

	// Create the topic if it doesn't exist.
	exists, err := topic.Exists(ctx)
	if err != nil {
		return "", err
	}
	if !exists {
		log.Printf("Topic %v doesn't exist - creating it", topicName)
		if _, err = c.PubSubClient.CreateTopic(ctx, topicName); err != nil {
			return "", err
		}
	}

	serverId, err := topic.Publish(ctx, &pubsub.Message{Data: payload}).Get(ctx)
	if err != nil {
		return "", err
	}

	logger.GetLogger().WithField("server ID", serverId).Info("Publish record event sent")
	return serverId, nil
}
