package servicebus

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"

	"my-campaign/infrastructure/logger"
)

type ICampaignNotifier interface {
	SendMessage(message []byte) error
}

// CampaignNotifier forwards campaign run summaries to an Azure Service Bus
// queue consumed by the notification workers.
type CampaignNotifier struct {
	AzservicebusClient *azservicebus.Client
	Queue              string
}

func NewCampaignNotifier(azServiceBusClient *azservicebus.Client, queue string) ICampaignNotifier {
	return &CampaignNotifier{AzservicebusClient: azServiceBusClient, Queue: queue}
}

func (n *CampaignNotifier) SendMessage(message []byte) error {
	sender, err := n.AzservicebusClient.NewSender(n.Queue, nil)
	if err != nil {
		logger.GetLogger().
			WithField("error", err).
			Error("Error while making new sender service bus.")
		return err
	}
	defer func(sender *azservicebus.Sender, ctx context.Context) {
		if err := sender.Close(ctx); err != nil {
			logger.GetLogger().
				WithField("error", err).
				Error("Error while closing sender.")
		}
	}(sender, context.Background())

	sbMessage := &azservicebus.Message{Body: message}
	if err := sender.SendMessage(context.Background(), sbMessage, nil); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while sending message.")
		return err
	}
	return nil
}
