package servicebus

import (
	"context"
	"encoding/json"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"

	"crossposter/domain/model"
	"crossposter/infrastructure/logger"
)

type ICrosspostEvents interface {
	SendOutcome(ctx context.Context, entry *model.CrosspostAudit) error
}

// CrosspostEvents mirrors crosspost outcomes onto an Azure Service Bus
// queue. Nil client makes every send a logged no-op.
type CrosspostEvents struct {
	AzservicebusClient *azservicebus.Client
	Queue              string
}

func NewCrosspostEvents(azServiceBusClient *azservicebus.Client, queue string) ICrosspostEvents {
	return &CrosspostEvents{AzservicebusClient: azServiceBusClient, Queue: queue}
}

func (e *CrosspostEvents) SendOutcome(ctx context.Context, entry *model.CrosspostAudit) error {
	if e.AzservicebusClient == nil {
		logger.GetLogger().Debug("Service Bus client is nil - skipping event send")
		return nil
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	sender, err := e.AzservicebusClient.NewSender(e.Queue, nil)
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
	}(sender, ctx)

	if err := sender.SendMessage(ctx, &azservicebus.Message{Body: payload}, nil); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while sending message.")
		return err
	}
	return nil
}
