package messaging

import (
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// NewGoChannelBus keeps everything in process. Every consumer group sees
// every message, which is what single-binary development needs.
func NewGoChannelBus(logger *slog.Logger) *Bus {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            256,
			Persistent:                     false,
			BlockPublishUntilSubscriberAck: false,
		},
		watermillLogger(logger),
	)
	return newBus(pubSub, func(string) (message.Subscriber, error) {
		return sharedSubscriber{pubSub}, nil
	}, logger)
}

// sharedSubscriber lets several subscriptions reuse one GoChannel without
// Bus.Close closing it more than once.
type sharedSubscriber struct {
	*gochannel.GoChannel
}

func (sharedSubscriber) Close() error {
	return nil
}
