package messaging

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/IBM/sarama"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
)

// partitionByRequest keeps every event for one request on one partition so
// consumers see a request's transitions in commit order.
var partitionByRequest = kafka.NewWithPartitioningMarshaler(func(_ string, msg *message.Message) (string, error) {
	if key := msg.Metadata.Get(metadataPartitionKey); key != "" {
		return key, nil
	}
	return msg.UUID, nil
})

func NewKafkaBus(brokers []string, logger *slog.Logger) (*Bus, error) {
	cleaned := make([]string, 0, len(brokers))
	for _, broker := range brokers {
		if broker = strings.TrimSpace(broker); broker != "" {
			cleaned = append(cleaned, broker)
		}
	}
	if len(cleaned) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	wlogger := watermillLogger(logger)

	publisherConfig := kafka.DefaultSaramaSyncPublisherConfig()
	publisherConfig.Producer.Return.Successes = true
	publisherConfig.Producer.RequiredAcks = sarama.WaitForAll
	publisher, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:               cleaned,
			Marshaler:             partitionByRequest,
			OverwriteSaramaConfig: publisherConfig,
			OTELEnabled:           true,
		},
		wlogger,
	)
	if err != nil {
		return nil, err
	}

	factory := func(consumerGroup string) (message.Subscriber, error) {
		subscriberConfig := kafka.DefaultSaramaSubscriberConfig()
		subscriberConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
		return kafka.NewSubscriber(
			kafka.SubscriberConfig{
				Brokers:               cleaned,
				Unmarshaler:           partitionByRequest,
				OverwriteSaramaConfig: subscriberConfig,
				ConsumerGroup:         consumerGroup,
				OTELEnabled:           true,
			},
			wlogger,
		)
	}
	return newBus(publisher, factory, logger), nil
}
