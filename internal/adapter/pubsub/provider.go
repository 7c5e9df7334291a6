package pubsub

import (
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/v3/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/webitel/screens-rating/config"
)

// Provider owns the publisher/subscriber pair of the configured bus driver.
type Provider interface {
	Publisher() message.Publisher
	Subscriber() message.Subscriber
	Close() error
}

type provider struct {
	publisher  message.Publisher
	subscriber message.Subscriber
}

func (p *provider) Publisher() message.Publisher   { return p.publisher }
func (p *provider) Subscriber() message.Subscriber { return p.subscriber }

func (p *provider) Close() error {
	errPub := p.publisher.Close()
	// gochannel serves both roles; closing twice is a no-op there.
	errSub := p.subscriber.Close()
	return errors.Join(errPub, errSub)
}

// NewProvider builds the bus for the configured driver.
//
// [gochannel] in-process fan-out, the default for a single node.
// [amqp] durable fan-out exchange per topic; every node binds its own queue,
// so each node receives every result and its hub keeps only local identities.
func NewProvider(cfg *config.Config, logger watermill.LoggerAdapter) (Provider, error) {
	switch cfg.PubSub.Driver {
	case config.PubSubDriverGoChannel:
		return NewGoChannelProvider(cfg.PubSub.Buffer, logger), nil
	case config.PubSubDriverAMQP:
		return newAMQPProvider(cfg, logger)
	default:
		return nil, fmt.Errorf("pubsub: unknown driver %q", cfg.PubSub.Driver)
	}
}

func NewGoChannelProvider(buffer int64, logger watermill.LoggerAdapter) Provider {
	ch := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: buffer,
	}, logger)
	return &provider{publisher: ch, subscriber: ch}
}

func newAMQPProvider(cfg *config.Config, logger watermill.LoggerAdapter) (Provider, error) {
	// [UNIQUE_NODE_QUEUE] screens-rating.<topic>.<instance>
	instanceID := uuid.NewString()[:8]
	queueName := func(topic string) string {
		return fmt.Sprintf("%s.%s.%s", cfg.PubSub.QueuePrefix, topic, instanceID)
	}

	amqpCfg := amqp.NewDurablePubSubConfig(cfg.PubSub.AMQPURL, queueName)
	amqpCfg.Exchange.GenerateName = func(topic string) string {
		return fmt.Sprintf("%s.%s", cfg.PubSub.Exchange, topic)
	}

	pub, err := amqp.NewPublisher(amqpCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("pubsub: amqp publisher: %w", err)
	}
	sub, err := amqp.NewSubscriber(amqpCfg, logger)
	if err != nil {
		_ = pub.Close()
		return nil, fmt.Errorf("pubsub: amqp subscriber: %w", err)
	}
	return &provider{publisher: pub, subscriber: sub}, nil
}
