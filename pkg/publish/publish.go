// Package publish pushes realtime snapshots to an MQTT broker when one is
// configured.
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/levenlabs/go-lflag"

	"github.com/luxbridge/luxbridge/pkg/log"
)

const publishTimeout = 5 * time.Second

// Publisher sends payloads to a single MQTT topic. The zero value is a
// disabled publisher that drops everything.
type Publisher struct {
	client mqtt.Client
	topic  string
}

// Configured sets up the Publisher based on flags. Leaving the broker unset
// disables publishing entirely.
func Configured() *Publisher {
	broker := lflag.String("mqtt-host", "", "MQTT broker address (tcp://host:port), empty disables publishing")
	username := lflag.String("mqtt-username", "", "MQTT username")
	password := lflag.String("mqtt-password", "", "MQTT password")
	topic := lflag.String("mqtt-topic", "luxbridge/realtime", "MQTT topic realtime snapshots are published to")

	p := new(Publisher)

	lflag.Do(func() {
		p.topic = *topic
		if *broker == "" {
			log.Ctx(context.Background()).Info("mqtt publishing disabled, no broker configured")
			return
		}

		opts := mqtt.NewClientOptions().
			AddBroker(*broker).
			SetUsername(*username).
			SetPassword(*password).
			SetKeepAlive(2 * time.Second).
			SetPingTimeout(1 * time.Second)

		client := mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			panic(fmt.Sprintf("failed to connect to mqtt broker: %v", token.Error()))
		}
		log.Ctx(context.Background()).Info("connected to mqtt broker", slog.String("broker", *broker))

		p.client = client
	})

	return p
}

// Enabled reports whether a broker connection exists.
func (p *Publisher) Enabled() bool {
	return p.client != nil
}

// Publish sends the payload and waits briefly for the broker's ack. Failures
// are logged, not returned: a down broker should never break polling.
func (p *Publisher) Publish(ctx context.Context, payload []byte) {
	if p.client == nil {
		return
	}

	token := p.client.Publish(p.topic, 0, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		log.Ctx(ctx).ErrorContext(ctx, "timed out publishing to mqtt", slog.String("topic", p.topic))
	} else if token.Error() != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to publish to mqtt", slog.String("topic", p.topic), slog.Any("error", token.Error()))
	}
}

// Close disconnects from the broker. Safe on a disabled publisher.
func (p *Publisher) Close() {
	if p.client == nil {
		return
	}
	p.client.Disconnect(250)
}
