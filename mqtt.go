package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// startMQTT connects to the configured broker and subscribes to the uplink
// topic. Messages carry the same JSON body as POST /uplink. Returns the
// connected client so main can disconnect it on shutdown.
func startMQTT(ctx context.Context, logger *slog.Logger, config *Config, sender *Sender) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(config.MQTTBroker).
		SetClientID(config.MQTTClientID).
		SetAutoReconnect(true)
	if config.MQTTUsername != "" {
		opts.SetUsername(config.MQTTUsername)
		opts.SetPassword(config.MQTTPassword)
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect to MQTT broker %s: %w", config.MQTTBroker, token.Error())
	}

	handler := func(_ mqtt.Client, msg mqtt.Message) {
		var req UplinkRequest
		if err := json.Unmarshal(msg.Payload(), &req); err != nil {
			logger.Error("Invalid uplink message", "error", err, "topic", msg.Topic())
			return
		}
		if req.Data == "" {
			logger.Error("Uplink message without data", "topic", msg.Topic())
			return
		}
		if _, err := sender.Enqueue(ctx, []byte(req.Data)); err != nil {
			logger.Error("Failed to send uplink", "error", err, "topic", msg.Topic())
		}
	}

	if token := client.Subscribe(config.MQTTTopic, 1, handler); token.Wait() && token.Error() != nil {
		client.Disconnect(250)
		return nil, fmt.Errorf("subscribe to %s: %w", config.MQTTTopic, token.Error())
	}

	logger.Info("Subscribed to MQTT uplink topic", "broker", config.MQTTBroker, "topic", config.MQTTTopic)
	return client, nil
}
