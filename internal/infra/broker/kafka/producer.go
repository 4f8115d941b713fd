// Package kafka produces resolved pending transactions to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gabapcia/poolhistory/internal/mempool"

	"github.com/IBM/sarama"
)

const clientID = "poolhistory"

type producer struct {
	topic string
	sp    sarama.SyncProducer
}

var _ mempool.TransactionNotifier = (*producer)(nil)

// NotifyTransaction sends tx to the topic, keyed by hash, and waits for the
// broker acknowledgement.
func (p *producer) NotifyTransaction(ctx context.Context, tx mempool.TimedTransaction) error {
	// SyncProducer does not take a context
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(tx)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic:     p.topic,
		Key:       sarama.StringEncoder(tx.Hash),
		Value:     sarama.ByteEncoder(payload),
		Timestamp: tx.Timestamp,
	}

	if _, _, err := p.sp.SendMessage(msg); err != nil {
		return fmt.Errorf("produce transaction %s to %s: %w", tx.Hash, p.topic, err)
	}

	return nil
}

func (p *producer) Close() error {
	return p.sp.Close()
}

// NewConfig returns the producer configuration: acknowledgement from all
// in-sync replicas and a bounded number of retries.
func NewConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.ClientID = clientID
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Retry.Backoff = 200 * time.Millisecond
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	return cfg
}

func newProducer(sp sarama.SyncProducer, topic string) *producer {
	return &producer{
		topic: topic,
		sp:    sp,
	}
}

// NewProducer connects to brokers and returns a notifier writing to topic.
func NewProducer(brokers []string, topic string) (*producer, error) {
	sp, err := sarama.NewSyncProducer(brokers, NewConfig())
	if err != nil {
		return nil, err
	}

	return newProducer(sp, topic), nil
}
