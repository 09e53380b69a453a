package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

// Топология очереди досинхронизации
const (
	ReconciliationExchange = "reconciliation"
	RepairRoutingKey       = "repair"
	RepairQueue            = "reconciliation.repair"
	RepairDeadQueue        = "reconciliation.repair.dead"
)

type QueueConfig struct {
	QueueName  string
	RoutingKey string
	// DeadLetterQueue получает отклонённые без возврата сообщения. Пусто: не используется.
	DeadLetterQueue string
}

func GetReconciliationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: RepairQueue, RoutingKey: RepairRoutingKey, DeadLetterQueue: RepairDeadQueue},
	}
}

// DeadLetterExchange имя exchange мёртвых писем для exchange.
func DeadLetterExchange(exchange string) string {
	return exchange + ".dlx"
}

// SetupChannel открывает канал, объявляет exchange и привязывает к нему очереди.
func SetupChannel(conn *amqp.Connection, exchange string, queues []QueueConfig) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.Qos(10, 0, false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: failed to set QoS: %w", op, err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, q := range queues {
		var args amqp.Table
		if q.DeadLetterQueue != "" {
			dlx := DeadLetterExchange(exchange)
			if err := declareDeadLetter(ch, dlx, q); err != nil {
				_ = ch.Close()
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			args = amqp.Table{"x-dead-letter-exchange": dlx}
		}

		_, err := ch.QueueDeclare(
			q.QueueName,
			true,
			false,
			false,
			false,
			args,
		)
		if err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("%s: failed to declare queue %s: %w", op, q.QueueName, err)
		}

		err = ch.QueueBind(
			q.QueueName,
			q.RoutingKey,
			exchange,
			false,
			nil,
		)
		if err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("%s: failed to bind queue %s with routing key %s: %w", op, q.QueueName, q.RoutingKey, err)
		}
	}

	return ch, nil
}

// declareDeadLetter объявляет exchange мёртвых писем и привязывает к нему очередь.
// Отклонённое сообщение сохраняет исходный routing key.
func declareDeadLetter(ch *amqp.Channel, dlx string, q QueueConfig) error {
	if err := ch.ExchangeDeclare(dlx, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", dlx, err)
	}
	if _, err := ch.QueueDeclare(q.DeadLetterQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", q.DeadLetterQueue, err)
	}
	if err := ch.QueueBind(q.DeadLetterQueue, q.RoutingKey, dlx, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s to %s: %w", q.DeadLetterQueue, dlx, err)
	}
	return nil
}
