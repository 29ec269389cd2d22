package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"amazon-search-service/internal/constants"
	"amazon-search-service/internal/contextkeys"
	"amazon-search-service/internal/core/domain"
	"amazon-search-service/internal/core/port"
	"amazon-search-service/pkg/rabbitmq/rabbitmq_producer"

	amqp "github.com/rabbitmq/amqp091-go"
)

// SearchCompletedEventDTO - контракт события о завершенном поиске.
// Наружу уходит только сводка: сами записи процесс не покидают.
type SearchCompletedEventDTO struct {
	Query        string    `json:"query"`
	Pages        int       `json:"pages"`
	PagesFailed  int       `json:"pages_failed"`
	RecordsFound int       `json:"records_found"`
	DurationMS   int64     `json:"duration_ms"`
	CompletedAt  time.Time `json:"completed_at"`
}

// RabbitMQSearchReporterAdapter для отправки сводок о завершенных поисках
type RabbitMQSearchReporterAdapter struct {
	producer   *rabbitmq_producer.Publisher
	routingKey string
}

// NewRabbitMQSearchReporterAdapter создает новый экземпляр
func NewRabbitMQSearchReporterAdapter(producer *rabbitmq_producer.Publisher, routingKey string) (*RabbitMQSearchReporterAdapter, error) {
	if producer == nil {
		return nil, fmt.Errorf("producer cannot be nil")
	}
	if routingKey == "" {
		return nil, fmt.Errorf("routingKey cannot be empty")
	}

	return &RabbitMQSearchReporterAdapter{
		producer:   producer,
		routingKey: routingKey,
	}, nil
}

// ReportCompleted отправляет сводку завершенного поиска в очередь
func (a *RabbitMQSearchReporterAdapter) ReportCompleted(ctx context.Context, stats *domain.SearchRunStats) error {

	logger := contextkeys.LoggerFromContext(ctx)
	adapterLogger := logger.WithFields(port.Fields{
		"component":   "RabbitMQSearchReporterAdapter",
		"routing_key": a.routingKey,
	})

	eventDTO := SearchCompletedEventDTO{
		Query:        stats.Query,
		Pages:        stats.Pages,
		PagesFailed:  stats.PagesFailed,
		RecordsFound: stats.RecordsFound,
		DurationMS:   stats.DurationMS,
		CompletedAt:  time.Now().UTC(),
	}

	eventJSON, err := json.Marshal(eventDTO)
	if err != nil {
		adapterLogger.Error("Failed to marshal search summary to JSON", err, nil)
		return fmt.Errorf("failed to marshal search summary for query '%s': %w", stats.Query, err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         eventJSON,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Headers: amqp.Table{
			"event-type":    constants.EventTypeSearchCompleted,
			"event-version": constants.EventVersion,
		},
	}

	traceID := contextkeys.TraceIDFromContext(ctx)
	if traceID != "" {
		msg.Headers["x-trace-id"] = traceID
	}

	publishCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err = a.producer.Publish(publishCtx, a.routingKey, msg)
	if err != nil {
		adapterLogger.Error("Failed to publish search summary", err, nil)
		return err
	}

	adapterLogger.Info("Successfully published search summary", port.Fields{"records_found": stats.RecordsFound})
	return nil
}
