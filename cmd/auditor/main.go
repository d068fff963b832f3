package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/levijcl/Wei-sub002/internal/audit"
	"github.com/levijcl/Wei-sub002/internal/domain/event"
	"github.com/levijcl/Wei-sub002/internal/infrastructure/kafka"
	"github.com/levijcl/Wei-sub002/internal/infrastructure/store"
)

// The auditor tails the event stream and archives every event into the
// DynamoDB audit table. It is a second, independent copy of the trail the
// worker writes to PostgreSQL; either store can rebuild an investigation.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kafkaBrokers := strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ",")
	kafkaTopic := getEnv("KAFKA_TOPIC", "fulfillment-events")
	groupID := getEnv("KAFKA_GROUP_ID", "audit-archiver")
	tableName := getEnv("DYNAMODB_AUDIT_TABLE", "fulfillment-audit")

	log.Println("[Auditor] ========================================")
	log.Println("[Auditor] Audit Archiver")
	log.Println("[Auditor] ========================================")
	log.Printf("[Auditor] Kafka: %v topic %s group %s", kafkaBrokers, kafkaTopic, groupID)
	log.Printf("[Auditor] DynamoDB table: %s", tableName)

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.Fatalf("[Auditor] Failed to load AWS config: %v", err)
	}
	auditStore := store.NewDynamoAuditStore(dynamodb.NewFromConfig(cfg), tableName)
	pipeline := audit.NewPipeline(auditStore)

	consumer := kafka.NewConsumer(kafkaBrokers, kafkaTopic, groupID)
	defer consumer.Close()

	go func() {
		err := consumer.Consume(ctx, func(ctx context.Context, key, value []byte) error {
			var env event.Envelope
			if err := json.Unmarshal(value, &env); err != nil {
				log.Printf("[Auditor] Skipping undecodable message (key %s): %v", key, err)
				return nil
			}
			return pipeline.Handle(ctx, env, nil)
		})
		if err != nil && ctx.Err() == nil {
			log.Fatalf("[Auditor] Consumer error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[Auditor] Shutting down...")
	cancel()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
