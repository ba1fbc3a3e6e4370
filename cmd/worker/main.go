package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/recallhq/videoindex/internal/chat"
	"github.com/recallhq/videoindex/internal/config"
	"github.com/recallhq/videoindex/internal/db"
	"github.com/recallhq/videoindex/internal/events"
)

func workerConcurrency() int {
	v := os.Getenv("WORKER_CONCURRENCY")
	if v == "" {
		return 2
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 2
	}
	if n > 50 {
		return 50
	}
	return n
}

func main() {
	cfg := config.Load()

	gdb := db.Connect(cfg.DBDSN)
	if err := gdb.AutoMigrate(&chat.ArchivedExchange{}); err != nil {
		log.Fatalf("automigrate: %v", err)
	}
	repo := chat.NewArchiveRepo(gdb)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("rabbit dial: %v", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("rabbit channel: %v", err)
	}
	defer ch.Close()

	// Main queue dead-letters to the DLQ; topology matches the publisher.
	_, err = ch.QueueDeclare(cfg.RabbitQueue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": cfg.RabbitQueue + ".dlq",
	})
	if err != nil {
		log.Fatalf("queue declare: %v", err)
	}

	concurrency := workerConcurrency()

	if err := ch.Qos(concurrency, 0, false); err != nil {
		log.Fatalf("qos: %v", err)
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("archive worker started, queue=%s concurrency=%d", cfg.RabbitQueue, concurrency)

	// worker pool
	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				var ev events.ExchangeEvent
				if err := json.Unmarshal(d.Body, &ev); err != nil || ev.SessionID == "" {
					log.Printf("worker=%d bad message: %v", workerID, err)
					_ = d.Nack(false, false)
					continue
				}

				start := time.Now()
				if err := archiveExchange(ctx, repo, ev); err != nil {
					log.Printf("worker=%d archive session=%s failed cost=%s err=%v", workerID, ev.SessionID, time.Since(start), err)
					_ = d.Nack(false, false)
					continue
				}

				if err := d.Ack(false); err != nil {
					log.Printf("worker=%d ack failed session=%s err=%v", workerID, ev.SessionID, err)
				}
			}
		}(i)
	}

	// dispatcher
	for {
		select {
		case <-ctx.Done():
			log.Printf("worker shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				log.Printf("delivery channel closed")
				time.Sleep(1 * time.Second)
				return
			}
			jobs <- d
		}
	}
}

func archiveExchange(ctx context.Context, repo *chat.ArchiveRepo, ev events.ExchangeEvent) error {
	answeredAt := ev.AnsweredAt
	if answeredAt.IsZero() {
		answeredAt = time.Now()
	}
	return repo.Insert(ctx, &chat.ArchivedExchange{
		SessionID:       ev.SessionID,
		KnowledgeBaseID: ev.KnowledgeBaseID,
		Query:           ev.Query,
		Response:        ev.Response,
		VideoPath:       ev.VideoPath,
		StartTime:       ev.StartTime,
		AnsweredAt:      answeredAt,
	})
}
