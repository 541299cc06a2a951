package main

import (
	"context"
	"encoding/json"
	"flag"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/muhammadchandra19/bet-exchange/pkg/kafkalib"
	"github.com/muhammadchandra19/bet-exchange/pkg/logger"
	"github.com/muhammadchandra19/bet-exchange/pkg/redis"
	betv1 "github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/domain/bet/v1"
	"github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/infrastructure/redis/sortedset"
	"github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/usecase/exchange"
	"github.com/segmentio/kafka-go"
)

func main() {
	var (
		brokers     = flag.String("brokers", "localhost:9092", "Kafka broker addresses (comma-separated)")
		topic       = flag.String("topic", "bet-actions", "Kafka action topic name")
		redisAddr   = flag.String("redis", "localhost:6379", "Redis address holding event status")
		file        = flag.String("file", "", "JSON file with action envelopes (optional, generates actions if not provided)")
		delay       = flag.Duration("delay", 100*time.Millisecond, "Delay between sending actions")
		count       = flag.Int("count", 100, "Number of actions to generate")
		eventID     = flag.String("event", "e1", "Event id")
		sport       = flag.String("sport", "NFL", "Sport of the event")
		home        = flag.String("home", "KAN", "Home team abbreviation")
		away        = flag.String("away", "DEN", "Away team abbreviation")
		marketRatio = flag.Float64("market-ratio", 0.2, "Share of market bets")
		cancelRatio = flag.Float64("cancel-ratio", 0.1, "Share of cancels")
		closeEvent  = flag.Bool("close", false, "Close the event after the generated actions")
		seed        = flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	)
	flag.Parse()

	log, err := logger.NewLogger()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	redisConfig := redis.DefaultConfig()
	redisConfig.Addrs = []string{*redisAddr}
	rclient := redis.NewClient(log, redisConfig)
	if err := rclient.Connect(ctx); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "connect_redis"})
		os.Exit(1)
	}
	defer func() { _ = rclient.Disconnect(ctx) }()

	ex := exchange.NewExchange(sortedset.NewStore(rclient), log)
	status := betv1.EventStatus{
		EventID:        *eventID,
		Status:         betv1.EventActive,
		HomeTeamAbbrev: *home,
		AwayTeamAbbrev: *away,
	}
	if err := ex.SetStatus(ctx, status); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "set_event_status"})
		os.Exit(1)
	}
	logBookDepth(ctx, log, ex, *eventID, *home, *away)

	var envelopes []betv1.Envelope
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			log.Error(err, logger.Field{Key: "file", Value: *file})
			os.Exit(1)
		}
		if err := json.Unmarshal(data, &envelopes); err != nil {
			log.Error(err, logger.Field{Key: "file", Value: *file})
			os.Exit(1)
		}
		log.Info("Loaded actions from file", logger.Field{Key: "count", Value: len(envelopes)})
	} else {
		envelopes, err = generateActions(rand.New(rand.NewSource(*seed)), Scenario{
			EventID:     *eventID,
			Sport:       *sport,
			HomeTeam:    *home,
			AwayTeam:    *away,
			Count:       *count,
			MarketRatio: *marketRatio,
			CancelRatio: *cancelRatio,
			Close:       *closeEvent,
		})
		if err != nil {
			log.Error(err, logger.Field{Key: "action", Value: "generate_actions"})
			os.Exit(1)
		}
		log.Info("Generated actions", logger.Field{Key: "count", Value: len(envelopes)}, logger.Field{Key: "seed", Value: *seed})
	}

	writer := kafkalib.NewWriter(strings.Split(*brokers, ","), *topic, 0)
	defer writer.Close()

	sent := make(map[betv1.ActionKind]int)
	for i, envelope := range envelopes {
		data, err := json.Marshal(envelope)
		if err != nil {
			log.Error(err, logger.Field{Key: "index", Value: i})
			continue
		}

		msg := kafka.Message{
			Key:   []byte(*eventID),
			Value: data,
			Time:  time.Now(),
		}
		if err := writer.WriteMessages(ctx, msg); err != nil {
			log.Error(err, logger.Field{Key: "index", Value: i}, logger.Field{Key: "kind", Value: envelope.Action})
			continue
		}
		sent[envelope.Action]++

		if (i+1)%100 == 0 || i == len(envelopes)-1 {
			log.Info("Sent actions", logger.Field{Key: "sent", Value: i + 1}, logger.Field{Key: "total", Value: len(envelopes)})
		}

		if i < len(envelopes)-1 {
			time.Sleep(*delay)
		}
	}

	for kind, n := range sent {
		log.Info("Summary", logger.Field{Key: "kind", Value: kind}, logger.Field{Key: "count", Value: n})
	}
	logBookDepth(ctx, log, ex, *eventID, *home, *away)
}

// logBookDepth reports how many orders rest on each book of the event. The
// engine consumes asynchronously, so this is a snapshot of its progress.
func logBookDepth(ctx context.Context, log logger.Interface, ex *exchange.Exchange, eventID string, teams ...string) {
	for _, team := range teams {
		depth, err := ex.BookDepth(ctx, eventID, team)
		if err != nil {
			log.Error(err, logger.Field{Key: "team", Value: team})
			continue
		}
		log.Info("Book depth", logger.Field{Key: "event_id", Value: eventID}, logger.Field{Key: "team", Value: team}, logger.Field{Key: "depth", Value: depth})
	}
}
