//go:build integration

package checklog

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	platformkafka "github.com/thegreenwebfoundation/admin-portal-sub000/internal/platform/kafka"
	"github.com/thegreenwebfoundation/admin-portal-sub000/pkg/testutil/containers"
)

type KafkaSinkSuite struct {
	suite.Suite
	container *containers.KafkaContainer
	producer  *kgo.Client
	ctx       context.Context
}

func (s *KafkaSinkSuite) SetupSuite() {
	s.container = containers.GetManager().GetKafka(s.T())
	s.ctx = context.Background()

	producer, err := platformkafka.New([]string{s.container.Broker})
	s.Require().NoError(err)
	s.producer = producer
}

func (s *KafkaSinkSuite) TearDownSuite() {
	if s.producer != nil {
		s.producer.Close()
	}
}

func TestKafkaSinkSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaSinkSuite))
}

// newTopic creates an isolated topic per test so suites never see each
// other's records.
func (s *KafkaSinkSuite) newTopic(partitions int32) string {
	name := strings.ReplaceAll(s.T().Name(), "/", "-")
	topic := "green-checks-" + name + "-" + time.Now().Format("150405.000000000")
	s.Require().NoError(platformkafka.EnsureTopic(s.ctx, s.producer, topic, partitions))
	return topic
}

// drain reads records from topic until count arrive or the deadline passes.
func (s *KafkaSinkSuite) drain(topic string, count int) []*kgo.Record {
	consumer := s.container.NewConsumer(s.T(), topic)
	defer consumer.Close()

	var records []*kgo.Record
	deadline := time.Now().Add(15 * time.Second)
	for len(records) < count && time.Now().Before(deadline) {
		ctx, cancel := context.WithTimeout(s.ctx, time.Second)
		fetches := consumer.PollFetches(ctx)
		cancel()
		fetches.EachRecord(func(record *kgo.Record) {
			records = append(records, record)
		})
	}
	s.Require().Len(records, count)
	return records
}

func (s *KafkaSinkSuite) TestWriteProducesKeyedJSON() {
	topic := s.newTopic(1)
	sink := NewKafkaSink(s.producer, topic)

	event := Event{
		URL:       "https://example.com/page",
		Domain:    "example.com",
		IP:        "192.0.2.10",
		Green:     true,
		MatchType: "ip",
		CheckedAt: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
		RequestID: "req-42",
	}
	s.Require().NoError(sink.Write(s.ctx, event))

	record := s.drain(topic, 1)[0]
	s.Equal("example.com", string(record.Key), "records are keyed by domain")

	var got Event
	s.Require().NoError(json.Unmarshal(record.Value, &got))
	s.Equal(event.URL, got.URL)
	s.True(got.Green)
	s.Equal("ip", got.MatchType)
	s.Equal("req-42", got.RequestID)
	s.True(event.CheckedAt.Equal(got.CheckedAt))
}

func (s *KafkaSinkSuite) TestSameDomainSharesPartition() {
	topic := s.newTopic(3)
	sink := NewKafkaSink(s.producer, topic)

	for i := range 4 {
		s.Require().NoError(sink.Write(s.ctx, Event{
			Domain:    "example.com",
			MatchType: "none",
			RequestID: string(rune('a' + i)),
		}))
	}

	records := s.drain(topic, 4)
	partition := records[0].Partition
	for _, record := range records[1:] {
		s.Equal(partition, record.Partition)
	}
	s.Less(records[0].Offset, records[3].Offset, "domain ordering is preserved")
}

func (s *KafkaSinkSuite) TestWorkerDrainsToBroker() {
	topic := s.newTopic(1)
	sink := NewKafkaSink(s.producer, topic)

	publisher := NewPublisher(16, nil)
	worker := NewWorker(publisher.Inbox(), sink, NewCircuitBreaker(5, time.Minute), nil)

	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = worker.Run(ctx)
	}()

	for _, domain := range []string{"a.example.com", "b.example.com", "c.example.com"} {
		publisher.Publish(s.ctx, Event{Domain: domain, MatchType: "none"})
	}

	records := s.drain(topic, 3)
	cancel()
	<-done

	domains := make([]string, 0, len(records))
	for _, record := range records {
		domains = append(domains, string(record.Key))
	}
	s.ElementsMatch([]string{"a.example.com", "b.example.com", "c.example.com"}, domains)
}
