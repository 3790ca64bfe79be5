//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	id "fundops/pkg/domain"
	audit "fundops/pkg/platform/audit"
	"fundops/pkg/platform/audit/store/kafka"
	"fundops/pkg/testutil/containers"
)

type KafkaStoreSuite struct {
	suite.Suite
	broker *containers.RedpandaContainer
	store  *kafka.Store
	topic  string
}

func TestKafkaStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaStoreSuite))
}

func (s *KafkaStoreSuite) SetupSuite() {
	s.broker = containers.GetManager().GetRedpanda(s.T())
	s.topic = "fundops.audit.test"

	store, err := kafka.New([]string{s.broker.SeedBroker}, s.topic)
	s.Require().NoError(err)
	s.store = store
	s.Require().NoError(s.store.EnsureTopic(context.Background(), 1, 1))
}

func (s *KafkaStoreSuite) TearDownSuite() {
	if s.store != nil {
		s.store.Close()
	}
}

func (s *KafkaStoreSuite) TestAppendProducesRecord() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	actor := id.NewIdentityID()
	s.Require().NoError(s.store.Append(ctx, audit.Event{
		Timestamp: time.Now(),
		ActorID:   actor,
		Subject:   "fund-alpha",
		Action:    string(audit.EventFundCreated),
	}))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.broker.SeedBroker),
		kgo.ConsumeTopics(s.topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	s.Require().Empty(fetches.Errors())

	var got map[string]any
	fetches.EachRecord(func(r *kgo.Record) {
		if string(r.Key) == "fund-alpha" {
			s.Require().NoError(json.Unmarshal(r.Value, &got))
		}
	})
	s.Require().NotNil(got)
	s.Equal("compliance", got["category"])
	s.Equal(actor.String(), got["actor_id"])
}

func (s *KafkaStoreSuite) TestEnsureTopicIsIdempotent() {
	s.Require().NoError(s.store.EnsureTopic(context.Background(), 1, 1))
}
