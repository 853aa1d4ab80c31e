package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbilibin2017/gw-home-inventory/internal/models"
)

func TestKafkaEventPublisher_Publish(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockKafka := NewMockKafkaWriter(ctrl)
	publisher := NewKafkaEventPublisher(mockKafka)

	mockKafka.EXPECT().
		WriteMessages(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, msgs ...kafka.Message) error {
			require.Len(t, msgs, 1)
			assert.Equal(t, []byte(userID.String()), msgs[0].Key)

			var event models.Event
			require.NoError(t, json.Unmarshal(msgs[0].Value, &event))
			assert.Equal(t, models.EventUserRegistered, event.Type)
			assert.Equal(t, userID.String(), event.UserID)
			assert.Equal(t, "alice01", event.Data["username"])
			assert.NotEmpty(t, event.EventID)
			assert.NotZero(t, event.Timestamp)
			return nil
		})
	publisher.Publish(ctx, models.EventUserRegistered, userID, userID.String(), map[string]string{"username": "alice01"})

	// Write failures are swallowed
	mockKafka.EXPECT().WriteMessages(ctx, gomock.Any()).Return(errors.New("kafka error"))
	publisher.Publish(ctx, models.EventUserDeleted, userID, userID.String(), nil)

	// Nil publishers must not panic
	var nilPublisher *KafkaEventPublisher
	nilPublisher.Publish(ctx, models.EventUserDeleted, userID, userID.String(), nil)
	NewKafkaEventPublisher(nil).Publish(ctx, models.EventUserDeleted, userID, userID.String(), nil)
}

func TestConsumeEvents(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := NewMockKafkaReader(ctrl)

	good, _ := json.Marshal(models.Event{EventID: "e1", Type: models.EventUserDeleted, UserID: uuid.NewString()})
	failing, _ := json.Marshal(models.Event{EventID: "e2", Type: models.EventUserDeleted})
	msgs := []kafka.Message{
		{Offset: 1, Value: good},
		{Offset: 2, Value: []byte("not json")},
		{Offset: 3, Value: failing},
	}

	var handled []string
	handler := func(_ context.Context, event models.Event) error {
		handled = append(handled, event.EventID)
		if event.EventID == "e2" {
			return errors.New("handler error")
		}
		return nil
	}

	gomock.InOrder(
		reader.EXPECT().FetchMessage(gomock.Any()).Return(msgs[0], nil),
		reader.EXPECT().CommitMessages(gomock.Any(), msgs[0]).Return(nil),
		reader.EXPECT().FetchMessage(gomock.Any()).Return(msgs[1], nil),
		reader.EXPECT().CommitMessages(gomock.Any(), msgs[1]).Return(nil),
		reader.EXPECT().FetchMessage(gomock.Any()).Return(msgs[2], nil),
		reader.EXPECT().CommitMessages(gomock.Any(), msgs[2]).Return(nil),
		reader.EXPECT().FetchMessage(gomock.Any()).DoAndReturn(func(context.Context) (kafka.Message, error) {
			cancel()
			return kafka.Message{}, context.Canceled
		}),
	)

	assert.NoError(t, ConsumeEvents(ctx, reader, handler))
	assert.Equal(t, []string{"e1", "e2"}, handled)
}

func TestConsumeEvents_FetchError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	reader := NewMockKafkaReader(ctrl)
	reader.EXPECT().FetchMessage(gomock.Any()).Return(kafka.Message{}, errors.New("broker gone"))

	err := ConsumeEvents(context.Background(), reader, func(context.Context, models.Event) error { return nil })
	assert.EqualError(t, err, "broker gone")
}
