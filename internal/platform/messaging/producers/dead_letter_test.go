package producers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDLQProducer_PublishToDLQ(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2019, 8, 1, 12, 0, 0, 0, time.UTC)

	newProducer := func(w KafkaWriter) *DLQProducer {
		return &DLQProducer{
			logger:      newTestLogger(),
			writer:      w,
			dlqTopic:    "ledger_commands_dlq",
			sourceTopic: "ledger_commands",
			now:         func() time.Time { return fixed },
		}
	}

	t.Run("SuccessfulPublishToDLQ", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := newProducer(mockWriter)
		original := []byte(`{"type":`)

		mockWriter.On("WriteMessages", ctx, mock.MatchedBy(func(msgs []kafka.Message) bool {
			if len(msgs) != 1 {
				return false
			}
			var letter DeadLetter
			if err := json.Unmarshal(msgs[0].Value, &letter); err != nil {
				return false
			}
			return string(msgs[0].Key) == "acct" &&
				letter.OriginalValue == string(original) &&
				letter.SourceTopic == "ledger_commands" &&
				letter.Reason == "undecodable" &&
				letter.Timestamp == fixed.Format(time.RFC3339Nano) &&
				header(msgs[0], HeaderDLQReason) == "undecodable"
		})).Return(nil).Once()

		require.NoError(t, producer.PublishToDLQ(ctx, "acct", original, "undecodable"))
		mockWriter.AssertExpectations(t)
	})

	t.Run("WriterError", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := newProducer(mockWriter)
		writerErr := errors.New("kafka DLQ write error")
		mockWriter.On("WriteMessages", ctx, mock.AnythingOfType("[]kafka.Message")).Return(writerErr).Once()

		err := producer.PublishToDLQ(ctx, "k", []byte("v"), "r")
		assert.ErrorIs(t, err, writerErr)
	})

	t.Run("Disabled", func(t *testing.T) {
		var producer *DLQProducer
		assert.ErrorIs(t, producer.PublishToDLQ(ctx, "k", []byte("v"), "r"), ErrDLQDisabled)
		assert.NoError(t, producer.Close())
	})
}

func TestDLQProducer_Close(t *testing.T) {
	mockWriter := new(MockKafkaWriter)
	producer := &DLQProducer{logger: newTestLogger(), writer: mockWriter, dlqTopic: "dlq"}
	mockWriter.On("Close").Return(nil).Once()

	require.NoError(t, producer.Close())
	mockWriter.AssertExpectations(t)
}
