package kafkaqueue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/maman/internal/crawler"
)

type MockWriter struct {
	mock.Mock
}

func (m *MockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockWriter) Close() error {
	return m.Called().Error(0)
}

func TestProducerPush(t *testing.T) {
	t.Parallel()

	writer := new(MockWriter)
	prod := NewProducerWithWriter(writer)
	job := crawler.Job{
		Class: "Maman",
		Args:  []crawler.PageObject{{URL: "http://example.com/", Headers: map[string]string{}, URLs: []string{}}},
		Retry: crawler.DefaultRetry,
		Queue: "maman",
		JID:   "0123456789abcdef01234567",
	}

	writer.On("WriteMessages", mock.Anything, mock.MatchedBy(func(msgs []kafka.Message) bool {
		if len(msgs) != 1 || string(msgs[0].Key) != job.JID {
			return false
		}
		var got crawler.Job
		if err := json.Unmarshal(msgs[0].Value, &got); err != nil {
			return false
		}
		return got.JID == job.JID && got.Class == "Maman" && len(got.Args) == 1
	})).Return(nil).Once()

	require.NoError(t, prod.Push(context.Background(), job))
	writer.AssertExpectations(t)
}

func TestProducerPushError(t *testing.T) {
	t.Parallel()

	writer := new(MockWriter)
	prod := NewProducerWithWriter(writer)
	writer.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("write failed"))

	err := prod.Push(context.Background(), crawler.Job{JID: "jid-err"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jid-err")
}

func TestProducerClose(t *testing.T) {
	t.Parallel()

	writer := new(MockWriter)
	writer.On("Close").Return(nil).Once()
	require.NoError(t, NewProducerWithWriter(writer).Close())
	writer.AssertExpectations(t)
}
