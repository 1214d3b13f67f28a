package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/maman/internal/crawler"
)

func TestQueuePushRecordsInOrder(t *testing.T) {
	t.Parallel()

	q := NewQueue(nil)
	for _, jid := range []string{"a", "b", "c"} {
		require.NoError(t, q.Push(context.Background(), crawler.Job{
			JID:  jid,
			Args: []crawler.PageObject{{URL: "http://example.com/" + jid}},
		}))
	}

	jobs := q.Jobs()
	require.Len(t, jobs, 3)
	assert.Equal(t, "a", jobs[0].JID)
	assert.Equal(t, "c", jobs[2].JID)

	jobs[0].JID = "mutated"
	assert.Equal(t, "a", q.Jobs()[0].JID)
}

func TestQueuePushErrors(t *testing.T) {
	t.Parallel()

	q := NewQueue(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := q.Push(ctx, crawler.Job{JID: "x"})
	require.Error(t, err)
	assert.Equal(t, "push canceled: context canceled", err.Error())

	require.NoError(t, q.Close())
	require.Error(t, q.Push(context.Background(), crawler.Job{JID: "y"}))
	assert.Empty(t, q.Jobs())
}
