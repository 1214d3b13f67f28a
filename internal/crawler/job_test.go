package crawler

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobBuilderWireShape(t *testing.T) {
	t.Parallel()

	input := "<html><body><a href='/todo#new' /><a href='/new' /></html>"
	headers := map[string]string{"content-type": "text/html"}
	page := ReadPage(NewPage(mustURL(t, "http://example.net/"), input, headers, "200 OK"), input)

	job, err := NewJobBuilder(&sequenceIDs{}, fixedClock(testNow)).Build(page)
	require.NoError(t, err)

	assert.Equal(t, "Maman", job.Class)
	assert.Equal(t, 25, job.Retry)
	assert.Equal(t, "maman", job.Queue)
	assert.Equal(t, "jid-1", job.JID)
	assert.Equal(t, testNow.Unix(), job.CreatedAt)
	assert.Equal(t, job.CreatedAt, job.EnqueuedAt)
	require.Len(t, job.Args, 1)
	assert.Equal(t, page.Object(), job.Args[0])

	raw, err := json.Marshal(job)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	keys := make([]string, 0, len(decoded))
	for k := range decoded {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"class", "args", "retry", "queue", "jid", "created_at", "enqueued_at"}, keys)

	args, ok := decoded["args"].([]any)
	require.True(t, ok)
	require.Len(t, args, 1)
	obj, ok := args[0].(map[string]any)
	require.True(t, ok)
	assert.Len(t, obj, 5)
	assert.Equal(t, "http://example.net/", obj["url"])
	assert.Equal(t, input, obj["document"])
	assert.Equal(t, map[string]any{"content-type": "text/html"}, obj["headers"])
	assert.Equal(t, "200 OK", obj["status"])
	assert.Equal(t, []any{"http://example.net/todo", "http://example.net/new"}, obj["urls"])
}

func TestJobBuilderEmptyCollectionsSerializeAsEmpty(t *testing.T) {
	t.Parallel()

	page := NewPage(mustURL(t, "http://example.net/"), "", nil, "304 Not Modified")
	job, err := NewJobBuilder(&sequenceIDs{}, fixedClock(testNow)).Build(page)
	require.NoError(t, err)

	raw, err := json.Marshal(job.Args[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"url":"http://example.net/","document":"","headers":{},"status":"304 Not Modified","urls":[]}`, string(raw))
}

func TestJobBuilderIDFailure(t *testing.T) {
	t.Parallel()

	page := NewPage(mustURL(t, "http://example.net/"), "", nil, "200 OK")
	_, err := NewJobBuilder(failingIDs{}, fixedClock(testNow)).Build(page)
	require.ErrorContains(t, err, "entropy exhausted")
}

func TestQueueNames(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "maman", QueueName())
	assert.Equal(t, "test:queue:maman", RedisQueueName("test"))
	assert.Equal(t, "queue:maman", RedisQueueName(""))
	assert.Equal(t, "development:queues", NamespacedKey("development", "queues"))
}
