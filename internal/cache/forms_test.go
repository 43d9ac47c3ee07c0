package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"formrelay/backend/internal/repository"
	"formrelay/backend/pkg/models"
)

type memoryForms struct {
	mu    sync.Mutex
	forms map[string]models.Form
	gets  int
}

func newMemoryForms(forms ...models.Form) *memoryForms {
	m := &memoryForms{forms: map[string]models.Form{}}
	for _, f := range forms {
		m.forms[f.ID] = f
	}
	return m
}

func (m *memoryForms) GetForm(_ context.Context, id string) (*models.Form, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	f, ok := m.forms[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &f, nil
}

func (m *memoryForms) SaveForm(_ context.Context, form *models.Form) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forms[form.ID] = *form
	return nil
}

func (m *memoryForms) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gets
}

type warnings struct {
	mu   sync.Mutex
	msgs []string
}

func (w *warnings) Warn(msg string, _ ...any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msg)
}

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Errorf("failed to terminate container: %s", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { client.Close() })
	return client
}

func demoForm() models.Form {
	return models.Form{
		ID:    "form-1",
		Title: "Customer Feedback",
		Questions: []models.Question{
			{ID: "q1", Type: models.QuestionRating, Title: "Rate us", Required: true},
		},
	}
}

func TestFormCache_ReadThrough(t *testing.T) {
	client := newRedis(t)
	ctx := context.Background()
	store := newMemoryForms(demoForm())
	c := NewFormCache(store, client, time.Minute, &warnings{})

	first, err := c.GetForm(ctx, "form-1")
	require.NoError(t, err)
	second, err := c.GetForm(ctx, "form-1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.calls())

	ttl, err := client.TTL(ctx, "form:form-1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestFormCache_SaveInvalidates(t *testing.T) {
	client := newRedis(t)
	ctx := context.Background()
	store := newMemoryForms(demoForm())
	c := NewFormCache(store, client, time.Minute, &warnings{})

	_, err := c.GetForm(ctx, "form-1")
	require.NoError(t, err)

	renamed := demoForm()
	renamed.Title = "Renamed"
	require.NoError(t, c.SaveForm(ctx, &renamed))

	got, err := c.GetForm(ctx, "form-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, 2, store.calls())
}

func TestFormCache_NotFoundIsNotCached(t *testing.T) {
	client := newRedis(t)
	ctx := context.Background()
	store := newMemoryForms()
	c := NewFormCache(store, client, time.Minute, &warnings{})

	_, err := c.GetForm(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	n, err := client.Exists(ctx, "form:missing").Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFormCache_FallsThroughWhenRedisDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	store := newMemoryForms(demoForm())
	warn := &warnings{}
	c := NewFormCache(store, client, time.Minute, warn)

	got, err := c.GetForm(context.Background(), "form-1")
	require.NoError(t, err)
	assert.Equal(t, "Customer Feedback", got.Title)
	assert.Len(t, warn.msgs, 2)
}
