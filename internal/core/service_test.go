package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSession struct {
	raws     map[uint32][]byte
	fetchErr map[uint32]error
	marked   []uint32
}

func (s *fakeSession) Search(context.Context, time.Time) ([]MessageRef, error) { return nil, nil }

func (s *fakeSession) FetchRaw(_ context.Context, ref MessageRef) ([]byte, error) {
	if err, ok := s.fetchErr[ref.UID]; ok {
		return nil, err
	}
	raw, ok := s.raws[ref.UID]
	if !ok {
		return nil, fmt.Errorf("%w: uid %d not found", ErrFetch, ref.UID)
	}
	return raw, nil
}

func (s *fakeSession) MarkRead(_ context.Context, ref MessageRef) error {
	s.marked = append(s.marked, ref.UID)
	return nil
}

func (s *fakeSession) Close() error { return nil }

// fakeExtractor maps raw bytes to canned content keyed by the raw string.
type fakeExtractor struct {
	contents map[string]*EmailContent
}

func (e *fakeExtractor) Extract(raw []byte) (*EmailContent, error) {
	content, ok := e.contents[string(raw)]
	if !ok {
		return nil, fmt.Errorf("%w: no content for %q", ErrParse, raw)
	}
	return content, nil
}

type fakeSummarizer struct {
	calls int
	err   error
}

func (f *fakeSummarizer) Summarize(_ context.Context, email *EmailContent) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "summary of " + email.Identity, nil
}

type mapCache struct {
	entries map[string]string
	stores  int
}

func newMapCache() *mapCache { return &mapCache{entries: make(map[string]string)} }

func (c *mapCache) Lookup(key string) (string, bool) {
	v, ok := c.entries[key]
	return v, ok
}

func (c *mapCache) Store(key, summary string) {
	c.entries[key] = summary
	c.stores++
}

func (c *mapCache) EvictExpired(time.Time) int { return 0 }

func content(identity string, body string) *EmailContent {
	return &EmailContent{
		From:     "Alice <alice@example.com>",
		Subject:  "hello",
		Identity: identity,
		Date:     time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Body:     body,
	}
}

func TestProcessBatch_SummarizerCalledOncePerIdentity(t *testing.T) {
	summarizer := &fakeSummarizer{}
	cache := newMapCache()
	extractor := &fakeExtractor{contents: map[string]*EmailContent{
		"raw-1": content("<id-1@example.com>", "body one"),
		"raw-2": content("<id-1@example.com>", "body one"), // same identity and timestamp
	}}
	session := &fakeSession{raws: map[uint32][]byte{
		1: []byte("raw-1"),
		2: []byte("raw-2"),
	}}

	svc := NewNotifyService(extractor, summarizer, cache, zap.NewNop(), true,
		RetryPolicy{MaxAttempts: 2, Delay: 0})

	result := svc.ProcessBatch(context.Background(), session, []MessageRef{{UID: 1}, {UID: 2}})

	require.Len(t, result.Summaries, 2)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 1, summarizer.calls, "second message is served from cache")
	assert.Equal(t, result.Summaries[0].Summary, result.Summaries[1].Summary)
}

func TestProcessBatch_SummarizerExhaustionFallsBackToBody(t *testing.T) {
	summarizer := &fakeSummarizer{err: errors.New("service unavailable")}
	cache := newMapCache()
	extractor := &fakeExtractor{contents: map[string]*EmailContent{
		"raw-1": content("<id-1@example.com>", "the raw body"),
	}}
	session := &fakeSession{raws: map[uint32][]byte{1: []byte("raw-1")}}

	svc := NewNotifyService(extractor, summarizer, cache, zap.NewNop(), true,
		RetryPolicy{MaxAttempts: 2, Delay: 0})

	result := svc.ProcessBatch(context.Background(), session, []MessageRef{{UID: 1}})

	require.Len(t, result.Summaries, 1)
	assert.Equal(t, 0, result.Failed, "summarization failure is not a batch failure")
	assert.Equal(t, 2, summarizer.calls, "attempt budget honored")
	assert.Equal(t, "the raw body", result.Summaries[0].Summary)
	assert.Equal(t, 0, cache.stores, "fallback bodies are not cached")
}

func TestProcessBatch_FetchAndParseFailuresAreCounted(t *testing.T) {
	extractor := &fakeExtractor{contents: map[string]*EmailContent{
		"raw-1": content("<id-1@example.com>", "good"),
		// raw-3 missing from the map, extraction fails
	}}
	session := &fakeSession{
		raws: map[uint32][]byte{
			1: []byte("raw-1"),
			3: []byte("raw-3"),
		},
		fetchErr: map[uint32]error{2: fmt.Errorf("%w: gone", ErrFetch)},
	}

	svc := NewNotifyService(extractor, nil, newMapCache(), zap.NewNop(), true,
		RetryPolicy{MaxAttempts: 2, Delay: 0})

	result := svc.ProcessBatch(context.Background(), session,
		[]MessageRef{{UID: 1}, {UID: 2}, {UID: 3}})

	assert.Equal(t, 2, result.Failed)
	require.Len(t, result.Summaries, 1)
	assert.Equal(t, uint32(1), result.Summaries[0].Ref.UID)
}

func TestProcessBatch_NilSummarizerUsesRawBody(t *testing.T) {
	cache := newMapCache()
	extractor := &fakeExtractor{contents: map[string]*EmailContent{
		"raw-1": content("<id-1@example.com>", "plain body"),
	}}
	session := &fakeSession{raws: map[uint32][]byte{1: []byte("raw-1")}}

	svc := NewNotifyService(extractor, nil, cache, zap.NewNop(), true,
		RetryPolicy{MaxAttempts: 2, Delay: 0})

	result := svc.ProcessBatch(context.Background(), session, []MessageRef{{UID: 1}})

	require.Len(t, result.Summaries, 1)
	assert.Equal(t, "plain body", result.Summaries[0].Summary)
	assert.Equal(t, 0, cache.stores)
}

func TestCacheKey_Deterministic(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	assert.Equal(t, CacheKey("<id@example.com>", ts), CacheKey("<id@example.com>", ts))
	assert.NotEqual(t, CacheKey("<id@example.com>", ts), CacheKey("<other@example.com>", ts))
	assert.NotEqual(t, CacheKey("<id@example.com>", ts), CacheKey("<id@example.com>", ts.Add(time.Second)))

	// Timezone must not change the key for the same instant
	assert.Equal(t,
		CacheKey("<id@example.com>", ts),
		CacheKey("<id@example.com>", ts.In(time.FixedZone("UTC+8", 8*3600))))
}
