package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	name string
	log  *[]string
	do   func(call int) ([]string, error)

	calls int
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Search(_ context.Context, _ string) ([]string, error) {
	f.calls++
	if f.log != nil {
		*f.log = append(*f.log, f.name)
	}
	return f.do(f.calls)
}

func noPause(context.Context, time.Duration) {}

func found(links ...string) func(int) ([]string, error) {
	return func(int) ([]string, error) { return links, nil }
}

func failing(err error) func(int) ([]string, error) {
	return func(int) ([]string, error) { return nil, err }
}

func TestResolveReturnsFirstTargetLink(t *testing.T) {
	t.Parallel()

	var log []string
	first := &fakeBackend{
		name: "first",
		log:  &log,
		do: found(
			"https://unrelated.example.com/page",
			"https://www.examtopics.com/discussions/certs/view/1",
		),
	}
	second := &fakeBackend{name: "second", log: &log, do: found()}

	r := NewResolver([]Backend{first, second}, "examtopics.com", WithPause(noPause))
	res, err := r.Resolve(context.Background(), "exam topic question 1")
	require.NoError(t, err)
	require.True(t, res.Found)
	assert.Equal(t, "https://www.examtopics.com/discussions/certs/view/1", res.URL)
	assert.Equal(t, "first", res.Backend)
	assert.Equal(t, []string{"first"}, log, "later backends should not be queried")
}

func TestResolveDemotesFailingBackend(t *testing.T) {
	t.Parallel()

	var log []string
	flaky := &fakeBackend{name: "flaky", log: &log, do: failing(errors.New("boom"))}
	steady := &fakeBackend{
		name: "steady",
		log:  &log,
		do:   found("https://www.examtopics.com/discussions/certs/view/2"),
	}

	r := NewResolver([]Backend{flaky, steady}, "examtopics.com", WithPause(noPause))

	res, err := r.Resolve(context.Background(), "query one")
	require.NoError(t, err)
	require.True(t, res.Found)
	assert.Equal(t, []string{"steady", "flaky"}, r.Order())

	log = log[:0]
	res, err = r.Resolve(context.Background(), "query two")
	require.NoError(t, err)
	require.True(t, res.Found)
	assert.Equal(t, []string{"steady"}, log, "demoted backend should not be tried once steady answers")
}

func TestResolveTreatsBlockedAsSoftFailure(t *testing.T) {
	t.Parallel()

	blocked := &fakeBackend{name: "blocked", do: failing(ErrBlocked)}
	fallback := &fakeBackend{
		name: "fallback",
		do:   found("https://www.examtopics.com/discussions/certs/view/3"),
	}

	r := NewResolver([]Backend{blocked, fallback}, "examtopics.com", WithPause(noPause))
	res, err := r.Resolve(context.Background(), "query")
	require.NoError(t, err)
	require.True(t, res.Found)
	assert.Equal(t, "fallback", res.Backend)
	assert.Equal(t, []string{"fallback", "blocked"}, r.Order())
}

func TestResolveExhaustsAllBackends(t *testing.T) {
	t.Parallel()

	offTarget := &fakeBackend{name: "off-target", do: found("https://elsewhere.example.com/")}
	broken := &fakeBackend{name: "broken", do: failing(errors.New("boom"))}

	r := NewResolver([]Backend{offTarget, broken}, "examtopics.com", WithPause(noPause))
	res, err := r.Resolve(context.Background(), "query")
	require.NoError(t, err, "exhaustion is an outcome, not an error")
	assert.False(t, res.Found)
	assert.Empty(t, res.URL)
}

func TestResolveStopsOnCanceledContext(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{name: "never", do: found()}
	r := NewResolver([]Backend{backend}, "examtopics.com", WithPause(noPause))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Resolve(ctx, "query")
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, backend.calls)
}

func TestResetOrderRestoresConfiguredPriorities(t *testing.T) {
	t.Parallel()

	a := &fakeBackend{name: "a", do: failing(errors.New("boom"))}
	b := &fakeBackend{
		name: "b",
		do:   found("https://www.examtopics.com/discussions/certs/view/4"),
	}

	r := NewResolver([]Backend{a, b}, "examtopics.com", WithPause(noPause))
	_, err := r.Resolve(context.Background(), "query")
	require.NoError(t, err)
	require.Equal(t, []string{"b", "a"}, r.Order())

	r.ResetOrder()
	assert.Equal(t, []string{"a", "b"}, r.Order())
}

func TestHostMatches(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
		want bool
	}{
		{"exact host", "https://examtopics.com/discussions/1", true},
		{"www subdomain", "https://www.examtopics.com/discussions/1", true},
		{"plain http", "http://www.examtopics.com/discussions/1", true},
		{"uppercase host", "https://WWW.ExamTopics.com/discussions/1", true},
		{"other domain", "https://example.com/examtopics.com", false},
		{"suffix but not subdomain", "https://notexamtopics.com/page", false},
		{"relative link", "/discussions/1", false},
		{"javascript scheme", "javascript:void(0)", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, hostMatches(tc.raw, "examtopics.com"))
		})
	}
}
