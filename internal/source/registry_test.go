package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja0404/token-radar/internal/model"
)

type stubStrategy struct {
	name   string
	tokens chan *model.Token
	errs   chan error
}

func newStubStrategy(name string) *stubStrategy {
	return &stubStrategy{
		name:   name,
		tokens: make(chan *model.Token, 10),
		errs:   make(chan error, 10),
	}
}

func (s *stubStrategy) Start(ctx context.Context) error { return nil }
func (s *stubStrategy) Stop() error                     { return nil }
func (s *stubStrategy) Status() Status                  { return Status{Name: s.name, Running: true} }
func (s *stubStrategy) Subscribe() <-chan *model.Token  { return s.tokens }
func (s *stubStrategy) Errors() <-chan error            { return s.errs }
func (s *stubStrategy) String() string                  { return s.name }

func TestRegistryCreate(t *testing.T) {
	Register("stub", func(settings Settings, deps Deps) (Strategy, error) {
		return newStubStrategy("stub"), nil
	})

	strategy, err := Create("stub", Settings{}, Deps{})
	require.NoError(t, err)
	assert.Equal(t, "stub", strategy.String())

	_, err = Create("nope", Settings{}, Deps{})
	assert.Error(t, err)
}

func TestManagerFanIn(t *testing.T) {
	m := NewManager()

	a := newStubStrategy("a")
	b := newStubStrategy("b")
	m.AddSource(a)
	m.AddSource(b)

	require.NoError(t, m.Start())

	a.tokens <- &model.Token{Address: "from-a", Source: "a"}
	b.tokens <- &model.Token{Address: "from-b", Source: "b"}

	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		token := <-m.Tokens()
		got[token.Address] = true
	}
	assert.True(t, got["from-a"])
	assert.True(t, got["from-b"])

	statuses := m.Statuses()
	assert.Len(t, statuses, 2)

	require.NoError(t, m.Stop())
}
