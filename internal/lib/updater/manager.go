package updater

import (
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/mistweaverco/selfupdate/internal/config"
	"github.com/mistweaverco/selfupdate/internal/events"
	"github.com/mistweaverco/selfupdate/internal/lib/providers"
	"github.com/mistweaverco/selfupdate/internal/lib/state"
)

// Creator builds the provider of a custom repository type.
type Creator func(name string, repo config.RepositoryConfig) (providers.Provider, error)

// Manager resolves configured sources into repositories and keeps
// them for later calls.
type Manager struct {
	mu         sync.Mutex
	cfg        *config.Config
	factory    providers.ProviderFactory
	dispatcher *events.Dispatcher
	store      state.Manager
	runner     CommandRunner
	creators   map[string]Creator
	sources    map[string]*Repository
}

type Option func(*Manager)

func WithProviderFactory(factory providers.ProviderFactory) Option {
	return func(m *Manager) { m.factory = factory }
}

func WithDispatcher(dispatcher *events.Dispatcher) Option {
	return func(m *Manager) { m.dispatcher = dispatcher }
}

func WithStore(store state.Manager) Option {
	return func(m *Manager) { m.store = store }
}

func WithCommandRunner(runner CommandRunner) Option {
	return func(m *Manager) { m.runner = runner }
}

func NewManager(cfg *config.Config, opts ...Option) *Manager {
	m := &Manager{
		cfg:      cfg,
		creators: map[string]Creator{},
		sources:  map[string]*Repository{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.factory == nil {
		m.factory = providers.GetProviderFactory()
	}
	if m.dispatcher == nil {
		m.dispatcher = events.NewDispatcher()
	}
	if m.store == nil {
		m.store = state.New(cfg.StatePath)
	}
	if m.runner == nil {
		m.runner = ShellRunner{}
	}
	if cfg.LogEvents {
		m.dispatcher.Subscribe(events.LogListener{Logger: Logger})
	}
	return m
}

func (m *Manager) Dispatcher() *events.Dispatcher {
	return m.dispatcher
}

func (m *Manager) Store() state.Manager {
	return m.store
}

// Default is the source used when none is named.
func (m *Manager) Default() string {
	return m.cfg.Default
}

// Sources lists the configured source names, sorted.
func (m *Manager) Sources() []string {
	return m.cfg.SourceNames()
}

// Source returns the repository for name, or for the default source when
// name is empty. Repositories are created once per name.
func (m *Manager) Source(name string) (*Repository, error) {
	if name == "" {
		name = m.Default()
	}
	name = strings.ToLower(name)

	m.mu.Lock()
	defer m.mu.Unlock()

	if repo, ok := m.sources[name]; ok {
		return repo, nil
	}
	repo, err := m.resolve(name)
	if err != nil {
		return nil, err
	}
	m.sources[name] = repo
	return repo, nil
}

// Extend registers creator for repositories configured with the given type.
// Custom creators take precedence over the built-in types.
func (m *Manager) Extend(typ string, creator Creator) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creators[strings.ToLower(typ)] = creator
}

func (m *Manager) resolve(name string) (*Repository, error) {
	repo, ok := m.cfg.Repository(name)
	if !ok {
		return nil, errors.Wrapf(ErrSourceNotDefined, "[%s]", name)
	}

	var (
		provider providers.Provider
		err      error
	)
	if creator, ok := m.creators[repo.Type]; ok {
		provider, err = creator(name, repo)
	} else {
		provider, err = providers.New(m.factory, name, repo)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "source %s", name)
	}
	return NewRepository(name, m.cfg, repo, provider, m.store, m.dispatcher, m.runner), nil
}
