package config

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"stratum/pkg/logging"
)

// Change notifies subscribers that the configuration document was reloaded
// and revalidated successfully.
type Change struct {
	// Namespaces lists the registered namespaces whose decoded sections
	// differ from the previous load.
	Namespaces []string
}

// Service resolves and validates process configuration into typed sections.
// It is the leaf dependency consumed by every other core service.
type Service struct {
	mu sync.RWMutex

	filePath string

	// order preserves schema registration order so validation failures are
	// reported deterministically.
	order     []string
	factories map[string]SchemaFactory

	raw      map[string]yaml.Node
	sections map[string]Schema
	loaded   bool

	subscribers []chan Change
}

// NewService creates a configuration service reading from filePath. The file
// does not need to exist; a missing file yields a document of defaults.
func NewService(filePath string) *Service {
	return &Service{
		filePath:  filePath,
		factories: make(map[string]SchemaFactory),
	}
}

// FilePath returns the backing document path.
func (s *Service) FilePath() string {
	return s.filePath
}

// RegisterSchema registers the typed schema for a configuration namespace.
// All schemas must be registered before Load so validation covers the full
// set of namespaces.
func (s *Service) RegisterSchema(namespace string, factory SchemaFactory) error {
	if namespace == "" {
		return fmt.Errorf("register schema: namespace must not be empty")
	}
	if factory == nil {
		return fmt.Errorf("register schema for '%s': factory must not be nil", namespace)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return fmt.Errorf("register schema for '%s': %w", namespace, ErrAlreadyLoaded)
	}
	if _, exists := s.factories[namespace]; exists {
		return fmt.Errorf("register schema for '%s': %w", namespace, ErrDuplicateNamespace)
	}

	s.factories[namespace] = factory
	s.order = append(s.order, namespace)
	return nil
}

// Namespaces returns the registered namespaces in registration order.
func (s *Service) Namespaces() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Load reads and parses the configuration document. Parsing errors are
// returned immediately; validation is a separate step so the orchestrator
// controls when a bad section becomes fatal.
func (s *Service) Load() error {
	raw, err := s.parseFile()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.raw = raw
	s.loaded = true
	s.sections = nil
	s.mu.Unlock()

	logging.Debug("ConfigService", "Loaded configuration document from %s (%d top-level keys)", s.filePath, len(raw))
	return nil
}

func (s *Service) parseFile() (map[string]yaml.Node, error) {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("ConfigService", "No configuration file at %s, using defaults", s.filePath)
			return map[string]yaml.Node{}, nil
		}
		return nil, fmt.Errorf("read configuration from %s: %w", s.filePath, err)
	}

	raw := map[string]yaml.Node{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse configuration from %s: %w", s.filePath, err)
	}
	return raw, nil
}

// Validate decodes and validates every registered namespace in registration
// order. The first invalid section aborts the pass; no partially validated
// state is published.
func (s *Service) Validate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return ErrNotLoaded
	}

	sections, err := s.decodeAll(s.raw)
	if err != nil {
		return err
	}

	s.sections = sections
	return nil
}

// decodeAll builds typed sections for every registered namespace from a raw
// document. Caller holds the lock (or owns the raw map exclusively).
func (s *Service) decodeAll(raw map[string]yaml.Node) (map[string]Schema, error) {
	sections := make(map[string]Schema, len(s.order))
	for _, namespace := range s.order {
		inst := s.factories[namespace]()
		inst.ApplyDefaults()

		if node, ok := raw[namespace]; ok {
			if err := node.Decode(inst); err != nil {
				return nil, ValidationErrors{{
					Namespace: namespace,
					Message:   fmt.Sprintf("cannot decode section: %v", err),
				}}
			}
		}

		errs := inst.Validate()
		if errs.HasErrors() {
			for i := range errs {
				errs[i].Namespace = namespace
			}
			return nil, errs
		}

		sections[namespace] = inst
	}
	return sections, nil
}

// Section returns the validated typed section for a namespace. Callers
// type-assert to the concrete section struct they registered.
func (s *Service) Section(namespace string) (Schema, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.sections == nil {
		return nil, ErrNotLoaded
	}
	section, ok := s.sections[namespace]
	if !ok {
		return nil, fmt.Errorf("section '%s': %w", namespace, ErrUnknownNamespace)
	}
	return section, nil
}

// Subscribe returns a channel receiving a Change after every successful
// reload. The channel is buffered; slow consumers miss coalesced updates
// rather than blocking the watcher.
func (s *Service) Subscribe() <-chan Change {
	ch := make(chan Change, 4)
	s.mu.Lock()
	s.subscribers = append(s.subscribers, ch)
	s.mu.Unlock()
	return ch
}

// reload re-parses and re-validates the document. On success the new
// sections replace the old ones and subscribers are notified; on failure the
// previous configuration stays active.
func (s *Service) reload() error {
	raw, err := s.parseFile()
	if err != nil {
		return err
	}

	s.mu.Lock()
	sections, err := s.decodeAll(raw)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	changed := s.changedNamespaces(s.sections, sections)
	s.raw = raw
	s.sections = sections
	subscribers := make([]chan Change, len(s.subscribers))
	copy(subscribers, s.subscribers)
	s.mu.Unlock()

	if len(changed) == 0 {
		return nil
	}

	logging.Info("ConfigService", "Configuration reloaded, changed namespaces: %v", changed)
	for _, ch := range subscribers {
		select {
		case ch <- Change{Namespaces: changed}:
		default:
			// Subscriber is behind; it will pick up the latest sections
			// on its next read anyway.
		}
	}
	return nil
}

// changedNamespaces compares section snapshots in registration order.
// Caller holds the lock.
func (s *Service) changedNamespaces(before, after map[string]Schema) []string {
	var changed []string
	for _, namespace := range s.order {
		prev, ok := before[namespace]
		if !ok || fmt.Sprintf("%+v", prev) != fmt.Sprintf("%+v", after[namespace]) {
			changed = append(changed, namespace)
		}
	}
	return changed
}
