package provider

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/unalkalkan/QuizForge/pkg/types"
	"go.uber.org/zap"
)

// Registry manages provider instances
type Registry struct {
	llmProviders map[string]LLMProvider
	mu           sync.RWMutex
}

// NewRegistry creates a new provider registry
func NewRegistry() *Registry {
	return &Registry{
		llmProviders: make(map[string]LLMProvider),
	}
}

// RegisterLLM registers an LLM provider
func (r *Registry) RegisterLLM(provider LLMProvider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := provider.Name()
	if _, exists := r.llmProviders[name]; exists {
		return fmt.Errorf("LLM provider already registered: %s", name)
	}

	r.llmProviders[name] = provider
	return nil
}

// GetLLM retrieves an LLM provider by name
func (r *Registry) GetLLM(name string) (LLMProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.llmProviders[name]
	if !exists {
		return nil, fmt.Errorf("LLM provider not found: %s", name)
	}

	return provider, nil
}

// ListLLM returns all registered LLM provider names in sorted order
func (r *Registry) ListLLM() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.llmProviders))
	for name := range r.llmProviders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close closes all registered providers
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for name, provider := range r.llmProviders {
		if err := provider.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close LLM provider %s: %w", name, err))
		}
	}

	return errors.Join(errs...)
}

// InitializeProviders creates provider instances for every enabled entry of the configuration
func (r *Registry) InitializeProviders(cfg types.ProvidersConfig, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, llmCfg := range cfg.LLM {
		if !llmCfg.Enabled {
			continue
		}

		var provider LLMProvider
		switch llmCfg.Type {
		case "stub":
			provider = NewStubLLMProvider(llmCfg)
		case "openai", "":
			p, err := NewOpenAILLMProvider(llmCfg, logger)
			if err != nil {
				return fmt.Errorf("failed to create OpenAI LLM provider %s: %w", llmCfg.Name, err)
			}
			provider = p
		default:
			return fmt.Errorf("unknown LLM provider type %s for %s", llmCfg.Type, llmCfg.Name)
		}

		if err := r.RegisterLLM(provider); err != nil {
			return err
		}
		logger.Info("registered LLM provider",
			zap.String("name", llmCfg.Name),
			zap.String("type", llmCfg.Type),
			zap.String("model", llmCfg.Model))
	}

	return nil
}
