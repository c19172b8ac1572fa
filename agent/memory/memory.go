package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	contractx "github.com/tanpawarit/task-planner/agent/contract"
)

var _ contractx.MemoryService = (*InProcessStore)(nil)

// InProcessStore keeps attention items in a map guarded by a mutex. Each call
// is atomic on its own; a push followed by a splice is not.
type InProcessStore struct {
	mu    sync.Mutex
	items map[string][]string
}

func NewInProcessStore() *InProcessStore {
	return &InProcessStore{items: make(map[string][]string)}
}

func (s *InProcessStore) PushAttentionItem(_ context.Context, typeKey string, item string) error {
	if err := validateTypeKey(typeKey); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[typeKey] = append(s.items[typeKey], item)
	return nil
}

func (s *InProcessStore) SpliceAttentionItems(_ context.Context, typeKey string, start int, keep int) error {
	if err := validateTypeKey(typeKey); err != nil {
		return err
	}
	if err := validateWindow(start, keep); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := window(s.items[typeKey], start, keep)
	if len(kept) == 0 {
		delete(s.items, typeKey)
		return nil
	}
	s.items[typeKey] = kept
	return nil
}

func (s *InProcessStore) AttentionItems(_ context.Context, typeKey string) ([]string, error) {
	if err := validateTypeKey(typeKey); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.items[typeKey]...), nil
}

// window returns a copy of items[start:start+keep], clamped to the slice.
func window(items []string, start int, keep int) []string {
	if keep <= 0 || start >= len(items) {
		return nil
	}
	end := start + keep
	if end > len(items) {
		end = len(items)
	}
	return append([]string(nil), items[start:end]...)
}

func validateTypeKey(typeKey string) error {
	if strings.TrimSpace(typeKey) == "" {
		return fmt.Errorf("%w: attention type key is empty", contractx.ErrValidation)
	}
	return nil
}

func validateWindow(start int, keep int) error {
	if start < 0 || keep < 0 {
		return fmt.Errorf("%w: invalid splice window start=%d keep=%d", contractx.ErrValidation, start, keep)
	}
	return nil
}
