package contract

import "context"

// ChatClient issues structured-generation requests against one model.
type ChatClient interface {
	Name() string
	GenerateObject(ctx context.Context, req ObjectRequest) (ObjectResult, error)
}

// ModelRegistry selects an online client by capability tags.
type ModelRegistry interface {
	FirstOnlineClient(ctx context.Context, filter ClientFilter) (ChatClient, error)
}

// MemoryService stores attention items keyed by a category string.
// SpliceAttentionItems keeps items[start:start+keep] for the key and drops the rest.
type MemoryService interface {
	PushAttentionItem(ctx context.Context, typeKey string, item string) error
	SpliceAttentionItems(ctx context.Context, typeKey string, start int, keep int) error
	AttentionItems(ctx context.Context, typeKey string) ([]string, error)
}
