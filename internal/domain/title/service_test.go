package title_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/heymaaz/t3.chat.cloneathon/internal/domain/chat"
	"github.com/heymaaz/t3.chat.cloneathon/internal/domain/llm"
	"github.com/heymaaz/t3.chat.cloneathon/internal/domain/title"
	"github.com/heymaaz/t3.chat.cloneathon/internal/utils/platformerrors"
)

// MockConversationRepository is a mock implementation of
// chat.ConversationRepository for testing.
type MockConversationRepository struct {
	FindByIDFunc   func(ctx context.Context, id uint) (*chat.Conversation, error)
	UpdateNameFunc func(ctx context.Context, id uint, name string) error
}

func (m *MockConversationRepository) Create(context.Context, *chat.Conversation) error { return nil }
func (m *MockConversationRepository) FindByPublicID(context.Context, string) (*chat.Conversation, error) {
	return nil, nil
}
func (m *MockConversationRepository) FindByID(ctx context.Context, id uint) (*chat.Conversation, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}
func (m *MockConversationRepository) ListByUserID(context.Context, string) ([]*chat.Conversation, error) {
	return nil, nil
}
func (m *MockConversationRepository) UpdateName(ctx context.Context, id uint, name string) error {
	if m.UpdateNameFunc != nil {
		return m.UpdateNameFunc(ctx, id, name)
	}
	return nil
}
func (m *MockConversationRepository) SetContinuationToken(context.Context, uint, string) error {
	return nil
}
func (m *MockConversationRepository) SetSearchIndexID(context.Context, uint, string) error {
	return nil
}
func (m *MockConversationRepository) TouchActivity(context.Context, uint, time.Time) error {
	return nil
}
func (m *MockConversationRepository) Delete(context.Context, uint) error { return nil }

// MockMessageRepository is a mock implementation of chat.MessageRepository
// for testing.
type MockMessageRepository struct {
	LatestUserMessageFunc func(ctx context.Context, conversationID uint) (*chat.Message, error)
}

func (m *MockMessageRepository) Create(context.Context, *chat.Message) error { return nil }
func (m *MockMessageRepository) FindByPublicID(context.Context, string) (*chat.Message, error) {
	return nil, nil
}
func (m *MockMessageRepository) ListByConversationID(context.Context, uint) ([]*chat.Message, error) {
	return nil, nil
}
func (m *MockMessageRepository) CountByConversationID(context.Context, uint) (int64, error) {
	return 0, nil
}
func (m *MockMessageRepository) LatestUserMessage(ctx context.Context, conversationID uint) (*chat.Message, error) {
	if m.LatestUserMessageFunc != nil {
		return m.LatestUserMessageFunc(ctx, conversationID)
	}
	return nil, nil
}
func (m *MockMessageRepository) HasTyping(context.Context, uint) (bool, error)     { return false, nil }
func (m *MockMessageRepository) UpdateContent(context.Context, uint, string) error { return nil }
func (m *MockMessageRepository) UpdateReasoning(context.Context, uint, string) error {
	return nil
}
func (m *MockMessageRepository) Complete(context.Context, uint, chat.CompletionUpdate) error {
	return nil
}
func (m *MockMessageRepository) Fail(context.Context, uint, string) error { return nil }

// MockProvider is a mock implementation of llm.Provider for testing.
type MockProvider struct {
	GenerateFunc func(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResult, error)
}

func (m *MockProvider) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResult, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return &llm.GenerateResult{}, nil
}

func (m *MockProvider) GenerateStream(context.Context, llm.GenerateRequest) (llm.Stream, error) {
	return nil, nil
}

type staticResolver struct {
	provider llm.Provider
	err      error
}

func (r *staticResolver) Provider(llm.ProviderKind) (llm.Provider, error) {
	return r.provider, r.err
}

func TestService_GenerateTitle(t *testing.T) {
	tests := []struct {
		name         string
		convName     string
		providerText string
		wantName     string
		wantRenamed  bool
	}{
		{
			name:         "names a default conversation",
			convName:     chat.DefaultConversationName,
			providerText: "Capital of France",
			wantName:     "Capital of France",
			wantRenamed:  true,
		},
		{
			name:         "strips quotes and trailing punctuation",
			convName:     chat.DefaultConversationName,
			providerText: "\"Capital of France.\"\n",
			wantName:     "Capital of France",
			wantRenamed:  true,
		},
		{
			name:         "keeps only the first line",
			convName:     chat.DefaultConversationName,
			providerText: "Paris Facts\nHere is a short title.",
			wantName:     "Paris Facts",
			wantRenamed:  true,
		},
		{
			name:         "already renamed conversation is untouched",
			convName:     "My Trip Notes",
			providerText: "Should Not Matter",
			wantRenamed:  false,
		},
		{
			name:         "blank output keeps default name",
			convName:     chat.DefaultConversationName,
			providerText: "   \n",
			wantRenamed:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conversations := &MockConversationRepository{
				FindByIDFunc: func(_ context.Context, _ uint) (*chat.Conversation, error) {
					return &chat.Conversation{ID: 1, PublicID: "conv_test", Name: tt.convName}, nil
				},
			}
			var renamedTo *string
			conversations.UpdateNameFunc = func(_ context.Context, _ uint, name string) error {
				renamedTo = &name
				return nil
			}
			messages := &MockMessageRepository{
				LatestUserMessageFunc: func(_ context.Context, _ uint) (*chat.Message, error) {
					return &chat.Message{Content: "What is the capital of France?"}, nil
				},
			}
			provider := &MockProvider{
				GenerateFunc: func(_ context.Context, _ llm.GenerateRequest) (*llm.GenerateResult, error) {
					return &llm.GenerateResult{Text: tt.providerText}, nil
				},
			}
			svc := title.NewService(conversations, messages, &staticResolver{provider: provider}, zerolog.Nop())

			if err := svc.GenerateTitle(context.Background(), 1); err != nil {
				t.Fatalf("GenerateTitle() error = %v", err)
			}
			if tt.wantRenamed {
				if renamedTo == nil || *renamedTo != tt.wantName {
					t.Errorf("renamed to %v, want %q", renamedTo, tt.wantName)
				}
			} else if renamedTo != nil {
				t.Errorf("conversation renamed to %q, want untouched", *renamedTo)
			}
		})
	}
}

func TestService_GenerateTitle_ConversationGone(t *testing.T) {
	conversations := &MockConversationRepository{
		FindByIDFunc: func(ctx context.Context, _ uint) (*chat.Conversation, error) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository,
				platformerrors.ErrorTypeNotFound, "conversation not found", nil, "test-not-found")
		},
	}
	svc := title.NewService(conversations, &MockMessageRepository{}, &staticResolver{provider: &MockProvider{}}, zerolog.Nop())

	if err := svc.GenerateTitle(context.Background(), 1); err != nil {
		t.Fatalf("GenerateTitle() error = %v, want nil for deleted conversation", err)
	}
}

func TestService_GenerateTitle_NoProvider(t *testing.T) {
	conversations := &MockConversationRepository{
		FindByIDFunc: func(_ context.Context, _ uint) (*chat.Conversation, error) {
			return &chat.Conversation{ID: 1, PublicID: "conv_test", Name: chat.DefaultConversationName}, nil
		},
	}
	messages := &MockMessageRepository{
		LatestUserMessageFunc: func(_ context.Context, _ uint) (*chat.Message, error) {
			return &chat.Message{Content: "hello"}, nil
		},
	}
	svc := title.NewService(conversations, messages, &staticResolver{err: llm.ErrMissingCredential}, zerolog.Nop())

	if err := svc.GenerateTitle(context.Background(), 1); err != nil {
		t.Fatalf("GenerateTitle() error = %v, want nil when the provider is unavailable", err)
	}
}
