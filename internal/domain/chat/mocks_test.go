package chat_test

import (
	"context"
	"time"

	"github.com/heymaaz/t3.chat.cloneathon/internal/domain/chat"
)

// MockConversationRepository is a mock implementation of
// chat.ConversationRepository for testing.
type MockConversationRepository struct {
	CreateFunc               func(ctx context.Context, conv *chat.Conversation) error
	FindByPublicIDFunc       func(ctx context.Context, publicID string) (*chat.Conversation, error)
	FindByIDFunc             func(ctx context.Context, id uint) (*chat.Conversation, error)
	ListByUserIDFunc         func(ctx context.Context, userID string) ([]*chat.Conversation, error)
	UpdateNameFunc           func(ctx context.Context, id uint, name string) error
	SetContinuationTokenFunc func(ctx context.Context, id uint, token string) error
	SetSearchIndexIDFunc     func(ctx context.Context, id uint, indexID string) error
	TouchActivityFunc        func(ctx context.Context, id uint, at time.Time) error
	DeleteFunc               func(ctx context.Context, id uint) error
}

func (m *MockConversationRepository) Create(ctx context.Context, conv *chat.Conversation) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, conv)
	}
	return nil
}

func (m *MockConversationRepository) FindByPublicID(ctx context.Context, publicID string) (*chat.Conversation, error) {
	if m.FindByPublicIDFunc != nil {
		return m.FindByPublicIDFunc(ctx, publicID)
	}
	return nil, nil
}

func (m *MockConversationRepository) FindByID(ctx context.Context, id uint) (*chat.Conversation, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockConversationRepository) ListByUserID(ctx context.Context, userID string) ([]*chat.Conversation, error) {
	if m.ListByUserIDFunc != nil {
		return m.ListByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockConversationRepository) UpdateName(ctx context.Context, id uint, name string) error {
	if m.UpdateNameFunc != nil {
		return m.UpdateNameFunc(ctx, id, name)
	}
	return nil
}

func (m *MockConversationRepository) SetContinuationToken(ctx context.Context, id uint, token string) error {
	if m.SetContinuationTokenFunc != nil {
		return m.SetContinuationTokenFunc(ctx, id, token)
	}
	return nil
}

func (m *MockConversationRepository) SetSearchIndexID(ctx context.Context, id uint, indexID string) error {
	if m.SetSearchIndexIDFunc != nil {
		return m.SetSearchIndexIDFunc(ctx, id, indexID)
	}
	return nil
}

func (m *MockConversationRepository) TouchActivity(ctx context.Context, id uint, at time.Time) error {
	if m.TouchActivityFunc != nil {
		return m.TouchActivityFunc(ctx, id, at)
	}
	return nil
}

func (m *MockConversationRepository) Delete(ctx context.Context, id uint) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockMessageRepository is a mock implementation of chat.MessageRepository
// for testing.
type MockMessageRepository struct {
	CreateFunc                func(ctx context.Context, msg *chat.Message) error
	FindByPublicIDFunc        func(ctx context.Context, publicID string) (*chat.Message, error)
	ListByConversationIDFunc  func(ctx context.Context, conversationID uint) ([]*chat.Message, error)
	CountByConversationIDFunc func(ctx context.Context, conversationID uint) (int64, error)
	LatestUserMessageFunc     func(ctx context.Context, conversationID uint) (*chat.Message, error)
	HasTypingFunc             func(ctx context.Context, conversationID uint) (bool, error)
	UpdateContentFunc         func(ctx context.Context, id uint, content string) error
	UpdateReasoningFunc       func(ctx context.Context, id uint, reasoning string) error
	CompleteFunc              func(ctx context.Context, id uint, update chat.CompletionUpdate) error
	FailFunc                  func(ctx context.Context, id uint, errorDetail string) error
}

func (m *MockMessageRepository) Create(ctx context.Context, msg *chat.Message) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, msg)
	}
	return nil
}

func (m *MockMessageRepository) FindByPublicID(ctx context.Context, publicID string) (*chat.Message, error) {
	if m.FindByPublicIDFunc != nil {
		return m.FindByPublicIDFunc(ctx, publicID)
	}
	return nil, nil
}

func (m *MockMessageRepository) ListByConversationID(ctx context.Context, conversationID uint) ([]*chat.Message, error) {
	if m.ListByConversationIDFunc != nil {
		return m.ListByConversationIDFunc(ctx, conversationID)
	}
	return nil, nil
}

func (m *MockMessageRepository) CountByConversationID(ctx context.Context, conversationID uint) (int64, error) {
	if m.CountByConversationIDFunc != nil {
		return m.CountByConversationIDFunc(ctx, conversationID)
	}
	return 0, nil
}

func (m *MockMessageRepository) LatestUserMessage(ctx context.Context, conversationID uint) (*chat.Message, error) {
	if m.LatestUserMessageFunc != nil {
		return m.LatestUserMessageFunc(ctx, conversationID)
	}
	return nil, nil
}

func (m *MockMessageRepository) HasTyping(ctx context.Context, conversationID uint) (bool, error) {
	if m.HasTypingFunc != nil {
		return m.HasTypingFunc(ctx, conversationID)
	}
	return false, nil
}

func (m *MockMessageRepository) UpdateContent(ctx context.Context, id uint, content string) error {
	if m.UpdateContentFunc != nil {
		return m.UpdateContentFunc(ctx, id, content)
	}
	return nil
}

func (m *MockMessageRepository) UpdateReasoning(ctx context.Context, id uint, reasoning string) error {
	if m.UpdateReasoningFunc != nil {
		return m.UpdateReasoningFunc(ctx, id, reasoning)
	}
	return nil
}

func (m *MockMessageRepository) Complete(ctx context.Context, id uint, update chat.CompletionUpdate) error {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, id, update)
	}
	return nil
}

func (m *MockMessageRepository) Fail(ctx context.Context, id uint, errorDetail string) error {
	if m.FailFunc != nil {
		return m.FailFunc(ctx, id, errorDetail)
	}
	return nil
}

// MockTurnScheduler is a mock implementation of chat.TurnScheduler for
// testing.
type MockTurnScheduler struct {
	ScheduleTurnFunc  func(ctx context.Context, conversationID, userMessageID uint, delay time.Duration) error
	ScheduleTitleFunc func(ctx context.Context, conversationID uint, delay time.Duration) error
}

func (m *MockTurnScheduler) ScheduleTurn(ctx context.Context, conversationID, userMessageID uint, delay time.Duration) error {
	if m.ScheduleTurnFunc != nil {
		return m.ScheduleTurnFunc(ctx, conversationID, userMessageID, delay)
	}
	return nil
}

func (m *MockTurnScheduler) ScheduleTitle(ctx context.Context, conversationID uint, delay time.Duration) error {
	if m.ScheduleTitleFunc != nil {
		return m.ScheduleTitleFunc(ctx, conversationID, delay)
	}
	return nil
}
