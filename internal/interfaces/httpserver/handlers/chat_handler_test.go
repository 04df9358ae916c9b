package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/heymaaz/t3.chat.cloneathon/internal/domain/chat"
	"github.com/heymaaz/t3.chat.cloneathon/internal/domain/fileindex"
	"github.com/heymaaz/t3.chat.cloneathon/internal/infrastructure/auth"
	"github.com/heymaaz/t3.chat.cloneathon/internal/interfaces/httpserver/handlers"
	"github.com/heymaaz/t3.chat.cloneathon/internal/utils/platformerrors"
)

// MockConversationRepository is a mock implementation of chat.ConversationRepository for testing.
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

// MockMessageRepository is a mock implementation of chat.MessageRepository for testing.
type MockMessageRepository struct {
	CreateFunc                 func(ctx context.Context, msg *chat.Message) error
	FindByPublicIDFunc         func(ctx context.Context, publicID string) (*chat.Message, error)
	ListByConversationIDFunc   func(ctx context.Context, conversationID uint) ([]*chat.Message, error)
	CountByConversationIDFunc  func(ctx context.Context, conversationID uint) (int64, error)
	LatestUserMessageFunc      func(ctx context.Context, conversationID uint) (*chat.Message, error)
	HasTypingFunc              func(ctx context.Context, conversationID uint) (bool, error)
	UpdateContentFunc          func(ctx context.Context, id uint, content string) error
	UpdateReasoningFunc        func(ctx context.Context, id uint, reasoning string) error
	CompleteFunc               func(ctx context.Context, id uint, update chat.CompletionUpdate) error
	FailFunc                   func(ctx context.Context, id uint, errorDetail string) error
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

// MockIndexRepository is a mock implementation of fileindex.Repository for testing.
type MockIndexRepository struct {
	InsertFunc                 func(ctx context.Context, entry *fileindex.Entry) error
	FindByFileIDFunc           func(ctx context.Context, fileID string) (*fileindex.Entry, error)
	AttachMessageFunc          func(ctx context.Context, fileID string, conversationID uint, messagePublicID string) error
	DeleteByConversationIDFunc func(ctx context.Context, conversationID uint) error
}

func (m *MockIndexRepository) Insert(ctx context.Context, entry *fileindex.Entry) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, entry)
	}
	return nil
}

func (m *MockIndexRepository) FindByFileID(ctx context.Context, fileID string) (*fileindex.Entry, error) {
	if m.FindByFileIDFunc != nil {
		return m.FindByFileIDFunc(ctx, fileID)
	}
	return nil, nil
}

func (m *MockIndexRepository) AttachMessage(ctx context.Context, fileID string, conversationID uint, messagePublicID string) error {
	if m.AttachMessageFunc != nil {
		return m.AttachMessageFunc(ctx, fileID, conversationID, messagePublicID)
	}
	return nil
}

func (m *MockIndexRepository) DeleteByConversationID(ctx context.Context, conversationID uint) error {
	if m.DeleteByConversationIDFunc != nil {
		return m.DeleteByConversationIDFunc(ctx, conversationID)
	}
	return nil
}

type mockScheduler struct{}

func (mockScheduler) ScheduleTurn(ctx context.Context, conversationID, userMessageID uint, delay time.Duration) error {
	return nil
}

func (mockScheduler) ScheduleTitle(ctx context.Context, conversationID uint, delay time.Duration) error {
	return nil
}

func notFoundErr(ctx context.Context, msg string) error {
	return platformerrors.NewError(ctx, platformerrors.LayerRepository,
		platformerrors.ErrorTypeNotFound, msg, nil, "test-not-found")
}

type chatTestDeps struct {
	convs   *MockConversationRepository
	msgs    *MockMessageRepository
	index   *MockIndexRepository
}

func setupChatTestRouter(deps chatTestDeps, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)

	sequencer := chat.NewSequencer(deps.convs, deps.msgs, mockScheduler{}, time.Second, zerolog.Nop())
	indexService := fileindex.NewService(deps.index, zerolog.Nop())
	handler := handlers.NewChatHandler(sequencer, deps.convs, deps.msgs, indexService, zerolog.Nop())

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(auth.UserIDKey, userID)
		c.Next()
	})

	r.POST("/v1/chat", handler.Submit)
	r.GET("/v1/conversations", handler.List)
	r.GET("/v1/conversations/:conversation_id", handler.Get)
	r.DELETE("/v1/conversations/:conversation_id", handler.Delete)
	r.GET("/v1/conversations/:conversation_id/messages", handler.ListMessages)
	r.GET("/v1/conversations/:conversation_id/citations/:file_id", handler.ResolveCitation)
	return r
}

func TestChatHandler_SubmitNewConversation(t *testing.T) {
	var attachedFile string
	deps := chatTestDeps{
		convs: &MockConversationRepository{
			CreateFunc: func(ctx context.Context, conv *chat.Conversation) error {
				conv.ID = 7
				return nil
			},
		},
		msgs: &MockMessageRepository{
			CreateFunc: func(ctx context.Context, msg *chat.Message) error {
				msg.ID = 70
				return nil
			},
		},
		index: &MockIndexRepository{
			AttachMessageFunc: func(ctx context.Context, fileID string, conversationID uint, messagePublicID string) error {
				attachedFile = fileID
				if conversationID != 7 {
					t.Errorf("AttachMessage conversationID = %d, want 7", conversationID)
				}
				return nil
			},
		},
	}
	router := setupChatTestRouter(deps, "user-1")

	body, _ := json.Marshal(map[string]interface{}{
		"text":  "summarize the report",
		"model": "gpt-4o-mini",
		"files": []map[string]string{{"file_id": "file-abc", "file_name": "report.pdf"}},
	})
	req, _ := http.NewRequest("POST", "/v1/chat", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d: %s", w.Code, w.Body.String())
	}

	var response map[string]map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if name := response["conversation"]["name"]; name != chat.DefaultConversationName {
		t.Errorf("Expected conversation name %q, got %v", chat.DefaultConversationName, name)
	}
	if role := response["message"]["role"]; role != "user" {
		t.Errorf("Expected message role 'user', got %v", role)
	}
	if attachedFile != "file-abc" {
		t.Errorf("Expected file citation attach for 'file-abc', got %q", attachedFile)
	}
}

func TestChatHandler_SubmitEmptyTextRejected(t *testing.T) {
	router := setupChatTestRouter(chatTestDeps{
		convs: &MockConversationRepository{},
		msgs:  &MockMessageRepository{},
		index: &MockIndexRepository{},
	}, "user-1")

	body, _ := json.Marshal(map[string]string{"text": "   "})
	req, _ := http.NewRequest("POST", "/v1/chat", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestChatHandler_GetWrongOwner(t *testing.T) {
	deps := chatTestDeps{
		convs: &MockConversationRepository{
			FindByPublicIDFunc: func(ctx context.Context, publicID string) (*chat.Conversation, error) {
				return &chat.Conversation{ID: 3, PublicID: publicID, UserID: "someone-else"}, nil
			},
		},
		msgs:  &MockMessageRepository{},
		index: &MockIndexRepository{},
	}
	router := setupChatTestRouter(deps, "user-1")

	req, _ := http.NewRequest("GET", "/v1/conversations/conv_1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", w.Code)
	}
}

func TestChatHandler_GetUnknownConversation(t *testing.T) {
	deps := chatTestDeps{
		convs: &MockConversationRepository{
			FindByPublicIDFunc: func(ctx context.Context, publicID string) (*chat.Conversation, error) {
				return nil, notFoundErr(ctx, "conversation not found")
			},
		},
		msgs:  &MockMessageRepository{},
		index: &MockIndexRepository{},
	}
	router := setupChatTestRouter(deps, "user-1")

	req, _ := http.NewRequest("GET", "/v1/conversations/conv_missing", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestChatHandler_DeletePurgesCitations(t *testing.T) {
	var deletedConv, purgedConv uint
	deps := chatTestDeps{
		convs: &MockConversationRepository{
			FindByPublicIDFunc: func(ctx context.Context, publicID string) (*chat.Conversation, error) {
				return &chat.Conversation{ID: 5, PublicID: publicID, UserID: "user-1"}, nil
			},
			DeleteFunc: func(ctx context.Context, id uint) error {
				deletedConv = id
				return nil
			},
		},
		msgs: &MockMessageRepository{},
		index: &MockIndexRepository{
			DeleteByConversationIDFunc: func(ctx context.Context, conversationID uint) error {
				purgedConv = conversationID
				return nil
			},
		},
	}
	router := setupChatTestRouter(deps, "user-1")

	req, _ := http.NewRequest("DELETE", "/v1/conversations/conv_5", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
	if deletedConv != 5 {
		t.Errorf("Delete() conversation = %d, want 5", deletedConv)
	}
	if purgedConv != 5 {
		t.Errorf("DeleteByConversationID() conversation = %d, want 5", purgedConv)
	}
}

func TestChatHandler_ResolveCitationDeadLink(t *testing.T) {
	deps := chatTestDeps{
		convs: &MockConversationRepository{
			FindByPublicIDFunc: func(ctx context.Context, publicID string) (*chat.Conversation, error) {
				return &chat.Conversation{ID: 5, PublicID: publicID, UserID: "user-1"}, nil
			},
		},
		msgs: &MockMessageRepository{},
		index: &MockIndexRepository{
			FindByFileIDFunc: func(ctx context.Context, fileID string) (*fileindex.Entry, error) {
				return nil, notFoundErr(ctx, "entry not found")
			},
		},
	}
	router := setupChatTestRouter(deps, "user-1")

	req, _ := http.NewRequest("GET", "/v1/conversations/conv_5/citations/file-zzz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response["citation"] != nil {
		t.Errorf("Expected null citation, got %v", response["citation"])
	}
}

func TestChatHandler_ResolveCitationOwnedFile(t *testing.T) {
	msgID := "msg_first"
	convID := uint(5)
	deps := chatTestDeps{
		convs: &MockConversationRepository{
			FindByPublicIDFunc: func(ctx context.Context, publicID string) (*chat.Conversation, error) {
				return &chat.Conversation{ID: convID, PublicID: publicID, UserID: "user-1"}, nil
			},
		},
		msgs: &MockMessageRepository{},
		index: &MockIndexRepository{
			FindByFileIDFunc: func(ctx context.Context, fileID string) (*fileindex.Entry, error) {
				return &fileindex.Entry{
					FileID:          fileID,
					FileName:        "report.pdf",
					UploaderID:      "user-1",
					ConversationID:  &convID,
					MessagePublicID: &msgID,
				}, nil
			},
		},
	}
	router := setupChatTestRouter(deps, "user-1")

	req, _ := http.NewRequest("GET", "/v1/conversations/conv_5/citations/file-abc", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response struct {
		Citation *fileindex.Resolution `json:"citation"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response.Citation == nil {
		t.Fatal("Expected citation, got null")
	}
	if response.Citation.MessageID != "msg_first" {
		t.Errorf("Citation.MessageID = %q, want %q", response.Citation.MessageID, "msg_first")
	}
	if response.Citation.FileName != "report.pdf" {
		t.Errorf("Citation.FileName = %q, want %q", response.Citation.FileName, "report.pdf")
	}
}

func TestChatHandler_ListConversations(t *testing.T) {
	deps := chatTestDeps{
		convs: &MockConversationRepository{
			ListByUserIDFunc: func(ctx context.Context, userID string) ([]*chat.Conversation, error) {
				if userID != "user-1" {
					t.Errorf("ListByUserID userID = %q, want %q", userID, "user-1")
				}
				return []*chat.Conversation{
					{ID: 2, PublicID: "conv_b", Name: "Trip planning"},
					{ID: 1, PublicID: "conv_a", Name: "New Chat"},
				}, nil
			},
		},
		msgs:  &MockMessageRepository{},
		index: &MockIndexRepository{},
	}
	router := setupChatTestRouter(deps, "user-1")

	req, _ := http.NewRequest("GET", "/v1/conversations", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response struct {
		Conversations []map[string]interface{} `json:"conversations"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if len(response.Conversations) != 2 {
		t.Fatalf("Expected 2 conversations, got %d", len(response.Conversations))
	}
	if response.Conversations[0]["id"] != "conv_b" {
		t.Errorf("Expected most recent conversation first, got %v", response.Conversations[0]["id"])
	}
}
