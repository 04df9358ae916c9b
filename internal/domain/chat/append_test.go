package chat_test

import (
	"context"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/heymaaz/t3.chat.cloneathon/internal/domain/chat"
	"github.com/heymaaz/t3.chat.cloneathon/internal/utils/platformerrors"
)

func newEngine(messages *MockMessageRepository, conversations *MockConversationRepository, cap int) *chat.AppendEngine {
	return chat.NewAppendEngine(messages, conversations, cap, zerolog.Nop())
}

func TestAppendEngine_Create(t *testing.T) {
	var created *chat.Message
	messages := &MockMessageRepository{
		CreateFunc: func(_ context.Context, msg *chat.Message) error {
			msg.ID = 7
			created = msg
			return nil
		},
	}
	engine := newEngine(messages, &MockConversationRepository{}, 100)

	msg, err := engine.Create(context.Background(), 42, chat.Selections{ModelID: "gpt-4o-mini"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created == nil {
		t.Fatal("Create() did not persist the message")
	}
	if msg.Status != chat.StatusTyping {
		t.Errorf("Create() status = %q, want %q", msg.Status, chat.StatusTyping)
	}
	if msg.Role != chat.RoleAssistant {
		t.Errorf("Create() role = %q, want %q", msg.Role, chat.RoleAssistant)
	}
	if msg.Content != "" {
		t.Errorf("Create() content = %q, want empty", msg.Content)
	}
	if msg.ConversationID != 42 {
		t.Errorf("Create() conversation = %d, want 42", msg.ConversationID)
	}
}

func TestAppendEngine_AppendContent(t *testing.T) {
	tests := []struct {
		name        string
		cap         int
		deltas      []string
		wantContent string
		wantWrites  int
	}{
		{
			name:        "under cap",
			cap:         100,
			deltas:      []string{"hello ", "world"},
			wantContent: "hello world",
			wantWrites:  2,
		},
		{
			name:        "delta straddling the cap is cut",
			cap:         10,
			deltas:      []string{"hello ", "world", "!!!"},
			wantContent: "hello worl",
			wantWrites:  2,
		},
		{
			name:        "saturated message absorbs appends",
			cap:         5,
			deltas:      []string{"12345", "67890"},
			wantContent: "12345",
			wantWrites:  1,
		},
		{
			name:        "empty delta is a no-op",
			cap:         10,
			deltas:      []string{"", "hi", ""},
			wantContent: "hi",
			wantWrites:  1,
		},
		{
			name:        "cut backs off to a rune boundary",
			cap:         5,
			deltas:      []string{"ab", "éé"},
			wantContent: "abé",
			wantWrites:  2,
		},
		{
			name:        "rune that cannot fit is dropped whole",
			cap:         4,
			deltas:      []string{"abc", "éé"},
			wantContent: "abc",
			wantWrites:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var writes []string
			messages := &MockMessageRepository{
				UpdateContentFunc: func(_ context.Context, _ uint, content string) error {
					writes = append(writes, content)
					return nil
				},
			}
			engine := newEngine(messages, &MockConversationRepository{}, tt.cap)

			msg := &chat.Message{ID: 1, PublicID: "msg_test", Status: chat.StatusTyping}
			for _, delta := range tt.deltas {
				engine.AppendContent(context.Background(), msg, delta)
			}

			if msg.Content != tt.wantContent {
				t.Errorf("content = %q, want %q", msg.Content, tt.wantContent)
			}
			if len(writes) != tt.wantWrites {
				t.Errorf("persisted writes = %d, want %d", len(writes), tt.wantWrites)
			}
			if len(writes) > 0 && writes[len(writes)-1] != tt.wantContent {
				t.Errorf("last persisted write = %q, want %q", writes[len(writes)-1], tt.wantContent)
			}
			for i, w := range writes {
				if !utf8.ValidString(w) {
					t.Errorf("write %d (%q) is not valid UTF-8", i, w)
				}
			}
			// Earlier writes must be prefixes of later ones.
			for i := 1; i < len(writes); i++ {
				if len(writes[i-1]) > len(writes[i]) || writes[i][:len(writes[i-1])] != writes[i-1] {
					t.Errorf("write %d (%q) is not a prefix of write %d (%q)", i-1, writes[i-1], i, writes[i])
				}
			}
		})
	}
}

func TestAppendEngine_AppendContent_RowGoneMidStream(t *testing.T) {
	messages := &MockMessageRepository{
		UpdateContentFunc: func(ctx context.Context, _ uint, _ string) error {
			return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure,
				platformerrors.ErrorTypeNotFound, "message not found", nil, "test-not-found")
		},
	}
	engine := newEngine(messages, &MockConversationRepository{}, 100)

	msg := &chat.Message{ID: 1, PublicID: "msg_test", Status: chat.StatusTyping}
	engine.AppendContent(context.Background(), msg, "still ")
	engine.AppendContent(context.Background(), msg, "streaming")

	// The write is dropped without aborting the stream.
	if msg.Content != "still streaming" {
		t.Errorf("content = %q, want %q", msg.Content, "still streaming")
	}
}

func TestAppendEngine_AppendReasoning_NoCap(t *testing.T) {
	var last string
	messages := &MockMessageRepository{
		UpdateReasoningFunc: func(_ context.Context, _ uint, reasoning string) error {
			last = reasoning
			return nil
		},
	}
	engine := newEngine(messages, &MockConversationRepository{}, 4)

	msg := &chat.Message{ID: 1, PublicID: "msg_test", Status: chat.StatusTyping}
	engine.AppendReasoning(context.Background(), msg, "thinking about ")
	engine.AppendReasoning(context.Background(), msg, "the answer")

	want := "thinking about the answer"
	if msg.Reasoning != want {
		t.Errorf("reasoning = %q, want %q", msg.Reasoning, want)
	}
	if last != want {
		t.Errorf("persisted reasoning = %q, want %q", last, want)
	}
}

func TestAppendEngine_Complete(t *testing.T) {
	var completed *chat.CompletionUpdate
	messages := &MockMessageRepository{
		CompleteFunc: func(_ context.Context, _ uint, update chat.CompletionUpdate) error {
			completed = &update
			return nil
		},
	}
	var touched *uint
	conversations := &MockConversationRepository{
		TouchActivityFunc: func(_ context.Context, id uint, _ time.Time) error {
			touched = &id
			return nil
		},
	}
	engine := newEngine(messages, conversations, 100)

	msg := &chat.Message{ID: 1, PublicID: "msg_test", ConversationID: 9, Status: chat.StatusTyping, Content: "done"}
	engine.Complete(context.Background(), msg, chat.CompletionUpdate{ProviderResponseID: "resp_abc"})

	if completed == nil {
		t.Fatal("Complete() did not persist")
	}
	if msg.Status != chat.StatusCompleted {
		t.Errorf("status = %q, want %q", msg.Status, chat.StatusCompleted)
	}
	if msg.ProviderResponseID == nil || *msg.ProviderResponseID != "resp_abc" {
		t.Errorf("provider response id = %v, want resp_abc", msg.ProviderResponseID)
	}
	if touched == nil || *touched != 9 {
		t.Errorf("activity bump = %v, want conversation 9", touched)
	}
}

func TestAppendEngine_Fail(t *testing.T) {
	var detail string
	messages := &MockMessageRepository{
		FailFunc: func(_ context.Context, _ uint, errorDetail string) error {
			detail = errorDetail
			return nil
		},
	}
	touched := false
	conversations := &MockConversationRepository{
		TouchActivityFunc: func(_ context.Context, _ uint, _ time.Time) error {
			touched = true
			return nil
		},
	}
	engine := newEngine(messages, conversations, 100)

	msg := &chat.Message{ID: 1, PublicID: "msg_test", ConversationID: 9, Status: chat.StatusTyping}
	engine.Fail(context.Background(), msg, "Something went wrong.")

	if msg.Status != chat.StatusError {
		t.Errorf("status = %q, want %q", msg.Status, chat.StatusError)
	}
	if detail != "Something went wrong." {
		t.Errorf("error detail = %q, want %q", detail, "Something went wrong.")
	}
	if touched {
		t.Error("Fail() bumped conversation activity, want no bump")
	}
}
