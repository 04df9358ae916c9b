// Package fileindex maps provider-assigned file ids back to the uploading
// user and the message that introduced them. Resolution is an access-control
// boundary: an entry is only revealed to its uploader.
package fileindex

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/heymaaz/t3.chat.cloneathon/internal/infrastructure/metrics"
	"github.com/heymaaz/t3.chat.cloneathon/internal/utils/platformerrors"
)

// Entry is one file-id mapping. ConversationID and MessagePublicID record the
// first-use context; they never change after the initial insert.
type Entry struct {
	ID              uint      `json:"-"`
	FileID          string    `json:"file_id"`
	FileName        string    `json:"file_name"`
	UploaderID      string    `json:"-"`
	BlobRef         string    `json:"-"`
	ConversationID  *uint     `json:"-"`
	MessagePublicID *string   `json:"message_id,omitempty"`
	Size            int64     `json:"size"`
	MimeType        string    `json:"mime_type"`
	CreatedAt       time.Time `json:"created_at"`
}

// Resolution is the previewable result of a scoped citation lookup.
type Resolution struct {
	MessageID string `json:"message_id"`
	FileName  string `json:"file_name"`
}

// Repository persists index entries. Insert must be a no-op when an entry for
// the file id already exists; upload flows never overwrite citation
// provenance.
type Repository interface {
	Insert(ctx context.Context, entry *Entry) error
	FindByFileID(ctx context.Context, fileID string) (*Entry, error)
	// AttachMessage sets the first-use conversation and message for fileID,
	// only when no message has been attached yet.
	AttachMessage(ctx context.Context, fileID string, conversationID uint, messagePublicID string) error
	DeleteByConversationID(ctx context.Context, conversationID uint) error
}

// Service exposes the index operations.
type Service struct {
	repo Repository
	log  zerolog.Logger
}

// NewService wires dependencies.
func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("component", "file-citation-index").Logger(),
	}
}

// Record inserts an entry for fileID. First writer wins: a second call with
// the same file id leaves the existing entry untouched.
func (s *Service) Record(ctx context.Context, entry Entry) error {
	if err := s.repo.Insert(ctx, &entry); err != nil {
		return fmt.Errorf("record file citation: %w", err)
	}
	return nil
}

// AttachFirstUse binds fileID to the message that introduced it. Uploads
// record entries before any message references them; the first submission
// carrying the file fills in the provenance. Later submissions reusing the
// same file id leave the original context untouched.
func (s *Service) AttachFirstUse(ctx context.Context, fileID string, conversationID uint, messagePublicID string) error {
	if err := s.repo.AttachMessage(ctx, fileID, conversationID, messagePublicID); err != nil {
		return fmt.Errorf("attach file citation first use: %w", err)
	}
	return nil
}

// Resolve returns the entry for fileID. A missing entry yields (nil, nil);
// an entry uploaded by someone else yields a forbidden error, which is
// deliberately distinguishable from not-found.
func (s *Service) Resolve(ctx context.Context, fileID, requestingUser string) (*Entry, error) {
	entry, err := s.repo.FindByFileID(ctx, fileID)
	if err != nil {
		if platformerrors.IsNotFound(err) {
			metrics.RecordCitationResolution("not_found")
			return nil, nil
		}
		return nil, fmt.Errorf("lookup file citation: %w", err)
	}

	if entry.UploaderID != requestingUser {
		metrics.RecordCitationResolution("denied")
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeForbidden,
			"file was uploaded by another user",
			nil,
			"fileindex-resolve-denied",
		)
	}

	metrics.RecordCitationResolution("ok")
	return entry, nil
}

// ResolveForConversation is Resolve scoped to one conversation. A file whose
// first-use conversation differs from conversationID resolves to nil (a dead
// citation link the caller skips rendering), not an error and not an access
// violation.
func (s *Service) ResolveForConversation(ctx context.Context, conversationID uint, fileID, requestingUser string) (*Resolution, error) {
	entry, err := s.Resolve(ctx, fileID, requestingUser)
	if err != nil || entry == nil {
		return nil, err
	}

	if entry.ConversationID == nil || *entry.ConversationID != conversationID {
		metrics.RecordCitationResolution("wrong_scope")
		return nil, nil
	}
	if entry.MessagePublicID == nil {
		return nil, nil
	}

	return &Resolution{
		MessageID: *entry.MessagePublicID,
		FileName:  entry.FileName,
	}, nil
}

// PurgeConversation removes entries whose first-use conversation is the one
// being deleted. Called from the conversation delete cascade.
func (s *Service) PurgeConversation(ctx context.Context, conversationID uint) error {
	if err := s.repo.DeleteByConversationID(ctx, conversationID); err != nil {
		return fmt.Errorf("purge file citations: %w", err)
	}
	return nil
}
