package entities

import (
	"time"

	"github.com/heymaaz/t3.chat.cloneathon/internal/domain/fileindex"
)

// FileCitation represents the database schema for the file citation index.
// One row per provider-assigned file id; the row records who uploaded the
// file and where it was first used.
type FileCitation struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	FileID     string `gorm:"type:varchar(128);uniqueIndex;not null"`
	FileName   string `gorm:"type:varchar(512);not null"`
	UploaderID string `gorm:"type:varchar(64);index;not null"`
	BlobRef    string `gorm:"type:varchar(512);not null;default:''"`

	ConversationID  *uint   `gorm:"index"`
	MessagePublicID *string `gorm:"type:varchar(50)"`

	Size     int64  `gorm:"not null;default:0"`
	MimeType string `gorm:"type:varchar(128);not null;default:''"`
}

// TableName specifies the table name for FileCitation.
func (FileCitation) TableName() string {
	return "file_citations"
}

// EtoD converts database entity to domain model.
func (f *FileCitation) EtoD() *fileindex.Entry {
	return &fileindex.Entry{
		ID:              f.ID,
		FileID:          f.FileID,
		FileName:        f.FileName,
		UploaderID:      f.UploaderID,
		BlobRef:         f.BlobRef,
		ConversationID:  f.ConversationID,
		MessagePublicID: f.MessagePublicID,
		Size:            f.Size,
		MimeType:        f.MimeType,
		CreatedAt:       f.CreatedAt,
	}
}

// NewSchemaFileCitation creates a database entity from domain model.
func NewSchemaFileCitation(e *fileindex.Entry) *FileCitation {
	return &FileCitation{
		ID:              e.ID,
		FileID:          e.FileID,
		FileName:        e.FileName,
		UploaderID:      e.UploaderID,
		BlobRef:         e.BlobRef,
		ConversationID:  e.ConversationID,
		MessagePublicID: e.MessagePublicID,
		Size:            e.Size,
		MimeType:        e.MimeType,
		CreatedAt:       e.CreatedAt,
	}
}
