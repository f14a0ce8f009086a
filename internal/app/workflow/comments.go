package workflow

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ojtetr/tracker/internal/app/models"
	"github.com/ojtetr/tracker/internal/pkg/apperrors"
)

// MaxCommentLength bounds a single comment body
const MaxCommentLength = 2000

// AppendComment returns a new thread with the comment added at the end
func AppendComment(thread []models.Comment, authorID int64, content string, now time.Time) ([]models.Comment, models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return thread, models.Comment{}, apperrors.NewValidationError("comment content is required")
	}
	if len(content) > MaxCommentLength {
		return thread, models.Comment{}, apperrors.NewValidationError("comment is too long")
	}

	c := models.Comment{
		ID:        uuid.New(),
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: now,
	}
	next := make([]models.Comment, 0, len(thread)+1)
	next = append(next, thread...)
	return append(next, c), c, nil
}

// RemoveComment returns a new thread without the comment.
// Anyone but the author gets a Forbidden error and the thread is left as is.
func RemoveComment(thread []models.Comment, commentID uuid.UUID, actorID int64) ([]models.Comment, error) {
	for i, c := range thread {
		if c.ID != commentID {
			continue
		}
		if c.AuthorID != actorID {
			return thread, apperrors.NewForbiddenError("only the author can delete this comment")
		}
		next := make([]models.Comment, 0, len(thread)-1)
		next = append(next, thread[:i]...)
		return append(next, thread[i+1:]...), nil
	}
	return thread, apperrors.ErrCommentNotFound
}
