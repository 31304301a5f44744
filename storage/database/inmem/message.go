package inmemdb

import (
	"context"

	"github.com/trezcool/masomo-lms/core/message"
)

type messageRepository struct {
	db *messageTable
}

var _ message.Repository = (*messageRepository)(nil) // interface compliance check

func NewMessageRepository(db *DB) *messageRepository {
	return &messageRepository{db: db.message}
}

// CreateMessage appends to the table, which keeps messages in the order they were sent.
func (repo *messageRepository) CreateMessage(_ context.Context, msg message.Message) (message.Message, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if msg.ID == "" {
		msg.ID = newID()
	}
	repo.db.table = append(repo.db.table, msg)
	return msg, nil
}

func (repo *messageRepository) QueryConversation(_ context.Context, filter message.ConversationFilter) ([]message.Message, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	msgs := make([]message.Message, 0)
	for _, msg := range repo.db.table {
		if msg.CourseID != filter.CourseID {
			continue
		}
		between := (msg.SenderID == filter.UserID && msg.RecipientID == filter.ContactID) ||
			(msg.SenderID == filter.ContactID && msg.RecipientID == filter.UserID)
		if !between {
			continue
		}
		if !filter.After.IsZero() && !msg.SentAt.After(filter.After) {
			continue
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}
