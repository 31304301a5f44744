package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/masomo-lms/core/message"
)

const messageColumns = `id, course_id, sender_id, sender_name, recipient_id, body, sent_at`

type messageRepository struct {
	db *sqlx.DB
}

var _ message.Repository = (*messageRepository)(nil) // interface compliance check

func NewMessageRepository(db *sqlx.DB) *messageRepository {
	return &messageRepository{db: db}
}

type messageRow struct {
	ID          string    `db:"id"`
	CourseID    string    `db:"course_id"`
	SenderID    string    `db:"sender_id"`
	SenderName  string    `db:"sender_name"`
	RecipientID string    `db:"recipient_id"`
	Body        string    `db:"body"`
	SentAt      time.Time `db:"sent_at"`
}

func (repo *messageRepository) CreateMessage(ctx context.Context, msg message.Message) (message.Message, error) {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	_, err := repo.db.NamedExecContext(ctx,
		`INSERT INTO message (`+messageColumns+`)
		VALUES (:id, :course_id, :sender_id, :sender_name, :recipient_id, :body, :sent_at)`,
		messageRow(msg),
	)
	if err != nil {
		return message.Message{}, wrapErr(err, "inserting message")
	}
	return msg, nil
}

func (repo *messageRepository) QueryConversation(ctx context.Context, filter message.ConversationFilter) ([]message.Message, error) {
	var rows []messageRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT `+messageColumns+` FROM message
		WHERE course_id::text = $1
		AND ((sender_id::text = $2 AND recipient_id::text = $3) OR (sender_id::text = $3 AND recipient_id::text = $2))
		AND sent_at > $4
		ORDER BY sent_at ASC, id ASC`,
		filter.CourseID, filter.UserID, filter.ContactID, filter.After.UTC(),
	)
	if err != nil {
		return nil, wrapErr(err, "querying conversation")
	}
	msgs := make([]message.Message, 0, len(rows))
	for _, r := range rows {
		r.SentAt = r.SentAt.UTC()
		msgs = append(msgs, message.Message(r))
	}
	return msgs, nil
}
