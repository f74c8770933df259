package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"diet-coach/internal/models"
)

// AppendMessage persists msg, filling in ID, ChatType and CreatedAt when unset.
func (s *Store) AppendMessage(ctx context.Context, msg *models.ChatMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.ChatType == "" {
		msg.ChatType = models.ChatTypeDiet
	}
	ts := s.nextTimestamp()
	msg.CreatedAt = time.Unix(0, ts)

	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO chat_messages (id, user_id, role, content, chat_type, created_ts)
		VALUES (?, ?, ?, ?, ?, ?)`),
		msg.ID, msg.UserID, string(msg.Role), msg.Content, msg.ChatType, ts)
	return errors.Wrap(err, "failed to insert chat message")
}

// RecentMessages returns up to limit of the user's latest messages, oldest
// first.
func (s *Store) RecentMessages(ctx context.Context, userID string, limit int) ([]*models.ChatMessage, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, user_id, role, content, chat_type, created_ts
		FROM chat_messages
		WHERE user_id = ?
		ORDER BY created_ts DESC
		LIMIT ?`), userID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query chat messages")
	}
	defer rows.Close()

	var list []*models.ChatMessage
	for rows.Next() {
		m := &models.ChatMessage{}
		var role string
		var ts int64
		if err := rows.Scan(&m.ID, &m.UserID, &role, &m.Content, &m.ChatType, &ts); err != nil {
			return nil, errors.Wrap(err, "failed to scan chat message")
		}
		m.Role = models.Role(role)
		m.CreatedAt = time.Unix(0, ts)
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate chat messages")
	}
	for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
		list[i], list[j] = list[j], list[i]
	}
	return list, nil
}

// ClearMessages deletes the user's chat history and reports how many
// messages went.
func (s *Store) ClearMessages(ctx context.Context, userID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM chat_messages WHERE user_id = ?`), userID)
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete chat messages")
	}
	n, err := res.RowsAffected()
	return n, errors.Wrap(err, "failed to count deleted messages")
}
