package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"vox/internal/constants"
	"vox/internal/models"
)

type ChatRepository struct {
	db *DB
}

func NewChatRepository(db *DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// Create inserts the chat row and the owner membership in one transaction
// so a chat can never exist without its owner member.
func (r *ChatRepository) Create(owner, name, description, chatType string, isPublic bool) (*models.Chat, error) {
	id, err := GenerateID("cht")
	if err != nil {
		return nil, fmt.Errorf("generating chat ID: %w", err)
	}
	link := uuid.NewString()
	now := time.Now().UTC()

	err = r.db.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			`INSERT INTO chats (id, name, description, chat_type, owner, invite_link, is_public, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, name, description, chatType, owner, link, boolToInt(isPublic), now,
		); err != nil {
			return fmt.Errorf("inserting chat: %w", err)
		}
		if _, err := tx.Exec(
			`INSERT INTO chat_members (chat_id, username, role, joined_at) VALUES (?, ?, ?, ?)`,
			id, owner, models.ChatRoleOwner, now,
		); err != nil {
			return fmt.Errorf("inserting owner membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &models.Chat{
		ID:          id,
		Name:        name,
		Description: description,
		ChatType:    chatType,
		Owner:       owner,
		InviteLink:  link,
		IsPublic:    isPublic,
		CreatedAt:   now,
	}, nil
}

func (r *ChatRepository) FindByID(id string) (*models.Chat, error) {
	return r.findOne(`SELECT id, name, description, chat_type, owner, invite_link, is_public, created_at
		FROM chats WHERE id = ?`, id)
}

func (r *ChatRepository) FindByLink(link string) (*models.Chat, error) {
	return r.findOne(`SELECT id, name, description, chat_type, owner, invite_link, is_public, created_at
		FROM chats WHERE invite_link = ?`, link)
}

// Join adds a membership row. Joining an already-joined chat is
// idempotent: the second call reports alreadyMember and changes nothing.
func (r *ChatRepository) Join(chatID, username string) (alreadyMember bool, err error) {
	result, err := r.db.Exec(
		`INSERT OR IGNORE INTO chat_members (chat_id, username, role, joined_at) VALUES (?, ?, ?, ?)`,
		chatID, username, models.ChatRoleMember, time.Now().UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("inserting membership: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}
	return rows == 0, nil
}

// Leave deletes the membership row unconditionally. Ownership is not
// reassigned and the chat row is retained even at zero members.
func (r *ChatRepository) Leave(chatID, username string) error {
	_, err := r.db.Exec(`DELETE FROM chat_members WHERE chat_id = ? AND username = ?`, chatID, username)
	if err != nil {
		return fmt.Errorf("deleting membership: %w", err)
	}
	return nil
}

func (r *ChatRepository) IsMember(chatID, username string) (bool, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM chat_members WHERE chat_id = ? AND username = ?`,
		chatID, username).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking membership: %w", err)
	}
	return count > 0, nil
}

// Members returns every username that receives this chat's broadcasts.
func (r *ChatRepository) Members(chatID string) ([]string, error) {
	rows, err := r.db.Query(`SELECT username FROM chat_members WHERE chat_id = ?`, chatID)
	if err != nil {
		return nil, fmt.Errorf("querying members: %w", err)
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning member: %w", err)
		}
		members = append(members, name)
	}
	return members, rows.Err()
}

func (r *ChatRepository) CreateMessage(chatID, sender, content string, media, replyTo, forwardFrom *string) (*models.ChatMessage, error) {
	id, err := GenerateID("msg")
	if err != nil {
		return nil, fmt.Errorf("generating message ID: %w", err)
	}
	now := time.Now().UTC()

	_, err = r.db.Exec(
		`INSERT INTO chat_messages (id, chat_id, sender, content, media, reply_to, forward_from, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, chatID, sender, content, media, replyTo, forwardFrom, now,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting chat message: %w", err)
	}

	return &models.ChatMessage{
		ID:          id,
		ChatID:      chatID,
		Sender:      sender,
		Content:     content,
		Media:       media,
		ReplyTo:     replyTo,
		ForwardFrom: forwardFrom,
		CreatedAt:   now,
	}, nil
}

func (r *ChatRepository) FindMessageByID(id string) (*models.ChatMessage, error) {
	var m models.ChatMessage
	var media, replyTo, forwardFrom sql.NullString

	err := r.db.QueryRow(
		`SELECT id, chat_id, sender, content, media, reply_to, forward_from, created_at
		 FROM chat_messages WHERE id = ?`, id,
	).Scan(&m.ID, &m.ChatID, &m.Sender, &m.Content, &media, &replyTo, &forwardFrom, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying chat message: %w", err)
	}

	m.Media = nullStrToPtr(media)
	m.ReplyTo = nullStrToPtr(replyTo)
	m.ForwardFrom = nullStrToPtr(forwardFrom)
	return &m, nil
}

// SoftDeleteMessage overwrites the content with the deletion placeholder
// if the caller authored the message.
func (r *ChatRepository) SoftDeleteMessage(id, author string) (*models.ChatMessage, error) {
	msg, err := r.FindMessageByID(id)
	if err != nil {
		return nil, err
	}
	if msg.Sender != author {
		return nil, ErrNotOwner
	}

	result, err := r.db.Exec(`UPDATE chat_messages SET content = ?, media = NULL WHERE id = ?`,
		constants.DeletedPlaceholder, id)
	if err != nil {
		return nil, fmt.Errorf("soft-deleting chat message: %w", err)
	}
	if err := checkRowsAffected(result); err != nil {
		return nil, err
	}
	msg.Content = constants.DeletedPlaceholder
	msg.Media = nil
	return msg, nil
}

// History returns the most recent chat messages in chronological order,
// each annotated with its group-scope reactions grouped by emoji.
func (r *ChatRepository) History(chatID string, limit int) ([]*models.ChatMessage, error) {
	if limit <= 0 || limit > constants.HistoryLimit {
		limit = constants.HistoryLimit
	}

	rows, err := r.db.Query(
		`SELECT id, chat_id, sender, content, media, reply_to, forward_from, created_at FROM (
			SELECT id, chat_id, sender, content, media, reply_to, forward_from, created_at, rowid
			FROM chat_messages WHERE chat_id = ?
			ORDER BY rowid DESC LIMIT ?
		) ORDER BY rowid ASC`,
		chatID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying chat history: %w", err)
	}
	defer rows.Close()

	messages := make([]*models.ChatMessage, 0)
	index := make(map[string]*models.ChatMessage)
	for rows.Next() {
		var m models.ChatMessage
		var media, replyTo, forwardFrom sql.NullString
		if err := rows.Scan(&m.ID, &m.ChatID, &m.Sender, &m.Content, &media, &replyTo, &forwardFrom, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning chat message: %w", err)
		}
		m.Media = nullStrToPtr(media)
		m.ReplyTo = nullStrToPtr(replyTo)
		m.ForwardFrom = nullStrToPtr(forwardFrom)
		messages = append(messages, &m)
		index[m.ID] = &m
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chat history: %w", err)
	}

	if len(messages) == 0 {
		return messages, nil
	}

	if err := r.attachReactions(index); err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *ChatRepository) attachReactions(index map[string]*models.ChatMessage) error {
	args := make([]any, 0, len(index)+1)
	placeholders := ""
	for id := range index {
		if placeholders != "" {
			placeholders += ","
		}
		placeholders += "?"
		args = append(args, id)
	}
	args = append(args, models.ScopeGroup)

	rows, err := r.db.Query(
		`SELECT message_id, emoji, COUNT(*) FROM reactions
		 WHERE message_id IN (`+placeholders+`) AND scope = ?
		 GROUP BY message_id, emoji`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("querying reactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var messageID, emoji string
		var count int
		if err := rows.Scan(&messageID, &emoji, &count); err != nil {
			return fmt.Errorf("scanning reaction count: %w", err)
		}
		if m, ok := index[messageID]; ok {
			if m.Reactions == nil {
				m.Reactions = make(map[string]int)
			}
			m.Reactions[emoji] = count
		}
	}
	return rows.Err()
}

func (r *ChatRepository) findOne(query string, args ...any) (*models.Chat, error) {
	var c models.Chat
	var isPublic int

	err := r.db.QueryRow(query, args...).Scan(
		&c.ID, &c.Name, &c.Description, &c.ChatType, &c.Owner, &c.InviteLink, &isPublic, &c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying chat: %w", err)
	}

	c.IsPublic = isPublic != 0
	return &c, nil
}
