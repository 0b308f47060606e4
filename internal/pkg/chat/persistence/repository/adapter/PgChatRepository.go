package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	chat "freelancehub/internal/pkg/chat/application/domain"
)

// PgChatRepository stores each conversation as one row with its message log
// embedded as a jsonb array. Messages are always read in the context of their
// conversation, so the log travels with the row; mutations happen through
// single atomic UPDATE expressions (or a short row-locking transaction for
// appends, which need the previous last_message_at watermark).
type PgChatRepository struct {
	pool *pgxpool.Pool
}

func NewPgChatRepository(pool *pgxpool.Pool) *PgChatRepository {
	return &PgChatRepository{pool: pool}
}

func (r *PgChatRepository) FindOrCreateConversation(ctx context.Context, participantIDs []string, projectID *string) (*chat.Conversation, bool, error) {
	if r == nil || r.pool == nil {
		return nil, false, errors.New("PgChatRepository: nil pool")
	}

	key := chat.ParticipantKey(participantIDs)

	// The unique index on (participant_key, COALESCE(project_id, '')) makes
	// concurrent first-contact calls converge: the race loser hits the
	// conflict, inserts nothing and falls through to the read below.
	row := r.pool.QueryRow(ctx, `
		INSERT INTO chat.conversation (participant_ids, participant_key, project_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (participant_key, (COALESCE(project_id, ''))) DO NOTHING
		RETURNING id::text, created_at, last_message_at
	`, participantIDs, key, projectID)

	conv := chat.Conversation{ParticipantIDs: participantIDs, ProjectID: projectID}
	err := row.Scan(&conv.ID, &conv.CreatedAt, &conv.LastMessageAt)
	if err == nil {
		conv.Messages = []chat.Message{}
		return &conv, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	existing, err := r.findByIdentity(ctx, key, projectID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *PgChatRepository) findByIdentity(ctx context.Context, key string, projectID *string) (*chat.Conversation, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id::text, participant_ids, project_id, messages, created_at, last_message_at
		FROM chat.conversation
		WHERE participant_key = $1 AND COALESCE(project_id, '') = COALESCE($2, '')
	`, key, projectID)
	return scanConversation(row)
}

func (r *PgChatRepository) GetConversation(ctx context.Context, conversationID string) (*chat.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	id, err := parseID(conversationID)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		SELECT id::text, participant_ids, project_id, messages, created_at, last_message_at
		FROM chat.conversation
		WHERE id = $1
	`, id)
	return scanConversation(row)
}

func (r *PgChatRepository) ListSummaries(ctx context.Context, userID string) ([]chat.ConversationSummary, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id::text, participant_ids, project_id, last_message_at,
		       (SELECT count(*)
		          FROM jsonb_array_elements(c.messages) AS m
		         WHERE NOT (m->>'read')::bool AND m->>'sender' <> $1) AS unread,
		       c.messages -> -1 AS last_message
		FROM chat.conversation c
		WHERE $1 = ANY(c.participant_ids)
		ORDER BY last_message_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []chat.ConversationSummary
	for rows.Next() {
		var (
			s       chat.ConversationSummary
			unread  int64
			lastRaw []byte
		)
		if err := rows.Scan(&s.ID, &s.ParticipantIDs, &s.ProjectID, &s.LastMessageAt, &unread, &lastRaw); err != nil {
			return nil, err
		}
		s.UnreadCount = int(unread)
		if len(lastRaw) > 0 {
			var last chat.Message
			if err := json.Unmarshal(lastRaw, &last); err != nil {
				return nil, fmt.Errorf("decode last message: %w", err)
			}
			s.Preview = last.PreviewLabel()
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PgChatRepository) AppendMessage(ctx context.Context, conversationID string, m chat.Message) (chat.Message, error) {
	if r == nil || r.pool == nil {
		return chat.Message{}, errors.New("PgChatRepository: nil pool")
	}
	id, err := parseID(conversationID)
	if err != nil {
		return chat.Message{}, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return chat.Message{}, err
	}
	defer tx.Rollback(ctx)

	var (
		participants []string
		watermark    time.Time
	)
	err = tx.QueryRow(ctx, `
		SELECT participant_ids, last_message_at
		FROM chat.conversation
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&participants, &watermark)
	if errors.Is(err, pgx.ErrNoRows) {
		return chat.Message{}, chat.ErrNotFound
	}
	if err != nil {
		return chat.Message{}, err
	}

	if !contains(participants, m.SenderID) {
		return chat.Message{}, chat.ErrNotParticipant
	}

	// Server clock is authoritative but must stay monotonic within the
	// conversation, appends never move the watermark backwards.
	if m.CreatedAt.Before(watermark) {
		m.CreatedAt = watermark
	}

	buf, err := json.Marshal(m)
	if err != nil {
		return chat.Message{}, err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE chat.conversation
		SET messages = messages || $2::jsonb, last_message_at = $3
		WHERE id = $1
	`, id, buf, m.CreatedAt); err != nil {
		return chat.Message{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return chat.Message{}, err
	}
	return m, nil
}

func (r *PgChatRepository) MarkMessageRead(ctx context.Context, conversationID, messageID, readerID string) error {
	if r == nil || r.pool == nil {
		return errors.New("PgChatRepository: nil pool")
	}
	id, err := parseID(conversationID)
	if err != nil {
		return err
	}

	// Already-read and own-sender cases leave the element as-is, the UPDATE
	// still matches the row, so re-marking is a no-op success by construction.
	ct, err := r.pool.Exec(ctx, `
		UPDATE chat.conversation c
		SET messages = (
			SELECT jsonb_agg(
				CASE WHEN t.m->>'id' = $2 AND t.m->>'sender' <> $3
				     THEN jsonb_set(t.m, '{read}', 'true'::jsonb)
				     ELSE t.m END
				ORDER BY t.ord)
			FROM jsonb_array_elements(c.messages) WITH ORDINALITY AS t(m, ord))
		WHERE c.id = $1
		  AND $3 = ANY(c.participant_ids)
		  AND EXISTS (SELECT 1 FROM jsonb_array_elements(c.messages) AS e
		              WHERE e->>'id' = $2)
	`, id, messageID, readerID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return r.classifyMiss(ctx, id, messageID, readerID)
	}
	return nil
}

func (r *PgChatRepository) MarkConversationRead(ctx context.Context, conversationID, readerID string) ([]chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	id, err := parseID(conversationID)
	if err != nil {
		return nil, err
	}

	var raw []byte
	err = r.pool.QueryRow(ctx, `
		UPDATE chat.conversation c
		SET messages = COALESCE((
			SELECT jsonb_agg(
				CASE WHEN t.m->>'sender' <> $2 AND NOT (t.m->>'read')::bool
				     THEN jsonb_set(t.m, '{read}', 'true'::jsonb)
				     ELSE t.m END
				ORDER BY t.ord)
			FROM jsonb_array_elements(c.messages) WITH ORDINALITY AS t(m, ord)), '[]'::jsonb)
		WHERE c.id = $1 AND $2 = ANY(c.participant_ids)
		RETURNING c.messages
	`, id, readerID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.classifyMiss(ctx, id, "", readerID)
	}
	if err != nil {
		return nil, err
	}

	var msgs []chat.Message
	if err := json.Unmarshal(raw, &msgs); err != nil {
		return nil, fmt.Errorf("decode message log: %w", err)
	}
	return msgs, nil
}

func (r *PgChatRepository) MarkMessageDelivered(ctx context.Context, conversationID, messageID string) error {
	if r == nil || r.pool == nil {
		return errors.New("PgChatRepository: nil pool")
	}
	id, err := parseID(conversationID)
	if err != nil {
		return err
	}

	ct, err := r.pool.Exec(ctx, `
		UPDATE chat.conversation c
		SET messages = (
			SELECT jsonb_agg(
				CASE WHEN t.m->>'id' = $2
				     THEN jsonb_set(t.m, '{delivered}', 'true'::jsonb)
				     ELSE t.m END
				ORDER BY t.ord)
			FROM jsonb_array_elements(c.messages) WITH ORDINALITY AS t(m, ord))
		WHERE c.id = $1
		  AND EXISTS (SELECT 1 FROM jsonb_array_elements(c.messages) AS e
		              WHERE e->>'id' = $2)
	`, id, messageID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return chat.ErrNotFound
	}
	return nil
}

func (r *PgChatRepository) DeleteMessage(ctx context.Context, conversationID, messageID, requesterID string) error {
	if r == nil || r.pool == nil {
		return errors.New("PgChatRepository: nil pool")
	}
	id, err := parseID(conversationID)
	if err != nil {
		return err
	}

	// Removal and the last_message_at recompute happen in one statement so a
	// concurrent append cannot observe a stale watermark.
	ct, err := r.pool.Exec(ctx, `
		UPDATE chat.conversation c
		SET messages = COALESCE((
			SELECT jsonb_agg(t.m ORDER BY t.ord)
			FROM jsonb_array_elements(c.messages) WITH ORDINALITY AS t(m, ord)
			WHERE t.m->>'id' <> $2), '[]'::jsonb),
		    last_message_at = COALESCE((
			SELECT max((t.m->>'timestamp')::timestamptz)
			FROM jsonb_array_elements(c.messages) AS t(m)
			WHERE t.m->>'id' <> $2), c.created_at)
		WHERE c.id = $1
		  AND EXISTS (SELECT 1 FROM jsonb_array_elements(c.messages) AS e
		              WHERE e->>'id' = $2 AND e->>'sender' = $3)
	`, id, messageID, requesterID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		if err := r.classifyMiss(ctx, id, messageID, requesterID); err != nil {
			return err
		}
		// Conversation and message both exist: the requester is not the sender.
		return chat.ErrNotSender
	}
	return nil
}

func (r *PgChatRepository) SearchMessages(ctx context.Context, userID, query string, conversationID *string, limit int) ([]chat.MessageHit, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	if limit <= 0 {
		limit = 50
	}
	var scope *uuid.UUID
	if conversationID != nil {
		id, err := parseID(*conversationID)
		if err != nil {
			return nil, err
		}
		scope = &id
	}

	rows, err := r.pool.Query(ctx, `
		SELECT c.id::text, t.m
		FROM chat.conversation c, jsonb_array_elements(c.messages) AS t(m)
		WHERE $1 = ANY(c.participant_ids)
		  AND ($3::uuid IS NULL OR c.id = $3::uuid)
		  AND t.m->>'content' ILIKE '%' || $2 || '%' ESCAPE '\'
		ORDER BY (t.m->>'timestamp')::timestamptz DESC
		LIMIT $4
	`, userID, escapeLike(query), scope, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []chat.MessageHit
	for rows.Next() {
		var (
			hit chat.MessageHit
			raw []byte
		)
		if err := rows.Scan(&hit.ConversationID, &raw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &hit.Message); err != nil {
			return nil, fmt.Errorf("decode message: %w", err)
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

func (r *PgChatRepository) ListParticipantIDs(ctx context.Context, conversationID string) ([]string, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	id, err := parseID(conversationID)
	if err != nil {
		return nil, err
	}

	var ids []string
	err = r.pool.QueryRow(ctx,
		`SELECT participant_ids FROM chat.conversation WHERE id = $1`, id,
	).Scan(&ids)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, chat.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// classifyMiss turns a zero-row mutation into the precise taxonomy error:
// missing conversation, caller outside the participant set, or missing
// message. Returns nil when all three preconditions hold (the caller then
// knows the miss was a permission nuance of its own statement).
func (r *PgChatRepository) classifyMiss(ctx context.Context, id uuid.UUID, messageID, callerID string) error {
	var isParticipant, messageExists bool
	err := r.pool.QueryRow(ctx, `
		SELECT $2 = ANY(c.participant_ids),
		       ($3 = '' OR EXISTS (SELECT 1 FROM jsonb_array_elements(c.messages) AS e
		                           WHERE e->>'id' = $3))
		FROM chat.conversation c
		WHERE c.id = $1
	`, id, callerID, messageID).Scan(&isParticipant, &messageExists)
	if errors.Is(err, pgx.ErrNoRows) {
		return chat.ErrNotFound
	}
	if err != nil {
		return err
	}
	if !isParticipant {
		return chat.ErrNotParticipant
	}
	if !messageExists {
		return chat.ErrNotFound
	}
	return nil
}

func scanConversation(row pgx.Row) (*chat.Conversation, error) {
	var (
		conv chat.Conversation
		raw  []byte
	)
	err := row.Scan(&conv.ID, &conv.ParticipantIDs, &conv.ProjectID, &raw, &conv.CreatedAt, &conv.LastMessageAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, chat.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &conv.Messages); err != nil {
		return nil, fmt.Errorf("decode message log: %w", err)
	}
	if conv.Messages == nil {
		conv.Messages = []chat.Message{}
	}
	return &conv, nil
}

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("%w: malformed conversation id", chat.ErrInvalidArgument)
	}
	return id, nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(q string) string {
	return likeEscaper.Replace(q)
}
