package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a requested queue does not exist.
	ErrNotFound = errors.New("not found")
	// ErrQueueFull is returned when a queue already holds max_depth messages.
	ErrQueueFull = errors.New("queue is full")
	// ErrMessageTooLarge is returned for bodies above the queue's size limit.
	ErrMessageTooLarge = errors.New("message exceeds queue size limit")
)

// Queue describes a named bounded queue.
type Queue struct {
	Name       string
	MaxDepth   int
	MaxMsgSize int
	CreatedAt  time.Time
}

// Message is a queued message.
type Message struct {
	ID        string
	Body      []byte
	CreatedAt time.Time
}

// QueueRepository provides operations on named queues.
type QueueRepository struct {
	db *sql.DB
}

// Queues returns the queue repository for this store.
func (s *Store) Queues() *QueueRepository {
	return &QueueRepository{db: s.db}
}

// Open creates the queue if it does not exist and returns its definition.
// Limits of an existing queue are left unchanged.
func (r *QueueRepository) Open(ctx context.Context, name string, maxDepth, maxMsgSize int) (*Queue, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO queues (name, max_depth, max_msg_size, created_at)
		 VALUES (?, ?, ?, ?)`,
		name, maxDepth, maxMsgSize, time.Now().UnixMilli(),
	)
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, name)
}

// Get retrieves a queue definition by name.
func (r *QueueRepository) Get(ctx context.Context, name string) (*Queue, error) {
	q := &Queue{}
	var created int64

	err := r.db.QueryRowContext(ctx,
		`SELECT name, max_depth, max_msg_size, created_at FROM queues WHERE name = ?`,
		name,
	).Scan(&q.Name, &q.MaxDepth, &q.MaxMsgSize, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	q.CreatedAt = time.UnixMilli(created)
	return q, nil
}

// List returns every queue ordered by name.
func (r *QueueRepository) List(ctx context.Context) ([]*Queue, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, max_depth, max_msg_size, created_at FROM queues ORDER BY name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var queues []*Queue
	for rows.Next() {
		q := &Queue{}
		var created int64
		if err := rows.Scan(&q.Name, &q.MaxDepth, &q.MaxMsgSize, &created); err != nil {
			return nil, err
		}
		q.CreatedAt = time.UnixMilli(created)
		queues = append(queues, q)
	}
	return queues, rows.Err()
}

// Push appends a message to the tail of the queue. It returns ErrQueueFull
// without blocking when the queue is at capacity.
func (r *QueueRepository) Push(ctx context.Context, name string, body []byte) (string, error) {
	q, err := r.Get(ctx, name)
	if err != nil {
		return "", err
	}
	if len(body) > q.MaxMsgSize {
		return "", ErrMessageTooLarge
	}

	id := uuid.NewString()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO queue_messages (queue, message_id, body, created_at)
		 SELECT ?, ?, ?, ?
		 WHERE (SELECT COUNT(*) FROM queue_messages WHERE queue = ?) < ?`,
		name, id, body, time.Now().UnixMilli(), name, q.MaxDepth,
	)
	if err != nil {
		return "", err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", ErrQueueFull
	}
	return id, nil
}

// Pop removes and returns the head of the queue. ok is false when the queue
// is empty.
func (r *QueueRepository) Pop(ctx context.Context, name string) (msg *Message, ok bool, err error) {
	m := &Message{}
	var created int64

	err = r.db.QueryRowContext(ctx,
		`DELETE FROM queue_messages
		 WHERE seq = (SELECT seq FROM queue_messages WHERE queue = ? ORDER BY seq LIMIT 1)
		 RETURNING message_id, body, created_at`,
		name,
	).Scan(&m.ID, &m.Body, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	m.CreatedAt = time.UnixMilli(created)
	return m, true, nil
}

// Len returns the number of messages waiting in the queue.
func (r *QueueRepository) Len(ctx context.Context, name string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM queue_messages WHERE queue = ?`, name,
	).Scan(&n)
	return n, err
}

// Remove deletes a queue and any messages still in it.
func (r *QueueRepository) Remove(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM queues WHERE name = ?`, name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
