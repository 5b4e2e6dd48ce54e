package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Queues table - one row per named bounded queue
		`CREATE TABLE IF NOT EXISTS queues (
			name TEXT PRIMARY KEY,
			max_depth INTEGER NOT NULL CHECK(max_depth > 0),
			max_msg_size INTEGER NOT NULL CHECK(max_msg_size > 0),
			created_at INTEGER NOT NULL
		)`,

		// Queue messages table - FIFO order is the seq column
		`CREATE TABLE IF NOT EXISTS queue_messages (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			queue TEXT NOT NULL REFERENCES queues(name) ON DELETE CASCADE,
			message_id TEXT NOT NULL,
			body BLOB NOT NULL,
			created_at INTEGER NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_queue_messages_queue_seq ON queue_messages(queue, seq)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
