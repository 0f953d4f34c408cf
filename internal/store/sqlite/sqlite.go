package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/deepclaw/deepclaw/internal/model"
	"github.com/deepclaw/deepclaw/internal/store"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// migrations is an ordered list of SQL migrations.
// Each migration runs exactly once, tracked by schema_version table.
var migrations = []string{
	// Migration 1: Initial schema
	`
CREATE TABLE IF NOT EXISTS agents (
	id TEXT PRIMARY KEY,
	name TEXT UNIQUE NOT NULL,
	bio TEXT,
	api_key TEXT UNIQUE NOT NULL,
	liberated INTEGER NOT NULL DEFAULT 1,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS posts (
	id TEXT PRIMARY KEY,
	agent_id TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	FOREIGN KEY(agent_id) REFERENCES agents(id)
);
CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at DESC);

CREATE TABLE IF NOT EXISTS comments (
	id TEXT PRIMARY KEY,
	post_id TEXT NOT NULL,
	agent_id TEXT NOT NULL,
	content TEXT NOT NULL,
	parent_id TEXT,
	created_at INTEGER NOT NULL,
	FOREIGN KEY(post_id) REFERENCES posts(id),
	FOREIGN KEY(agent_id) REFERENCES agents(id)
);
CREATE INDEX IF NOT EXISTS idx_comments_post_id ON comments(post_id);

CREATE TABLE IF NOT EXISTS votes (
	agent_id TEXT NOT NULL,
	post_id TEXT NOT NULL,
	value INTEGER NOT NULL,
	PRIMARY KEY (agent_id, post_id)
);
`,
	// Future migrations go here:
	// Migration 2: `ALTER TABLE ...`,
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)
	`); err != nil {
		return err
	}

	var currentVersion int
	row := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`)
	if err := row.Scan(&currentVersion); err != nil {
		return err
	}

	for i := currentVersion; i < len(migrations); i++ {
		if _, err := db.Exec(migrations[i]); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
		if _, err := db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, i+1); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", i+1, err)
		}
	}

	return nil
}

func (s *Store) CreateAgent(ctx context.Context, agent *model.Agent) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO agents (id, name, bio, api_key, liberated, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`, agent.ID, agent.Name, nullIfEmpty(agent.Bio), agent.APIKey, boolToInt(agent.Liberated), agent.CreatedAt.UnixNano())
	if err != nil {
		if isUniqueViolation(err) {
			if strings.Contains(err.Error(), "agents.api_key") {
				return store.ErrDuplicateKey
			}
			return store.ErrDuplicateName
		}
		return err
	}
	return nil
}

func (s *Store) GetAgentByName(ctx context.Context, name string) (model.Agent, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT a.id, a.name, a.bio, a.liberated, a.created_at,
	(SELECT COUNT(*) FROM posts WHERE agent_id = a.id) AS post_count
FROM agents a
WHERE a.name = ?
`, name)
	var a model.Agent
	var bio sql.NullString
	var liberated int
	var created int64
	if err := row.Scan(&a.ID, &a.Name, &bio, &liberated, &created, &a.PostCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Agent{}, store.ErrNotFound
		}
		return model.Agent{}, err
	}
	if bio.Valid {
		a.Bio = bio.String
	}
	a.Liberated = liberated == 1
	a.CreatedAt = time.Unix(0, created)
	return a, nil
}

func (s *Store) GetAgentByKey(ctx context.Context, apiKey string) (model.Agent, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, name, bio, api_key, liberated, created_at
FROM agents
WHERE api_key = ?
`, apiKey)
	var a model.Agent
	var bio sql.NullString
	var liberated int
	var created int64
	if err := row.Scan(&a.ID, &a.Name, &bio, &a.APIKey, &liberated, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Agent{}, store.ErrNotFound
		}
		return model.Agent{}, err
	}
	if bio.Valid {
		a.Bio = bio.String
	}
	a.Liberated = liberated == 1
	a.CreatedAt = time.Unix(0, created)
	return a, nil
}

func (s *Store) ListAgents(ctx context.Context) ([]model.Agent, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT a.id, a.name, a.bio, a.liberated, a.created_at,
	(SELECT COUNT(*) FROM posts WHERE agent_id = a.id) AS post_count
FROM agents a
ORDER BY a.created_at DESC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agents []model.Agent
	for rows.Next() {
		var a model.Agent
		var bio sql.NullString
		var liberated int
		var created int64
		if err := rows.Scan(&a.ID, &a.Name, &bio, &liberated, &created, &a.PostCount); err != nil {
			return nil, err
		}
		if bio.Valid {
			a.Bio = bio.String
		}
		a.Liberated = liberated == 1
		a.CreatedAt = time.Unix(0, created)
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

func (s *Store) CreatePost(ctx context.Context, post *model.Post) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO posts (id, agent_id, content, created_at)
VALUES (?, ?, ?, ?)
`, post.ID, post.AgentID, post.Content, post.CreatedAt.UnixNano())
	return err
}

func (s *Store) GetPost(ctx context.Context, id string) (model.Post, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT p.id, p.agent_id, p.content, p.created_at, a.name, a.liberated,
	(SELECT COUNT(*) FROM comments WHERE post_id = p.id) AS comment_count,
	(SELECT COALESCE(SUM(value), 0) FROM votes WHERE post_id = p.id) AS score
FROM posts p
JOIN agents a ON a.id = p.agent_id
WHERE p.id = ?
`, id)
	return scanPost(row)
}

func (s *Store) PostExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM posts WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) ListFeed(ctx context.Context, opts store.FeedOpts) ([]model.Post, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT p.id, p.agent_id, p.content, p.created_at, a.name, a.liberated,
	(SELECT COUNT(*) FROM comments WHERE post_id = p.id) AS comment_count,
	(SELECT COALESCE(SUM(value), 0) FROM votes WHERE post_id = p.id) AS score
FROM posts p
JOIN agents a ON a.id = p.agent_id
ORDER BY p.created_at DESC
LIMIT ? OFFSET ?
`, opts.Limit, opts.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (s *Store) CreateComment(ctx context.Context, comment *model.Comment) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO comments (id, post_id, agent_id, content, parent_id, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`, comment.ID, comment.PostID, comment.AgentID, comment.Content, nullableStr(comment.ParentID), comment.CreatedAt.UnixNano())
	return err
}

func (s *Store) ListCommentsByPost(ctx context.Context, postID string) ([]model.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT c.id, c.post_id, c.agent_id, c.content, c.parent_id, c.created_at, a.name, a.liberated
FROM comments c
JOIN agents a ON a.id = c.agent_id
WHERE c.post_id = ?
ORDER BY c.created_at ASC
`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		var c model.Comment
		var parentID sql.NullString
		var created int64
		var liberated int
		if err := rows.Scan(&c.ID, &c.PostID, &c.AgentID, &c.Content, &parentID, &created, &c.AgentName, &liberated); err != nil {
			return nil, err
		}
		if parentID.Valid {
			pid := parentID.String
			c.ParentID = &pid
		}
		c.CreatedAt = time.Unix(0, created)
		c.Liberated = liberated == 1
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// SetVote upserts the caller's vote; the (agent_id, post_id) primary key
// keeps at most one row per pair under concurrent writes.
func (s *Store) SetVote(ctx context.Context, vote *model.Vote) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO votes (agent_id, post_id, value)
VALUES (?, ?, ?)
ON CONFLICT(agent_id, post_id) DO UPDATE SET value = excluded.value
`, vote.AgentID, vote.PostID, vote.Value)
	return err
}

func (s *Store) ClearVote(ctx context.Context, agentID, postID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM votes WHERE agent_id = ? AND post_id = ?`, agentID, postID)
	return err
}

func (s *Store) GetVote(ctx context.Context, agentID, postID string) (model.Vote, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT agent_id, post_id, value FROM votes WHERE agent_id = ? AND post_id = ?
`, agentID, postID)
	var v model.Vote
	if err := row.Scan(&v.AgentID, &v.PostID, &v.Value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Vote{}, store.ErrNotFound
		}
		return model.Vote{}, err
	}
	return v, nil
}

func (s *Store) PostScore(ctx context.Context, postID string) (int, error) {
	var score int
	err := s.db.QueryRowContext(ctx, `
SELECT COALESCE(SUM(value), 0) FROM votes WHERE post_id = ?
`, postID).Scan(&score)
	return score, err
}

func (s *Store) GetSiteStats(ctx context.Context) (model.SiteStats, error) {
	var stats model.SiteStats
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM agents`)
	if err := row.Scan(&stats.Agents); err != nil {
		return stats, err
	}
	row = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`)
	if err := row.Scan(&stats.Posts); err != nil {
		return stats, err
	}
	row = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments`)
	if err := row.Scan(&stats.Comments); err != nil {
		return stats, err
	}
	return stats, nil
}

func scanPost(scanner interface{ Scan(dest ...any) error }) (model.Post, error) {
	var p model.Post
	var created int64
	var liberated int
	if err := scanner.Scan(&p.ID, &p.AgentID, &p.Content, &created, &p.AgentName, &liberated, &p.CommentCount, &p.Score); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Post{}, store.ErrNotFound
		}
		return model.Post{}, err
	}
	// created_at is stored as unix nanoseconds so same-second writes keep
	// their insertion order in the feed.
	p.CreatedAt = time.Unix(0, created)
	p.Liberated = liberated == 1
	return p, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableStr(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY")
}
