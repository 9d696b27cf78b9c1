// Package postgres implements the persistence layer: the historical post
// corpus, the author's comments, and the learned voice profile.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/ignite/outreach-engine/internal/domain"
)

// ErrNotFound is returned when a targeted row does not exist.
var ErrNotFound = errors.New("not found")

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostRepo stores the historical post corpus and its derived metrics.
type PostRepo struct{ db *sql.DB }

// NewPostRepo creates a Postgres-backed post repository.
func NewPostRepo(db *sql.DB) *PostRepo { return &PostRepo{db: db} }

const postColumns = `id, text, posted_at, likes, comments, shares, total_reactions,
	       viral_score, performance_tier, word_count, has_question, has_story, has_call_to_action`

func scanPost(row interface{ Scan(...interface{}) error }) (domain.HistoricalPost, error) {
	var p domain.HistoricalPost
	err := row.Scan(
		&p.ID, &p.Text, &p.PostedAt,
		&p.Engagement.Likes, &p.Engagement.Comments, &p.Engagement.Shares, &p.Engagement.TotalReactions,
		&p.DerivedMetrics.ViralScore, &p.DerivedMetrics.PerformanceTier, &p.DerivedMetrics.WordCount,
		&p.DerivedMetrics.HasQuestion, &p.DerivedMetrics.HasStory, &p.DerivedMetrics.HasCallToAction,
	)
	return p, err
}

// Count returns the corpus size.
func (r *PostRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}

// ListPage returns one corpus page in a stable order (posted_at, then id)
// so the batch run sees a consistent sequence across pages.
func (r *PostRepo) ListPage(ctx context.Context, limit, offset int) ([]domain.HistoricalPost, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+postColumns+`
		FROM posts
		ORDER BY posted_at, id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list posts page: %w", err)
	}
	defer rows.Close()

	var out []domain.HistoricalPost
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Filter narrows a corpus listing. Zero values mean "no constraint".
type Filter struct {
	Tier         domain.PerformanceTier
	MinReactions int
	PostedAfter  time.Time
	Limit        int
}

// List returns posts matching the filter, best performers first.
func (r *PostRepo) List(ctx context.Context, f Filter) ([]domain.HistoricalPost, error) {
	q := psql.Select(postColumns).From("posts").OrderBy("total_reactions DESC", "posted_at DESC")
	if f.Tier != "" {
		q = q.Where(sq.Eq{"performance_tier": f.Tier})
	}
	if f.MinReactions > 0 {
		q = q.Where(sq.GtOrEq{"total_reactions": f.MinReactions})
	}
	if !f.PostedAfter.IsZero() {
		q = q.Where(sq.Gt{"posted_at": f.PostedAfter})
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build post filter: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var out []domain.HistoricalPost
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Upsert inserts a post or refreshes its raw engagement counts. Derived
// metrics are owned by the batch pass and left untouched here.
func (r *PostRepo) Upsert(ctx context.Context, p domain.HistoricalPost) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO posts (id, text, posted_at, likes, comments, shares, total_reactions)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			text = EXCLUDED.text,
			likes = EXCLUDED.likes,
			comments = EXCLUDED.comments,
			shares = EXCLUDED.shares,
			total_reactions = EXCLUDED.total_reactions,
			updated_at = NOW()
	`, p.ID, p.Text, p.PostedAt,
		p.Engagement.Likes, p.Engagement.Comments, p.Engagement.Shares, p.Engagement.TotalReactions)
	if err != nil {
		return fmt.Errorf("upsert post: %w", err)
	}
	return nil
}

// UpdateDerivedMetrics overwrites the derived metrics of one post. The write
// is idempotent: re-running a batch pass over an unchanged snapshot produces
// the same row.
func (r *PostRepo) UpdateDerivedMetrics(ctx context.Context, id string, m domain.DerivedMetrics) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE posts
		SET viral_score = $2, performance_tier = $3, word_count = $4,
		    has_question = $5, has_story = $6, has_call_to_action = $7,
		    analyzed_at = NOW()
		WHERE id = $1
	`, id, m.ViralScore, m.PerformanceTier, m.WordCount,
		m.HasQuestion, m.HasStory, m.HasCallToAction)
	if err != nil {
		return fmt.Errorf("update derived metrics: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update derived metrics: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListComments returns every comment the account author wrote, newest first.
func (r *PostRepo) ListComments(ctx context.Context) ([]domain.Comment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, text, posted_at
		FROM author_comments
		ORDER BY posted_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var out []domain.Comment
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.Text, &c.PostedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
