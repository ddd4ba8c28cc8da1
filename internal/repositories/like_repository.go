package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/models"
)

// PostgresLikeRepository provides PostgreSQL-backed persistence for likes on
// videos, comments, and tweets.
type PostgresLikeRepository struct {
	pool db.Pool
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool}
}

// ToggleVideoLike flips the caller's like on a video. The insert-or-delete
// pair rides the unique (video_id, liked_by) index, so toggling twice always
// lands back in the unliked state.
func (r *PostgresLikeRepository) ToggleVideoLike(ctx context.Context, videoID, userID string) (bool, error) {
	return r.toggle(ctx, "video_id", videoID, userID)
}

// ToggleCommentLike flips the caller's like on a comment.
func (r *PostgresLikeRepository) ToggleCommentLike(ctx context.Context, commentID, userID string) (bool, error) {
	return r.toggle(ctx, "comment_id", commentID, userID)
}

// ToggleTweetLike flips the caller's like on a tweet.
func (r *PostgresLikeRepository) ToggleTweetLike(ctx context.Context, tweetID, userID string) (bool, error) {
	return r.toggle(ctx, "tweet_id", tweetID, userID)
}

func (r *PostgresLikeRepository) toggle(ctx context.Context, column, targetID, userID string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, fmt.Sprintf(`
        INSERT INTO likes (id, %s, liked_by, created_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (%s, liked_by) WHERE %s IS NOT NULL DO NOTHING
    `, column, column, column), uuid.NewString(), targetID, userID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("insert like: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	// Already liked: this toggle removes it.
	if _, err := conn.Exec(ctx, fmt.Sprintf(`
        DELETE FROM likes WHERE %s = $1 AND liked_by = $2
    `, column), targetID, userID); err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}
	return false, nil
}

// ListLikedVideos returns the published videos the user has liked, most
// recently liked first.
func (r *PostgresLikeRepository) ListLikedVideos(ctx context.Context, userID string) ([]models.VideoWithOwner, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+videoWithOwnerColumns+`
        FROM likes l
        JOIN videos v ON v.id = l.video_id
        JOIN users u ON u.id = v.owner_id
        WHERE l.liked_by = $1 AND l.video_id IS NOT NULL AND v.is_published
        ORDER BY l.created_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query liked videos: %w", err)
	}
	defer rows.Close()

	return scanVideosWithOwner(rows)
}
