package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/models"
)

const videoColumns = `id, owner_id, video_url, thumbnail_url, title, description, duration, views, is_published, created_at, updated_at`

const videoWithOwnerColumns = `v.id, v.owner_id, v.video_url, v.thumbnail_url, v.title, v.description, v.duration, v.views, v.is_published, v.created_at, v.updated_at,
               u.id, u.username, u.full_name, u.avatar_url`

// VideoSearchParams narrows and orders a published-video listing.
type VideoSearchParams struct {
	OwnerID  string
	Query    string
	SortBy   string // views, createdAt, or duration
	SortType string // asc or desc
	Page     int
	Limit    int
}

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, owner_id, video_url, thumbnail_url, title, description, duration, views, is_published, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, video.ID, video.OwnerID, video.VideoURL, video.ThumbnailURL, video.Title, video.Description,
		video.Duration, video.Views, video.IsPublished, video.CreatedAt, video.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert video: %w", err)
	}
	return nil
}

// FindByID fetches a single video by id.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var video models.Video
	row := conn.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id)
	if err := scanVideo(row, &video); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("select video: %w", err)
	}
	return video, nil
}

// Search pages through the published videos of one owner, optionally filtered
// by a title/description substring and sorted by views, createdAt, or duration.
func (r *PostgresVideoRepository) Search(ctx context.Context, params VideoSearchParams) (models.VideoPage, error) {
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Limit <= 0 || params.Limit > 100 {
		params.Limit = 10
	}

	orderColumn := "v.created_at"
	switch params.SortBy {
	case "views":
		orderColumn = "v.views"
	case "duration":
		orderColumn = "v.duration"
	case "createdAt", "":
		orderColumn = "v.created_at"
	}
	direction := "DESC"
	if params.SortType == "asc" {
		direction = "ASC"
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.VideoPage{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	filter := `($1 = '' OR v.owner_id = $1) AND v.is_published AND ($2 = '' OR v.title ILIKE '%' || $2 || '%' OR v.description ILIKE '%' || $2 || '%')`

	var total int64
	if err := conn.QueryRow(ctx, `
        SELECT COUNT(*) FROM videos v WHERE `+filter,
		params.OwnerID, params.Query).Scan(&total); err != nil {
		return models.VideoPage{}, fmt.Errorf("count videos: %w", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT `+videoWithOwnerColumns+`
        FROM videos v
        JOIN users u ON u.id = v.owner_id
        WHERE `+filter+`
        ORDER BY `+orderColumn+` `+direction+`
        LIMIT $3 OFFSET $4
    `, params.OwnerID, params.Query, params.Limit, (params.Page-1)*params.Limit)
	if err != nil {
		return models.VideoPage{}, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	videos, err := scanVideosWithOwner(rows)
	if err != nil {
		return models.VideoPage{}, err
	}

	return models.VideoPage{
		Videos:     videos,
		Page:       params.Page,
		Limit:      params.Limit,
		TotalCount: total,
	}, nil
}

// ListByOwner returns every video of a channel, drafts included unless
// publishedOnly is set.
func (r *PostgresVideoRepository) ListByOwner(ctx context.Context, ownerID string, publishedOnly bool) ([]models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+videoColumns+`
        FROM videos
        WHERE owner_id = $1 AND ($2 = false OR is_published)
        ORDER BY created_at DESC
    `, ownerID, publishedOnly)
	if err != nil {
		return nil, fmt.Errorf("query owner videos: %w", err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		var video models.Video
		if err := scanVideo(rows, &video); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}
	return videos, nil
}

// UpdateDetails patches a video's title and description.
func (r *PostgresVideoRepository) UpdateDetails(ctx context.Context, id, title, description string) (models.Video, error) {
	return r.patch(ctx, `
        UPDATE videos SET title = $2, description = $3, updated_at = $4 WHERE id = $1
    `, id, title, description, time.Now().UTC())
}

// UpdateThumbnail replaces a video's thumbnail location.
func (r *PostgresVideoRepository) UpdateThumbnail(ctx context.Context, id, thumbnailURL string) (models.Video, error) {
	return r.patch(ctx, `
        UPDATE videos SET thumbnail_url = $2, updated_at = $3 WHERE id = $1
    `, id, thumbnailURL, time.Now().UTC())
}

// SetPublished flips a video's publication flag.
func (r *PostgresVideoRepository) SetPublished(ctx context.Context, id string, published bool) (models.Video, error) {
	return r.patch(ctx, `
        UPDATE videos SET is_published = $2, updated_at = $3 WHERE id = $1
    `, id, published, time.Now().UTC())
}

// IncrementViews bumps the view counter by one.
func (r *PostgresVideoRepository) IncrementViews(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `UPDATE videos SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a video row. Associated likes, comments, playlist entries,
// and history rows cascade at the schema level.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ChannelStats aggregates dashboard figures for one channel. An empty channel
// is a legitimate state and yields all-zero stats.
func (r *PostgresVideoRepository) ChannelStats(ctx context.Context, channelID string) (models.ChannelStats, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.ChannelStats{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var stats models.ChannelStats
	row := conn.QueryRow(ctx, `
        SELECT
            (SELECT COUNT(*) FROM videos v WHERE v.owner_id = $1),
            (SELECT COALESCE(SUM(v.views), 0) FROM videos v WHERE v.owner_id = $1),
            (SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = $1),
            (SELECT COUNT(*) FROM likes l JOIN videos v ON v.id = l.video_id WHERE v.owner_id = $1)
    `, channelID)
	if err := row.Scan(&stats.TotalVideos, &stats.TotalViews, &stats.TotalSubscribers, &stats.TotalLikes); err != nil {
		return models.ChannelStats{}, fmt.Errorf("select channel stats: %w", err)
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(row rowScanner, video *models.Video) error {
	return row.Scan(&video.ID, &video.OwnerID, &video.VideoURL, &video.ThumbnailURL, &video.Title,
		&video.Description, &video.Duration, &video.Views, &video.IsPublished, &video.CreatedAt, &video.UpdatedAt)
}

func scanVideosWithOwner(rows pgx.Rows) ([]models.VideoWithOwner, error) {
	var videos []models.VideoWithOwner
	for rows.Next() {
		var v models.VideoWithOwner
		if err := rows.Scan(&v.ID, &v.OwnerID, &v.VideoURL, &v.ThumbnailURL, &v.Title, &v.Description,
			&v.Duration, &v.Views, &v.IsPublished, &v.CreatedAt, &v.UpdatedAt,
			&v.OwnerDetails.ID, &v.OwnerDetails.Username, &v.OwnerDetails.FullName, &v.OwnerDetails.AvatarURL); err != nil {
			return nil, fmt.Errorf("scan video with owner: %w", err)
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}
	return videos, nil
}

func (r *PostgresVideoRepository) patch(ctx context.Context, query string, args ...any) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, query, args...)
	if err != nil {
		return models.Video{}, fmt.Errorf("update video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.Video{}, ErrNotFound
	}

	id, _ := args[0].(string)
	return r.FindByID(ctx, id)
}
