package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/renatooliveira/savethebeat/internal/domain"
)

// Compile-time interface assertions.
var (
	_ UserAuthRepository   = (*PostgresUserAuthRepo)(nil)
	_ SaveActionRepository = (*PostgresSaveActionRepo)(nil)
)

// uniqueViolation is PostgreSQL SQLSTATE 23505.
const uniqueViolation = "23505"

// PostgresUserAuthRepo implements UserAuthRepository on pgx.
type PostgresUserAuthRepo struct {
	pool *pgxpool.Pool
	node *snowflake.Node
}

func NewPostgresUserAuthRepo(pool *pgxpool.Pool, node *snowflake.Node) *PostgresUserAuthRepo {
	return &PostgresUserAuthRepo{pool: pool, node: node}
}

const userAuthColumns = `id, workspace_id, user_id, spotify_user_id, access_token, refresh_token, expires_at, paused, created_at, updated_at`

func (r *PostgresUserAuthRepo) Get(ctx context.Context, workspaceID, userID string) (*domain.UserAuth, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userAuthColumns+` FROM user_auth WHERE workspace_id = $1 AND user_id = $2`,
		workspaceID, userID,
	)
	auth, err := scanUserAuth(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user auth: %w", err)
	}
	return &auth, nil
}

func (r *PostgresUserAuthRepo) Upsert(ctx context.Context, params UpsertUserAuthParams) (domain.UserAuth, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO user_auth (id, workspace_id, user_id, spotify_user_id, access_token, refresh_token, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (workspace_id, user_id)
		DO UPDATE SET
			spotify_user_id = EXCLUDED.spotify_user_id,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			expires_at = EXCLUDED.expires_at,
			updated_at = NOW()
		RETURNING `+userAuthColumns,
		r.node.Generate().Int64(),
		params.WorkspaceID,
		params.UserID,
		params.SpotifyUserID,
		params.AccessToken,
		params.RefreshToken,
		params.ExpiresAt,
	)
	auth, err := scanUserAuth(row)
	if err != nil {
		return domain.UserAuth{}, fmt.Errorf("upsert user auth: %w", err)
	}
	return auth, nil
}

func (r *PostgresUserAuthRepo) UpdateTokens(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE user_auth
		SET access_token = $1, refresh_token = $2, expires_at = $3, updated_at = NOW()
		WHERE id = $4`,
		accessToken, refreshToken, expiresAt, id,
	)
	if err != nil {
		return fmt.Errorf("update tokens: %w", err)
	}
	return nil
}

func scanUserAuth(row pgx.Row) (domain.UserAuth, error) {
	var auth domain.UserAuth
	err := row.Scan(
		&auth.ID,
		&auth.WorkspaceID,
		&auth.UserID,
		&auth.SpotifyUserID,
		&auth.AccessToken,
		&auth.RefreshToken,
		&auth.ExpiresAt,
		&auth.Paused,
		&auth.CreatedAt,
		&auth.UpdatedAt,
	)
	return auth, err
}

// PostgresSaveActionRepo implements SaveActionRepository on pgx.
type PostgresSaveActionRepo struct {
	pool *pgxpool.Pool
	node *snowflake.Node
}

func NewPostgresSaveActionRepo(pool *pgxpool.Pool, node *snowflake.Node) *PostgresSaveActionRepo {
	return &PostgresSaveActionRepo{pool: pool, node: node}
}

func (r *PostgresSaveActionRepo) Find(ctx context.Context, workspaceID, userID, threadID, trackID string) (*domain.SaveAction, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, workspace_id, user_id, channel_id, thread_id, mention_id, track_id,
		       status, error_code, error_message, created_at
		FROM save_action_log
		WHERE workspace_id = $1 AND user_id = $2 AND thread_id = $3 AND track_id = $4`,
		workspaceID, userID, threadID, trackID,
	)

	var action domain.SaveAction
	err := row.Scan(
		&action.ID,
		&action.WorkspaceID,
		&action.UserID,
		&action.ChannelID,
		&action.ThreadID,
		&action.MentionID,
		&action.TrackID,
		&action.Status,
		&action.ErrorCode,
		&action.ErrorMessage,
		&action.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find save action: %w", err)
	}
	return &action, nil
}

func (r *PostgresSaveActionRepo) Insert(ctx context.Context, action domain.SaveAction) error {
	if !action.Status.Valid() {
		return fmt.Errorf("insert save action: invalid status %q", action.Status)
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO save_action_log (id, workspace_id, user_id, channel_id, thread_id, mention_id, track_id, status, error_code, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		r.node.Generate().Int64(),
		action.WorkspaceID,
		action.UserID,
		action.ChannelID,
		action.ThreadID,
		action.MentionID,
		action.TrackID,
		action.Status,
		action.ErrorCode,
		action.ErrorMessage,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrDuplicateSaveAction
		}
		return fmt.Errorf("insert save action: %w", err)
	}
	return nil
}
