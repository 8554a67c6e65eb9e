package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/memohai/converse/internal/db"
	"github.com/memohai/converse/internal/db/sqlc"
)

// PostgresRepository stores identities in PostgreSQL. Owner and extension
// creates share one transaction.
type PostgresRepository struct {
	pool    *pgxpool.Pool
	queries *sqlc.Queries
	logger  *slog.Logger
}

func NewPostgresRepository(log *slog.Logger, pool *pgxpool.Pool, queries *sqlc.Queries) *PostgresRepository {
	return &PostgresRepository{
		pool:    pool,
		queries: queries,
		logger:  log.With(slog.String("repository", "identity_postgres")),
	}
}

func (r *PostgresRepository) GetTenant(ctx context.Context, id string) (Tenant, error) {
	pgID, err := db.ParseUUID(id)
	if err != nil {
		return Tenant{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	row, err := r.queries.GetTenantByID(ctx, pgID)
	if err != nil {
		return Tenant{}, mapError(err, "tenant "+id)
	}
	return toTenant(row), nil
}

func (r *PostgresRepository) GetTenantByExternalID(ctx context.Context, externalID string) (Tenant, error) {
	row, err := r.queries.GetTenantByExternalID(ctx, externalID)
	if err != nil {
		return Tenant{}, mapError(err, "tenant "+externalID)
	}
	return toTenant(row), nil
}

func (r *PostgresRepository) ListTenants(ctx context.Context) ([]Tenant, error) {
	rows, err := r.queries.ListTenants(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]Tenant, 0, len(rows))
	for _, row := range rows {
		items = append(items, toTenant(row))
	}
	return items, nil
}

func (r *PostgresRepository) CreateTenant(ctx context.Context, input NewTenant) (Tenant, error) {
	var created Tenant
	err := r.inTx(ctx, "create tenant", func(qtx *sqlc.Queries) error {
		row, err := qtx.CreateTenant(ctx, sqlc.CreateTenantParams{
			ExternalID:     input.ExternalID,
			Name:           input.Name,
			AccessToken:    input.AccessToken,
			BotUserID:      input.BotUserID,
			BotAccessToken: input.BotAccessToken,
		})
		if err != nil {
			return mapError(err, "tenant "+input.ExternalID)
		}
		if _, err := qtx.CreateExtensionRecord(ctx, sqlc.CreateExtensionRecordParams{
			Role:    string(RoleOrganization),
			Kind:    input.ExtensionKind,
			OwnerID: row.ID,
			Data:    emptyData,
		}); err != nil {
			return mapError(err, "organization extension")
		}
		created = toTenant(row)
		return nil
	})
	return created, err
}

func (r *PostgresRepository) UpdateTenant(ctx context.Context, input TenantInput) (Tenant, error) {
	row, err := r.queries.UpdateTenantCredentials(ctx, sqlc.UpdateTenantCredentialsParams{
		ExternalID:     input.ExternalID,
		Name:           input.Name,
		AccessToken:    input.AccessToken,
		BotUserID:      input.BotUserID,
		BotAccessToken: input.BotAccessToken,
	})
	if err != nil {
		return Tenant{}, mapError(err, "tenant "+input.ExternalID)
	}
	return toTenant(row), nil
}

func (r *PostgresRepository) FindUser(ctx context.Context, tenantID, platformUserID string) (ConversationIdentity, error) {
	pgTenantID, err := db.ParseUUID(tenantID)
	if err != nil {
		return ConversationIdentity{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	row, err := r.queries.GetPlatformUserIdentity(ctx, sqlc.GetPlatformUserIdentityParams{
		TenantID:       pgTenantID,
		PlatformUserID: platformUserID,
	})
	if err != nil {
		return ConversationIdentity{}, mapError(err, "user "+platformUserID)
	}
	return toIdentity(sqlc.ListPlatformUserIdentitiesRow(row)), nil
}

func (r *PostgresRepository) ListUsers(ctx context.Context, tenantID string) ([]ConversationIdentity, error) {
	pgTenantID, err := db.ParseUUID(tenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	rows, err := r.queries.ListPlatformUserIdentities(ctx, pgTenantID)
	if err != nil {
		return nil, err
	}
	items := make([]ConversationIdentity, 0, len(rows))
	for _, row := range rows {
		items = append(items, toIdentity(row))
	}
	return items, nil
}

func (r *PostgresRepository) CreateUser(ctx context.Context, input NewUser) (ConversationIdentity, error) {
	pgTenantID, err := db.ParseUUID(input.TenantID)
	if err != nil {
		return ConversationIdentity{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	var created ConversationIdentity
	err = r.inTx(ctx, "create user", func(qtx *sqlc.Queries) error {
		identityRow, err := qtx.CreateConversationIdentity(ctx, sqlc.CreateConversationIdentityParams{
			Name:  input.Name,
			Email: db.ToPgText(input.Email),
		})
		if err != nil {
			return mapError(err, "identity")
		}
		platformRow, err := qtx.CreatePlatformUser(ctx, sqlc.CreatePlatformUserParams{
			IdentityID:     identityRow.ID,
			TenantID:       pgTenantID,
			PlatformUserID: input.UserID,
			ChannelID:      db.ToPgText(input.ChannelID),
		})
		if err != nil {
			return mapError(err, "user "+input.UserID)
		}
		if _, err := qtx.CreateExtensionRecord(ctx, sqlc.CreateExtensionRecordParams{
			Role:    string(RoleUser),
			Kind:    input.ExtensionKind,
			OwnerID: identityRow.ID,
			Data:    emptyData,
		}); err != nil {
			return mapError(err, "user extension")
		}
		created = ConversationIdentity{
			ID:        db.UUIDToString(identityRow.ID),
			Name:      identityRow.Name,
			Email:     db.TextToString(identityRow.Email),
			CreatedAt: db.TimeFromPg(identityRow.CreatedAt),
			Platform: PlatformUser{
				TenantID:  db.UUIDToString(platformRow.TenantID),
				UserID:    platformRow.PlatformUserID,
				ChannelID: db.TextToString(platformRow.ChannelID),
			},
		}
		return nil
	})
	return created, err
}

func (r *PostgresRepository) UpdateUser(ctx context.Context, identity ConversationIdentity) error {
	pgID, err := db.ParseUUID(identity.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return r.inTx(ctx, "update user", func(qtx *sqlc.Queries) error {
		if err := qtx.UpdateConversationIdentity(ctx, sqlc.UpdateConversationIdentityParams{
			ID:    pgID,
			Name:  identity.Name,
			Email: db.ToPgText(identity.Email),
		}); err != nil {
			return err
		}
		return qtx.UpdatePlatformUserChannel(ctx, sqlc.UpdatePlatformUserChannelParams{
			IdentityID: pgID,
			ChannelID:  db.ToPgText(identity.Platform.ChannelID),
		})
	})
}

func (r *PostgresRepository) ListChannels(ctx context.Context, tenantID string) ([]Channel, error) {
	pgTenantID, err := db.ParseUUID(tenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	rows, err := r.queries.ListPlatformChannels(ctx, pgTenantID)
	if err != nil {
		return nil, err
	}
	items := make([]Channel, 0, len(rows))
	for _, row := range rows {
		items = append(items, toChannel(row))
	}
	return items, nil
}

func (r *PostgresRepository) CreateChannel(ctx context.Context, channel Channel) (Channel, error) {
	pgTenantID, err := db.ParseUUID(channel.TenantID)
	if err != nil {
		return Channel{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	row, err := r.queries.CreatePlatformChannel(ctx, sqlc.CreatePlatformChannelParams{
		TenantID:          pgTenantID,
		PlatformChannelID: channel.PlatformChannelID,
		Name:              channel.Name,
		IsMain:            channel.IsMain,
	})
	if err != nil {
		return Channel{}, mapError(err, "channel "+channel.PlatformChannelID)
	}
	return toChannel(row), nil
}

func (r *PostgresRepository) GetExtension(ctx context.Context, role Role, ownerID string) (ExtensionRecord, error) {
	pgOwnerID, err := db.ParseUUID(ownerID)
	if err != nil {
		return ExtensionRecord{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	row, err := r.queries.GetExtensionRecord(ctx, sqlc.GetExtensionRecordParams{
		Role:    string(role),
		OwnerID: pgOwnerID,
	})
	if err != nil {
		return ExtensionRecord{}, mapError(err, string(role)+" extension for "+ownerID)
	}
	return toRecord(row), nil
}

func (r *PostgresRepository) UpdateExtensionData(ctx context.Context, id string, data []byte) (ExtensionRecord, error) {
	pgID, err := db.ParseUUID(id)
	if err != nil {
		return ExtensionRecord{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	row, err := r.queries.UpdateExtensionRecordData(ctx, sqlc.UpdateExtensionRecordDataParams{
		ID:   pgID,
		Data: data,
	})
	if err != nil {
		return ExtensionRecord{}, mapError(err, "extension "+id)
	}
	return toRecord(row), nil
}

func (r *PostgresRepository) inTx(ctx context.Context, op string, fn func(qtx *sqlc.Queries) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin %s tx: %w", op, err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			r.logger.Warn("tx rollback failed", slog.String("op", op), slog.Any("error", err))
		}
	}()
	if err := fn(r.queries.WithTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return mapError(err, op)
	}
	return nil
}

func mapError(err error, what string) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	case db.IsUniqueViolation(err):
		return fmt.Errorf("%w: %s: %v", ErrConflict, what, err)
	default:
		return err
	}
}

func toTenant(row sqlc.Tenant) Tenant {
	return Tenant{
		ID:             db.UUIDToString(row.ID),
		ExternalID:     row.ExternalID,
		Name:           row.Name,
		AccessToken:    row.AccessToken,
		BotUserID:      row.BotUserID,
		BotAccessToken: row.BotAccessToken,
		CreatedAt:      db.TimeFromPg(row.CreatedAt),
		UpdatedAt:      db.TimeFromPg(row.UpdatedAt),
	}
}

func toIdentity(row sqlc.ListPlatformUserIdentitiesRow) ConversationIdentity {
	return ConversationIdentity{
		ID:        db.UUIDToString(row.ID),
		Name:      row.Name,
		Email:     db.TextToString(row.Email),
		CreatedAt: db.TimeFromPg(row.CreatedAt),
		Platform: PlatformUser{
			TenantID:  db.UUIDToString(row.TenantID),
			UserID:    row.PlatformUserID,
			ChannelID: db.TextToString(row.ChannelID),
		},
	}
}

func toChannel(row sqlc.PlatformChannel) Channel {
	return Channel{
		ID:                db.UUIDToString(row.ID),
		TenantID:          db.UUIDToString(row.TenantID),
		PlatformChannelID: row.PlatformChannelID,
		Name:              row.Name,
		IsMain:            row.IsMain,
		CreatedAt:         db.TimeFromPg(row.CreatedAt),
	}
}

func toRecord(row sqlc.ExtensionRecord) ExtensionRecord {
	return ExtensionRecord{
		ID:        db.UUIDToString(row.ID),
		Role:      Role(row.Role),
		Kind:      row.Kind,
		OwnerID:   db.UUIDToString(row.OwnerID),
		Data:      row.Data,
		CreatedAt: db.TimeFromPg(row.CreatedAt),
		UpdatedAt: db.TimeFromPg(row.UpdatedAt),
	}
}
