package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/coccinelle-ai/channel-engine/models"
	"github.com/coccinelle-ai/channel-engine/repositories"
	"github.com/coccinelle-ai/channel-engine/services"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const tenantColumns = `
	id, routing_key, name,
	twilio_account_sid, twilio_auth_token, email_api_key,
	sms_number, messaging_service_sid, whatsapp_number, voice_number, email_from,
	disabled_channels, cost_overrides, latency_overrides,
	updated_at
`

// TenantConfigRepository implements repositories.TenantConfigRepository
// against PostgreSQL.
type TenantConfigRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewTenantConfigRepository creates a new tenant configuration repository
func NewTenantConfigRepository(db *DB, logger *zap.Logger) repositories.TenantConfigRepository {
	return &TenantConfigRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves a tenant configuration snapshot by tenant ID
func (r *TenantConfigRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.TenantConfig, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenant_channel_configs WHERE id = $1`
	return r.scanOne(ctx, query, id)
}

// GetByRoutingKey resolves a tenant routing key to a configuration snapshot
func (r *TenantConfigRepository) GetByRoutingKey(ctx context.Context, key string) (*models.TenantConfig, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenant_channel_configs WHERE routing_key = $1`
	return r.scanOne(ctx, query, key)
}

func (r *TenantConfigRepository) scanOne(ctx context.Context, query string, arg interface{}) (*models.TenantConfig, error) {
	var (
		cfg              models.TenantConfig
		accountSID       sql.NullString
		authToken        sql.NullString
		emailAPIKey      sql.NullString
		smsNumber        sql.NullString
		messagingSID     sql.NullString
		whatsappNumber   sql.NullString
		voiceNumber      sql.NullString
		emailFrom        sql.NullString
		disabledRaw      []byte
		costRaw          []byte
		latencyRaw       []byte
	)

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&cfg.ID,
		&cfg.RoutingKey,
		&cfg.Name,
		&accountSID,
		&authToken,
		&emailAPIKey,
		&smsNumber,
		&messagingSID,
		&whatsappNumber,
		&voiceNumber,
		&emailFrom,
		&disabledRaw,
		&costRaw,
		&latencyRaw,
		&cfg.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, services.ErrTenantNotFound
		}
		return nil, fmt.Errorf("failed to load tenant config: %w", err)
	}

	cfg.Telephony = models.TelephonyCredentials{
		AccountSID: accountSID.String,
		AuthToken:  authToken.String,
	}
	cfg.Email = models.EmailCredentials{APIKey: emailAPIKey.String}
	cfg.Sender = models.SenderIdentity{
		SMSNumber:           smsNumber.String,
		MessagingServiceSID: messagingSID.String,
		WhatsAppNumber:      whatsappNumber.String,
		VoiceNumber:         voiceNumber.String,
		EmailFrom:           emailFrom.String,
	}

	if len(disabledRaw) > 0 {
		if err := json.Unmarshal(disabledRaw, &cfg.DisabledChannels); err != nil {
			return nil, fmt.Errorf("failed to decode disabled channels: %w", err)
		}
	}
	if len(costRaw) > 0 {
		if err := json.Unmarshal(costRaw, &cfg.CostOverrides); err != nil {
			return nil, fmt.Errorf("failed to decode cost overrides: %w", err)
		}
	}
	if len(latencyRaw) > 0 {
		if err := json.Unmarshal(latencyRaw, &cfg.LatencyOverrides); err != nil {
			return nil, fmt.Errorf("failed to decode latency overrides: %w", err)
		}
	}

	r.logger.Debug("tenant config loaded", zap.String("tenant_id", cfg.ID.String()))
	return &cfg, nil
}
