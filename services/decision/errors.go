package decision

import (
	"github.com/coccinelle-ai/channel-engine/models"
	"github.com/coccinelle-ai/channel-engine/services"
)

func servicesErrNotConfigured(tenant *models.TenantConfig) error {
	return services.NewDomainError(services.ErrorTypeConfiguration,
		"no communication channels configured for tenant", nil).
		WithDetail("tenant_id", tenant.ID.String())
}

func servicesErrNoChannel(tenant *models.TenantConfig, recipient *models.RecipientProfile) error {
	err := services.NewDomainError(services.ErrorTypeNoChannel,
		"no channel available for recipient", nil).
		WithDetail("tenant_id", tenant.ID.String())
	if recipient.Phone == "" {
		err = err.WithDetail("missing_phone", true)
	}
	if recipient.Email == "" {
		err = err.WithDetail("missing_email", true)
	}
	return err
}
