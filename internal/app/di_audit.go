package app

import (
	"fmt"

	auditHTTP "github.com/scenespin/voiceconsent/internal/audit/http"
	auditRepository "github.com/scenespin/voiceconsent/internal/audit/repository"
	auditService "github.com/scenespin/voiceconsent/internal/audit/service"
	auditUsecase "github.com/scenespin/voiceconsent/internal/audit/usecase"
)

// AuditLogRepository returns the audit log repository based on database driver.
func (c *Container) AuditLogRepository() (auditUsecase.AuditLogRepository, error) {
	var err error
	c.auditRepoInit.Do(func() {
		c.auditRepo, err = c.initAuditLogRepository()
		if err != nil {
			c.initErrors["auditRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditRepo"]; exists {
		return nil, storedErr
	}
	return c.auditRepo, nil
}

// AuditSigner returns the HMAC audit log signer, or nil when no signing
// secret is configured. Entries are then written unsigned.
func (c *Container) AuditSigner() auditService.Signer {
	c.auditSignerInit.Do(func() {
		if c.config.AuditSigningSecret == "" {
			c.Logger().Warn("audit signing secret not configured, audit entries will be unsigned")
			return
		}
		c.auditSigner = auditService.NewHMACSigner([]byte(c.config.AuditSigningSecret))
	})
	return c.auditSigner
}

// AuditLogUseCase returns the audit log use case.
func (c *Container) AuditLogUseCase() (auditUsecase.AuditLogUseCase, error) {
	var err error
	c.auditUseCaseInit.Do(func() {
		c.auditUseCase, err = c.initAuditLogUseCase()
		if err != nil {
			c.initErrors["auditUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditUseCase"]; exists {
		return nil, storedErr
	}
	return c.auditUseCase, nil
}

// AuditLogHandler returns the HTTP handler for audit log operations.
func (c *Container) AuditLogHandler() (*auditHTTP.AuditLogHandler, error) {
	var err error
	c.auditHandlerInit.Do(func() {
		c.auditHandler, err = c.initAuditLogHandler()
		if err != nil {
			c.initErrors["auditHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditHandler"]; exists {
		return nil, storedErr
	}
	return c.auditHandler, nil
}

// initAuditLogRepository creates the audit log repository instance.
func (c *Container) initAuditLogRepository() (auditUsecase.AuditLogRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for audit log repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return auditRepository.NewMySQLAuditLogRepository(db), nil
	case "postgres":
		return auditRepository.NewPostgreSQLAuditLogRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initAuditLogUseCase creates the audit log use case with all its dependencies.
func (c *Container) initAuditLogUseCase() (auditUsecase.AuditLogUseCase, error) {
	auditRepo, err := c.AuditLogRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log repository for audit log use case: %w", err)
	}

	return auditUsecase.NewAuditLogUseCase(auditRepo, c.AuditSigner()), nil
}

// initAuditLogHandler creates the audit log HTTP handler.
func (c *Container) initAuditLogHandler() (*auditHTTP.AuditLogHandler, error) {
	useCase, err := c.AuditLogUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log use case for audit log handler: %w", err)
	}
	return auditHTTP.NewAuditLogHandler(useCase, c.Logger()), nil
}
