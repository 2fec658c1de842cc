package app

import (
	"fmt"

	consentHTTP "github.com/scenespin/voiceconsent/internal/consent/http"
	consentRepository "github.com/scenespin/voiceconsent/internal/consent/repository"
	consentUsecase "github.com/scenespin/voiceconsent/internal/consent/usecase"
	retentionUsecase "github.com/scenespin/voiceconsent/internal/retention/usecase"
)

// consentStore is the full surface of the dual-driver consent repository.
// The consent module only needs Create/GetByID while the retention engine
// needs the scan and mark operations; both ports are served by the same
// repository instance.
type consentStore interface {
	consentUsecase.ConsentRepository
	retentionUsecase.ConsentRepository
}

// consentStoreInstance lazily initializes the shared consent repository.
func (c *Container) consentStoreInstance() (consentStore, error) {
	var err error
	c.consentRepoInit.Do(func() {
		c.consentRepo, err = c.initConsentRepository()
		if err != nil {
			c.initErrors["consentRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["consentRepo"]; exists {
		return nil, storedErr
	}
	return c.consentRepo, nil
}

// ConsentRepository returns the consent-module view of the repository.
func (c *Container) ConsentRepository() (consentUsecase.ConsentRepository, error) {
	store, err := c.consentStoreInstance()
	if err != nil {
		return nil, err
	}
	return store, nil
}

// RetentionConsentRepository returns the retention-engine view of the
// repository, exposing the scan and conditional-delete operations.
func (c *Container) RetentionConsentRepository() (retentionUsecase.ConsentRepository, error) {
	store, err := c.consentStoreInstance()
	if err != nil {
		return nil, err
	}
	return store, nil
}

// ConsentUseCase returns the consent use case.
func (c *Container) ConsentUseCase() (consentUsecase.ConsentUseCase, error) {
	var err error
	c.consentUseCaseInit.Do(func() {
		c.consentUseCase, err = c.initConsentUseCase()
		if err != nil {
			c.initErrors["consentUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["consentUseCase"]; exists {
		return nil, storedErr
	}
	return c.consentUseCase, nil
}

// ConsentHandler returns the HTTP handler for consent record operations.
func (c *Container) ConsentHandler() (*consentHTTP.ConsentHandler, error) {
	var err error
	c.consentHandlerInit.Do(func() {
		c.consentHandler, err = c.initConsentHandler()
		if err != nil {
			c.initErrors["consentHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["consentHandler"]; exists {
		return nil, storedErr
	}
	return c.consentHandler, nil
}

// initConsentRepository creates the consent repository instance.
func (c *Container) initConsentRepository() (consentStore, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for consent repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return consentRepository.NewMySQLConsentRepository(db), nil
	case "postgres":
		return consentRepository.NewPostgreSQLConsentRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initConsentUseCase creates the consent use case with all its dependencies.
func (c *Container) initConsentUseCase() (consentUsecase.ConsentUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for consent use case: %w", err)
	}

	consentRepo, err := c.ConsentRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get consent repository for consent use case: %w", err)
	}

	auditUseCase, err := c.AuditLogUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log use case for consent use case: %w", err)
	}

	return consentUsecase.NewConsentUseCase(
		c.config.RetentionPeriodYears,
		consentRepo,
		auditUseCase,
		txManager,
		c.Logger(),
	), nil
}

// initConsentHandler creates the consent HTTP handler.
func (c *Container) initConsentHandler() (*consentHTTP.ConsentHandler, error) {
	useCase, err := c.ConsentUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get consent use case for consent handler: %w", err)
	}
	return consentHTTP.NewConsentHandler(useCase, c.Logger()), nil
}
