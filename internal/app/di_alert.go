package app

import (
	"fmt"

	alertRepository "github.com/scenespin/voiceconsent/internal/alert/repository"
	alertUsecase "github.com/scenespin/voiceconsent/internal/alert/usecase"
)

// AlertEventRepository returns the alert event repository based on database driver.
func (c *Container) AlertEventRepository() (alertUsecase.AlertEventRepository, error) {
	var err error
	c.alertRepoInit.Do(func() {
		c.alertRepo, err = c.initAlertEventRepository()
		if err != nil {
			c.initErrors["alertRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["alertRepo"]; exists {
		return nil, storedErr
	}
	return c.alertRepo, nil
}

// AlertUseCase returns the alert use case driving the operator notification
// pipeline.
func (c *Container) AlertUseCase() (*alertUsecase.AlertUseCase, error) {
	var err error
	c.alertUseCaseInit.Do(func() {
		c.alertUseCase, err = c.initAlertUseCase()
		if err != nil {
			c.initErrors["alertUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["alertUseCase"]; exists {
		return nil, storedErr
	}
	return c.alertUseCase, nil
}

// initAlertEventRepository creates the alert event repository instance.
func (c *Container) initAlertEventRepository() (alertUsecase.AlertEventRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for alert event repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return alertRepository.NewMySQLAlertEventRepository(db), nil
	case "postgres":
		return alertRepository.NewPostgreSQLAlertEventRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initAlertUseCase creates the alert use case with all its dependencies.
func (c *Container) initAlertUseCase() (*alertUsecase.AlertUseCase, error) {
	logger := c.Logger()

	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for alert use case: %w", err)
	}

	alertRepo, err := c.AlertEventRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get alert event repository for alert use case: %w", err)
	}

	useCaseConfig := alertUsecase.Config{
		Interval:   c.config.AlertInterval,
		BatchSize:  c.config.AlertBatchSize,
		MaxRetries: c.config.AlertMaxRetries,
	}

	notifier := alertUsecase.NewLogNotifier(logger)
	return alertUsecase.NewAlertUseCase(useCaseConfig, txManager, alertRepo, notifier, logger), nil
}
