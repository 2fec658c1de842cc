package app

import (
	"context"
	"fmt"

	retentionHTTP "github.com/scenespin/voiceconsent/internal/retention/http"
	retentionService "github.com/scenespin/voiceconsent/internal/retention/service"
	retentionUsecase "github.com/scenespin/voiceconsent/internal/retention/usecase"
)

// ArtifactGateway returns the composite deletion gateway for dependent
// artifacts. Returns nil when no downstream systems are configured.
func (c *Container) ArtifactGateway(ctx context.Context) (retentionService.ArtifactGateway, error) {
	var err error
	c.artifactGatewayInit.Do(func() {
		c.artifactGateway, err = c.initArtifactGateway(ctx)
		if err != nil {
			c.initErrors["artifactGateway"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["artifactGateway"]; exists {
		return nil, storedErr
	}
	return c.artifactGateway, nil
}

// RetentionUseCase returns the retention job use case.
func (c *Container) RetentionUseCase(ctx context.Context) (retentionUsecase.UseCase, error) {
	var err error
	c.retentionUseCaseInit.Do(func() {
		c.retentionUseCase, err = c.initRetentionUseCase(ctx)
		if err != nil {
			c.initErrors["retentionUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["retentionUseCase"]; exists {
		return nil, storedErr
	}
	return c.retentionUseCase, nil
}

// RetentionHandler returns the HTTP handler that triggers retention runs.
func (c *Container) RetentionHandler() (*retentionHTTP.RetentionHandler, error) {
	var err error
	c.retentionHandlerInit.Do(func() {
		c.retentionHandler, err = c.initRetentionHandler()
		if err != nil {
			c.initErrors["retentionHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["retentionHandler"]; exists {
		return nil, storedErr
	}
	return c.retentionHandler, nil
}

// initArtifactGateway assembles the deletion gateways that are configured.
// Each downstream system is optional; with none configured the cascade is
// skipped entirely.
func (c *Container) initArtifactGateway(ctx context.Context) (retentionService.ArtifactGateway, error) {
	logger := c.Logger()
	var gateways []retentionService.ArtifactGateway

	if c.config.VoiceSamplesBucketURL != "" {
		bucket, err := retentionService.OpenBucket(ctx, c.config.VoiceSamplesBucketURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open voice samples bucket: %w", err)
		}
		gateways = append(gateways, retentionService.NewBlobArtifactGateway(bucket, logger))
	}

	if c.config.VoiceProviderURL != "" {
		gateways = append(gateways, retentionService.NewVoiceProviderGateway(retentionService.VoiceProviderConfig{
			BaseURL:           c.config.VoiceProviderURL,
			Token:             c.config.VoiceProviderToken,
			RequestsPerSecond: c.config.VoiceProviderRequestsPerSec,
		}, logger))
	}

	if len(gateways) == 0 {
		logger.Warn("no artifact gateways configured, retention cascade is disabled")
		return nil, nil
	}

	return retentionService.NewCompositeGateway(gateways...), nil
}

// initRetentionUseCase creates the retention job with all its dependencies.
func (c *Container) initRetentionUseCase(ctx context.Context) (retentionUsecase.UseCase, error) {
	logger := c.Logger()

	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for retention use case: %w", err)
	}

	consentRepo, err := c.RetentionConsentRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get consent repository for retention use case: %w", err)
	}

	auditUseCase, err := c.AuditLogUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log use case for retention use case: %w", err)
	}

	gateway, err := c.ArtifactGateway(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get artifact gateway for retention use case: %w", err)
	}

	alertUseCase, err := c.AlertUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get alert use case for retention use case: %w", err)
	}

	// The repository port and the service port are structurally identical;
	// the indirection keeps the use case free of service imports.
	var deletionGateway retentionUsecase.DeletionGateway
	if gateway != nil {
		deletionGateway = gateway
	}

	enforcer := retentionUsecase.NewRetentionEnforcer(
		consentRepo,
		auditUseCase,
		deletionGateway,
		txManager,
		logger,
	)

	job := retentionUsecase.NewRetentionJob(
		retentionUsecase.JobConfig{
			BatchSize:   c.config.RetentionBatchSize,
			Concurrency: c.config.RetentionConcurrency,
		},
		consentRepo,
		enforcer,
		alertUseCase,
		logger,
	)

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for retention use case: %w", err)
	}

	return retentionUsecase.NewUseCaseWithMetrics(job, businessMetrics), nil
}

// initRetentionHandler creates the retention trigger HTTP handler.
func (c *Container) initRetentionHandler() (*retentionHTTP.RetentionHandler, error) {
	useCase, err := c.RetentionUseCase(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to get retention use case for retention handler: %w", err)
	}
	return retentionHTTP.NewRetentionHandler(useCase, c.Logger()), nil
}
