package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	retentionDomain "github.com/scenespin/voiceconsent/internal/retention/domain"
)

// VoiceProviderConfig holds voice provider client configuration.
type VoiceProviderConfig struct {
	// BaseURL is the provider API root, e.g. https://api.voiceprovider.example
	BaseURL string

	// Token is the bearer token for provider API calls.
	Token string

	// RequestsPerSecond throttles outbound calls. Zero or negative disables
	// throttling.
	RequestsPerSecond float64

	// Timeout bounds each provider call. Defaults to 10s.
	Timeout time.Duration
}

// VoiceProviderGateway deletes a subject's cloned voice model at the external
// provider. The provider's delete endpoint is idempotent: deleting a model
// that no longer exists answers 404, which the gateway treats as done.
type VoiceProviderGateway struct {
	config  VoiceProviderConfig
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewVoiceProviderGateway creates a new voice provider gateway.
func NewVoiceProviderGateway(config VoiceProviderConfig, logger *slog.Logger) *VoiceProviderGateway {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	limit := rate.Inf
	if config.RequestsPerSecond > 0 {
		limit = rate.Limit(config.RequestsPerSecond)
	}

	return &VoiceProviderGateway{
		config:  config,
		client:  &http.Client{Timeout: config.Timeout},
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// DeleteDependentArtifacts asks the provider to delete the subject's voice
// model. Count is 1 when the provider confirms a deletion, 0 when no model
// existed. Transport and provider errors become an ArtifactFailure.
func (g *VoiceProviderGateway) DeleteDependentArtifacts(
	ctx context.Context,
	subjectID uuid.UUID,
) (int64, []retentionDomain.ArtifactFailure) {
	if err := g.limiter.Wait(ctx); err != nil {
		return 0, []retentionDomain.ArtifactFailure{g.failure(subjectID, err.Error())}
	}

	url := fmt.Sprintf("%s/v1/voices/%s", g.config.BaseURL, subjectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return 0, []retentionDomain.ArtifactFailure{g.failure(subjectID, err.Error())}
	}
	if g.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+g.config.Token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return 0, []retentionDomain.ArtifactFailure{g.failure(subjectID, err.Error())}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// No model for this subject; nothing left to remove.
		return 0, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if g.logger != nil {
			g.logger.Info("voice model deleted at provider",
				slog.String("subject_id", subjectID.String()),
			)
		}
		return 1, nil
	default:
		return 0, []retentionDomain.ArtifactFailure{
			g.failure(subjectID, fmt.Sprintf("voice provider returned status %d", resp.StatusCode)),
		}
	}
}

func (g *VoiceProviderGateway) failure(subjectID uuid.UUID, reason string) retentionDomain.ArtifactFailure {
	return retentionDomain.ArtifactFailure{
		Kind:      retentionDomain.ArtifactKindVoiceModel,
		Reference: subjectID.String(),
		Reason:    reason,
	}
}
