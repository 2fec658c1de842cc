package service

import (
	"context"

	"github.com/google/uuid"

	retentionDomain "github.com/scenespin/voiceconsent/internal/retention/domain"
)

// CompositeGateway fans the cascade out to every configured gateway. Counts
// are summed and failures concatenated; one gateway failing never stops the
// others.
type CompositeGateway struct {
	gateways []ArtifactGateway
}

// NewCompositeGateway creates a composite over the given gateways. Nil entries
// are skipped so callers can pass optionally-configured gateways directly.
func NewCompositeGateway(gateways ...ArtifactGateway) *CompositeGateway {
	composite := &CompositeGateway{}
	for _, gateway := range gateways {
		if gateway != nil {
			composite.gateways = append(composite.gateways, gateway)
		}
	}
	return composite
}

// DeleteDependentArtifacts runs every gateway in order and merges the results.
func (c *CompositeGateway) DeleteDependentArtifacts(
	ctx context.Context,
	subjectID uuid.UUID,
) (int64, []retentionDomain.ArtifactFailure) {
	var count int64
	var failures []retentionDomain.ArtifactFailure

	for _, gateway := range c.gateways {
		deleted, gatewayFailures := gateway.DeleteDependentArtifacts(ctx, subjectID)
		count += deleted
		failures = append(failures, gatewayFailures...)
	}

	return count, failures
}
