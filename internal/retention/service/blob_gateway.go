// Package service implements the deletion gateways the retention engine
// cascades through: object-storage purge, the voice-cloning provider client,
// and a composite that fans out to both.
package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	retentionDomain "github.com/scenespin/voiceconsent/internal/retention/domain"

	// Register blob storage drivers
	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
)

// ArtifactGateway requests removal of a subject's dependent artifacts.
// Implementations isolate per-artifact failures; the error surface is the
// failure list, never a returned error.
type ArtifactGateway interface {
	DeleteDependentArtifacts(ctx context.Context, subjectID uuid.UUID) (int64, []retentionDomain.ArtifactFailure)
}

// OpenBucket opens a blob bucket for the configured storage provider using the
// bucket URL. Supports: s3://, gs://, azblob://, file://, mem://
func OpenBucket(ctx context.Context, bucketURL string) (*blob.Bucket, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open voice samples bucket: %w", err)
	}
	return bucket, nil
}

// BlobArtifactGateway purges a subject's stored voice samples from object
// storage. Samples live under the subjects/<subject id>/ prefix.
type BlobArtifactGateway struct {
	bucket *blob.Bucket
	logger *slog.Logger
}

// NewBlobArtifactGateway creates a new blob storage gateway.
func NewBlobArtifactGateway(bucket *blob.Bucket, logger *slog.Logger) *BlobArtifactGateway {
	return &BlobArtifactGateway{
		bucket: bucket,
		logger: logger,
	}
}

// DeleteDependentArtifacts removes every object under the subject's prefix.
// One object's failure is recorded and the remaining objects are still
// attempted. An object already gone counts as removed by someone else, not as
// a failure.
func (g *BlobArtifactGateway) DeleteDependentArtifacts(
	ctx context.Context,
	subjectID uuid.UUID,
) (int64, []retentionDomain.ArtifactFailure) {
	prefix := fmt.Sprintf("subjects/%s/", subjectID)

	var count int64
	var failures []retentionDomain.ArtifactFailure

	iter := g.bucket.List(&blob.ListOptions{Prefix: prefix})
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			failures = append(failures, retentionDomain.ArtifactFailure{
				Kind:      retentionDomain.ArtifactKindVoiceSample,
				Reference: prefix,
				Reason:    fmt.Sprintf("failed to list voice samples: %v", err),
			})
			break
		}

		if err := g.bucket.Delete(ctx, obj.Key); err != nil {
			if gcerrors.Code(err) == gcerrors.NotFound {
				continue
			}
			if g.logger != nil {
				g.logger.Error("failed to delete voice sample",
					slog.String("key", obj.Key),
					slog.Any("error", err),
				)
			}
			failures = append(failures, retentionDomain.ArtifactFailure{
				Kind:      retentionDomain.ArtifactKindVoiceSample,
				Reference: obj.Key,
				Reason:    err.Error(),
			})
			continue
		}
		count++
	}

	return count, failures
}
