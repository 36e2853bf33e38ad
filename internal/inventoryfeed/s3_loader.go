package inventoryfeed

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// objectGetter is the subset of the S3 client the loader needs.
type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// s3Loader reads feeds from an S3 bucket.
type s3Loader struct {
	client objectGetter
	bucket string
	logger zerolog.Logger
}

// NewS3Loader creates an S3-backed loader using the default AWS credential chain.
func NewS3Loader(ctx context.Context, bucket, region string, logger zerolog.Logger) (Loader, error) {
	logger = logger.With().Str("component", "feed-s3-loader").Logger()

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	logger.Info().
		Str("bucket", bucket).
		Str("region", region).
		Msg("S3 feed loader initialised")

	return &s3Loader{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		logger: logger,
	}, nil
}

// Load reads the object at key. key is the full S3 key including any prefix.
func (l *s3Loader) Load(ctx context.Context, key string) (*Feed, error) {
	l.logger.Info().
		Str("bucket", l.bucket).
		Str("key", key).
		Msg("loading inventory feed from S3")

	result, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		l.logger.Error().
			Err(err).
			Str("bucket", l.bucket).
			Str("key", key).
			Msg("failed to get object from S3")
		return nil, fmt.Errorf("failed to get object from S3 (bucket=%s, key=%s): %w", l.bucket, key, err)
	}
	defer result.Body.Close()

	feed, err := Parse(ctx, key, result.Body)
	if err != nil {
		l.logger.Error().Err(err).Str("key", key).Msg("failed to parse inventory feed from S3")
		return nil, err
	}

	l.logger.Info().
		Str("bucket", l.bucket).
		Str("key", key).
		Int("updates", len(feed.Updates)).
		Int("rejected", len(feed.Rejected)).
		Msg("inventory feed loaded from S3")

	return feed, nil
}

// fallbackLoader tries S3 first, then the local file system.
type fallbackLoader struct {
	s3Loader   Loader
	fileLoader Loader
	s3Prefix   string
	s3Enabled  bool
	logger     zerolog.Logger
}

// NewFallbackLoader creates a loader that tries S3 first, then falls back to
// the local file system. A nil s3Loader means file system only.
func NewFallbackLoader(s3Loader, fileLoader Loader, s3Prefix string, s3Enabled bool, logger zerolog.Logger) Loader {
	return &fallbackLoader{
		s3Loader:   s3Loader,
		fileLoader: fileLoader,
		s3Prefix:   s3Prefix,
		s3Enabled:  s3Enabled,
		logger:     logger.With().Str("component", "feed-fallback-loader").Logger(),
	}
}

// Load prepends the S3 prefix for the S3 attempt and uses name as-is locally.
func (l *fallbackLoader) Load(ctx context.Context, name string) (*Feed, error) {
	if l.s3Enabled && l.s3Loader != nil {
		key := l.s3Prefix + name

		feed, err := l.s3Loader.Load(ctx, key)
		if err == nil {
			return feed, nil
		}

		l.logger.Warn().
			Err(err).
			Str("s3_key", key).
			Msg("failed to load from S3, falling back to local file system")
	}

	return l.fileLoader.Load(ctx, name)
}
