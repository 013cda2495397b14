package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/calgary-pulse/pulseqa/internal/domain"
)

// S3SourceConfig holds configuration for the S3 profile source
type S3SourceConfig struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Prefix          string
	UsePathStyle    bool
}

// S3ProfileSource reads community profile documents from S3-compatible
// storage. Documents are JSON files named <slug>.json under the configured
// prefix.
type S3ProfileSource struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3ProfileSource creates a new S3ProfileSource with the given configuration
func NewS3ProfileSource(ctx context.Context, cfg S3SourceConfig) (*S3ProfileSource, error) {
	customResolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			if cfg.Endpoint != "" {
				return aws.Endpoint{
					URL:               cfg.Endpoint,
					HostnameImmutable: true,
				}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		},
	)

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
		config.WithEndpointResolverWithOptions(customResolver),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &S3ProfileSource{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.TrimSuffix(cfg.Prefix, "/"),
	}, nil
}

// ListSlugs lists the community slugs with a profile document in the bucket.
func (s *S3ProfileSource) ListSlugs(ctx context.Context) ([]string, error) {
	var slugs []string

	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
	}
	if s.prefix != "" {
		input.Prefix = aws.String(s.prefix + "/")
	}

	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list profile documents: %w", err)
		}
		for _, obj := range page.Contents {
			name := path.Base(aws.ToString(obj.Key))
			if !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, "_") {
				continue
			}
			slugs = append(slugs, strings.TrimSuffix(name, ".json"))
		}
	}
	return slugs, nil
}

// GetProfile fetches one community's profile document by slug.
func (s *S3ProfileSource) GetProfile(ctx context.Context, slug string) ([]byte, error) {
	key := slug + ".json"
	if s.prefix != "" {
		key = s.prefix + "/" + key
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to fetch profile %s: %w", slug, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile %s: %w", slug, err)
	}
	return data, nil
}
