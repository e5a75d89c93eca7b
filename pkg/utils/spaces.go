package utils

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"careerarc/internal/config"
	"careerarc/internal/logging"
	"careerarc/internal/logging/types"
)

// SpacesClient wraps the S3 client for DigitalOcean Spaces operations
type SpacesClient struct {
	client     *s3.S3
	bucketName string
	bucketURL  string
	cdnURL     string
	region     string
	logger     types.Logger
}

// NewSpacesClient creates a new DigitalOcean Spaces client
func NewSpacesClient(cfg *config.Config) (*SpacesClient, error) {
	logger := logging.GetGlobalLogger()
	spaces := cfg.DigitalOcean.Spaces

	if spaces.AccessKeyID == "" || spaces.AccessKeySecret == "" {
		return nil, fmt.Errorf("DigitalOcean Spaces credentials are required")
	}
	if spaces.BucketName == "" {
		return nil, fmt.Errorf("DigitalOcean Spaces bucket name is required")
	}

	// Spaces is addressed through its regional endpoint, not the bucket URL
	endpoint := fmt.Sprintf("https://%s.digitaloceanspaces.com", spaces.Region)

	sess, err := session.NewSession(&aws.Config{
		Credentials: credentials.NewStaticCredentials(
			spaces.AccessKeyID,
			spaces.AccessKeySecret,
			"",
		),
		Endpoint:         aws.String(endpoint),
		Region:           aws.String(spaces.Region),
		S3ForcePathStyle: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DigitalOcean Spaces session: %w", err)
	}

	logger.Info("DigitalOcean Spaces client initialized", map[string]interface{}{
		"bucket_name": spaces.BucketName,
		"region":      spaces.Region,
		"endpoint":    endpoint,
	})

	return &SpacesClient{
		client:     s3.New(sess),
		bucketName: spaces.BucketName,
		bucketURL:  spaces.BucketURL,
		cdnURL:     spaces.CDNEndpoint,
		region:     spaces.Region,
		logger:     logger,
	}, nil
}

// CVObjectKey builds the object key an uploaded CV is archived under
func CVObjectKey(userID, uploadID, filename string) string {
	if userID == "" {
		userID = "anonymous"
	}
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("career-arc/uploads/%s/%s%s", userID, uploadID, ext)
}

// UploadCV archives an uploaded CV. CVs carry personal data, so objects are
// private and the returned reference is the object URL, not a public link.
func (sc *SpacesClient) UploadCV(ctx context.Context, objectKey string, data []byte, contentType string) (string, error) {
	sc.logger.Info("Archiving CV upload to DigitalOcean Spaces", map[string]interface{}{
		"object_key": objectKey,
		"size_bytes": len(data),
	})

	_, err := sc.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(sc.bucketName),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(GetStringOrDefault(contentType, "application/octet-stream")),
		ACL:         aws.String("private"),
	})
	if err != nil {
		sc.logger.Error("Failed to archive CV upload", map[string]interface{}{
			"object_key": objectKey,
			"error":      err.Error(),
		})
		return "", fmt.Errorf("failed to upload CV: %w", err)
	}

	return sc.ObjectURL(objectKey), nil
}

// ObjectURL resolves the URL of an object: CDN first, then the bucket URL,
// then the regional virtual-hosted address
func (sc *SpacesClient) ObjectURL(objectKey string) string {
	if sc.cdnURL != "" {
		return fmt.Sprintf("%s/%s", strings.TrimRight(sc.cdnURL, "/"), objectKey)
	}
	if sc.bucketURL != "" {
		base := strings.TrimRight(sc.bucketURL, "/")
		if !strings.HasPrefix(base, "https://") {
			base = "https://" + base
		}
		return fmt.Sprintf("%s/%s", base, objectKey)
	}
	return fmt.Sprintf("https://%s.%s.digitaloceanspaces.com/%s", sc.bucketName, sc.region, objectKey)
}

// IsHealthy checks if the Spaces client can communicate with the service
func (sc *SpacesClient) IsHealthy(ctx context.Context) bool {
	_, err := sc.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(sc.bucketName),
	})
	if err != nil {
		sc.logger.Error("DigitalOcean Spaces health check failed", map[string]interface{}{
			"bucket_name": sc.bucketName,
			"error":       err.Error(),
		})
		return false
	}
	return true
}
