// Package storage uploads inline-encoded images to S3 and hands back public
// URLs for persistence.
package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/lighted-app/lighted-backend/config"
)

// putObjectAPI is the slice of the S3 client we use; tests substitute a fake.
type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Uploader struct {
	client putObjectAPI
	bucket string
	region string
	folder string
}

func NewS3Uploader(ctx context.Context, cfg config.AWSConfig) (*S3Uploader, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &S3Uploader{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.Bucket,
		region: cfg.Region,
		folder: "projects",
	}, nil
}

// UploadImage decodes a data:image/...;base64 payload, stores it under a
// random key, and returns the object's public URL.
func (u *S3Uploader) UploadImage(ctx context.Context, dataURL string) (string, error) {
	imageType, data, err := parseImageDataURL(dataURL)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s/%s.%s", u.folder, uuid.New(), imageType)

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/" + imageType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put object: %w", err)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, key), nil
}

// parseImageDataURL splits "data:image/png;base64,AAAA..." into its media
// subtype and decoded bytes.
func parseImageDataURL(dataURL string) (imageType string, data []byte, err error) {
	if !strings.HasPrefix(dataURL, "data:image/") {
		return "", nil, fmt.Errorf("invalid image data")
	}

	meta, encoded, ok := strings.Cut(dataURL, ",")
	if !ok {
		return "", nil, fmt.Errorf("invalid image data")
	}

	mediaType := strings.TrimPrefix(meta, "data:image/")
	imageType, _, _ = strings.Cut(mediaType, ";")
	if imageType == "" {
		imageType = "png"
	}

	data, err = base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", nil, fmt.Errorf("invalid image data: %w", err)
	}

	return imageType, data, nil
}
