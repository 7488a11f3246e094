package blobstore

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/dmitrijs2005/auditflow/internal/netx"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}

	uploadToPresignedURL = netx.UploadToPresignedURL
)

// S3Config holds connection settings for an S3-compatible endpoint
// (AWS S3 or MinIO).
type S3Config struct {
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
	Bucket       string
}

// S3Uploader stores blobs in an S3-compatible bucket. Objects are written
// through locally presigned PUT URLs, and the returned link is a
// presigned GET with a generous expiry.
type S3Uploader struct {
	config S3Config
}

func NewS3Uploader(cfg S3Config) *S3Uploader {
	return &S3Uploader{config: cfg}
}

// storageKey places the object under the target hint (or a dated default)
// with a collision-free name.
func storageKey(filename, targetHint string) string {
	prefix := targetHint
	if prefix == "" {
		d := time.Now()
		prefix = fmt.Sprintf("audits/%d/%d/%d", d.Year(), d.Month(), d.Day())
	}
	return path.Join(prefix, fmt.Sprintf("%v_%s", uuid.New(), filename))
}

func (u *S3Uploader) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(u.config.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			u.config.AccessKey,
			u.config.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if u.config.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(u.config.BaseEndpoint)
		}
	})

	return newS3PresignClient(client), nil
}

func (u *S3Uploader) Upload(ctx context.Context, blob []byte, filename, targetHint string) (*Ref, error) {
	presignClient, err := u.getPresignClient(ctx)
	if err != nil {
		return nil, err
	}

	bucket := u.config.Bucket
	key := storageKey(filename, targetHint)

	put, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return nil, err
	}

	if err := uploadToPresignedURL(ctx, put.URL, blob, "image/jpeg"); err != nil {
		return nil, err
	}

	get, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(7*24*time.Hour))
	if err != nil {
		return nil, err
	}

	return &Ref{FileID: key, Link: get.URL}, nil
}
