package s3

import (
	"bytes"
	"context"
	"fmt"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Operator uploads and removes objects in a single bucket and maps object
// paths onto public URLs.
type S3Operator struct {
	Client *s3.Client
	Bucket string
	// PublicEndpoint is the public base URL of the bucket.
	PublicEndpoint *url.URL
}

func NewS3Operator(client *s3.Client, bucket, publicBaseURL string) (*S3Operator, error) {
	const op = "NewS3Operator"
	publicEndpoint, err := url.Parse(publicBaseURL)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to parse public base URL, err=%w", op, err)
	}
	return &S3Operator{Client: client, Bucket: bucket, PublicEndpoint: publicEndpoint}, nil
}

// Upload stores fileContent under path and returns the object's public URL.
func (s *S3Operator) Upload(ctx context.Context, path, contentType string, fileContent []byte) (string, error) {
	const op = "S3Operator.Upload"
	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(path),
		Body:        bytes.NewReader(fileContent),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("[%s] Fail to upload file to S3, err=%w", op, err)
	}
	uri := *s.PublicEndpoint
	uri.Path = path
	return uri.String(), nil
}

// Remove deletes the object at path. The document handlers use it to
// compensate an already-stored object whose metadata write failed.
func (s *S3Operator) Remove(ctx context.Context, path string) error {
	const op = "S3Operator.Remove"
	_, err := s.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return fmt.Errorf("[%s] Fail to remove file from S3, err=%w", op, err)
	}
	return nil
}
