// Package storage archiva los documentos aceptados en un bucket S3 compatible (AWS, R2, MinIO).
package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/jhoicas/billy-api/internal/application/billing"
)

// S3Config credenciales y destino del archivo.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string // vacío = endpoint de AWS
	AccessKey string
	SecretKey string
}

// ObjectPutter subconjunto del cliente S3 usado por el archivo.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archive implementa billing.DocumentArchive.
type S3Archive struct {
	client ObjectPutter
	bucket string
}

var _ billing.DocumentArchive = (*S3Archive)(nil)

// NewS3Archive construye el cliente a partir de la configuración.
// Con AccessKey vacío se usa la cadena de credenciales por defecto del SDK.
func NewS3Archive(ctx context.Context, cfg S3Config) (*S3Archive, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3: cargar configuración: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3ArchiveWithClient(client, cfg.Bucket), nil
}

// NewS3ArchiveWithClient usa un cliente ya construido.
func NewS3ArchiveWithClient(client ObjectPutter, bucket string) *S3Archive {
	return &S3Archive{client: client, bucket: bucket}
}

// Put sube el objeto bajo key.
func (a *S3Archive) Put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return fmt.Errorf("s3: subir %s: %w", key, err)
	}
	return nil
}
