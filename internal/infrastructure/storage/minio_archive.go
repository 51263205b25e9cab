// Package storage archiva los PDF de verificación en un almacenamiento compatible con S3 (MinIO).
package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/jhoicas/Inventario-vacunas/internal/application/inventory"
)

var _ inventory.ReportArchive = (*MinioArchive)(nil)

const defaultURLExpiry = 24 * time.Hour

// MinioArchive guarda los PDF y devuelve una URL firmada de descarga.
type MinioArchive struct {
	client    *minio.Client
	bucket    string
	urlExpiry time.Duration
}

// NewMinioArchive conecta con MinIO y crea el bucket si no existe.
func NewMinioArchive(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioArchive, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("cliente minio: %w", err)
	}
	a := &MinioArchive{client: client, bucket: bucket, urlExpiry: defaultURLExpiry}
	if err := a.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *MinioArchive) ensureBucket(ctx context.Context) error {
	found, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("bucket %s: %w", a.bucket, err)
	}
	if !found {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("crear bucket %s: %w", a.bucket, err)
		}
	}
	return nil
}

// StoreReport sube el PDF y devuelve la URL firmada.
func (a *MinioArchive) StoreReport(ctx context.Context, objectName string, pdf []byte) (string, error) {
	_, err := a.client.PutObject(ctx, a.bucket, objectName, bytes.NewReader(pdf), int64(len(pdf)), minio.PutObjectOptions{
		ContentType: "application/pdf",
	})
	if err != nil {
		return "", fmt.Errorf("subir %s: %w", objectName, err)
	}
	u, err := a.client.PresignedGetObject(ctx, a.bucket, objectName, a.urlExpiry, nil)
	if err != nil {
		return "", fmt.Errorf("url firmada %s: %w", objectName, err)
	}
	return u.String(), nil
}
