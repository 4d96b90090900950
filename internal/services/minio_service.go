package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// snapshotPrefix starts every exported file name. The timestamp that follows
// makes names sort chronologically.
const snapshotPrefix = "helpkart_export_"

// SnapshotStore keeps exported snapshots in an S3-compatible bucket
type SnapshotStore interface {
	// Save uploads a snapshot, creating the bucket on first use, and returns
	// a time-limited download link for it.
	Save(ctx context.Context, name string, data []byte, contentType string) (*StoredSnapshot, error)
	// Prune removes every snapshot older than the newest keep and returns the
	// removed object names.
	Prune(ctx context.Context, keep int) ([]string, error)
}

// StoredSnapshot describes an uploaded snapshot
type StoredSnapshot struct {
	Bucket      string    `json:"bucket"`
	Object      string    `json:"object"`
	Size        int64     `json:"size"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// SnapshotStoreOptions configures the MinIO-backed snapshot store
type SnapshotStoreOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	// LinkTTL bounds download links; at most 7 days
	LinkTTL time.Duration
}

const maxLinkTTL = 7 * 24 * time.Hour

type minioSnapshotStore struct {
	client  *minio.Client
	bucket  string
	linkTTL time.Duration

	mu          sync.Mutex
	bucketReady bool
}

func NewMinioSnapshotStore(opts SnapshotStoreOptions) (SnapshotStore, error) {
	if opts.Bucket == "" {
		return nil, errors.New("snapshot bucket is required")
	}
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	ttl := opts.LinkTTL
	if ttl <= 0 || ttl > maxLinkTTL {
		ttl = 24 * time.Hour
	}
	return &minioSnapshotStore{client: client, bucket: opts.Bucket, linkTTL: ttl}, nil
}

func (m *minioSnapshotStore) ensureBucket(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.bucketReady {
		return nil
	}
	found, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", m.bucket, err)
	}
	if !found {
		if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", m.bucket, err)
		}
	}
	m.bucketReady = true
	return nil
}

func (m *minioSnapshotStore) Save(ctx context.Context, name string, data []byte, contentType string) (*StoredSnapshot, error) {
	if err := m.ensureBucket(ctx); err != nil {
		return nil, err
	}

	info, err := m.client.PutObject(ctx, m.bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", name, err)
	}

	params := url.Values{}
	params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", name))
	link, err := m.client.PresignedGetObject(ctx, m.bucket, name, m.linkTTL, params)
	if err != nil {
		return nil, fmt.Errorf("failed to sign download link for %s: %w", name, err)
	}

	return &StoredSnapshot{
		Bucket:      m.bucket,
		Object:      name,
		Size:        info.Size,
		DownloadURL: link.String(),
		ExpiresAt:   time.Now().UTC().Add(m.linkTTL),
	}, nil
}

func (m *minioSnapshotStore) Prune(ctx context.Context, keep int) ([]string, error) {
	if keep <= 0 {
		return nil, nil
	}

	listCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var names []string
	for obj := range m.client.ListObjects(listCtx, m.bucket, minio.ListObjectsOptions{Prefix: snapshotPrefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list snapshots: %w", obj.Err)
		}
		names = append(names, obj.Key)
	}
	if len(names) <= keep {
		return nil, nil
	}

	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	var removed []string
	for _, name := range names[keep:] {
		if err := m.client.RemoveObject(ctx, m.bucket, name, minio.RemoveObjectOptions{}); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", name, err)
		}
		removed = append(removed, name)
	}
	return removed, nil
}
