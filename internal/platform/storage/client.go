package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"github.com/kalad-store/api/internal/platform/config"
)

// Provider lazily initialises the Cloud Storage bucket handle backing product assets.
// The bucket defaults to the Firebase project's default bucket when no explicit
// bucket name is configured.
type Provider struct {
	firebaseCfg config.FirebaseConfig
	storageCfg  config.StorageConfig

	mu     sync.Mutex
	bucket *gcs.BucketHandle
	name   string
}

// NewProvider constructs a Provider bound to the given configuration.
func NewProvider(firebaseCfg config.FirebaseConfig, storageCfg config.StorageConfig) *Provider {
	return &Provider{firebaseCfg: firebaseCfg, storageCfg: storageCfg}
}

// Bucket returns the shared bucket handle, initialising it on first use.
func (p *Provider) Bucket(ctx context.Context) (*gcs.BucketHandle, string, error) {
	if p == nil {
		return nil, "", errors.New("storage: provider is nil")
	}
	if ctx == nil {
		return nil, "", errors.New("storage: context is required")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bucket != nil {
		return p.bucket, p.name, nil
	}

	name := strings.TrimSpace(p.storageCfg.AssetsBucket)
	if name == "" {
		name = fmt.Sprintf("%s.appspot.com", strings.TrimSpace(p.firebaseCfg.ProjectID))
	}

	appCfg := &firebase.Config{
		ProjectID:     strings.TrimSpace(p.firebaseCfg.ProjectID),
		StorageBucket: name,
	}

	var opts []option.ClientOption
	if creds := strings.TrimSpace(p.firebaseCfg.CredentialsFile); creds != "" {
		opts = append(opts, option.WithCredentialsFile(creds))
	}

	app, err := firebase.NewApp(ctx, appCfg, opts...)
	if err != nil {
		return nil, "", fmt.Errorf("storage: initialise firebase app: %w", err)
	}

	client, err := app.Storage(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("storage: initialise storage client: %w", err)
	}

	bucket, err := client.DefaultBucket()
	if err != nil {
		return nil, "", fmt.Errorf("storage: resolve bucket: %w", err)
	}

	p.bucket = bucket
	p.name = name
	return p.bucket, p.name, nil
}
