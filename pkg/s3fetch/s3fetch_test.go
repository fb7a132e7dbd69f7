package s3fetch

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func TestParseS3URI(t *testing.T) {
	tests := []struct {
		uri        string
		wantBucket string
		wantKey    string
		wantErr    bool
	}{
		{
			uri:        "s3://my-bucket/saves/Save 12 - Prisoner.ess",
			wantBucket: "my-bucket",
			wantKey:    "saves/Save 12 - Prisoner.ess",
		},
		{
			uri:        "s3://bucket/key",
			wantBucket: "bucket",
			wantKey:    "key",
		},
		{
			uri:     "s3://bucket-only/",
			wantErr: true,
		},
		{
			uri:     "s3://bucket",
			wantErr: true,
		},
		{
			uri:     "https://bucket/key",
			wantErr: true,
		},
		{
			uri:     "/local/path.ess",
			wantErr: true,
		},
		{
			uri:     "s3://",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, key, err := ParseS3URI(tt.uri)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if bucket != tt.wantBucket {
				t.Errorf("bucket = %q, want %q", bucket, tt.wantBucket)
			}
			if key != tt.wantKey {
				t.Errorf("key = %q, want %q", key, tt.wantKey)
			}
		})
	}
}

func TestIsS3URI(t *testing.T) {
	if !IsS3URI("s3://b/k") {
		t.Error("IsS3URI(s3://b/k) = false")
	}
	if IsS3URI("saves/quick.ess") {
		t.Error("IsS3URI(local path) = true")
	}
}

func TestDefaultDownloaderConfig(t *testing.T) {
	cfg := DefaultDownloaderConfig()

	if cfg.Concurrency < 4 {
		t.Errorf("Concurrency = %d, want >= 4", cfg.Concurrency)
	}
	if cfg.Concurrency > 16 {
		t.Errorf("Concurrency = %d, want <= 16", cfg.Concurrency)
	}
	if cfg.PartSize != 8*1024*1024 {
		t.Errorf("PartSize = %d, want 8MB", cfg.PartSize)
	}
}

func TestNewDownloaderDefaults(t *testing.T) {
	client := s3.New(s3.Options{Region: "us-east-1"})

	d := NewDownloader(client, DownloaderConfig{})
	def := DefaultDownloaderConfig()
	if d.Config() != def {
		t.Errorf("Config() = %+v, want %+v", d.Config(), def)
	}

	d = NewDownloader(client, DownloaderConfig{Concurrency: 2, PartSize: 1 << 20})
	if d.Config().Concurrency != 2 || d.Config().PartSize != 1<<20 {
		t.Errorf("Config() = %+v, want explicit values kept", d.Config())
	}
}
