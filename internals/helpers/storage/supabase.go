package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SupabaseStorage talks to the Storage REST API of a Supabase project.
type SupabaseStorage struct {
	ProjectURL string
	ServiceKey string
	Bucket     string
	HTTPClient *http.Client
}

func NewSupabaseStorage(projectURL, serviceKey, bucket string) (*SupabaseStorage, error) {
	if projectURL == "" || serviceKey == "" {
		return nil, fmt.Errorf("SUPABASE_PROJECT_URL or SUPABASE_SERVICE_ROLE_KEY is not set")
	}
	return &SupabaseStorage{
		ProjectURL: strings.TrimRight(projectURL, "/"),
		ServiceKey: serviceKey,
		Bucket:     bucket,
		HTTPClient: &http.Client{Timeout: 20 * time.Second},
	}, nil
}

func (s *SupabaseStorage) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.ProjectURL, s.Bucket, key)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.ServiceKey)
	req.Header.Set("apikey", s.ServiceKey)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send upload request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("upload failed status %d: %s", resp.StatusCode, string(body))
	}
	return s.PublicURL(key), nil
}

func (s *SupabaseStorage) PublicURL(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.ProjectURL, s.Bucket, strings.Join(segments, "/"))
}
