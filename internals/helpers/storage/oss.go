package storage

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"

	"proctorx_backend/internals/configs"
)

type OSSStorage struct {
	Client     *oss.Client
	Bucket     *oss.Bucket
	Endpoint   string
	BucketName string
	Prefix     string
}

func NewOSSStorageFromEnv(prefix string) (*OSSStorage, error) {
	endpoint := strings.TrimSpace(configs.GetEnv("ALI_OSS_ENDPOINT"))
	ak := strings.TrimSpace(configs.GetEnv("ALI_OSS_ACCESS_KEY"))
	sk := strings.TrimSpace(configs.GetEnv("ALI_OSS_SECRET_KEY"))
	sts := strings.TrimSpace(configs.GetEnv("ALI_OSS_SECURITY_TOKEN"))
	bucketName := strings.TrimSpace(configs.GetEnv("ALI_OSS_BUCKET"))
	if endpoint == "" || ak == "" || sk == "" || bucketName == "" {
		return nil, fmt.Errorf("missing env: ALI_OSS_ENDPOINT/ACCESS_KEY/SECRET_KEY/BUCKET")
	}

	var (
		client *oss.Client
		err    error
	)
	if sts != "" {
		client, err = oss.New(endpoint, ak, sk, oss.SecurityToken(sts))
	} else {
		client, err = oss.New(endpoint, ak, sk)
	}
	if err != nil {
		return nil, fmt.Errorf("oss.New: %w", err)
	}

	bkt, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("client.Bucket: %w", err)
	}

	if loc, err := client.GetBucketLocation(bucketName); err != nil {
		if se, ok := err.(oss.ServiceError); ok && se.StatusCode == 403 {
			log.Printf("[WARN] oss: skip location check, access denied (bucket=%s)", bucketName)
		} else {
			return nil, fmt.Errorf("verify bucket: %w", err)
		}
	} else {
		log.Printf("[INFO] oss bucket %s location: %s", bucketName, loc)
	}

	return &OSSStorage{
		Client:     client,
		Bucket:     bkt,
		Endpoint:   endpoint,
		BucketName: bucketName,
		Prefix:     strings.Trim(prefix, "/"),
	}, nil
}

func (s *OSSStorage) objectKey(key string) string {
	if s.Prefix == "" {
		return key
	}
	return s.Prefix + "/" + strings.TrimLeft(key, "/")
}

func (s *OSSStorage) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	full := s.objectKey(key)
	if err := s.Bucket.PutObject(full, bytes.NewReader(data),
		oss.ContentType(contentType),
		oss.WithContext(ctx),
	); err != nil {
		return "", fmt.Errorf("oss put %s: %w", full, err)
	}
	return s.PublicURL(full), nil
}

func (s *OSSStorage) PublicURL(objectKey string) string {
	host := strings.TrimPrefix(strings.TrimPrefix(s.Endpoint, "https://"), "http://")
	return fmt.Sprintf("https://%s.%s/%s", s.BucketName, host, objectKey)
}
