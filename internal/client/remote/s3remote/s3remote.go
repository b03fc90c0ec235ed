// Package s3remote is the document-store transport: each collection is
// one JSON array object in an S3-compatible bucket, so an overwrite is a
// single atomic PutObject.
package s3remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/dmitrijs2005/mediminder/internal/client/models"
	"github.com/dmitrijs2005/mediminder/internal/client/remote"
	"github.com/dmitrijs2005/mediminder/internal/common"
)

const (
	usersPrefix = "users/"
	profileName = "profile"
	contentType = "application/json"
)

// API is the subset of *s3.Client the transport calls.
type API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

var loadDefaultAWSConfig = config.LoadDefaultConfig

// NewClient builds an S3 client with static credentials. A custom endpoint
// switches to path-style addressing, which MinIO expects.
func NewClient(ctx context.Context, cfg Config) (*s3.Client, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

type Transport struct {
	api    API
	bucket string
}

func New(api API, bucket string) *Transport {
	return &Transport{api: api, bucket: bucket}
}

func objectKey(userID, name string) string {
	return usersPrefix + userID + "/" + name + ".json"
}

func scope(id remote.Identity) (string, error) {
	if id.UserID == "" || strings.Contains(id.UserID, "/") {
		return "", fmt.Errorf("%w: invalid user id %q", common.ErrUnauthorized, id.UserID)
	}
	return id.UserID, nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var ae smithy.APIError
	if errors.As(err, &ae) {
		switch ae.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

// get returns nil, nil for a missing object.
func (t *Transport) get(ctx context.Context, key string) ([]byte, error) {
	out, err := t.api.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(t.bucket), Key: aws.String(key)})
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

func (t *Transport) put(ctx context.Context, key string, data []byte) error {
	_, err := t.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(t.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (t *Transport) loadRecords(ctx context.Context, userID string, c models.Collection) ([]remote.Record, error) {
	data, err := t.get(ctx, objectKey(userID, string(c)))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return []remote.Record{}, nil
	}
	return remote.RecordsFromJSON(data)
}

func (t *Transport) LoadCollection(ctx context.Context, id remote.Identity, c models.Collection) ([]remote.Record, error) {
	uid, err := scope(id)
	if err != nil {
		return nil, err
	}
	return t.loadRecords(ctx, uid, c)
}

func (t *Transport) OverwriteCollection(ctx context.Context, id remote.Identity, c models.Collection, recs []remote.Record) error {
	uid, err := scope(id)
	if err != nil {
		return err
	}
	data, err := remote.ToJSON(recs)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c, err)
	}
	return t.put(ctx, objectKey(uid, string(c)), data)
}

func (t *Transport) loadProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	data, err := t.get(ctx, objectKey(userID, profileName))
	if err != nil || data == nil {
		return nil, err
	}
	var p models.UserProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &p, nil
}

func (t *Transport) LoadProfile(ctx context.Context, id remote.Identity) (*models.UserProfile, error) {
	uid, err := scope(id)
	if err != nil {
		return nil, err
	}
	return t.loadProfile(ctx, uid)
}

func (t *Transport) SaveProfile(ctx context.Context, id remote.Identity, p models.UserProfile) error {
	uid, err := scope(id)
	if err != nil {
		return err
	}
	p.UserID = ""
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	return t.put(ctx, objectKey(uid, profileName), data)
}

// ListAllProfiles walks the users/ prefixes. Users without a stored
// profile are listed with an empty name.
func (t *Transport) ListAllProfiles(ctx context.Context, id remote.Identity) ([]models.UserProfile, error) {
	out := []models.UserProfile{}
	if !id.Admin {
		return out, nil
	}
	p := s3.NewListObjectsV2Paginator(t.api, &s3.ListObjectsV2Input{
		Bucket:    aws.String(t.bucket),
		Prefix:    aws.String(usersPrefix),
		Delimiter: aws.String("/"),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		for _, cp := range page.CommonPrefixes {
			uid := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), usersPrefix), "/")
			if uid == "" {
				continue
			}
			prof, err := t.loadProfile(ctx, uid)
			if err != nil {
				return nil, err
			}
			if prof == nil {
				prof = &models.UserProfile{}
			}
			prof.UserID = uid
			out = append(out, *prof)
		}
	}
	return out, nil
}

func (t *Transport) LoadCollectionForUser(ctx context.Context, id remote.Identity, userID string, c models.Collection) ([]remote.Record, error) {
	if !id.Admin {
		return []remote.Record{}, nil
	}
	uid, err := scope(remote.Identity{UserID: userID})
	if err != nil {
		return nil, err
	}
	return t.loadRecords(ctx, uid, c)
}
