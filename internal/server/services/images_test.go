package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	sc "github.com/dmitrijs2005/tuneshelf/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func s3TestConfig() *sc.Config {
	return &sc.Config{
		S3Region:         "us-east-1",
		S3RootUser:       "minioadmin",
		S3RootPassword:   "minioadmin",
		S3BaseEndpoint:   "http://127.0.0.1:9000",
		S3Bucket:         "tuneshelf",
		ImageURLValidity: 15 * time.Minute,
	}
}

func restoreS3Seams(t *testing.T) {
	t.Helper()
	origLoad := loadDefaultAWSConfig
	origNewS3 := newS3ClientFromConfig
	origNewPre := newS3PresignClient
	origGet := presignGetObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
		presignGetObject = origGet
	})
}

func TestNewS3ImageResolver_AppliesConfig(t *testing.T) {
	restoreS3Seams(t)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "us-east-1", lo.Region)
		require.NotNil(t, lo.Credentials)
		creds, err := lo.Credentials.Retrieve(ctx)
		require.NoError(t, err)
		assert.Equal(t, "minioadmin", creds.AccessKeyID)
		return aws.Config{}, nil
	}

	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &s3.Client{}
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		require.NotNil(t, c)
		return &s3.PresignClient{}
	}

	r, err := NewS3ImageResolver(context.Background(), s3TestConfig())
	require.NoError(t, err)
	assert.Equal(t, "tuneshelf", r.bucket)
	assert.Equal(t, 15*time.Minute, r.validity)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)
}

func TestNewS3ImageResolver_ConfigError(t *testing.T) {
	restoreS3Seams(t)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no region")
	}

	_, err := NewS3ImageResolver(context.Background(), s3TestConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "aws config")
}

func TestS3ImageResolver_URL(t *testing.T) {
	restoreS3Seams(t)

	r := &S3ImageResolver{presign: &s3.PresignClient{}, bucket: "tuneshelf", validity: 15 * time.Minute}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		assert.Equal(t, "tuneshelf", aws.ToString(in.Bucket))
		var po s3.PresignOptions
		for _, fn := range optFns {
			fn(&po)
		}
		assert.Equal(t, 15*time.Minute, po.Expires)
		if aws.ToString(in.Key) == "broken" {
			return nil, errors.New("signer failed")
		}
		return &v4.PresignedHTTPRequest{URL: "http://127.0.0.1:9000/tuneshelf/" + aws.ToString(in.Key) + "?sig"}, nil
	}

	url, err := r.URL(context.Background(), "artists/a1.png")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9000/tuneshelf/artists/a1.png?sig", url)

	_, err = r.URL(context.Background(), "broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "presign broken")
}
