package s3

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/gosimple/slug"
	"github.com/sirupsen/logrus"
)

const keyPrefix = "photos/"

type ItfS3 interface {
	UploadFile(ctx context.Context, file *multipart.FileHeader) (string, error)
	PresignUrl(fileUrl string) (string, error)
	DeleteFile(ctx context.Context, fileUrl string) error
}

type s3Client struct {
	client     *s3.S3
	session    *session.Session
	bucketName string
}

func New() (ItfS3, error) {
	sess, err := newSession()
	if err != nil {
		return nil, err
	}

	return &s3Client{
		client:     s3.New(sess),
		session:    sess,
		bucketName: os.Getenv("AWS_BUCKET_NAME"),
	}, nil
}

// UploadFile stores the photo under a date partitioned key and returns its
// object URL.
func (s *s3Client) UploadFile(ctx context.Context, file *multipart.FileHeader) (string, error) {
	uploader := s3manager.NewUploader(s.session)

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer func(src multipart.File) {
		if err := src.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close uploaded file")
		}
	}(src)

	uploadOutput, err := uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(generateObjectKey(file.Filename, time.Now())),
		Body:        src,
		ContentType: aws.String(file.Header.Get("Content-Type")),
	})
	if err != nil {
		return "", err
	}

	return uploadOutput.Location, nil
}

func (s *s3Client) PresignUrl(fileUrl string) (string, error) {
	key, err := ObjectKey(fileUrl)
	if err != nil {
		return "", err
	}

	req, _ := s.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})

	urlStr, err := req.Presign(15 * time.Minute)
	if err != nil {
		return "", err
	}

	return urlStr, nil
}

func (s *s3Client) DeleteFile(ctx context.Context, fileUrl string) error {
	key, err := ObjectKey(fileUrl)
	if err != nil {
		return err
	}

	_, err = s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})

	return err
}

// ObjectKey extracts the decoded object key from an S3 object URL. Bare keys
// are returned unchanged.
func ObjectKey(fileUrl string) (string, error) {
	key := fileUrl
	if parts := strings.SplitN(fileUrl, ".com/", 2); len(parts) == 2 {
		key = parts[1]
	}

	decoded, err := url.PathUnescape(key)
	if err != nil {
		return "", fmt.Errorf("failed to decode S3 key: %w", err)
	}
	return decoded, nil
}

func newSession() (*session.Session, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(os.Getenv("AWS_REGION")),
		Credentials: credentials.NewStaticCredentials(
			os.Getenv("AWS_ACCESS_KEY_ID"),
			os.Getenv("AWS_SECRET_ACCESS_KEY"),
			"",
		),
	})
	if err != nil {
		return nil, err
	}

	return sess, nil
}

func generateObjectKey(fileName string, now time.Time) string {
	ext := strings.ToLower(path.Ext(fileName))
	base := slug.Make(strings.TrimSuffix(fileName, path.Ext(fileName)))
	if base == "" {
		base = "photo"
	}
	return fmt.Sprintf("%s%s/%d-%s%s", keyPrefix, now.Format("2006/01/02"), now.UnixNano(), base, ext)
}
