package services

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/gharbeti/gharbeti-backend/internal/config"
)

// Storage uploads listing images and KYC documents to S3, falling back to
// local disk when AWS is not configured.
type Storage struct {
	uploader  *s3manager.Uploader
	bucket    string
	useS3     bool
	uploadDir string
	baseURL   string
}

func NewStorage(cfg config.AWSConfig, baseURL string) (*Storage, error) {
	if cfg.Region != "" && cfg.AccessKey != "" && cfg.SecretKey != "" {
		sess, err := session.NewSession(&aws.Config{
			Region: aws.String(cfg.Region),
			Credentials: credentials.NewStaticCredentials(
				cfg.AccessKey,
				cfg.SecretKey,
				"",
			),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create AWS session: %v", err)
		}

		if cfg.Bucket == "" {
			return nil, fmt.Errorf("S3 bucket name not configured")
		}

		log.Println("S3 storage initialized")
		return &Storage{
			uploader: s3manager.NewUploader(sess),
			bucket:   cfg.Bucket,
			useS3:    true,
		}, nil
	}

	// Fallback to local storage
	for _, folder := range []string{"listings", "kyc"} {
		if err := os.MkdirAll(filepath.Join(cfg.UploadDir, folder), 0755); err != nil {
			return nil, fmt.Errorf("failed to create upload directory: %v", err)
		}
	}

	log.Println("AWS S3 not configured. Using local file storage (not recommended for production)")
	return &Storage{
		uploadDir: cfg.UploadDir,
		baseURL:   baseURL,
	}, nil
}

// UploadFile stores an uploaded file under the given folder and returns its
// public URL.
func (s *Storage) UploadFile(file *multipart.FileHeader, folder string) (string, error) {
	if s.useS3 {
		return s.uploadToS3(file, folder)
	}
	return s.uploadLocally(file, folder)
}

func (s *Storage) uploadToS3(file *multipart.FileHeader, folder string) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %v", err)
	}
	defer src.Close()

	buffer := bytes.NewBuffer(nil)
	if _, err := io.Copy(buffer, src); err != nil {
		return "", fmt.Errorf("failed to read file: %v", err)
	}

	contentType := http.DetectContentType(buffer.Bytes())

	fileExt := filepath.Ext(file.Filename)
	fileName := fmt.Sprintf("%s/%d%s", folder, time.Now().UnixNano(), fileExt)

	result, err := s.uploader.Upload(&s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(fileName),
		Body:        bytes.NewReader(buffer.Bytes()),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %v", err)
	}

	return result.Location, nil
}

func (s *Storage) uploadLocally(file *multipart.FileHeader, folder string) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %v", err)
	}
	defer src.Close()

	fileExt := filepath.Ext(file.Filename)
	fileName := fmt.Sprintf("%d%s", time.Now().UnixNano(), fileExt)
	dstPath := filepath.Join(s.uploadDir, folder, fileName)

	dst, err := os.Create(dstPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %v", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to write file: %v", err)
	}

	return fmt.Sprintf("%s/uploads/%s/%s", s.baseURL, folder, fileName), nil
}
