// internal/services/document_service.go
package services

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"

	"github.com/rodoaet/aet-backend/internal/config"
	"github.com/rodoaet/aet-backend/internal/models"
)

// DocumentService stores the PDFs that travel with a request: vehicle CRLVs,
// additional plate documents and the approval documents staff attach per
// state. Files are private; reads go through short-lived presigned URLs.
type DocumentService struct {
	s3Client *s3.S3
	config   *config.Config
}

type UploadResult struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

type uploadOptions struct {
	folder       string
	maxSize      int64 // bytes
	allowedTypes []string
}

func NewDocumentService(config *config.Config) (*DocumentService, error) {
	if config.AWS.AccessKeyID == "" {
		// No S3 for local development, uploads resolve to local URLs.
		return &DocumentService{config: config}, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(config.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			config.AWS.AccessKeyID,
			config.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &DocumentService{
		s3Client: s3.New(sess),
		config:   config,
	}, nil
}

func (s *DocumentService) UploadDocument(file multipart.File, header *multipart.FileHeader, category models.DocumentCategory) (*UploadResult, error) {
	options := s.optionsFor(category)

	if header.Size > options.maxSize {
		return nil, fmt.Errorf("file size %d bytes exceeds maximum of %d bytes", header.Size, options.maxSize)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	allowed := false
	for _, allowedType := range options.allowedTypes {
		if ext == allowedType {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("file type %s is not allowed", ext)
	}

	key := s.generateKey(options.folder, ext)

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	contentType := header.Header.Get("Content-Type")
	if s.s3Client != nil {
		return s.uploadToS3(fileBytes, key, contentType)
	}
	return s.uploadToLocal(fileBytes, key, contentType)
}

func (s *DocumentService) uploadToS3(fileBytes []byte, key, contentType string) (*UploadResult, error) {
	_, err := s.s3Client.PutObject(&s3.PutObjectInput{
		Bucket:        aws.String(s.config.AWS.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(fileBytes),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(fileBytes))),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &UploadResult{
		URL:      s.documentURL(key),
		Key:      key,
		Size:     int64(len(fileBytes)),
		MimeType: contentType,
	}, nil
}

func (s *DocumentService) uploadToLocal(fileBytes []byte, key, contentType string) (*UploadResult, error) {
	url := fmt.Sprintf("http://%s:%s/uploads/%s", s.config.Server.Host, s.config.Server.Port, key)
	return &UploadResult{
		URL:      url,
		Key:      key,
		Size:     int64(len(fileBytes)),
		MimeType: contentType,
	}, nil
}

func (s *DocumentService) DeleteDocument(key string) error {
	if s.s3Client == nil {
		return nil
	}
	_, err := s.s3Client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.config.AWS.S3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}
	return nil
}

// GeneratePresignedURL returns a time-limited read URL for a stored document.
func (s *DocumentService) GeneratePresignedURL(key string, expiration time.Duration) (string, error) {
	if s.s3Client == nil {
		return "", fmt.Errorf("S3 client not configured")
	}

	req, _ := s.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.config.AWS.S3Bucket),
		Key:    aws.String(key),
	})
	url, err := req.Presign(expiration)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return url, nil
}

func (s *DocumentService) optionsFor(category models.DocumentCategory) uploadOptions {
	switch category {
	case models.DocumentCategoryCRLV:
		return uploadOptions{
			folder:       "crlv",
			maxSize:      10 * 1024 * 1024,
			allowedTypes: []string{".pdf", ".jpg", ".jpeg", ".png"},
		}
	case models.DocumentCategoryApproval:
		return uploadOptions{
			folder:       "approval-documents",
			maxSize:      20 * 1024 * 1024,
			allowedTypes: []string{".pdf"},
		}
	case models.DocumentCategoryPlate:
		return uploadOptions{
			folder:       "plate-documents",
			maxSize:      10 * 1024 * 1024,
			allowedTypes: []string{".pdf", ".jpg", ".jpeg", ".png"},
		}
	default:
		return uploadOptions{
			folder:       "general",
			maxSize:      5 * 1024 * 1024,
			allowedTypes: []string{".pdf", ".jpg", ".jpeg", ".png"},
		}
	}
}

// generateKey lays documents out as {folder}/{yyyy/mm/dd}/{uuid}{ext}.
func (s *DocumentService) generateKey(folder, ext string) string {
	return fmt.Sprintf("%s/%s/%s%s", folder, time.Now().Format("2006/01/02"), uuid.New(), ext)
}

func (s *DocumentService) documentURL(key string) string {
	if s.config.AWS.CloudFrontURL != "" {
		return fmt.Sprintf("%s/%s", s.config.AWS.CloudFrontURL, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s",
		s.config.AWS.S3Bucket, s.config.AWS.Region, key)
}
