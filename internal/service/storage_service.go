package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"formflow_backend/internal/config"
	"formflow_backend/internal/util"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// StorageProvider 定义通用存储接口
type StorageProvider interface {
	Upload(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, objectKey string) error
	GetURL(objectKey string) string
}

// LocalStorageProvider 本地存储实现
type LocalStorageProvider struct {
	Config *config.StorageConfig
}

func (p *LocalStorageProvider) Upload(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) (string, error) {
	dst := filepath.Join(p.Config.LocalPath, objectKey)
	dir := filepath.Dir(dst)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", err
		}
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()

	_, err = io.Copy(out, reader)
	if err != nil {
		return "", err
	}

	return p.GetURL(objectKey), nil
}

func (p *LocalStorageProvider) Delete(ctx context.Context, objectKey string) error {
	dst := filepath.Join(p.Config.LocalPath, objectKey)
	return os.Remove(dst)
}

func (p *LocalStorageProvider) GetURL(objectKey string) string {
	return "/uploads/" + objectKey
}

// MinioStorageProvider MinIO存储实现
type MinioStorageProvider struct {
	Config *config.StorageConfig
	Client *minio.Client
}

func NewMinioStorageProvider(cfg *config.StorageConfig) (*MinioStorageProvider, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, err
	}
	return &MinioStorageProvider{Config: cfg, Client: client}, nil
}

func (p *MinioStorageProvider) Upload(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := p.Client.PutObject(ctx, p.Config.MinioBucket, objectKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return p.GetURL(objectKey), nil
}

func (p *MinioStorageProvider) Delete(ctx context.Context, objectKey string) error {
	return p.Client.RemoveObject(ctx, p.Config.MinioBucket, objectKey, minio.RemoveObjectOptions{})
}

func (p *MinioStorageProvider) GetURL(objectKey string) string {
	return "/" + p.Config.MinioBucket + "/" + objectKey
}

// StorageService 存储服务，保存问卷中文件类问题的附件
type StorageService struct {
	Provider StorageProvider
}

func NewStorageService(cfg *config.Config) *StorageService {
	var provider StorageProvider
	if cfg.Storage.Type == util.StorageMinio {
		p, err := NewMinioStorageProvider(&cfg.Storage)
		if err == nil {
			provider = p
		}
	}

	if provider == nil {
		provider = &LocalStorageProvider{Config: &cfg.Storage}
	}

	return &StorageService{Provider: provider}
}

// 附件放行的 MIME 类型
var allowedAttachmentTypes = []string{util.MimeImage, util.MimePDF, util.MimeText, util.MimeOctetStream}

// UploadAttachment 保存一个附件并返回可存入答案的票据 "<objectKey>|<原始文件名>"
func (s *StorageService) UploadAttachment(ctx context.Context, filename string, file io.ReadSeeker, size int64) (string, error) {
	mimeType, err := util.ValidateMimeType(file, allowedAttachmentTypes)
	if err != nil {
		return "", err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	ext := filepath.Ext(filename)
	objectKey := fmt.Sprintf("attachments/%s%s", uuid.New().String(), ext)
	if _, err := s.Provider.Upload(ctx, objectKey, file, size, mimeType); err != nil {
		return "", err
	}
	return objectKey + "|" + filename, nil
}

// DeleteAttachment 按票据删除附件
func (s *StorageService) DeleteAttachment(ctx context.Context, token string) error {
	objectKey, _, _ := strings.Cut(token, "|")
	if objectKey == "" {
		return nil
	}
	return s.Provider.Delete(ctx, objectKey)
}

// AttachmentURL 按票据取访问地址
func (s *StorageService) AttachmentURL(token string) string {
	objectKey, _, _ := strings.Cut(token, "|")
	return s.Provider.GetURL(objectKey)
}
