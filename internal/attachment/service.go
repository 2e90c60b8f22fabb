package attachment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/abduss/postboard/internal/post"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

const defaultMaxFileSize = 10 * 1024 * 1024

type metadataStore interface {
	Create(ctx context.Context, a Attachment) (Attachment, error)
	ListByPost(ctx context.Context, postID uuid.UUID) ([]Attachment, error)
	ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]Attachment, error)
	Get(ctx context.Context, postID, attachmentID uuid.UUID) (Attachment, error)
	Delete(ctx context.Context, postID, attachmentID uuid.UUID) (Attachment, error)
}

type postLookup interface {
	GetPost(ctx context.Context, postID uuid.UUID) (post.Post, error)
}

type objectStore interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
}

// Options tune storage limits.
type Options struct {
	Bucket      string
	MaxFileSize int64
	PresignTTL  time.Duration
}

// Service manages post attachments in object storage.
type Service struct {
	repo        metadataStore
	posts       postLookup
	objectStore objectStore
	opts        Options
	log         *zap.Logger
	nowFunc     func() time.Time
}

// NewService constructs an attachment service.
func NewService(repo metadataStore, posts postLookup, store objectStore, opts Options, log *zap.Logger) *Service {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = defaultMaxFileSize
	}
	if opts.PresignTTL <= 0 {
		opts.PresignTTL = 15 * time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:        repo,
		posts:       posts,
		objectStore: store,
		opts:        opts,
		log:         log.Named("attachment"),
		nowFunc:     time.Now,
	}
}

// Upload stores a file against a post owned by actorID.
func (s *Service) Upload(ctx context.Context, actorID, postID uuid.UUID, fileHeader *multipart.FileHeader) (Attachment, error) {
	if fileHeader == nil {
		return Attachment{}, ErrMissingFile
	}
	if err := s.authorize(ctx, actorID, postID); err != nil {
		return Attachment{}, err
	}
	if fileHeader.Size > s.opts.MaxFileSize {
		return Attachment{}, ErrFileTooLarge
	}

	attachmentID := uuid.New()
	objectName := fmt.Sprintf("%s/%s", postID.String(), attachmentID.String())

	file, err := fileHeader.Open()
	if err != nil {
		return Attachment{}, fmt.Errorf("open upload file: %w", err)
	}
	defer file.Close()

	hasher := sha256.New()
	reader := io.TeeReader(file, hasher)
	contentType := detectContentType(fileHeader)

	info, err := s.objectStore.PutObject(ctx, s.opts.Bucket, objectName, reader, fileHeader.Size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return Attachment{}, fmt.Errorf("store object: %w", err)
	}

	size := info.Size
	if size <= 0 {
		size = fileHeader.Size
	}
	if size > s.opts.MaxFileSize {
		s.removeQuietly(ctx, objectName)
		return Attachment{}, ErrFileTooLarge
	}

	stored, err := s.repo.Create(ctx, Attachment{
		ID:          attachmentID,
		PostID:      postID,
		ObjectName:  objectName,
		Filename:    sanitizeFilename(fileHeader.Filename),
		ContentType: contentType,
		SizeBytes:   size,
		Checksum:    hex.EncodeToString(hasher.Sum(nil)),
	})
	if err != nil {
		s.removeQuietly(ctx, objectName)
		return Attachment{}, err
	}
	return stored, nil
}

// List returns the attachments of a post.
func (s *Service) List(ctx context.Context, postID uuid.UUID) ([]Attachment, error) {
	if _, err := s.lookupPost(ctx, postID); err != nil {
		return nil, err
	}
	return s.repo.ListByPost(ctx, postID)
}

// Download returns attachment metadata and a reader for its content. The caller closes the reader.
func (s *Service) Download(ctx context.Context, postID, attachmentID uuid.UUID) (Attachment, io.ReadCloser, error) {
	a, err := s.repo.Get(ctx, postID, attachmentID)
	if err != nil {
		return Attachment{}, nil, err
	}

	object, err := s.objectStore.GetObject(ctx, s.opts.Bucket, a.ObjectName, minio.GetObjectOptions{})
	if err != nil {
		return Attachment{}, nil, fmt.Errorf("fetch object: %w", err)
	}
	return a, object, nil
}

// SignedDownloadURL issues a presigned GET link that serves the file under its original name.
func (s *Service) SignedDownloadURL(ctx context.Context, postID, attachmentID uuid.UUID) (SignedURL, error) {
	a, err := s.repo.Get(ctx, postID, attachmentID)
	if err != nil {
		return SignedURL{}, err
	}

	params := make(url.Values)
	params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", a.Filename))

	issuedAt := s.nowFunc()
	u, err := s.objectStore.PresignedGetObject(ctx, s.opts.Bucket, a.ObjectName, s.opts.PresignTTL, params)
	if err != nil {
		return SignedURL{}, fmt.Errorf("presign object: %w", err)
	}
	return SignedURL{URL: u.String(), ExpiresAt: issuedAt.Add(s.opts.PresignTTL)}, nil
}

// Delete removes an attachment from a post owned by actorID.
func (s *Service) Delete(ctx context.Context, actorID, postID, attachmentID uuid.UUID) error {
	if err := s.authorize(ctx, actorID, postID); err != nil {
		return err
	}

	a, err := s.repo.Delete(ctx, postID, attachmentID)
	if err != nil {
		return err
	}
	if err := s.removeObject(ctx, a.ObjectName); err != nil {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}

// PurgeForPost removes the stored objects of every attachment on the post.
// Metadata rows are left for the post's cascading delete.
func (s *Service) PurgeForPost(ctx context.Context, postID uuid.UUID) error {
	list, err := s.repo.ListByPost(ctx, postID)
	if err != nil {
		return err
	}
	return s.purge(ctx, list)
}

// PurgeForAuthor removes the stored objects of every attachment on the author's posts.
func (s *Service) PurgeForAuthor(ctx context.Context, authorID uuid.UUID) error {
	list, err := s.repo.ListByAuthor(ctx, authorID)
	if err != nil {
		return err
	}
	return s.purge(ctx, list)
}

func (s *Service) purge(ctx context.Context, list []Attachment) error {
	for _, a := range list {
		if err := s.removeObject(ctx, a.ObjectName); err != nil {
			return fmt.Errorf("remove object %s: %w", a.ObjectName, err)
		}
	}
	return nil
}

// removeObject treats an already missing object as removed.
func (s *Service) removeObject(ctx context.Context, objectName string) error {
	err := s.objectStore.RemoveObject(ctx, s.opts.Bucket, objectName, minio.RemoveObjectOptions{})
	if err != nil && minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return nil
	}
	return err
}

func (s *Service) removeQuietly(ctx context.Context, objectName string) {
	if err := s.removeObject(ctx, objectName); err != nil {
		s.log.Warn("orphaned object left behind", zap.String("object", objectName), zap.Error(err))
	}
}

func (s *Service) authorize(ctx context.Context, actorID, postID uuid.UUID) error {
	p, err := s.lookupPost(ctx, postID)
	if err != nil {
		return err
	}
	if !p.OwnedBy(actorID) {
		return ErrForbidden
	}
	return nil
}

func (s *Service) lookupPost(ctx context.Context, postID uuid.UUID) (post.Post, error) {
	p, err := s.posts.GetPost(ctx, postID)
	if err != nil {
		if errors.Is(err, post.ErrPostNotFound) {
			return post.Post{}, ErrPostNotFound
		}
		return post.Post{}, err
	}
	return p, nil
}

func detectContentType(fileHeader *multipart.FileHeader) string {
	if ct := fileHeader.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if name == "" || name == "." || name == "/" {
		return "upload"
	}
	return name
}
