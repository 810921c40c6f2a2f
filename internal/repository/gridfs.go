package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"coursehub-backend/internal/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MaxFileSize caps uploads at a size that keeps GridFS chunking reasonable.
const MaxFileSize = 50 * 1024 * 1024 // 50MB

type gridFSStore struct {
	db     *mongo.Database
	bucket *gridfs.Bucket
}

// NewGridFSStore builds the FileStore on a GridFS bucket named "uploads".
func NewGridFSStore(db *mongo.Database) (domain.FileStore, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName("uploads"))
	if err != nil {
		return nil, fmt.Errorf("failed to create GridFS bucket: %w", err)
	}
	return &gridFSStore{db: db, bucket: bucket}, nil
}

func (s *gridFSStore) Save(ctx context.Context, file multipart.File, header *multipart.FileHeader, meta domain.FileMeta) (*domain.StoredFile, error) {
	if header.Size > MaxFileSize {
		return nil, domain.BadRequestf("file too large, max %dMB", MaxFileSize/(1024*1024))
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = detectContentType(header.Filename)
	}
	if !isAllowedFileType(contentType, header.Filename) {
		return nil, domain.BadRequestf("file type %q not allowed", filepath.Ext(header.Filename))
	}

	ext := filepath.Ext(header.Filename)
	uniqueFilename := uuid.NewString() + ext

	uploadOpts := options.GridFSUpload().SetMetadata(bson.M{
		"original_name": header.Filename,
		"uploaded_by":   meta.UploadedBy,
		"course_id":     meta.CourseID,
		"content_type":  contentType,
	})

	objectID, err := s.bucket.UploadFromStream(uniqueFilename, file, uploadOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}

	return &domain.StoredFile{
		ID:           objectID.Hex(),
		URL:          fileURL(objectID.Hex()),
		Filename:     uniqueFilename,
		OriginalName: header.Filename,
		ContentType:  contentType,
		Size:         header.Size,
		UploadedAt:   time.Now(),
		UploadedBy:   meta.UploadedBy,
		CourseID:     meta.CourseID,
	}, nil
}

func (s *gridFSStore) Open(ctx context.Context, fileID string) (io.ReadCloser, *domain.StoredFile, error) {
	objectID, err := primitive.ObjectIDFromHex(fileID)
	if err != nil {
		return nil, nil, domain.BadRequestf("invalid file id %q", fileID)
	}

	info, err := s.Stat(ctx, fileID)
	if err != nil {
		return nil, nil, err
	}

	stream, err := s.bucket.OpenDownloadStream(objectID)
	if err != nil {
		return nil, nil, domain.NotFoundf("file %s", fileID)
	}
	return stream, info, nil
}

func (s *gridFSStore) Stat(ctx context.Context, fileID string) (*domain.StoredFile, error) {
	objectID, err := primitive.ObjectIDFromHex(fileID)
	if err != nil {
		return nil, domain.BadRequestf("invalid file id %q", fileID)
	}

	var result struct {
		ID         primitive.ObjectID `bson:"_id"`
		Filename   string             `bson:"filename"`
		Length     int64              `bson:"length"`
		UploadDate time.Time          `bson:"uploadDate"`
		Metadata   bson.M             `bson:"metadata"`
	}
	err = s.db.Collection("uploads.files").FindOne(ctx, bson.M{"_id": objectID}).Decode(&result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.NotFoundf("file %s", fileID)
	}
	if err != nil {
		return nil, err
	}

	info := &domain.StoredFile{
		ID:         result.ID.Hex(),
		URL:        fileURL(result.ID.Hex()),
		Filename:   result.Filename,
		Size:       result.Length,
		UploadedAt: result.UploadDate,
	}
	if result.Metadata != nil {
		if v, ok := result.Metadata["original_name"].(string); ok {
			info.OriginalName = v
		}
		if v, ok := result.Metadata["content_type"].(string); ok {
			info.ContentType = v
		}
		info.UploadedBy = metaUint(result.Metadata, "uploaded_by")
		info.CourseID = metaUint(result.Metadata, "course_id")
	}
	if info.ContentType == "" {
		info.ContentType = detectContentType(result.Filename)
	}
	return info, nil
}

func (s *gridFSStore) Delete(ctx context.Context, fileID string) error {
	objectID, err := primitive.ObjectIDFromHex(fileID)
	if err != nil {
		return domain.BadRequestf("invalid file id %q", fileID)
	}
	if err := s.bucket.Delete(objectID); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return domain.NotFoundf("file %s", fileID)
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func fileURL(id string) string {
	return "/api/files/" + id
}

// metaUint reads numeric bson metadata yang bisa ter-decode sebagai int32/int64.
func metaUint(m bson.M, key string) uint {
	switch v := m[key].(type) {
	case int64:
		return uint(v)
	case int32:
		return uint(v)
	case float64:
		return uint(v)
	}
	return 0
}

func detectContentType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return "application/pdf"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".ppt":
		return "application/vnd.ms-powerpoint"
	case ".pptx":
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	case ".zip":
		return "application/zip"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".mp4":
		return "video/mp4"
	default:
		return "application/octet-stream"
	}
}

func isAllowedFileType(contentType, filename string) bool {
	allowedTypes := map[string]bool{
		"application/pdf":               true,
		"application/msword":            true,
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   true,
		"application/vnd.ms-powerpoint": true,
		"application/vnd.openxmlformats-officedocument.presentationml.presentation": true,
		"application/zip": true,
		"image/jpeg":      true,
		"image/png":       true,
		"image/gif":       true,
		"image/webp":      true,
		"video/mp4":       true,
	}
	if allowedTypes[contentType] {
		return true
	}

	ext := strings.ToLower(filepath.Ext(filename))
	allowedExts := map[string]bool{
		".pdf": true, ".doc": true, ".docx": true,
		".ppt": true, ".pptx": true, ".zip": true,
		".jpg": true, ".jpeg": true, ".png": true,
		".gif": true, ".webp": true, ".mp4": true,
	}
	return allowedExts[ext]
}
