package file

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png" // PNG decoding
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/access"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/storage"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/tracing"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/image/draw"
)

const (
	// AvatarMaxSide bounds the longer edge of a stored photo.
	AvatarMaxSide = 512
	avatarQuality = 85
)

var allowedPhotoExts = []string{".jpg", ".jpeg", ".png"}

type PhotoServiceImpl struct {
	tx           database.Transactor
	employeeRepo employee.EmployeeRepository
	storage      storage.FileStorage
	policy       access.Policy
}

func NewPhotoService(
	tx database.Transactor,
	employeeRepo employee.EmployeeRepository,
	fileStorage storage.FileStorage,
	policy access.Policy,
) employee.PhotoService {
	return &PhotoServiceImpl{
		tx:           tx,
		employeeRepo: employeeRepo,
		storage:      fileStorage,
		policy:       policy,
	}
}

// UploadPhoto implements employee.PhotoService. The image is re-encoded as
// JPEG so the stored file never carries the uploader's metadata.
func (s *PhotoServiceImpl) UploadPhoto(ctx context.Context, employeeID int64, file io.Reader, filename string) (resp employee.EmployeeResponse, err error) {
	ctx, span := tracing.Start(ctx, "employee.UploadPhoto", attribute.Int64("employee.id", employeeID))
	defer func() { tracing.End(span, err); metrics.ObserveError("employee.UploadPhoto", err) }()

	p, err := access.PrincipalFrom(ctx)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	if err := access.Authorize(s.policy, p, access.ActionEmployeeManage, access.Target{OwnerID: employeeID}); err != nil {
		return employee.EmployeeResponse{}, err
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !isAllowedExt(ext) {
		return employee.EmployeeResponse{}, employee.ErrUnsupportedPhoto
	}
	if _, err := s.employeeRepo.GetByID(ctx, employeeID); err != nil {
		return employee.EmployeeResponse{}, err
	}

	data, err := normalizeAvatar(file)
	if err != nil {
		slog.Info("Rejected photo upload", "employee_id", employeeID, "filename", filename, "error", err)
		return employee.EmployeeResponse{}, employee.ErrUnsupportedPhoto
	}

	key := fmt.Sprintf("avatars/%d/%s.jpg", employeeID, uuid.New())
	key, err = s.storage.Upload(ctx, bytes.NewReader(data), key, "image/jpeg")
	if err != nil {
		return employee.EmployeeResponse{}, fmt.Errorf("failed to store photo: %w", err)
	}
	url := s.storage.URL(key)

	var previous *string
	var updated employee.Employee
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		emp, err := s.employeeRepo.GetByIDForUpdate(ctx, employeeID)
		if err != nil {
			return err
		}
		previous = emp.PhotoURL
		emp.PhotoURL = &url
		updated, err = s.employeeRepo.Update(ctx, emp)
		return err
	})
	if err != nil {
		s.discard(ctx, key)
		return employee.EmployeeResponse{}, err
	}
	if previous != nil {
		if old, ok := s.storage.KeyFromURL(*previous); ok {
			s.discard(ctx, old)
		}
	}

	slog.Info("Employee photo uploaded", "employee_id", employeeID, "key", key, "bytes", len(data), "actor_id", p.EmployeeID)
	return employee.NewEmployeeResponse(updated), nil
}

// RemovePhoto implements employee.PhotoService.
func (s *PhotoServiceImpl) RemovePhoto(ctx context.Context, employeeID int64) (resp employee.EmployeeResponse, err error) {
	ctx, span := tracing.Start(ctx, "employee.RemovePhoto", attribute.Int64("employee.id", employeeID))
	defer func() { tracing.End(span, err); metrics.ObserveError("employee.RemovePhoto", err) }()

	p, err := access.PrincipalFrom(ctx)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	if err := access.Authorize(s.policy, p, access.ActionEmployeeManage, access.Target{OwnerID: employeeID}); err != nil {
		return employee.EmployeeResponse{}, err
	}

	var previous *string
	var updated employee.Employee
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		emp, err := s.employeeRepo.GetByIDForUpdate(ctx, employeeID)
		if err != nil {
			return err
		}
		previous = emp.PhotoURL
		emp.PhotoURL = nil
		updated, err = s.employeeRepo.Update(ctx, emp)
		return err
	})
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	if previous != nil {
		if old, ok := s.storage.KeyFromURL(*previous); ok {
			s.discard(ctx, old)
		}
	}

	slog.Info("Employee photo removed", "employee_id", employeeID, "actor_id", p.EmployeeID)
	return employee.NewEmployeeResponse(updated), nil
}

func (s *PhotoServiceImpl) discard(ctx context.Context, key string) {
	if err := s.storage.Delete(ctx, key); err != nil {
		slog.Warn("Failed to delete stored photo", "key", key, "error", err)
	}
}

func isAllowedExt(ext string) bool {
	for _, allowed := range allowedPhotoExts {
		if ext == allowed {
			return true
		}
	}
	return false
}

// normalizeAvatar decodes a JPEG or PNG, flattens it onto white, scales it
// so neither edge exceeds AvatarMaxSide and encodes it as JPEG.
func normalizeAvatar(r io.Reader) ([]byte, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := src.Bounds()
	width, height := scaledSize(bounds.Dx(), bounds.Dy(), AvatarMaxSide)
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	if width == bounds.Dx() && height == bounds.Dy() {
		draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: avatarQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// scaledSize keeps the aspect ratio and never upscales.
func scaledSize(width, height, maxSide int) (int, int) {
	if width <= maxSide && height <= maxSide {
		return width, height
	}
	if width >= height {
		return maxSide, max(1, height*maxSide/width)
	}
	return max(1, width*maxSide/height), maxSide
}
