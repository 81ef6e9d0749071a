package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"path"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/kalad-store/api/internal/platform/storage"
)

const (
	maxImageBytes  = 1 << 20
	minImageSide   = 600
	targetSide     = 1080
	jpegQuality    = 80
	uploadSlugSize = 6
)

var errImageUploaderRequired = errors.New("image service: uploader is required")

// ErrImageInvalidInput indicates the file failed validation.
var ErrImageInvalidInput = errors.New("image service: invalid input")

// ErrImageUnavailable indicates the storage backend cannot fulfil the request.
var ErrImageUnavailable = errors.New("image service: unavailable")

// ImageServiceDeps wires the storage and clock dependencies for image ingestion.
type ImageServiceDeps struct {
	Uploader    ImageUploader
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(context.Context, string, map[string]any)
}

type imageService struct {
	uploader ImageUploader
	now      func() time.Time
	newID    func() string
	logger   func(context.Context, string, map[string]any)
}

// NewImageService constructs an ImageService enforcing dependency validation.
func NewImageService(deps ImageServiceDeps) (ImageService, error) {
	if deps.Uploader == nil {
		return nil, errImageUploaderRequired
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &imageService{
		uploader: deps.Uploader,
		now:      func() time.Time { return clock().UTC() },
		newID:    idGen,
		logger:   logger,
	}, nil
}

// Validate checks size, format, and minimum dimensions without decoding the
// full pixel data.
func (s *imageService) Validate(name string, data []byte) (ImageInfo, error) {
	if len(data) == 0 {
		return ImageInfo{}, fmt.Errorf("%w: empty file", ErrImageInvalidInput)
	}
	if len(data) > maxImageBytes {
		return ImageInfo{}, fmt.Errorf("%w: %s exceeds 1MiB", ErrImageInvalidInput, strings.TrimSpace(name))
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ImageInfo{}, fmt.Errorf("%w: unrecognised image data", ErrImageInvalidInput)
	}
	switch format {
	case "jpeg", "png", "webp":
	default:
		return ImageInfo{}, fmt.Errorf("%w: format %s not allowed", ErrImageInvalidInput, format)
	}
	if cfg.Width < minImageSide || cfg.Height < minImageSide {
		return ImageInfo{}, fmt.Errorf("%w: image is %dx%d, minimum is %dx%d", ErrImageInvalidInput, cfg.Width, cfg.Height, minImageSide, minImageSide)
	}

	return ImageInfo{Format: format, Width: cfg.Width, Height: cfg.Height, Size: len(data)}, nil
}

// UploadProductImage validates, compresses, and stores a single image,
// returning its public URL.
func (s *imageService) UploadProductImage(ctx context.Context, file ImageFile) (string, error) {
	if s == nil || s.uploader == nil {
		return "", ErrImageUnavailable
	}

	if _, err := s.Validate(file.Name, file.Data); err != nil {
		return "", err
	}

	compressed, err := compressImage(file.Data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrImageInvalidInput, err)
	}

	object, err := storage.BuildObjectPath(storage.PurposeProductImage, storage.PathParams{
		UploadedAtMillis: s.now().UnixMilli(),
		Disambiguator:    s.uploadSlug(),
		FileName:         jpegFileName(file.Name),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrImageInvalidInput, err)
	}

	url, err := s.uploader.Upload(ctx, object, compressed, "image/jpeg")
	if err != nil {
		s.logger(ctx, "image.upload.failed", map[string]any{"object": object, "error": err.Error()})
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", ErrImageUnavailable
	}

	s.logger(ctx, "image.upload.succeeded", map[string]any{"object": object, "bytes": len(compressed)})
	return url, nil
}

// UploadGallery stores the files one at a time, preserving order. The first
// failure aborts the batch.
func (s *imageService) UploadGallery(ctx context.Context, files []ImageFile) ([]string, error) {
	if s == nil || s.uploader == nil {
		return nil, ErrImageUnavailable
	}

	urls := make([]string, 0, len(files))
	for _, file := range files {
		url, err := s.UploadProductImage(ctx, file)
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// uploadSlug derives a short lowercase disambiguator so simultaneous uploads
// of identically named files never collide.
func (s *imageService) uploadSlug() string {
	id := strings.ToLower(s.newID())
	if len(id) > uploadSlugSize {
		id = id[len(id)-uploadSlugSize:]
	}
	return id
}

// compressImage re-encodes the image as a JPEG, downscaling uniformly when
// either side exceeds the target. Aspect ratio is preserved; images already
// within bounds only change encoding.
func compressImage(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := src.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width > targetSide || height > targetSide {
		ratio := float64(targetSide) / float64(width)
		if r := float64(targetSide) / float64(height); r < ratio {
			ratio = r
		}
		outW := int(float64(width) * ratio)
		outH := int(float64(height) * ratio)
		if outW < 1 {
			outW = 1
		}
		if outH < 1 {
			outH = 1
		}

		dst := image.NewRGBA(image.Rect(0, 0, outW, outH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
		src = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// jpegFileName swaps the extension to reflect the re-encoded payload.
func jpegFileName(name string) string {
	base := strings.TrimSpace(name)
	if base == "" {
		base = "imagen"
	}
	ext := path.Ext(base)
	if ext != "" {
		base = base[:len(base)-len(ext)]
	}
	return base + ".jpg"
}
