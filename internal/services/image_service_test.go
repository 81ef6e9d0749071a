package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
	"time"
)

type stubUploader struct {
	uploadFn func(ctx context.Context, object string, data []byte, contentType string) (string, error)
	objects  []string
}

func (s *stubUploader) Upload(ctx context.Context, object string, data []byte, contentType string) (string, error) {
	s.objects = append(s.objects, object)
	if s.uploadFn != nil {
		return s.uploadFn(ctx, object, data, contentType)
	}
	return "https://example.com/" + object, nil
}

func makePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func newTestImages(t *testing.T, uploader *stubUploader) ImageService {
	t.Helper()
	service, err := NewImageService(ImageServiceDeps{
		Uploader:    uploader,
		Clock:       func() time.Time { return time.UnixMilli(1735689600000) },
		IDGenerator: func() string { return "XXXXXXXXXXXXXXXXXXXXA1B2C3" },
	})
	if err != nil {
		t.Fatalf("NewImageService returned error: %v", err)
	}
	return service
}

func TestNewImageServiceRequiresUploader(t *testing.T) {
	if _, err := NewImageService(ImageServiceDeps{}); err == nil {
		t.Fatal("expected error for missing uploader")
	}
}

func TestValidateAcceptsConformingImage(t *testing.T) {
	service := newTestImages(t, &stubUploader{})

	info, err := service.Validate("foto.png", makePNG(t, 700, 650))
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if info.Format != "png" || info.Width != 700 || info.Height != 650 {
		t.Errorf("unexpected info: %+v", info)
	}
}

func TestValidateRejectsOversizedPayload(t *testing.T) {
	service := newTestImages(t, &stubUploader{})

	_, err := service.Validate("grande.png", make([]byte, maxImageBytes+1))
	if !errors.Is(err, ErrImageInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestValidateRejectsSmallDimensions(t *testing.T) {
	service := newTestImages(t, &stubUploader{})

	_, err := service.Validate("mini.png", makePNG(t, 100, 800))
	if !errors.Is(err, ErrImageInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestValidateRejectsUnknownFormat(t *testing.T) {
	service := newTestImages(t, &stubUploader{})

	_, err := service.Validate("nota.txt", []byte("definitely not an image"))
	if !errors.Is(err, ErrImageInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestUploadProductImageCompressesAndNames(t *testing.T) {
	var uploadedData []byte
	var uploadedType string
	uploader := &stubUploader{uploadFn: func(_ context.Context, object string, data []byte, contentType string) (string, error) {
		uploadedData = data
		uploadedType = contentType
		return "https://example.com/" + object, nil
	}}
	service := newTestImages(t, uploader)

	url, err := service.UploadProductImage(context.Background(), ImageFile{
		Name: "mesa roble.png",
		Data: makePNG(t, 800, 700),
	})
	if err != nil {
		t.Fatalf("UploadProductImage returned error: %v", err)
	}

	wantObject := "productos/1735689600000_a1b2c3_mesa_roble.jpg"
	if len(uploader.objects) != 1 || uploader.objects[0] != wantObject {
		t.Fatalf("unexpected object path: %v", uploader.objects)
	}
	if !strings.HasSuffix(url, wantObject) {
		t.Errorf("unexpected url: %s", url)
	}
	if uploadedType != "image/jpeg" {
		t.Errorf("unexpected content type: %s", uploadedType)
	}

	decoded, err := jpeg.Decode(bytes.NewReader(uploadedData))
	if err != nil {
		t.Fatalf("uploaded payload is not a jpeg: %v", err)
	}
	bounds := decoded.Bounds()
	if bounds.Dx() != 800 || bounds.Dy() != 700 {
		t.Errorf("expected dimensions preserved at 800x700, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestUploadProductImageDownscalesOversized(t *testing.T) {
	var uploadedData []byte
	uploader := &stubUploader{uploadFn: func(_ context.Context, _ string, data []byte, _ string) (string, error) {
		uploadedData = data
		return "https://example.com/ok", nil
	}}
	service := newTestImages(t, uploader)

	_, err := service.UploadProductImage(context.Background(), ImageFile{
		Name: "panoramica.png",
		Data: makePNG(t, 1600, 1200),
	})
	if err != nil {
		t.Fatalf("UploadProductImage returned error: %v", err)
	}

	decoded, err := jpeg.Decode(bytes.NewReader(uploadedData))
	if err != nil {
		t.Fatalf("uploaded payload is not a jpeg: %v", err)
	}
	bounds := decoded.Bounds()
	if bounds.Dx() != 1080 || bounds.Dy() != 810 {
		t.Errorf("expected 1080x810 output, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestUploadProductImageRejectsInvalidFile(t *testing.T) {
	uploader := &stubUploader{}
	service := newTestImages(t, uploader)

	_, err := service.UploadProductImage(context.Background(), ImageFile{Name: "mini.png", Data: makePNG(t, 50, 50)})
	if !errors.Is(err, ErrImageInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if len(uploader.objects) != 0 {
		t.Error("invalid files must never reach storage")
	}
}

func TestUploadGalleryIsSequentialAndAbortsOnFailure(t *testing.T) {
	calls := 0
	uploader := &stubUploader{uploadFn: func(_ context.Context, object string, _ []byte, _ string) (string, error) {
		calls++
		if calls == 2 {
			return "", errors.New("bucket unavailable")
		}
		return "https://example.com/" + object, nil
	}}
	service := newTestImages(t, uploader)

	files := []ImageFile{
		{Name: "uno.png", Data: makePNG(t, 700, 700)},
		{Name: "dos.png", Data: makePNG(t, 700, 700)},
		{Name: "tres.png", Data: makePNG(t, 700, 700)},
	}
	_, err := service.UploadGallery(context.Background(), files)
	if !errors.Is(err, ErrImageUnavailable) {
		t.Fatalf("expected ErrImageUnavailable, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected abort after second upload, got %d calls", calls)
	}
}

func TestUploadGalleryPreservesOrder(t *testing.T) {
	uploader := &stubUploader{}
	service := newTestImages(t, uploader)

	urls, err := service.UploadGallery(context.Background(), []ImageFile{
		{Name: "uno.png", Data: makePNG(t, 700, 700)},
		{Name: "dos.png", Data: makePNG(t, 700, 700)},
	})
	if err != nil {
		t.Fatalf("UploadGallery returned error: %v", err)
	}
	if len(urls) != 2 {
		t.Fatalf("expected 2 urls, got %d", len(urls))
	}
	if !strings.Contains(urls[0], "uno") || !strings.Contains(urls[1], "dos") {
		t.Errorf("expected order preserved, got %v", urls)
	}
}
