package media

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

// NOTE: govips doesn't support stopping and restarting vips in the same process.
// Once vips.Shutdown() is called, vips.Startup() cannot be called again.
// Tests that need vips run first, shutdown tests run last.

func gradientJPEG(t testing.TB, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x * 255) / width),
				G: uint8((y * 255) / height),
				B: 128,
				A: 255,
			})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestIsVipsAvailable(t *testing.T) {
	available := IsVipsAvailable()
	t.Logf("libvips available: %v", available)
}

func TestInitVipsIdempotency(t *testing.T) {
	err := InitVips()
	if err != nil {
		t.Logf("libvips not available in test environment: %v", err)
		return
	}

	if err := InitVips(); err != nil {
		t.Errorf("Second InitVips() call failed: %v", err)
	}

	if !IsVipsAvailable() {
		t.Error("After successful InitVips, IsVipsAvailable should return true")
	}
}

func TestVipsRawDecoderQualities(t *testing.T) {
	if !IsVipsAvailable() {
		if err := InitVips(); err != nil {
			t.Skip("libvips not available in test environment")
		}
	}

	// libvips sniffs the buffer, so a JPEG stands in for sensor data here
	data := gradientJPEG(t, 1200, 800)

	for _, q := range []Quality{QualityLow, QualityNormal, QualityHigh} {
		t.Run(q.String(), func(t *testing.T) {
			img, err := VipsRawDecoder{}.DecodeRaw(data, 300, 300, q)
			if err != nil {
				t.Fatalf("DecodeRaw(%s) failed: %v", q, err)
			}

			b := img.Bounds()
			// Allow some tolerance due to rounding in the different resize paths
			if b.Dx() < 295 || b.Dx() > 301 {
				t.Errorf("width = %d, want ~300", b.Dx())
			}
			if b.Dy() < 195 || b.Dy() > 201 {
				t.Errorf("height = %d, want ~200", b.Dy())
			}
		})
	}
}

func TestVipsRawDecoderGarbage(t *testing.T) {
	if !IsVipsAvailable() {
		t.Skip("libvips not available in test environment")
	}

	if _, err := (VipsRawDecoder{}).DecodeRaw([]byte("not an image"), 100, 100, QualityNormal); err == nil {
		t.Error("Expected error for garbage input, got nil")
	}
}

// Tests that interact with shutdown should run last to avoid breaking other tests
func TestVipsRawDecoderNotAvailable(t *testing.T) {
	wasAvailable := IsVipsAvailable()
	if wasAvailable {
		ShutdownVips()
	}

	_, err := VipsRawDecoder{}.DecodeRaw(gradientJPEG(t, 100, 100), 50, 50, QualityNormal)
	if !errors.Is(err, ErrVipsUnavailable) {
		t.Errorf("DecodeRaw without vips = %v, want ErrVipsUnavailable", err)
	}

	if wasAvailable {
		t.Log("Warning: vips was shutdown and cannot be restarted in this test run")
	}
}

func TestShutdownVips(t *testing.T) {
	ShutdownVips()
	// Calling shutdown multiple times should be safe
	ShutdownVips()

	if IsVipsAvailable() {
		t.Error("After ShutdownVips, IsVipsAvailable should return false")
	}
}

func BenchmarkIsVipsAvailable(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = IsVipsAvailable()
	}
}
