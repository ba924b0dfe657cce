package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"drone-locator/internal/contour"
	"drone-locator/internal/locate"
	"drone-locator/internal/logger"
	"drone-locator/internal/matcher"
	"drone-locator/pkg/geometry"
)

// fakeFetcher serves a fixed-size tile for every coordinate.
type fakeFetcher struct {
	fail bool
}

func (f *fakeFetcher) FetchTile(ctx context.Context, lat, lon float64, widthMeters float64, pixels int) (image.Image, error) {
	if f.fail {
		return nil, fmt.Errorf("provider unavailable")
	}
	return image.NewRGBA(image.Rect(0, 0, 200, 200)), nil
}

// matchingExtractor returns the same square contour set for every image,
// so the uploaded query and the fetched tiles match perfectly.
func matchingExtractor(img image.Image, opts contour.Options) (*contour.Set, error) {
	return &contour.Set{
		Contours: []contour.Contour{{
			Points: []geometry.PointInt{
				{X: 10, Y: 10}, {X: 90, Y: 10}, {X: 90, Y: 90}, {X: 10, Y: 90},
			},
			Closed: true,
		}},
		ImageWidth:  img.Bounds().Dx(),
		ImageHeight: img.Bounds().Dy(),
	}, nil
}

func newTestServer(fail bool) *Server {
	m := matcher.NewWithExtractor(matchingExtractor)
	loc := locate.New(&fakeFetcher{fail: fail}, m, &logger.NullLogger{})
	return New(loc, m, &logger.NullLogger{})
}

// multipartBody builds a form with a small PNG image and the given fields.
func multipartBody(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("image", "drone.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	if err := png.Encode(part, img); err != nil {
		t.Fatalf("encode test image: %v", err)
	}

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field %s: %v", key, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, writer.FormDataContentType()
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(false)
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	var resp healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status field: got %s, want ok", resp.Status)
	}
}

func TestMatchEndpoint(t *testing.T) {
	srv := newTestServer(false)

	body, contentType := multipartBody(t, map[string]string{
		"coordinates": `[{"lat": 48.85, "lon": 2.29, "description": "A"}, {"lat": 40.68, "lon": -74.04}]`,
		"threshold":   "60",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/match", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}

	var result locate.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(result.Candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(result.Candidates))
	}
	if result.Best == nil {
		t.Fatal("no best candidate in response")
	}
	if result.Best.Score != 100 {
		t.Errorf("best score: got %v, want 100", result.Best.Score)
	}
}

func TestMatchEndpointMissingCoordinates(t *testing.T) {
	srv := newTestServer(false)

	body, contentType := multipartBody(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/match", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rec.Code)
	}
}

func TestMatchEndpointBadConfig(t *testing.T) {
	srv := newTestServer(false)

	body, contentType := multipartBody(t, map[string]string{
		"coordinates": `[{"lat": 1, "lon": 1}]`,
		"mode":        "fuzzy",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/match", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rec.Code)
	}
}

func TestMatchEndpointFetchFailures(t *testing.T) {
	srv := newTestServer(true)

	body, contentType := multipartBody(t, map[string]string{
		"coordinates": `[{"lat": 1, "lon": 1}]`,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/match", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	var result locate.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(result.Candidates) != 1 || result.Candidates[0].FetchError == "" {
		t.Errorf("expected flagged candidate, got %+v", result.Candidates)
	}
}

func TestContoursEndpoint(t *testing.T) {
	srv := newTestServer(false)

	body, contentType := multipartBody(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/contours", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}
	var resp contoursResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ContourCount != 1 {
		t.Errorf("contour count: got %d, want 1", resp.ContourCount)
	}
	if resp.Preview == "" {
		t.Error("preview missing")
	}
}

func TestMatchEndpointRejectsGet(t *testing.T) {
	srv := newTestServer(false)
	req := httptest.NewRequest(http.MethodGet, "/api/match", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", rec.Code)
	}
}
