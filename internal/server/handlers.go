package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	_ "image/jpeg"
	"image/png"
	"net/http"
	"strconv"

	"drone-locator/internal/locate"
	"drone-locator/internal/matcher"
	"drone-locator/internal/version"
	"drone-locator/internal/visual"
)

const defaultMaxUpload = 32 << 20

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type contoursResponse struct {
	ContourCount  int    `json:"contour_count"`
	Preview       string `json:"preview_base64"`
	PreviewFormat string `json:"preview_format"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: version.Version})
}

// handleMatch accepts a multipart form with an "image" file and a
// "coordinates" JSON array, and responds with the ranked candidates.
// Optional form fields "mode" and "threshold" override the defaults.
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	img, cfg, ok := s.parseImageForm(w, r)
	if !ok {
		return
	}

	var coords []locate.Coordinate
	coordJSON := r.FormValue("coordinates")
	if coordJSON == "" {
		writeError(w, http.StatusBadRequest, "missing coordinates field")
		return
	}
	if err := json.Unmarshal([]byte(coordJSON), &coords); err != nil {
		writeError(w, http.StatusBadRequest, "invalid coordinates JSON: "+err.Error())
		return
	}

	result, err := s.Locator.Locate(r.Context(), img, coords, cfg)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, matcher.ErrConfigOutOfRange) || errors.Is(err, matcher.ErrInvalidRaster) {
			status = http.StatusBadRequest
		}
		s.Log.Errorf("Match request failed: %v", err)
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleContours runs extraction only and returns the contour count plus
// a base64 PNG preview, for callers that want to tune the threshold.
func (s *Server) handleContours(w http.ResponseWriter, r *http.Request) {
	img, cfg, ok := s.parseImageForm(w, r)
	if !ok {
		return
	}

	set, err := s.Matcher.ExtractContours(img, cfg)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	preview := visual.RenderContours(img, set)

	// Keep preview payloads reasonable for large uploads.
	const maxPreviewSide = 1024
	if w, h := preview.Bounds().Dx(), preview.Bounds().Dy(); w > maxPreviewSide || h > maxPreviewSide {
		scale := float64(maxPreviewSide) / float64(max(w, h))
		preview = visual.Resize(preview, int(float64(w)*scale), int(float64(h)*scale))
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, preview); err != nil {
		writeError(w, http.StatusInternalServerError, "encode preview: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, contoursResponse{
		ContourCount:  set.Count(),
		Preview:       base64.StdEncoding.EncodeToString(buf.Bytes()),
		PreviewFormat: "image/png",
	})
}

// parseImageForm reads the uploaded image and the shared config fields.
func (s *Server) parseImageForm(w http.ResponseWriter, r *http.Request) (image.Image, matcher.Config, bool) {
	cfg := matcher.DefaultConfig()

	maxUpload := s.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUpload
	}
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return nil, cfg, false
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing image file")
		return nil, cfg, false
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "decode image: "+err.Error())
		return nil, cfg, false
	}

	if mode := r.FormValue("mode"); mode != "" {
		cfg.Mode = matcher.Mode(mode)
	}
	if t := r.FormValue("threshold"); t != "" {
		threshold, err := strconv.Atoi(t)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid threshold")
			return nil, cfg, false
		}
		cfg.Threshold = threshold
	}

	return img, cfg, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
