package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/RyanBlaney/sonido-tab/logging"
	"github.com/RyanBlaney/sonido-tab/tablature"
	"github.com/RyanBlaney/sonido-tab/tablature/config"
)

const multipartMemory = 32 << 20

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// uploadServer accepts WAV uploads and answers with the pipeline result
type uploadServer struct {
	pipeline *tablature.Pipeline
	config   *config.ServerConfig
	logger   logging.Logger
}

func newUploadServer(pipeline *tablature.Pipeline, sc *config.ServerConfig) *uploadServer {
	if sc == nil {
		sc = config.DefaultServerConfig()
	}
	return &uploadServer{
		pipeline: pipeline,
		config:   sc,
		logger: logging.WithFields(logging.Fields{
			"component": "upload_server",
		}),
	}
}

func (s *uploadServer) routes() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/upload", s.handleUpload).Methods(http.MethodPost)

	c := cors.New(cors.Options{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	})
	return c.Handler(router)
}

func (s *uploadServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "Backend server is running.")
}

func (s *uploadServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	logger := s.logger.WithFields(logging.Fields{
		"function":   "handleUpload",
		"request_id": requestID,
	})

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(w, http.StatusRequestEntityTooLarge, "File too large",
				fmt.Sprintf("uploads are limited to %d bytes", tooLarge.Limit))
			return
		}
		s.fail(w, http.StatusBadRequest, "No files uploaded", "Request is missing files")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.fail(w, http.StatusBadRequest, "No file uploaded", "No file found in request")
		return
	}
	defer file.Close()

	path, err := s.save(file, requestID, header.Filename)
	if err != nil {
		logger.Error(err, "Failed to store upload")
		s.fail(w, http.StatusInternalServerError, "File upload failed", err.Error())
		return
	}
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Error(err, "Failed to remove upload", logging.Fields{"path": path})
		}
	}()

	logger.Info("Processing upload", logging.Fields{"filename": header.Filename, "size": header.Size})

	ctx := logging.ContextWithFields(r.Context(), logging.Fields{"request_id": requestID})
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.config.TimeoutSeconds)*time.Second)
	defer cancel()

	res, err := s.pipeline.Run(ctx, path)
	if err != nil {
		switch tablature.Classify(err) {
		case tablature.StatusNoInput, tablature.StatusLoadFailed:
			s.fail(w, http.StatusBadRequest, "Invalid audio", err.Error())
		case tablature.StatusCancelled:
			s.fail(w, http.StatusInternalServerError, "Processing failed", err.Error())
		default:
			s.fail(w, http.StatusInternalServerError, "Processing error", err.Error())
		}
		return
	}

	s.respond(w, http.StatusOK, res)
}

// save copies the upload into the upload directory under a unique name
func (s *uploadServer) save(src io.Reader, id, filename string) (string, error) {
	if err := os.MkdirAll(s.config.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	path := filepath.Join(s.config.UploadDir, fmt.Sprintf("temp_%s_%s", id, filepath.Base(filename)))
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", err
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

func (s *uploadServer) fail(w http.ResponseWriter, status int, msg, details string) {
	s.respond(w, status, errorResponse{Error: msg, Details: details})
}

func (s *uploadServer) respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error(err, "Failed to write response")
	}
}
