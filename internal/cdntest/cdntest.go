// Package cdntest provides an in-process stand-in for the CDN upload API.
package cdntest

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/KSD554/imagekit/internal/credential"
	"github.com/KSD554/imagekit/internal/model"
)

// AssetRoot prefixes the URL of every stored file.
const AssetRoot = "https://cdn.example/acct123/"

// Server verifies upload signatures, enforces expiry and single use of
// tokens, and can be told to fail the next requests.
type Server struct {
	*httptest.Server

	privateKey string

	mu       sync.Mutex
	used     map[string]bool
	failNext []failure
	fields   []map[string]string
}

type failure struct {
	status  int
	message string
}

// New starts a Server that accepts credentials signed with privateKey.
// Callers must Close it.
func New(privateKey string) *Server {
	s := &Server{privateKey: privateKey, used: make(map[string]bool)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// FailWith queues an error response for the next unanswered request.
func (s *Server) FailWith(status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = append(s.failNext, failure{status: status, message: message})
}

// Requests is the number of upload requests received.
func (s *Server) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fields)
}

// Fields returns the form fields of the i-th request.
func (s *Server) Fields(i int) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fields[i]
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	fields := map[string]string{}
	for k, v := range r.MultipartForm.Value {
		fields[k] = v[0]
	}
	s.fields = append(s.fields, fields)

	if len(s.failNext) > 0 {
		fail := s.failNext[0]
		s.failNext = s.failNext[1:]
		writeError(w, fail.status, fail.message)
		return
	}

	expire, _ := strconv.ParseInt(fields["expire"], 10, 64)
	if !credential.Verify(s.privateKey, fields["token"], expire, fields["signature"]) {
		writeError(w, http.StatusForbidden, "Your request contains invalid signature")
		return
	}
	if time.Now().Unix() >= expire {
		writeError(w, http.StatusBadRequest, "The expire parameter must be a Unix time in the future")
		return
	}
	if s.used[fields["token"]] {
		writeError(w, http.StatusBadRequest, "The token has been used before")
		return
	}
	s.used[fields["token"]] = true

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file parameter")
		return
	}
	defer file.Close()
	data, _ := io.ReadAll(file)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(model.UploadResult{
		FileID:   "file_" + fields["token"],
		Name:     header.Filename,
		URL:      AssetRoot + fields["fileName"],
		FilePath: "/" + fields["fileName"],
		Size:     int64(len(data)),
		FileType: "image",
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message, "help": "For support"})
}

// PNG returns a small valid PNG image.
func PNG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
