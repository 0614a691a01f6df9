package web

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"nhanes-ci/internal/cache"
	"nhanes-ci/internal/db"
)

//go:embed static
var staticFiles embed.FS

type Server struct {
	db       *db.DB
	addr     string
	svgCache *cache.SVGCache
	logger   *zap.Logger
}

func NewServer(database *db.DB, addr string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	cacheDir := os.Getenv("NHANES_SVG_CACHE_DIR")
	if cacheDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cacheDir = filepath.Join(home, ".cache", "nhanes-ci", "svg")
		} else {
			cacheDir = "/data/svg-cache"
		}
	}

	maxAnalyses := 20
	if envMax := os.Getenv("NHANES_SVG_CACHE_MAX"); envMax != "" {
		if n, err := strconv.Atoi(envMax); err == nil && n > 0 {
			maxAnalyses = n
		}
	}

	svgCache, err := cache.NewSVGCache(cacheDir, maxAnalyses)
	if err != nil {
		logger.Warn("svg cache init failed", zap.Error(err))
	}

	return &Server{
		db:       database,
		addr:     addr,
		svgCache: svgCache,
		logger:   logger,
	}
}

func (s *Server) Start(openBrowser bool) error {
	mux := s.Routes()

	if openBrowser {
		url := fmt.Sprintf("http://localhost%s", s.addr)
		go openURL(url)
	}

	s.logger.Info("server listening", zap.String("addr", s.addr))
	fmt.Printf("Starting server at http://localhost%s\n", s.addr)
	return http.ListenAndServe(s.addr, mux)
}

// Routes builds the full handler tree. Split out from Start so tests can
// drive it with httptest.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	appFS, err := fs.Sub(staticFiles, "static/app")
	if err == nil {
		mux.Handle("/", spaFileServer(appFS))
	}

	mux.HandleFunc("/api/datasets", s.handleDatasets)
	mux.HandleFunc("/api/datasets/", s.routeDatasetsAPI)
	mux.HandleFunc("/api/analyses", s.handleAnalyses)
	mux.HandleFunc("/api/analyses/", s.routeAnalysesAPI)
	mux.HandleFunc("/api/estimate", s.handleEstimate)
	mux.HandleFunc("/api/database/download", s.handleDatabaseDownload)

	return mux
}

func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	}
	if cmd != nil {
		_ = cmd.Start()
	}
}

func spaFileServer(appFS fs.FS) http.Handler {
	fileServer := http.FileServer(http.FS(appFS))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/")

		// Try to serve the file if it exists and is not a directory
		if path != "" {
			info, err := fs.Stat(appFS, path)
			if err == nil && !info.IsDir() {
				fileServer.ServeHTTP(w, r)
				return
			}
		}

		// Fallback to index.html for SPA routing (and root)
		// We manually serve the content to avoid http.FileServer's redirect loops
		// when it sees a request for "/index.html"
		f, err := appFS.Open("index.html")
		if err != nil {
			http.Error(w, "index.html missing", http.StatusInternalServerError)
			return
		}
		defer func() { _ = f.Close() }()

		stat, err := f.Stat()
		if err != nil {
			http.Error(w, "index.html stat failed", http.StatusInternalServerError)
			return
		}

		// Prevent caching of index.html so updates are seen immediately
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")

		if rs, ok := f.(io.ReadSeeker); ok {
			http.ServeContent(w, r, "index.html", stat.ModTime(), rs)
		} else {
			http.Error(w, "internal error: file not seekable", http.StatusInternalServerError)
		}
	})
}

func (s *Server) routeDatasetsAPI(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	switch {
	case strings.HasSuffix(path, "/analyses"):
		s.handleDatasetAnalyses(w, r)
	case strings.HasSuffix(path, "/summary"):
		s.handleDatasetSummary(w, r)
	default:
		s.handleDataset(w, r)
	}
}

func (s *Server) routeAnalysesAPI(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	switch {
	case strings.HasSuffix(path, "/plot.svg"):
		s.handleAnalysisPlot(w, r)
	default:
		s.handleAnalysis(w, r)
	}
}
