package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/fractal-tiles/explorer/internal/cache"
	"github.com/fractal-tiles/explorer/internal/engine"
)

// RouterConfig contains router configuration.
type RouterConfig struct {
	Engine      *engine.Engine
	Tiles       *TileServer
	Caches      *cache.Manager
	CORSOrigins []string
}

// NewRouter creates the HTTP router.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Get("/api/status", statusHandler(cfg.Engine))
	r.Get("/api/cache/stats", cacheStatsHandler(cfg.Caches))
	r.Get("/api/camera", cameraGetHandler(cfg.Engine))
	r.Post("/api/camera", cameraPostHandler(cfg.Engine))
	r.Get("/frame.png", frameHandler(cfg.Engine))
	r.Get("/tiles/{z}/{x}/{y}.png", tileHandler(cfg.Tiles))

	return r
}

func statusHandler(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, eng.Status())
	}
}

func cacheStatsHandler(caches *cache.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, caches.Stats())
	}
}

func cameraGetHandler(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := eng.Status()
		writeJSON(w, map[string]string{
			"x":    st.CameraX,
			"y":    st.CameraY,
			"zoom": st.CameraZoom,
		})
	}
}

// cameraCommand is the input payload: pan/zoom impulses plus the
// explicit triggers (iteration change, variant switch, reset, forced
// re-render, camera echo).
type cameraCommand struct {
	PanX       float64 `json:"pan_x"`
	PanY       float64 `json:"pan_y"`
	ZoomSteps  float64 `json:"zoom_steps"`
	Iterations int     `json:"iterations"`
	Variant    string  `json:"variant"`
	Reset      bool    `json:"reset"`
	Rerender   bool    `json:"rerender"`
	Echo       bool    `json:"echo"`
}

func cameraPostHandler(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var cmd cameraCommand
		if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
			http.Error(w, "invalid command body", http.StatusBadRequest)
			return
		}
		eng.Apply(engine.Command{
			PanX:          cmd.PanX,
			PanY:          cmd.PanY,
			ZoomSteps:     cmd.ZoomSteps,
			SetIterations: cmd.Iterations,
			SetVariant:    cmd.Variant,
			Reset:         cmd.Reset,
			Rerender:      cmd.Rerender,
			EchoCamera:    cmd.Echo,
		})
		w.WriteHeader(http.StatusAccepted)
	}
}

func frameHandler(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := eng.FramePNG()
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		w.Write(data)
	}
}

func tileHandler(tiles *TileServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		z, errZ := strconv.Atoi(chi.URLParam(r, "z"))
		x, errX := strconv.Atoi(chi.URLParam(r, "x"))
		y, errY := strconv.Atoi(chi.URLParam(r, "y"))
		if errZ != nil || errX != nil || errY != nil {
			http.Error(w, "invalid tile coordinates", http.StatusBadRequest)
			return
		}

		iterations := 0
		if v := r.URL.Query().Get("iterations"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				http.Error(w, "invalid iterations", http.StatusBadRequest)
				return
			}
			iterations = n
		}
		palette := r.URL.Query().Get("palette")

		data, err := tiles.GetTile(z, x, y, iterations, palette)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Write(data)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
