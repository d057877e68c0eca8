package router

import (
	"net/http"

	handlers "autosave/handler"
	docHandler "autosave/internal/document"
	"autosave/middleware"
	"autosave/socket"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Deps are the handlers the router dispatches to. Hub and Limiter may be nil.
// TrustProxy takes the client address from X-Forwarded-For/X-Real-IP; only
// set it when a reverse proxy in front of the server overwrites those headers.
type Deps struct {
	Documents  *docHandler.DocumentHandler
	Static     *handlers.StaticHandler
	Hub        *socket.Hub
	Limiter    *middleware.RateLimiter
	TrustProxy bool
}

func Setup(d Deps) http.Handler {
	r := chi.NewRouter()

	if d.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger)
	// CORS runs before routing so OPTIONS on any path is answered.
	r.Use(middleware.CORSMiddleware)
	r.Use(middleware.APIKeyMiddleware)

	r.Get("/api/data", d.Documents.GetData)
	r.With(d.Limiter.Middleware).Post("/api/data", d.Documents.PostData)
	r.Post("/", docHandler.NotFound)
	r.Post("/*", docHandler.NotFound)

	if d.Hub != nil {
		hub := d.Hub
		r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
			socket.ServeWs(hub, w, r)
		})
	}

	r.Get("/", d.Static.ServeHTTP)
	r.Get("/*", d.Static.ServeHTTP)

	return r
}
