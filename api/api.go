package api

import (
	"net/http"

	"github.com/gorilla/mux"
	logging "github.com/op/go-logging"
	"github.com/rs/cors"
	"github.com/urfave/negroni"

	"github.com/microscaling/freshcheck/utils"
)

const constHealthCheckMessage = "HEALTH OK"

var (
	log         = logging.MustGetLogger("fcapi")
	checker     Checker
	broadcaster Subscriber
	staticDir   = "public"
	corsOrigin  = "*"
	debugCors   bool
)

func muxRoutes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthcheck.txt", handleHealthCheck).Methods("GET")

	// API routes
	ar := mux.NewRouter().PathPrefix("/api").Subrouter().StrictSlash(true)
	ar.HandleFunc("/check-updates", handleCheckUpdates).Methods("GET")
	ar.HandleFunc("/logs", handleLogs).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins: []string{corsOrigin},
		AllowedMethods: []string{"GET"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Cache-Control", "Last-Event-ID"},
		Debug:          debugCors,
	})

	r.PathPrefix("/api").Handler(negroni.New(
		c,
		negroni.Wrap(ar)))

	return r
}

// newHandler serves the dashboard's static files, falling through to the routes for anything
// that isn't a file
func newHandler() http.Handler {
	n := negroni.New(
		negroni.NewRecovery(),
		negroni.NewLogger(),
		negroni.NewStatic(http.Dir(staticDir)),
	)
	n.UseHandler(muxRoutes())
	return n
}

// StartServer starts the HTTP server. It only returns if the server fails.
func StartServer(cfg utils.Config, checkService Checker, logStream Subscriber) error {
	checker = checkService
	broadcaster = logStream
	staticDir = cfg.StaticDir
	corsOrigin = cfg.CorsOrigin
	debugCors = utils.GetEnvOrDefault("FC_DEBUG_CORS", "false") == "true"

	log.Infof("Listening on %s, static files from %s", cfg.ListenAddr, staticDir)
	return http.ListenAndServe(cfg.ListenAddr, newHandler())
}

func handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(constHealthCheckMessage))
}
