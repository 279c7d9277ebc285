package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/cors"
	"go.uber.org/zap"
)

var allowedMethods = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodOptions,
}

// CORS allows every origin, the standard methods and any request header.
// Preflight results may be cached for maxAge seconds. In debug mode the
// CORS decisions are logged through logger.
//
// The allow headers are written on every response, Origin or not. rs/cors
// then refines them for requests that are actual cross-origin calls.
func CORS(logger *zap.SugaredLogger, maxAge int, debug bool, next http.Handler) http.Handler {
	opts := cors.Options{
		AllowedOrigins:       []string{"*"},
		AllowedMethods:       allowedMethods,
		AllowedHeaders:       []string{"*"},
		MaxAge:               maxAge,
		OptionsSuccessStatus: http.StatusOK,
	}
	if debug {
		opts.Logger = zap.NewStdLog(logger.Desugar())
	}
	c := cors.New(opts).Handler(next)

	methods := strings.Join(allowedMethods, ", ")
	age := strconv.Itoa(maxAge)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := w.Header()
		headers.Set("Access-Control-Allow-Origin", "*")
		if r.Method == http.MethodOptions {
			headers.Set("Access-Control-Allow-Methods", methods)
			headers.Set("Access-Control-Allow-Headers", "*")
			headers.Set("Access-Control-Max-Age", age)
		}
		c.ServeHTTP(w, r)
	})
}
