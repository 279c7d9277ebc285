package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// AddHandleFuncs registers the board routes. Post ids are matched on the
// encoded path and decoded by the handlers.
func AddHandleFuncs(r *mux.Router, p *PostHandler) {
	r.UseEncodedPath()
	r.Methods(http.MethodOptions).HandlerFunc(p.Preflight)
	r.HandleFunc("/posts", p.GetAllPosts).Methods("GET")
	r.HandleFunc("/posts", p.AddPost).Methods("POST")
	r.HandleFunc("/posts/{id}/comment", p.AddComment).Methods("POST")
	r.HandleFunc("/posts/{id}/vote", p.Vote).Methods("POST")

	r.NotFoundHandler = http.HandlerFunc(p.EndpointNotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(p.EndpointNotFound)
}
