package handlers

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"postboard/middleware"
	post "postboard/pkg/posts"
	"postboard/pkg/schema"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type PostHandler struct {
	Repo         post.PostRepo
	Logger       *zap.SugaredLogger
	MaxBodyBytes int64
}

const (
	MsgSuccess          = "Success"
	MsgInternalError    = "Internal server error"
	MsgEndpointNotFound = "Endpoint not found"
	MsgPostNotFound     = "Post not found"
	validationPrefix    = "A validation error has occured - "
)

var ErrJSONMarshal = errors.New("json marshal error")
var ErrReadReqBody = errors.New("read request body error")

type statusCoder interface {
	StatusCode() int
}

func (handler *PostHandler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body := r.Body
	if handler.MaxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, handler.MaxBodyBytes)
	}
	defer body.Close()

	js, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &schema.ValidationError{Message: "request body is too large"}
		}
		return nil, errors.Join(ErrReadReqBody, err)
	}
	return js, nil
}

func postID(r *http.Request) (string, error) {
	id, err := url.PathUnescape(mux.Vars(r)["id"])
	if err != nil {
		return "", &schema.ValidationError{Message: "post id is not a valid URL path segment"}
	}
	return id, nil
}

// sendFailure turns err into the error envelope. Only validation errors,
// missing posts and errors declaring their own status reach the client with
// their message.
func (handler *PostHandler) sendFailure(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.RequestIDFromContext(r.Context())

	var vErr *schema.ValidationError
	var sErr statusCoder
	switch {
	case errors.As(err, &vErr):
		handler.Logger.Infow("validation error",
			"error", vErr.Message,
			"requestID", requestID)
		handler.sendError(w, http.StatusBadRequest, validationPrefix+strings.ReplaceAll(vErr.Message, `"`, ""))
	case errors.Is(err, post.ErrPostNotFound):
		handler.Logger.Infow("post not found",
			"postID", mux.Vars(r)["id"],
			"requestID", requestID)
		handler.sendError(w, http.StatusNotFound, MsgPostNotFound)
	case errors.As(err, &sErr):
		handler.Logger.Warnw("request failed",
			"error", err,
			"status", sErr.StatusCode(),
			"requestID", requestID)
		handler.sendError(w, sErr.StatusCode(), err.Error())
	default:
		handler.Logger.Errorw("An error has occured",
			"error", err,
			"requestID", requestID)
		handler.sendError(w, http.StatusInternalServerError, MsgInternalError)
	}
}

func (handler *PostHandler) GetAllPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := handler.Repo.GetAllPosts(r.Context())
	if err != nil {
		handler.sendFailure(w, r, err)
		return
	}
	handler.sendJSON(w, http.StatusOK, posts)
}

func (handler *PostHandler) AddPost(w http.ResponseWriter, r *http.Request) {
	handler.Logger.Info("adding post")
	js, err := handler.readBody(w, r)
	if err != nil {
		handler.sendFailure(w, r, err)
		return
	}

	in, err := schema.ParseNewPost(js)
	if err != nil {
		handler.sendFailure(w, r, err)
		return
	}

	currentPost, err := handler.Repo.AddPost(r.Context(), in)
	if err != nil {
		handler.sendFailure(w, r, err)
		return
	}

	handler.sendStatus(w, http.StatusOK, MsgSuccess)
	handler.Logger.Infow("post added",
		"postID", currentPost.ID)
}

func (handler *PostHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	handler.Logger.Info("add comment")
	id, err := postID(r)
	if err != nil {
		handler.sendFailure(w, r, err)
		return
	}

	js, err := handler.readBody(w, r)
	if err != nil {
		handler.sendFailure(w, r, err)
		return
	}

	in, err := schema.ParseComment(js)
	if err != nil {
		handler.sendFailure(w, r, err)
		return
	}

	comment, err := handler.Repo.AddComment(r.Context(), id, in)
	if err != nil {
		handler.sendFailure(w, r, err)
		return
	}

	handler.sendStatus(w, http.StatusOK, MsgSuccess)
	handler.Logger.Infow("comment added",
		"commentID", comment.ID,
		"postID", id)
}

func (handler *PostHandler) Vote(w http.ResponseWriter, r *http.Request) {
	handler.Logger.Info("vote")
	id, err := postID(r)
	if err != nil {
		handler.sendFailure(w, r, err)
		return
	}

	js, err := handler.readBody(w, r)
	if err != nil {
		handler.sendFailure(w, r, err)
		return
	}

	in, err := schema.ParseVote(js)
	if err != nil {
		handler.sendFailure(w, r, err)
		return
	}

	votes, err := handler.Repo.AddVote(r.Context(), id, in)
	if err != nil {
		handler.sendFailure(w, r, err)
		return
	}

	handler.sendStatus(w, http.StatusOK, MsgSuccess)
	handler.Logger.Infow("vote cast",
		"postID", id,
		"username", in.Username,
		"count", votes.Count)
}

// Preflight answers OPTIONS on any path. The CORS middleware has already set
// the headers.
func (handler *PostHandler) Preflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (handler *PostHandler) EndpointNotFound(w http.ResponseWriter, r *http.Request) {
	handler.sendError(w, http.StatusNotFound, MsgEndpointNotFound)
}
