package rest

import (
	"net/http"
	"path"

	"github.com/aaronboult/sserver"
	"github.com/aaronboult/sserver/app"
	"github.com/evergreen-ci/gimlet"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

// The error bodies the framework has always served.
const (
	notFoundBody         = "404 Not Found"
	methodNotAllowedBody = "405 Method Not Allowed"
	internalErrorBody    = "500 Internal Server Error"
)

func writeNotFound(w http.ResponseWriter) {
	gimlet.WriteTextResponse(w, http.StatusNotFound, notFoundBody)
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	gimlet.WriteTextResponse(w, http.StatusMethodNotAllowed, methodNotAllowedBody)
}

func writeInternalError(w http.ResponseWriter) {
	gimlet.WriteTextResponse(w, http.StatusInternalServerError, internalErrorBody)
}

////////////////////////////////////////////////////////////////////////
//
// catch-all route dispatch

func (s *Service) dispatchHandler(w http.ResponseWriter, r *http.Request) {
	project, cache, err := sserver.GetProjectWithCache(s.Environment)
	if err != nil {
		grip.Error(message.WrapError(err, "environment is not configured"))
		writeInternalError(w)
		return
	}

	route, err := app.Resolve(cache, path.Clean("/"+gimlet.GetVars(r)["path"]))
	if err != nil {
		if !errors.Is(err, app.ErrRouteNotFound) {
			grip.Error(message.WrapError(err, message.Fields{
				"message": "problem resolving route",
				"url":     r.URL.Path,
			}))
		}
		writeNotFound(w)
		return
	}

	result, err := route.Dispatch(r.Context(), &app.Request{
		Request: r,
		Route:   route,
		Project: project,
	})
	if err != nil {
		if errors.Is(err, app.ErrMethodNotAllowed) {
			writeMethodNotAllowed(w)
			return
		}

		grip.Error(message.WrapError(err, message.Fields{
			"message": "problem handling request",
			"url":     r.URL.Path,
			"route":   route.Name,
			"method":  r.Method,
		}))
		writeInternalError(w)
		return
	}

	switch body := result.(type) {
	case string:
		gimlet.WriteHTML(w, body)
	case []byte:
		gimlet.WriteHTML(w, body)
	default:
		gimlet.WriteJSON(w, body)
	}
}
