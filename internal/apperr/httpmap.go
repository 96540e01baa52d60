package apperr

import "net/http"

// StatusAndBody maps an error kind to the HTTP status and JSON body
// described in the external-interfaces error table. body is nil for
// kinds with an empty body.
func StatusAndBody(err error) (status int, body map[string]any) {
	switch e := err.(type) {
	case *UnknownBranch:
		return http.StatusNotFound, map[string]any{
			"branch":  e.Branch,
			"message": "Unknown branch",
		}
	case *UnknownSHA:
		return http.StatusNotFound, map[string]any{
			"sha":     e.Sha,
			"message": "Unknown sha",
		}
	case *UnknownEnvironment:
		return http.StatusNotFound, map[string]any{
			"sha":         e.Sha,
			"environment": e.Env,
			"message":     "Unknown Environment",
		}
	case *InvalidTemplate:
		return http.StatusBadRequest, map[string]any{
			"message":     e.Message,
			"environment": e.Env,
		}
	case *GitError:
		return http.StatusInternalServerError, map[string]any{
			"message": e.Error(),
		}
	case *InternalTimeout:
		return http.StatusServiceUnavailable, nil
	case *BadRequest:
		return http.StatusBadGateway, nil
	default:
		return http.StatusInternalServerError, nil
	}
}
