package httpapi

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/configsrv/hoganserver/internal/servepipeline"
)

type handlers struct {
	pipeline *servepipeline.Pipeline
	logger   *zap.Logger
}

func (h *handlers) handleOK(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *handlers) handleTransformBySha(w http.ResponseWriter, r *http.Request) {
	h.transform(w, r, chi.URLParam(r, "sha"), chi.URLParam(r, "env"))
}

func (h *handlers) handleTransformByBranch(w http.ResponseWriter, r *http.Request) {
	h.transform(w, r, chi.URLParam(r, "branch"), chi.URLParam(r, "env"))
}

func (h *handlers) transform(w http.ResponseWriter, r *http.Request, ref, env string) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, errBadRequest)
		return
	}

	out, err := h.pipeline.Render(r.Context(), ref, env, string(body))
	if err != nil {
		h.logger.Warn("transform failed", zap.Error(err), zap.String("ref", ref), zap.String("env", env))
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out))
}

func (h *handlers) handleListing(w http.ResponseWriter, r *http.Request) {
	sha := chi.URLParam(r, "sha")
	listing, _, err := h.pipeline.GetListing(r.Context(), sha)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (h *handlers) handleConfigsBySha(w http.ResponseWriter, r *http.Request) {
	h.configs(w, r, chi.URLParam(r, "sha"), chi.URLParam(r, "env"))
}

func (h *handlers) handleConfigsByBranch(w http.ResponseWriter, r *http.Request) {
	h.configs(w, r, chi.URLParam(r, "branch"), chi.URLParam(r, "env"))
}

func (h *handlers) configs(w http.ResponseWriter, r *http.Request, ref, env string) {
	e, _, err := h.pipeline.GetEnvironment(r.Context(), ref, env)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *handlers) handleHeads(w http.ResponseWriter, r *http.Request) {
	branch := chi.URLParam(r, "branch")
	sha, err := h.pipeline.ResolveBranchHead(r.Context(), branch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"headSha":    sha,
		"branchName": branch,
	})
}
