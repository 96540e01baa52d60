package httpapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/configsrv/hoganserver/internal/apperr"
	"github.com/configsrv/hoganserver/internal/configmodel"
	"github.com/configsrv/hoganserver/internal/headresolver"
	"github.com/configsrv/hoganserver/internal/servepipeline"
	"github.com/configsrv/hoganserver/internal/storage"
	"github.com/configsrv/hoganserver/internal/writerslot"
)

type fakeCoordinator struct {
	envs []configmodel.Environment
}

func (f *fakeCoordinator) Directory() string { return "" }
func (f *fakeCoordinator) Refresh(ctx context.Context, targetSha string, allowFetch bool) (string, error) {
	return targetSha, nil
}
func (f *fakeCoordinator) FindBranchHead(ctx context.Context, branch string, allowFetch bool) (string, error) {
	if branch == "main" {
		return "cafe1234567", nil
	}
	return "", &apperr.UnknownBranch{Branch: branch}
}
func (f *fakeCoordinator) FetchOnly(ctx context.Context) error         { return nil }
func (f *fakeCoordinator) PerformMaintenance(ctx context.Context) error { return nil }
func (f *fakeCoordinator) Find(filter *regexp.Regexp) ([]configmodel.Environment, error) {
	return f.envs, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	coord := &fakeCoordinator{envs: []configmodel.Environment{
		{Name: "EMPTY", ConfigData: []byte(`{}`)},
		{Name: "TEST", ConfigData: []byte(`{"Region":{"Key":"TEST"}}`)},
		{Name: "TEST2", ConfigData: []byte(`{"Region":{"Key":"TEST2"}}`)},
	}}
	resolver := headresolver.New(coord, time.Second)
	t.Cleanup(resolver.Close)

	pipeline := &servepipeline.Pipeline{
		Cache:       storage.NewMultiTier(storage.NewL1(16)),
		Coordinator: coord,
		Slot:        writerslot.New(),
		Resolver:    resolver,
		AllowFetch:  true,
	}

	router := NewRouter(pipeline, nil, zap.NewNop())
	return httptest.NewServer(router)
}

func TestOkEndpoint(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ok")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListingEndpoint(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/envs/abcdef0")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `"Name":"TEST"`)
}

func TestTransformBySha(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/transform/abcdef0/TEST", "text/plain", strings.NewReader("Hello {{Region.Key}}"))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	require.Equal(t, http.StatusOK, resp.StatusCode, "body = %s", body)
	assert.Equal(t, "Hello TEST", string(body))
}

func TestTransformByBranchResolvesHead(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/branch/main/transform/TEST", "text/plain", strings.NewReader("Hello {{Region.Key}}"))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	require.Equal(t, http.StatusOK, resp.StatusCode, "body = %s", body)
	assert.Equal(t, "Hello TEST", string(body))
}

func TestConfigsUnknownEnvironment(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/configs/abcdef0/NOSUCH")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "Unknown Environment")
}

func TestHeadsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/heads/main")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `"headSha":"cafe123"`)
	assert.Contains(t, string(body), `"branchName":"main"`)
}
