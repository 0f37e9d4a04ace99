package users_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/controller"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/ident"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/plugin/route/users"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/store"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctl := controller.New(store.New(), ident.NewGenerator(uuid.New()), nil)
	r := gin.New()
	users.MountRoutes(r, ctl)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateAndFetchUser(t *testing.T) {
	r := setupRouter(t)

	w := do(r, http.MethodPost, "/v1/users", `{"name":"alice"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID   uuid.UUID `json:"id"`
		Name string    `json:"name"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Equal(t, "alice", created.Name)
	require.NotEqual(t, uuid.Nil, created.ID)

	w = do(r, http.MethodGet, "/v1/users/alice", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), created.ID.String())

	w = do(r, http.MethodGet, "/v1/users", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Data []json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
}

func TestCreateUserErrors(t *testing.T) {
	r := setupRouter(t)
	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/v1/users", `{"name":"alice"}`).Code)

	w := do(r, http.MethodPost, "/v1/users", `{"name":"alice"}`)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Contains(t, w.Body.String(), "duplicate_name")

	require.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/v1/users", `{}`).Code)
	require.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/v1/users", `{"name":"   "}`).Code)
	require.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/v1/users/bob", "").Code)
}
