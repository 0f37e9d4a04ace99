package memberships_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/controller"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/ident"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/model"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/plugin/route/memberships"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/security"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/store"
	"github.com/stretchr/testify/require"
)

func TestAccessRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctl := controller.New(store.New(), ident.NewGenerator(uuid.New()), nil)
	alice, _ := ctl.NewUser("alice")
	bob, _ := ctl.NewUser("bob")
	general, err := ctl.NewConversation("general", alice.ID)
	require.NoError(t, err)

	r := gin.New()
	r.Use(security.IdentityMiddleware())
	memberships.MountRoutes(r, ctl)

	do := func(method, path, body string, user uuid.UUID) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(security.HeaderUserID, user.String())
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}
	base := "/v1/conversations/" + general.ID.String()

	w := do(http.MethodGet, base+"/access", "", bob.ID)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"accessLevel":"remove"`)

	w = do(http.MethodPost, base+"/join", "", bob.ID)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"accessLevel":"member"`)

	// members cannot change access
	w = do(http.MethodPut, base+"/access/alice", `{"accessLevel":"member"}`, bob.ID)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = do(http.MethodPut, base+"/access/bob", `{"accessLevel":"owner"}`, alice.ID)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	level, err := ctl.GetAccess(general.ID, bob.ID)
	require.NoError(t, err)
	require.Equal(t, model.AccessOwner, level)

	w = do(http.MethodPut, base+"/access/alice", `{"accessLevel":"remove"}`, bob.ID)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = do(http.MethodPut, base+"/access/bob", `{"accessLevel":"creator"}`, alice.ID)
	require.Equal(t, http.StatusForbidden, w.Code)

	require.Equal(t, http.StatusBadRequest, do(http.MethodPut, base+"/access/bob", `{}`, alice.ID).Code)
	require.Equal(t, http.StatusBadRequest, do(http.MethodPut, base+"/access/bob", `{"accessLevel":"admin"}`, alice.ID).Code)
	require.Equal(t, http.StatusNotFound, do(http.MethodPut, base+"/access/mallory", `{"accessLevel":"member"}`, alice.ID).Code)

	w = do(http.MethodGet, base+"/memberships", "", alice.ID)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"userName":"bob"`)
	require.Contains(t, w.Body.String(), `"accessLevel":"creator"`)
}
