package interests_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/controller"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/ident"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/plugin/route/interests"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/security"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/store"
	"github.com/stretchr/testify/require"
)

func TestInterestRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctl := controller.New(store.New(), ident.NewGenerator(uuid.New()), nil)
	alice, _ := ctl.NewUser("alice")
	bob, _ := ctl.NewUser("bob")
	general, err := ctl.NewConversation("general", bob.ID)
	require.NoError(t, err)

	r := gin.New()
	r.Use(security.IdentityMiddleware())
	interests.MountRoutes(r, ctl)

	do := func(method, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set(security.HeaderUserID, alice.ID.String())
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	var status struct {
		Count         int      `json:"count"`
		Interest      bool     `json:"interest"`
		Conversations []string `json:"conversations"`
	}

	w := do(http.MethodGet, "/v1/status/conversations/general")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	require.Equal(t, -1, status.Count)

	require.Equal(t, http.StatusNoContent, do(http.MethodPost, "/v1/interests/conversations/general").Code)
	require.Equal(t, http.StatusConflict, do(http.MethodPost, "/v1/interests/conversations/general").Code)
	require.Equal(t, http.StatusNoContent, do(http.MethodPost, "/v1/interests/users/bob").Code)
	require.Equal(t, http.StatusNotFound, do(http.MethodPost, "/v1/interests/users/carol").Code)

	_, err = ctl.NewMessage(bob.ID, general.ID, "ping")
	require.NoError(t, err)

	w = do(http.MethodGet, "/v1/status/conversations/general")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	require.Equal(t, 1, status.Count)

	w = do(http.MethodGet, "/v1/status/users/bob")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	require.True(t, status.Interest)
	require.Equal(t, []string{"general"}, status.Conversations)

	require.Equal(t, http.StatusNoContent, do(http.MethodDelete, "/v1/interests/users/bob").Code)
	require.Equal(t, http.StatusNotFound, do(http.MethodDelete, "/v1/interests/users/bob").Code)
	require.Equal(t, http.StatusNoContent, do(http.MethodDelete, "/v1/interests/conversations/general").Code)
}
