package routes

import (
	"fmt"
	"net/http"
	"testing"

	"pizza-service/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userList struct {
	Users []userBody `json:"users"`
	More  bool       `json:"more"`
}

func TestGetMe(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/user/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, id := s.dinerToken("testuser")
	w = s.do(http.MethodGet, "/api/user/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[userBody](t, w)
	assert.Equal(t, id, me.ID)
	assert.Equal(t, "testuser@test.com", me.Email)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestUpdateUser(t *testing.T) {
	s := newTestServer(t)
	token, id := s.dinerToken("testuser")
	path := fmt.Sprintf("/api/user/%d", id)

	w := s.do(http.MethodPut, path, "", gin.H{"name": "newname"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPut, path, token, gin.H{"name": "updatedname", "email": "updated@test.com", "password": "b"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[authResponse](t, w)
	assert.Equal(t, "updatedname", res.User.Name)
	assert.Equal(t, "updated@test.com", res.User.Email)
	assert.Regexp(t, tokenPattern, res.Token)

	// the new token works and the new credentials log in
	w = s.do(http.MethodGet, "/api/user/me", res.Token, nil)
	assert.Equal(t, "updatedname", decode[userBody](t, w).Name)
	s.login("updated@test.com", "b")

	w = s.do(http.MethodPut, "/api/auth", "", gin.H{"email": "updated@test.com", "password": "a"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateUserPermissions(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken()
	token, id := s.dinerToken("victim")
	other, _ := s.dinerToken("other")
	path := fmt.Sprintf("/api/user/%d", id)

	w := s.do(http.MethodPut, path, other, gin.H{"name": "hacked"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"message":"unauthorized"}`, w.Body.String())

	w = s.do(http.MethodPut, path, admin, gin.H{"name": "renamed by admin"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "renamed by admin", decode[authResponse](t, w).User.Name)

	w = s.do(http.MethodPut, path, token, gin.H{"email": "other@test.com"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPut, path, token, gin.H{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPut, "/api/user/999999", admin, gin.H{"name": "ghost"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteUser(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken()
	token, id := s.dinerToken("testuser")
	other, otherID := s.dinerToken("other")
	path := fmt.Sprintf("/api/user/%d", id)

	w := s.do(http.MethodDelete, path, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodDelete, path, other, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"user deleted"}`, w.Body.String())

	// tokens of a deleted user stop authenticating
	w = s.do(http.MethodGet, "/api/user/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// and the account is gone, so its credentials no longer log in
	w = s.do(http.MethodPut, "/api/auth", "", gin.H{"email": "testuser@test.com", "password": "a"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"message":"invalid credentials"}`, w.Body.String())

	var roles int64
	s.db.Model(&models.Role{}).Where("user_id = ?", id).Count(&roles)
	assert.Zero(t, roles)

	w = s.do(http.MethodDelete, fmt.Sprintf("/api/user/%d", otherID), admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(http.MethodDelete, fmt.Sprintf("/api/user/%d", otherID), admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListUsers(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken()
	diner, _ := s.dinerToken("kai")
	s.dinerToken("buddy")
	s.dinerToken("kaila")

	w := s.do(http.MethodGet, "/api/user", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/user", diner, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/user", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[userList](t, w)
	assert.Len(t, list.Users, 4)
	assert.False(t, list.More)

	w = s.do(http.MethodGet, "/api/user?page=0&limit=3", admin, nil)
	list = decode[userList](t, w)
	assert.Len(t, list.Users, 3)
	assert.True(t, list.More)

	w = s.do(http.MethodGet, "/api/user?name=kai*", admin, nil)
	list = decode[userList](t, w)
	require.Len(t, list.Users, 2)
	assert.Equal(t, "kai", list.Users[0].Name)
	assert.Equal(t, "kaila", list.Users[1].Name)
	require.NotEmpty(t, list.Users[0].Roles)
}

func TestListUsersNameFilterIsLiteral(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken()
	s.register("k_i", "k1@test.com", "a")
	s.register("kai", "k2@test.com", "a")
	s.register("50%off", "k3@test.com", "a")

	tests := []struct {
		query string
		want  []string
	}{
		{"k_i", []string{"k_i"}},
		{"k*i", []string{"k_i", "kai"}},
		{"50%25off", []string{"50%off"}},
		{"%25", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := s.do(http.MethodGet, "/api/user?name="+tt.query, admin, nil)
			require.Equal(t, http.StatusOK, w.Code)
			var names []string
			for _, u := range decode[userList](t, w).Users {
				names = append(names, u.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}
