package routes

import (
	"net/http"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	s := newTestServer(t)

	res := s.register("pizza diner", "reg@test.com", "a")
	assert.Regexp(t, tokenPattern, res.Token)
	assert.NotZero(t, res.User.ID)
	assert.Equal(t, "pizza diner", res.User.Name)
	assert.Equal(t, "reg@test.com", res.User.Email)
	require.Len(t, res.User.Roles, 1)
	assert.Equal(t, "diner", res.User.Roles[0].Role)
}

func TestRegisterIgnoresRequestedRole(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/auth", "", gin.H{
		"name": "sneaky", "email": "sneaky@test.com", "password": "a", "role": "admin",
	})
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[authResponse](t, w)
	require.Len(t, res.User.Roles, 1)
	assert.Equal(t, "diner", res.User.Roles[0].Role)

	w = s.do(http.MethodGet, "/api/user", res.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(http.MethodPost, "/api/franchise", res.Token, gin.H{"name": "mine"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body gin.H
	}{
		{"missing password", gin.H{"name": "NoPass User", "email": "nopass@test.com"}},
		{"missing email", gin.H{"name": "NoEmail User", "password": "abc"}},
		{"missing name", gin.H{"email": "noname@test.com", "password": "abc"}},
		{"empty body", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/api/auth", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, `{"message":"name, email, and password are required"}`, w.Body.String())
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	s := newTestServer(t)
	s.register("first", "dup@test.com", "a")

	w := s.do(http.MethodPost, "/api/auth", "", gin.H{"name": "second", "email": "dup@test.com", "password": "b"})
	assert.Equal(t, http.StatusConflict, w.Code)

	// the original account is untouched
	res := s.login("dup@test.com", "a")
	assert.Equal(t, "first", res.User.Name)
}

func TestRegisterConcurrentSameEmail(t *testing.T) {
	s := newTestServer(t)
	const n = 5

	codes := make([]int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w := s.do(http.MethodPost, "/api/auth", "", gin.H{"name": "racer", "email": "race@test.com", "password": "a"})
			codes[i] = w.Code
		}(i)
	}
	wg.Wait()

	var ok int
	for _, code := range codes {
		if code == http.StatusOK {
			ok++
			continue
		}
		assert.Equal(t, http.StatusConflict, code)
	}
	assert.Equal(t, 1, ok)
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	s.register("pizza diner", "login@test.com", "a")

	res := s.login("login@test.com", "a")
	assert.Regexp(t, tokenPattern, res.Token)
	assert.Equal(t, "login@test.com", res.User.Email)
	require.Len(t, res.User.Roles, 1)
	assert.Equal(t, "diner", res.User.Roles[0].Role)

	admin := s.login("a@jwt.com", "admin")
	require.Len(t, admin.User.Roles, 1)
	assert.Equal(t, "admin", admin.User.Roles[0].Role)
}

func TestLoginFailures(t *testing.T) {
	s := newTestServer(t)
	s.register("pizza diner", "login@test.com", "a")

	tests := []struct {
		name   string
		body   gin.H
		status int
	}{
		{"unknown email", gin.H{"email": "fakeuser@test.com", "password": "abc"}, http.StatusUnauthorized},
		{"wrong password", gin.H{"email": "login@test.com", "password": "wrongpassword"}, http.StatusUnauthorized},
		{"missing password", gin.H{"email": "login@test.com"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPut, "/api/auth", "", tt.body)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusUnauthorized {
				assert.JSONEq(t, `{"message":"invalid credentials"}`, w.Body.String())
			}
		})
	}
}

func TestLogout(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.dinerToken("bye")

	w := s.do(http.MethodDelete, "/api/auth", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"logout successful"}`, w.Body.String())

	// the token stops working immediately
	w = s.do(http.MethodGet, "/api/user/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = s.do(http.MethodDelete, "/api/auth", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutOnlyRevokesOneToken(t *testing.T) {
	s := newTestServer(t)
	first := s.register("multi", "multi@test.com", "a").Token
	second := s.login("multi@test.com", "a").Token

	require.Equal(t, http.StatusOK, s.do(http.MethodDelete, "/api/auth", first, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/user/me", second, nil).Code)
}

func TestLogoutUnauthorized(t *testing.T) {
	s := newTestServer(t)

	for _, token := range []string{"", "invalid.token.here"} {
		w := s.do(http.MethodDelete, "/api/auth", token, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"message":"unauthorized"}`, w.Body.String())
	}
}
