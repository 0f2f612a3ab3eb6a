package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/support-chat/internal/auth"
	"github.com/capitalize-ai/support-chat/internal/model"
)

func TestValidateStruct(t *testing.T) {
	assert.NoError(t, ValidateStruct(&model.LoginRequest{Email: "a@example.com", Password: "x"}))
	assert.EqualError(t, ValidateStruct(&model.LoginRequest{Password: "x"}), "email is required")
	assert.EqualError(t, ValidateStruct(&model.LoginRequest{Email: "nope", Password: "x"}), "email must be a valid email address")
	assert.EqualError(t, ValidateStruct(&model.ChatRequest{}), "message is required")
}

func TestValidateMessageContent(t *testing.T) {
	assert.NoError(t, ValidateMessageContent("where is my order?"))
	assert.Error(t, ValidateMessageContent(" \n\t"))
	assert.Error(t, ValidateMessageContent("bad \xff byte"))
}

func TestParseConversationID(t *testing.T) {
	id, err := ParseConversationID("42")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	for _, in := range []string{"", "0", "-1", "abc", "1.5"} {
		_, err := ParseConversationID(in)
		assert.Error(t, err, in)
	}
}

func TestAuthMiddleware(t *testing.T) {
	tokens := auth.NewTokenIssuer("mw-test", time.Hour)
	token, err := tokens.Issue(&model.User{Email: "agent@example.com", Role: model.RoleAgent})
	require.NoError(t, err)

	var gotUser string
	var gotRole model.Role
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = GetUserID(r.Context())
		gotRole = GetRole(r.Context())
	})

	serve := func(h http.Handler, header string) int {
		gotUser, gotRole = "", ""
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	optional := OptionalAuth(tokens)(next)
	assert.Equal(t, http.StatusOK, serve(optional, ""))
	assert.Empty(t, gotUser)

	assert.Equal(t, http.StatusOK, serve(optional, "Bearer "+token))
	assert.Equal(t, "agent@example.com", gotUser)
	assert.Equal(t, model.RoleAgent, gotRole)

	assert.Equal(t, http.StatusUnauthorized, serve(optional, "Basic abc"))
	assert.Equal(t, http.StatusUnauthorized, serve(optional, "Bearer nope"))

	required := Auth(tokens)(next)
	assert.Equal(t, http.StatusUnauthorized, serve(required, ""))

	staff := OptionalAuth(tokens)(RequireStaff()(next))
	assert.Equal(t, http.StatusForbidden, serve(staff, ""))
	assert.Equal(t, http.StatusOK, serve(staff, "Bearer "+token))
}

func TestUserRateLimit(t *testing.T) {
	h := UserRateLimit(2, time.Minute)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	var codes []int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.9:5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
