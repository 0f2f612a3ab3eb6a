package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/support-chat/internal/auth"
	"github.com/capitalize-ai/support-chat/internal/model"
	"github.com/capitalize-ai/support-chat/internal/service"
	"github.com/capitalize-ai/support-chat/pkg/logger"
)

type fakeTurns struct {
	HandleFunc func(ctx context.Context, req *model.ChatRequest, caller string) (*model.ChatResponse, error)
}

func (f *fakeTurns) Handle(ctx context.Context, req *model.ChatRequest, caller string) (*model.ChatResponse, error) {
	return f.HandleFunc(ctx, req, caller)
}

type fakeHistory struct {
	MessagesFunc      func(ctx context.Context, conversationID uint) ([]model.Message, error)
	ConversationsFunc func(ctx context.Context, limit, offset int) (*model.ListConversationsResponse, error)
}

func (f *fakeHistory) Messages(ctx context.Context, conversationID uint) ([]model.Message, error) {
	return f.MessagesFunc(ctx, conversationID)
}

func (f *fakeHistory) Conversations(ctx context.Context, limit, offset int) (*model.ListConversationsResponse, error) {
	return f.ConversationsFunc(ctx, limit, offset)
}

type fakeAuth struct {
	LoginFunc func(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error)
}

func (f *fakeAuth) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	return f.LoginFunc(ctx, req)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type testAPI struct {
	handler http.Handler
	tokens  *auth.TokenIssuer
	callers []string
}

type apiOption func(*apiDeps)

type apiDeps struct {
	turns         *fakeTurns
	history       *fakeHistory
	auth          *fakeAuth
	db            pingerFunc
	requireSigned bool
}

func newTestAPI(t *testing.T, opts ...apiOption) *testAPI {
	t.Helper()
	api := &testAPI{tokens: auth.NewTokenIssuer("handler-test", time.Hour)}

	deps := &apiDeps{
		turns: &fakeTurns{HandleFunc: func(_ context.Context, req *model.ChatRequest, caller string) (*model.ChatResponse, error) {
			api.callers = append(api.callers, caller)
			return &model.ChatResponse{
				ConversationID: 7,
				Reply:          "echo: " + req.Message,
				Intent:         "greet",
				Entities:       map[string]string{},
				QuickReplies:   service.SuggestionsFor("greet"),
				Payload:        map[string]any{},
			}, nil
		}},
		history: &fakeHistory{
			MessagesFunc: func(context.Context, uint) ([]model.Message, error) { return nil, nil },
			ConversationsFunc: func(context.Context, int, int) (*model.ListConversationsResponse, error) {
				return &model.ListConversationsResponse{Conversations: []model.Conversation{}}, nil
			},
		},
		auth: &fakeAuth{LoginFunc: func(context.Context, *model.LoginRequest) (*model.LoginResponse, error) {
			return nil, service.ErrInvalidCredentials
		}},
		db: func(context.Context) error { return nil },
	}
	for _, opt := range opts {
		opt(deps)
	}

	log := logger.NewNop()
	api.handler = NewRouter(RouterConfig{
		Chat:           NewChatHandler(deps.turns, deps.requireSigned, log),
		Messages:       NewMessageHandler(deps.history, log),
		Conversations:  NewConversationHandler(deps.history, log),
		Auth:           NewAuthHandler(deps.auth, log),
		Health:         NewHealthHandler(deps.db, nil),
		Tokens:         api.tokens,
		AllowedOrigins: []string{"http://localhost:5173"},
		Logger:         log,
	})
	return api
}

func (a *testAPI) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) token(t *testing.T, email string, role model.Role) string {
	t.Helper()
	token, err := a.tokens.Issue(&model.User{Email: email, Role: role})
	require.NoError(t, err)
	return token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestChatReturnsTurnResponse(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/chat", `{"message":"hi"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.EqualValues(t, 7, body["conversation_id"])
	assert.Equal(t, "echo: hi", body["reply"])
	assert.Equal(t, "greet", body["intent"])
	assert.Equal(t, map[string]any{}, body["payload"])
	assert.Len(t, body["quick_replies"], 3)
	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
}

func TestChatRejectsBadBodies(t *testing.T) {
	api := newTestAPI(t)

	for _, body := range []string{
		`not json`,
		`{}`,
		`{"message":"   "}`,
		fmt.Sprintf(`{"message":%q}`, strings.Repeat("a", 4001)),
	} {
		rec := api.do(t, http.MethodPost, "/api/chat", body, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	assert.Empty(t, api.callers)
}

func TestChatCallerResolution(t *testing.T) {
	tests := []struct {
		name          string
		requireSigned bool
		body          string
		token         string
		want          string
	}{
		{name: "anonymous", body: `{"message":"hi"}`, want: ""},
		{name: "body user id", body: `{"message":"hi","user_id":"alicetan@example.com"}`, want: "alicetan@example.com"},
		{name: "token wins over body", body: `{"message":"hi","user_id":"boblim@example.com"}`, token: "alicetan@example.com", want: "alicetan@example.com"},
		{name: "signed mode ignores body", requireSigned: true, body: `{"message":"hi","user_id":"boblim@example.com"}`, want: ""},
		{name: "signed mode with token", requireSigned: true, body: `{"message":"hi"}`, token: "alicetan@example.com", want: "alicetan@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t, func(d *apiDeps) { d.requireSigned = tt.requireSigned })

			var token string
			if tt.token != "" {
				token = api.token(t, tt.token, model.RoleCustomer)
			}
			rec := api.do(t, http.MethodPost, "/api/chat", tt.body, token)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, []string{tt.want}, api.callers)
		})
	}
}

func TestChatInvalidTokenRejected(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/chat", `{"message":"hi"}`, "forged")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, api.callers)
}

func TestChatStorageFailure(t *testing.T) {
	api := newTestAPI(t, func(d *apiDeps) {
		d.turns = &fakeTurns{HandleFunc: func(context.Context, *model.ChatRequest, string) (*model.ChatResponse, error) {
			return nil, fmt.Errorf("process turn: %w", service.ErrStorage)
		}}
	})

	rec := api.do(t, http.MethodPost, "/api/chat", `{"message":"hi"}`, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "failed to process message", decode[map[string]string](t, rec)["error"])
}

func TestMessagesHistory(t *testing.T) {
	at := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	api := newTestAPI(t, func(d *apiDeps) {
		d.history.MessagesFunc = func(_ context.Context, id uint) ([]model.Message, error) {
			if id != 3 {
				return nil, fmt.Errorf("get history: %w", service.ErrNotFound)
			}
			return []model.Message{
				{ID: 1, ConversationID: 3, Sender: model.SenderUser, Text: "hi", CreatedAt: at},
				{ID: 2, ConversationID: 3, Sender: model.SenderBot, Text: "hello", CreatedAt: at, Audit: &model.TurnAudit{Intent: "greet"}},
			}, nil
		}
	})

	rec := api.do(t, http.MethodGet, "/api/conversations/3/messages", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	msgs := decode[[]map[string]any](t, rec)
	require.Len(t, msgs, 2)
	assert.Equal(t, map[string]any{"id": float64(1), "sender": "user", "text": "hi", "created_at": "2026-10-16T09:00:00Z"}, msgs[0])
	assert.Equal(t, "bot", msgs[1]["sender"])
	assert.NotContains(t, msgs[1], "audit")

	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, "/api/conversations/4/messages", "", "").Code)
	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodGet, "/api/conversations/abc/messages", "", "").Code)
}

func TestLogin(t *testing.T) {
	api := newTestAPI(t, func(d *apiDeps) {
		d.auth.LoginFunc = func(_ context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
			if req.Email == "alicetan@example.com" && req.Password == "password123" {
				return &model.LoginResponse{ID: 1, Email: req.Email, Name: "Alice Tan", Role: model.RoleCustomer, AccessToken: "tok"}, nil
			}
			return nil, service.ErrInvalidCredentials
		}
	})

	rec := api.do(t, http.MethodPost, "/api/login", `{"email":"alicetan@example.com","password":"password123"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "Alice Tan", body["name"])
	assert.Equal(t, "customer", body["role"])
	assert.Equal(t, "tok", body["access_token"])

	rec = api.do(t, http.MethodPost, "/api/login", `{"email":"alicetan@example.com","password":"nope"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid email or password", decode[map[string]string](t, rec)["error"])

	rec = api.do(t, http.MethodPost, "/api/login", `{"email":"not-an-email","password":"x"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConversationsRequireStaff(t *testing.T) {
	var gotLimit, gotOffset int
	api := newTestAPI(t, func(d *apiDeps) {
		d.history.ConversationsFunc = func(_ context.Context, limit, offset int) (*model.ListConversationsResponse, error) {
			gotLimit, gotOffset = limit, offset
			return &model.ListConversationsResponse{Conversations: []model.Conversation{{ID: 1, UserID: "anonymous"}}, Total: 1}, nil
		}
	})

	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodGet, "/api/conversations", "", "").Code)
	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodGet, "/api/conversations", "", api.token(t, "alicetan@example.com", model.RoleCustomer)).Code)

	rec := api.do(t, http.MethodGet, "/api/conversations?limit=5&offset=10", "", api.token(t, "agent@example.com", model.RoleAgent))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, gotLimit)
	assert.Equal(t, 10, gotOffset)
	assert.EqualValues(t, 1, decode[map[string]any](t, rec)["total"])
}

func TestReady(t *testing.T) {
	api := newTestAPI(t)
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/ready", "", "").Code)
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/health", "", "").Code)

	down := newTestAPI(t, func(d *apiDeps) {
		d.db = func(context.Context) error { return errors.New("connection refused") }
	})
	assert.Equal(t, http.StatusServiceUnavailable, down.do(t, http.MethodGet, "/ready", "", "").Code)
}
