// Package handler 提供 HTTP 处理器单元测试
package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ashwinyue/chat-relay/internal/config"
	"github.com/ashwinyue/chat-relay/internal/model"
	"github.com/ashwinyue/chat-relay/internal/service"
	"github.com/ashwinyue/chat-relay/internal/service/chat"
	"github.com/ashwinyue/chat-relay/internal/service/retrieval"
	"github.com/ashwinyue/chat-relay/internal/testutil"
	"github.com/cloudwego/eino/schema"
	"github.com/gin-gonic/gin"
)

// ========== 测试用 mock ==========

var errNotFound = errors.New("record not found")

type stubChatRepo struct {
	sessions map[string]*model.ChatSession
	messages []*model.ChatMessage
}

func newStubChatRepo() *stubChatRepo {
	return &stubChatRepo{sessions: make(map[string]*model.ChatSession)}
}

func (s *stubChatRepo) CreateSession(sess *model.ChatSession) error {
	s.sessions[sess.ID] = sess
	return nil
}

func (s *stubChatRepo) GetSessionByID(id string) (*model.ChatSession, error) {
	if sess, ok := s.sessions[id]; ok {
		return sess, nil
	}
	return nil, errNotFound
}

func (s *stubChatRepo) ListSessionsByUser(userID string) ([]*model.ChatSession, error) {
	var out []*model.ChatSession
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			out = append(out, sess)
		}
	}
	return out, nil
}

func (s *stubChatRepo) TouchSession(id string, t time.Time) error { return nil }
func (s *stubChatRepo) SetActiveFile(id, fileID string) error     { return nil }

func (s *stubChatRepo) DeleteSession(id string) error {
	delete(s.sessions, id)
	return nil
}

func (s *stubChatRepo) DeleteSessionsByUser(userID string) error {
	for id, sess := range s.sessions {
		if sess.UserID == userID {
			delete(s.sessions, id)
		}
	}
	return nil
}

func (s *stubChatRepo) CreateMessage(msg *model.ChatMessage) error {
	s.messages = append(s.messages, msg)
	return nil
}

func (s *stubChatRepo) GetMessagesBySessionID(sessionID string) ([]*model.ChatMessage, error) {
	var out []*model.ChatMessage
	for _, msg := range s.messages {
		if msg.SessionID == sessionID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (s *stubChatRepo) GetRecentMessages(sessionID string, limit int) ([]*model.ChatMessage, error) {
	all, _ := s.GetMessagesBySessionID(sessionID)
	out := make([]*model.ChatMessage, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (s *stubChatRepo) GetLatestMessageByKind(sessionID, kind string) (*model.ChatMessage, error) {
	return nil, errNotFound
}

type stubCompleter struct {
	reply string
}

func (s *stubCompleter) Complete(_ context.Context, _ []*schema.Message) (string, error) {
	return s.reply, nil
}

func newTestHandler(repo *stubChatRepo, reply string) *ChatHandler {
	cfg := config.ChatConfig{HistoryWindow: 30, TitleLimit: 40, ChunkSize: 800, TopChunks: 3, MinTokenLen: 3}
	retriever := retrieval.NewKeywordRetriever(retrieval.DefaultConfig())
	chatSvc := chat.NewService(repo, &stubCompleter{reply: reply}, nil, chat.NewContextState(nil), retriever, cfg)
	return NewChatHandler(&service.Services{Chat: chatSvc})
}

func performJSON(t *testing.T, handlerFunc gin.HandlerFunc, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handlerFunc(c)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) *Response {
	t.Helper()
	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return &resp
}

// ========== Chat 测试 ==========

func TestChat_Success(t *testing.T) {
	assert := testutil.NewAssertHelper(t)
	h := newTestHandler(newStubChatRepo(), "hello back")

	w := performJSON(t, h.Chat, http.MethodPost, "/chat", gin.H{
		"userId":  "user-1",
		"message": "hello",
	})

	assert.Equal(http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(0, resp.Code)

	data, ok := resp.Data.(map[string]interface{})
	assert.True(ok, "data should be an object")
	assert.Equal("hello back", data["reply"])
	assert.NotEmpty(data["chatId"])
}

func TestChat_Validation(t *testing.T) {
	h := newTestHandler(newStubChatRepo(), "ok")

	tests := []struct {
		name string
		body interface{}
	}{
		{name: "missing userId", body: gin.H{"message": "hi"}},
		{name: "missing message", body: gin.H{"userId": "u1"}},
		{name: "blank userId", body: gin.H{"userId": "   ", "message": "hi"}},
		{name: "blank message", body: gin.H{"userId": "u1", "message": "   "}},
		{name: "empty body", body: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performJSON(t, h.Chat, http.MethodPost, "/chat", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

// ========== History 测试 ==========

func TestHistory_RequiresChatID(t *testing.T) {
	h := newTestHandler(newStubChatRepo(), "ok")

	w := performJSON(t, h.History, http.MethodGet, "/history", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHistory_UnknownSessionEmptyList(t *testing.T) {
	assert := testutil.NewAssertHelper(t)
	h := newTestHandler(newStubChatRepo(), "ok")

	w := performJSON(t, h.History, http.MethodGet, "/history?chatId=nope", nil)

	assert.Equal(http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	data := resp.Data.(map[string]interface{})
	msgs, ok := data["messages"].([]interface{})
	assert.True(ok, "messages should be a list")
	assert.Equal(0, len(msgs))
}

func TestHistory_ReturnsMessages(t *testing.T) {
	assert := testutil.NewAssertHelper(t)
	repo := newStubChatRepo()
	repo.CreateSession(&model.ChatSession{ID: "s1", UserID: "u1"})
	repo.CreateMessage(&model.ChatMessage{ID: "m1", SessionID: "s1", Role: model.RoleUser, Content: "hi"})
	repo.CreateMessage(&model.ChatMessage{ID: "m2", SessionID: "s1", Role: model.RoleAssistant, Content: "hello"})
	h := newTestHandler(repo, "ok")

	w := performJSON(t, h.History, http.MethodGet, "/history?chatId=s1", nil)

	assert.Equal(http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	data := resp.Data.(map[string]interface{})
	msgs := data["messages"].([]interface{})
	assert.Equal(2, len(msgs))
}

// ========== ListChats 测试 ==========

func TestListChats_RequiresUserID(t *testing.T) {
	h := newTestHandler(newStubChatRepo(), "ok")

	w := performJSON(t, h.ListChats, http.MethodGet, "/chats", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestListChats_Success(t *testing.T) {
	assert := testutil.NewAssertHelper(t)
	repo := newStubChatRepo()
	repo.CreateSession(&model.ChatSession{ID: "s1", UserID: "u1", Title: "First"})
	h := newTestHandler(repo, "ok")

	w := performJSON(t, h.ListChats, http.MethodGet, "/chats?userId=u1", nil)

	assert.Equal(http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	data := resp.Data.(map[string]interface{})
	chats, ok := data["chats"].([]interface{})
	assert.True(ok, "chats should be a list")
	assert.Equal(1, len(chats))
}

// ========== Reset / DeleteChat 测试 ==========

func TestReset_RequiresUserID(t *testing.T) {
	h := newTestHandler(newStubChatRepo(), "ok")

	w := performJSON(t, h.Reset, http.MethodPost, "/reset", gin.H{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestReset_Success(t *testing.T) {
	assert := testutil.NewAssertHelper(t)
	repo := newStubChatRepo()
	repo.CreateSession(&model.ChatSession{ID: "s1", UserID: "u1"})
	h := newTestHandler(repo, "ok")

	w := performJSON(t, h.Reset, http.MethodPost, "/reset", gin.H{"userId": "u1"})

	assert.Equal(http.StatusOK, w.Code)
	assert.Equal(0, len(repo.sessions))
}

func TestDeleteChat_Validation(t *testing.T) {
	h := newTestHandler(newStubChatRepo(), "ok")

	tests := []struct {
		name string
		body gin.H
	}{
		{name: "missing userId", body: gin.H{"chatId": "s1"}},
		{name: "missing chatId", body: gin.H{"userId": "u1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performJSON(t, h.DeleteChat, http.MethodPost, "/deleteChat", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestDeleteChat_NotFound(t *testing.T) {
	h := newTestHandler(newStubChatRepo(), "ok")

	w := performJSON(t, h.DeleteChat, http.MethodPost, "/deleteChat", gin.H{
		"userId": "u1",
		"chatId": "missing",
	})

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestDeleteChat_Success(t *testing.T) {
	assert := testutil.NewAssertHelper(t)
	repo := newStubChatRepo()
	repo.CreateSession(&model.ChatSession{ID: "s1", UserID: "u1"})
	h := newTestHandler(repo, "ok")

	w := performJSON(t, h.DeleteChat, http.MethodPost, "/deleteChat", gin.H{
		"userId": "u1",
		"chatId": "s1",
	})

	assert.Equal(http.StatusOK, w.Code)
	if _, ok := repo.sessions["s1"]; ok {
		t.Error("session should be deleted")
	}
}
