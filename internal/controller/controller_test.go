package controller

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	connInmemory "github.com/sharetube/watchtogether/internal/repository/connection/inmemory"
	sessionInmemory "github.com/sharetube/watchtogether/internal/repository/session/inmemory"
	"github.com/sharetube/watchtogether/internal/service/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type received struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc := session.NewService(
		sessionInmemory.NewRepo(slog.Default()),
		connInmemory.NewRepo(slog.Default()),
		&session.Config{UsersLimit: 10, Secret: "test-secret"},
		slog.Default(),
	)

	srv := httptest.NewServer(NewController(svc, slog.Default()).GetMux())
	t.Cleanup(srv.Close)

	return srv
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}

	return resp.StatusCode
}

func dialSession(t *testing.T, srv *httptest.Server, sessionId, authToken string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws/sessions/" + sessionId + "?auth-token=" + authToken
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) received {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var msg received
	require.NoError(t, conn.ReadJSON(&msg))

	return msg
}

func send(t *testing.T, conn *websocket.Conn, messageType string, payload any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    messageType,
		"payload": payload,
	}))
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	var body struct {
		Data struct {
			Status         string `json:"status"`
			ConnectedUsers int    `json:"connected_users"`
		} `json:"data"`
	}
	assert.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/api/v1/healthz", nil, &body))
	assert.Equal(t, "OK", body.Data.Status)
	assert.Zero(t, body.Data.ConnectedUsers)
}

func TestRESTErrors(t *testing.T) {
	srv := newTestServer(t)

	var validation struct {
		Errors []map[string]string `json:"errors"`
	}
	status := doJSON(t, http.MethodPost, srv.URL+"/api/v1/sessions", map[string]any{"video_url": "https://youtu.be/dQw4w9WgXcQ"}, &validation)
	assert.Equal(t, http.StatusBadRequest, status)
	require.Len(t, validation.Errors, 1)
	assert.Equal(t, "user_name", validation.Errors[0]["field"])
	assert.Equal(t, "REQUIRED", validation.Errors[0]["code"])

	var failed struct {
		Error errorPayload `json:"error"`
	}
	status = doJSON(t, http.MethodPost, srv.URL+"/api/v1/sessions", map[string]any{"video_url": "https://example.com", "user_name": "a"}, &failed)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_VIDEO_URL", failed.Error.Code)

	status = doJSON(t, http.MethodPost, srv.URL+"/api/v1/sessions", map[string]any{"unknown": true}, &failed)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "INVALID_PAYLOAD", failed.Error.Code)

	status = doJSON(t, http.MethodPost, srv.URL+"/api/v1/sessions/missing/join", map[string]any{"user_name": "b"}, &failed)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "SESSION_NOT_FOUND", failed.Error.Code)

	status = doJSON(t, http.MethodGet, srv.URL+"/api/v1/sessions/missing/users/primary", nil, &failed)
	assert.Equal(t, http.StatusNotFound, status)

	resp, err := http.Get(srv.URL + "/api/v1/ws/sessions/missing?auth-token=bad")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

type createOutput struct {
	Data struct {
		SessionId string       `json:"session_id"`
		User      session.User `json:"user"`
		AuthToken string       `json:"auth_token"`
	} `json:"data"`
}

type joinOutput struct {
	Data struct {
		User      session.User    `json:"user"`
		AuthToken string          `json:"auth_token"`
		Session   session.Session `json:"session"`
	} `json:"data"`
}

func TestSessionFlow(t *testing.T) {
	srv := newTestServer(t)

	var created createOutput
	status := doJSON(t, http.MethodPost, srv.URL+"/api/v1/sessions", map[string]any{
		"video_url": "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"user_name": "alice",
	}, &created)
	require.Equal(t, http.StatusCreated, status)
	sessionId := created.Data.SessionId
	alice := created.Data.User

	var joined joinOutput
	status = doJSON(t, http.MethodPost, srv.URL+"/api/v1/sessions/"+sessionId+"/join", map[string]any{
		"user_name": "bob",
	}, &joined)
	require.Equal(t, http.StatusOK, status)
	bob := joined.Data.User
	assert.Equal(t, "secondary", bob.Role)
	assert.Len(t, joined.Data.Session.SecondaryUsers, 1)

	var secondaries struct {
		Data []session.User `json:"data"`
	}
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/api/v1/sessions/"+sessionId+"/users/secondary", nil, &secondaries))
	require.Len(t, secondaries.Data, 1)
	assert.Equal(t, bob.Id, secondaries.Data[0].Id)

	aliceConn := dialSession(t, srv, sessionId, created.Data.AuthToken)
	msg := readMessage(t, aliceConn)
	assert.Equal(t, "SESSION_STATE", msg.Type)
	var state struct {
		AuthToken string `json:"auth_token"`
	}
	require.NoError(t, json.Unmarshal(msg.Payload, &state))
	assert.NotEmpty(t, state.AuthToken)

	bobConn := dialSession(t, srv, sessionId, joined.Data.AuthToken)
	assert.Equal(t, "SESSION_STATE", readMessage(t, bobConn).Type)
	assert.Equal(t, "USER_CONNECTED", readMessage(t, aliceConn).Type)

	// secondary users cannot control playback
	send(t, bobConn, "VIDEO_ACTION", map[string]any{"type": "seek", "time": 42})
	msg = readMessage(t, bobConn)
	require.Equal(t, "ERROR", msg.Type)
	var errPayload errorPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &errPayload))
	assert.Equal(t, "PERMISSION_DENIED", errPayload.Code)

	send(t, bobConn, "NOT_A_MESSAGE", nil)
	msg = readMessage(t, bobConn)
	require.Equal(t, "ERROR", msg.Type)
	require.NoError(t, json.Unmarshal(msg.Payload, &errPayload))
	assert.Equal(t, "UNKNOWN_MESSAGE_TYPE", errPayload.Code)

	send(t, aliceConn, "PROMOTE_TO_PRIMARY", map[string]any{"user_id": bob.Id})
	for _, conn := range []*websocket.Conn{aliceConn, bobConn} {
		msg = readMessage(t, conn)
		require.Equal(t, "ROLES_UPDATED", msg.Type)
		var roles struct {
			PrimaryUsers []session.User `json:"primary_users"`
		}
		require.NoError(t, json.Unmarshal(msg.Payload, &roles))
		require.Len(t, roles.PrimaryUsers, 2)
		assert.Equal(t, bob.Id, roles.PrimaryUsers[1].Id)
		assert.Equal(t, 1, roles.PrimaryUsers[1].Order)
	}

	send(t, bobConn, "VIDEO_ACTION", map[string]any{"type": "play"})
	for _, conn := range []*websocket.Conn{aliceConn, bobConn} {
		msg = readMessage(t, conn)
		require.Equal(t, "VIDEO_STATE_UPDATED", msg.Type)
		var state struct {
			VideoState session.VideoState `json:"video_state"`
		}
		require.NoError(t, json.Unmarshal(msg.Payload, &state))
		assert.True(t, state.VideoState.IsPlaying)
	}

	send(t, bobConn, "VIDEO_ACTION", map[string]any{"type": "volume"})
	msg = readMessage(t, bobConn)
	require.Equal(t, "ERROR", msg.Type)
	require.NoError(t, json.Unmarshal(msg.Payload, &errPayload))
	assert.Equal(t, "INVALID_ACTION_PAYLOAD", errPayload.Code)

	send(t, bobConn, "VIDEO_ACTION", map[string]any{"type": "volume", "volume": 0.3})
	msg = readMessage(t, bobConn)
	require.Equal(t, "LOCAL_VIDEO_STATE_UPDATED", msg.Type)
	var local struct {
		LocalVideoState session.LocalVideoState `json:"local_video_state"`
	}
	require.NoError(t, json.Unmarshal(msg.Payload, &local))
	assert.Equal(t, 0.3, local.LocalVideoState.Volume)

	send(t, aliceConn, "LEAVE_SESSION", nil)
	msg = readMessage(t, bobConn)
	require.Equal(t, "USER_LEFT", msg.Type)
	var left struct {
		LeftUser session.User  `json:"left_user"`
		NewAdmin *session.User `json:"new_admin"`
	}
	require.NoError(t, json.Unmarshal(msg.Payload, &left))
	assert.Equal(t, alice.Id, left.LeftUser.Id)
	require.NotNil(t, left.NewAdmin)
	assert.Equal(t, bob.Id, left.NewAdmin.Id)

	require.NoError(t, aliceConn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := aliceConn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, closeCodeLeft), "unexpected error: %v", err)

	send(t, bobConn, "LEAVE_SESSION", nil)
	require.NoError(t, bobConn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = bobConn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, closeCodeLeft), "unexpected error: %v", err)

	var failed struct {
		Error errorPayload `json:"error"`
	}
	assert.Equal(t, http.StatusNotFound, doJSON(t, http.MethodGet, srv.URL+"/api/v1/sessions/"+sessionId, nil, &failed))
}
