package http

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"recertify-fraud-service/internal/domain"
)

func TestWebSocketCheckFlow(t *testing.T) {
	server := httptest.NewServer(newTestRouter(t, nil))
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?userId=u1"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// The connection's user wins over whatever the payload claims.
	check := map[string]any{
		"type": "check",
		"payload": map[string]any{
			"userId":    "someone-else",
			"quizId":    "quiz-1",
			"answers":   []int{1, 0},
			"timeSpent": 36,
		},
	}
	if err := conn.WriteJSON(check); err != nil {
		t.Fatalf("write check: %v", err)
	}
	typ, payload := readNext(conn, t, "result")
	if typ != "result" {
		t.Fatalf("expected result, got %s", typ)
	}
	det, ok := payload["fraudDetection"].(map[string]any)
	if !ok {
		t.Fatalf("missing fraudDetection in %v", payload)
	}
	if det["userId"] != "u1" {
		t.Fatalf("expected userId u1, got %v", det["userId"])
	}
	if det["riskScore"] != float64(35) {
		t.Fatalf("expected accuracy penalty 35, got %v", det["riskScore"])
	}

	if err := conn.WriteJSON(map[string]any{"type": "history"}); err != nil {
		t.Fatalf("write history: %v", err)
	}
	_, history := readNext(conn, t, "history")
	if entries, _ := history["fraudHistory"].([]any); len(entries) != 1 {
		t.Fatalf("expected one history entry, got %v", history["fraudHistory"])
	}

	if err := conn.WriteJSON(map[string]any{"type": "check", "payload": map[string]any{"quizId": "quiz-1"}}); err != nil {
		t.Fatalf("write invalid: %v", err)
	}
	_, errPayload := readNext(conn, t, "error")
	if errPayload["message"] != "Missing required fields: answers, timeSpent" {
		t.Fatalf("unexpected error payload %v", errPayload)
	}

	if err := conn.WriteJSON(map[string]any{"type": "bogus"}); err != nil {
		t.Fatalf("write bogus: %v", err)
	}
	readNext(conn, t, "error")
}

func TestWebSocketRequiresUser(t *testing.T) {
	server := httptest.NewServer(newTestRouter(t, nil))
	defer server.Close()

	_, resp, err := websocket.DefaultDialer.Dial("ws"+server.URL[len("http"):]+"/ws", nil)
	if err == nil {
		t.Fatalf("expected handshake failure without userId")
	}
	if resp == nil || resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %v", resp)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}

func sampleQuiz() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID: "quiz-1",
			Questions: []domain.Question{
				{
					ID:     "q1",
					Prompt: "What is 2 + 2?",
					Options: []domain.Option{
						{ID: "o1", Text: "3", Correct: false},
						{ID: "o2", Text: "4", Correct: true},
						{ID: "o3", Text: "5", Correct: false},
					},
					Points: 1,
				},
				{
					ID:     "q2",
					Prompt: "Capital of France?",
					Options: []domain.Option{
						{ID: "o1", Text: "Paris", Correct: true},
						{ID: "o2", Text: "Lyon", Correct: false},
					},
					Points: 1,
				},
			},
		},
	}
}
