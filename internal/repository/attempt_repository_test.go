package repository

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/examgate/examgate/internal/dto"
	"github.com/examgate/examgate/internal/transport"
)

func testClient(t *testing.T, handler http.HandlerFunc) transport.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return transport.NewClient(server.URL, transport.NewStaticTokenProvider("token"), 5*time.Second)
}

func TestStartAcceptsAttemptIDAliases(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"attemptId", `{"attemptId": 7}`},
		{"id", `{"id": 7}`},
		{"sessionId", `{"sessionId": 7}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/start" {
					t.Fatalf("path: got=%s want=/start", r.URL.Path)
				}
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tc.body))
			})
			repo := NewAttemptRepository(client)

			attemptID, err := repo.Start(context.Background(), dto.StartAttemptRequest{TestID: "T1", Limit: 3})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if attemptID != 7 {
				t.Fatalf("attempt id: got=%d want=7", attemptID)
			}
		})
	}
}

func TestStartRejectsResponseWithoutID(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok": true}`))
	})
	repo := NewAttemptRepository(client)

	if _, err := repo.Start(context.Background(), dto.StartAttemptRequest{TestID: "T1"}); err == nil {
		t.Fatal("expected an error for a start response carrying no attempt id")
	}
}

func TestSummaryParsesBackendFieldNames(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/attempts/12/summary" {
			t.Fatalf("path: got=%s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"total_questions": 3, "correct_questions": 2, "score": 67, "sequence": [true, false, true]}`))
	})
	repo := NewAttemptRepository(client)

	summary, err := repo.Summary(context.Background(), 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.AttemptID != 12 || summary.TotalQuestions != 3 || summary.CorrectAnswers != 2 || summary.Score != 67 {
		t.Fatalf("summary: got=%+v", summary)
	}
	if len(summary.Sequence) != 3 || !summary.Sequence[0] || summary.Sequence[1] {
		t.Fatalf("sequence: got=%v want [true false true]", summary.Sequence)
	}
}

func TestItemsPassesPagingParams(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("limit"); got != "10" {
			t.Fatalf("limit: got=%s want=10", got)
		}
		if got := r.URL.Query().Get("offset"); got != "20" {
			t.Fatalf("offset: got=%s want=20", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"question_id": "q1", "correct": true, "time_spent_ms": 9000}]`))
	})
	repo := NewAttemptRepository(client)

	items, err := repo.Items(context.Background(), 5, 10, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].QuestionID != "q1" || !items[0].Correct {
		t.Fatalf("items: got=%+v", items)
	}
}
