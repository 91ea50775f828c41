package oracle_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/oracle"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

func Test_Client(t *testing.T) {
	t.Log("Given the need to call the oracle service over HTTP.")
	{
		t.Logf("\tTest 0:\tWhen the oracle responds with a full evaluation.")
		{
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var req struct {
					Content string `json:"content"`
					Intent  string `json:"intent"`
				}
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould receive a decodable request: %v", failed, err)
				}
				if req.Content == "" || req.Intent == "" {
					t.Fatalf("\t%s\tTest 0:\tShould receive the content and intent.", failed)
				}

				json.NewEncoder(w).Encode(oracle.Evaluation{
					Paraphrase:  "alice delivers one hundred apples to bob",
					IntentMatch: true,
					Decision:    oracle.DecisionValid,
				})
			}))
			defer srv.Close()

			client := oracle.NewClient(srv.URL, time.Second)

			eval, err := client.Evaluate(context.Background(), "Alice agrees to deliver 100 apples to Bob.", "record an agreement")
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould get an evaluation: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould get an evaluation.", success)

			if eval.Decision != oracle.DecisionValid || !eval.IntentMatch {
				t.Fatalf("\t%s\tTest 0:\tShould carry the oracle's judgment.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould carry the oracle's judgment.", success)
		}

		t.Logf("\tTest 1:\tWhen the oracle response is missing required fields.")
		{
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(oracle.Evaluation{Decision: oracle.DecisionValid})
			}))
			defer srv.Close()

			client := oracle.NewClient(srv.URL, time.Second)

			if _, err := client.Evaluate(context.Background(), "content", "intent"); err == nil {
				t.Fatalf("\t%s\tTest 1:\tShould treat a malformed response as an error.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould treat a malformed response as an error.", success)
		}

		t.Logf("\tTest 2:\tWhen the oracle returns a server error with a huge body.")
		{
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write(bytes.Repeat([]byte("x"), 1<<20))
			}))
			defer srv.Close()

			client := oracle.NewClient(srv.URL, time.Second)

			_, err := client.Evaluate(context.Background(), "content", "intent")
			if err == nil {
				t.Fatalf("\t%s\tTest 2:\tShould surface the server error.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould surface the server error.", success)

			if len(err.Error()) > 8192 {
				t.Fatalf("\t%s\tTest 2:\tShould bound the error body read: got %d bytes", failed, len(err.Error()))
			}
			t.Logf("\t%s\tTest 2:\tShould bound the error body read.", success)
		}

		t.Logf("\tTest 3:\tWhen the oracle hangs past the deadline.")
		{
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(200 * time.Millisecond)
			}))
			defer srv.Close()

			client := oracle.NewClient(srv.URL, time.Second)

			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()

			if _, err := client.Evaluate(ctx, "content", "intent"); err == nil {
				t.Fatalf("\t%s\tTest 3:\tShould abandon the call at the deadline.", failed)
			}
			t.Logf("\t%s\tTest 3:\tShould abandon the call at the deadline.", success)
		}
	}
}
