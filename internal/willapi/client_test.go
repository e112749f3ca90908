package willapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second, zap.NewNop())
}

func TestPrepareWillSuccess(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/will/prepare" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		w.Write([]byte(`{"success":true,"data":{"to":"0xdead","nonce":3}}`))
	})

	data, err := c.PrepareWill(context.Background(), PrepareWillRequest{
		UserAddress:     "0xabc",
		Nominees:        []string{"0x1"},
		DeadlineSeconds: 3600,
		EncryptedData:   "deadbeef",
	})
	if err != nil {
		t.Fatalf("PrepareWill: %v", err)
	}
	if !strings.Contains(string(data), "0xdead") {
		t.Errorf("unexpected payload %s", data)
	}
}

func TestPrepareWillServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"success":false,"error":"invalid nominees"}`))
	})

	_, err := c.PrepareWill(context.Background(), PrepareWillRequest{})
	if !errors.Is(err, ErrServer) {
		t.Fatalf("want ErrServer, got %v", err)
	}
	if !strings.Contains(err.Error(), "invalid nominees") {
		t.Errorf("server reason not attached: %v", err)
	}
}

func TestBroadcastErrorSurfacedVerbatim(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"error":"nonce too low"}`))
	})

	_, err := c.Broadcast(context.Background(), "0xf86c...")
	if !errors.Is(err, ErrServer) {
		t.Fatalf("want ErrServer, got %v", err)
	}
	if !strings.Contains(err.Error(), "nonce too low") {
		t.Errorf("broadcast reason not surfaced: %v", err)
	}
}

func TestListWillsNormalizesLooseShapes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("owner"); got != "0xabc" {
			t.Errorf("owner query = %q", got)
		}
		w.Write([]byte(`{"data":{"wills":[
			{"tokenId":7,"id":1,"deadline":{"timestamp":1700000000},"nominees":["0x1","0x2"],"encryptedHash":"qmhash"},
			{"tokenId":"8","encryptedHash":"qmhash2"}
		]}}`))
	})

	wills, err := c.ListWills(context.Background(), "0xabc")
	if err != nil {
		t.Fatalf("ListWills: %v", err)
	}
	if len(wills) != 2 {
		t.Fatalf("got %d wills, want 2", len(wills))
	}

	if wills[0].TokenID != "7" {
		t.Errorf("numeric tokenId not normalized: %q", wills[0].TokenID)
	}
	if wills[0].Deadline == nil || *wills[0].Deadline != 1700000000 {
		t.Errorf("deadline not extracted: %v", wills[0].Deadline)
	}

	if wills[1].Deadline != nil {
		t.Error("missing deadline should stay nil")
	}
	if wills[1].Nominees == nil || len(wills[1].Nominees) != 0 {
		t.Errorf("missing nominees should normalize to empty slice, got %v", wills[1].Nominees)
	}
	if wills[1].Owner != "0xabc" {
		t.Errorf("owner not filled in: %q", wills[1].Owner)
	}
}

func TestPreparePingSuccess(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ping" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"data":{"unsignedTransaction":{"to":"0xbeef","value":"0x0"}}}`))
	})

	tx, err := c.PreparePing(context.Background(), "0xabc", "7")
	if err != nil {
		t.Fatalf("PreparePing: %v", err)
	}
	if !strings.Contains(string(tx), "0xbeef") {
		t.Errorf("unexpected tx payload %s", tx)
	}
}

func TestPreparePingDomainErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"not owner", `{"error":"You do not own this will"}`, ErrNotOwner},
		{"triggered", `{"error":"Cannot ping a triggered will"}`, ErrAlreadyTriggered},
		{"executed", `{"error":"Cannot ping an executed will"}`, ErrAlreadyExecuted},
		{"wrapped in prose", `{"error":"rejected: Cannot ping a triggered will (tokenId 7)"}`, ErrAlreadyTriggered},
		{"generic", `{"error":"database on fire"}`, ErrServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(tt.body))
			})

			_, err := c.PreparePing(context.Background(), "0xabc", "7")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPreparePingUnreachableServer(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", time.Second, zap.NewNop())
	_, err := c.PreparePing(context.Background(), "0xabc", "7")
	if !errors.Is(err, ErrServer) {
		t.Fatalf("want ErrServer, got %v", err)
	}
}
