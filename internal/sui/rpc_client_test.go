package sui

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

const (
	testDigest1 = "4vJ9JU1bJJE96FWSJKvHsmmFADCg4gpZQff4P3bkLKi"
	testDigest2 = "8qbHbw2BbbTHBW1sbeqakYXVKRQM8Ne7pLK7m6CVfeR"
	shortDigest = "sLDDSz4DCdAn1W1xf36N2" // 16 bytes
)

func TestHTTPClient_GetAllCoins(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		if req.Method != "suix_getAllCoins" {
			t.Errorf("expected method suix_getAllCoins, got %s", req.Method)
		}
		if len(req.Params) != 3 || req.Params[0] != "0xowner" {
			t.Errorf("unexpected params %v", req.Params)
		}
		if req.Params[1] != "cursor-1" {
			t.Errorf("expected cursor-1, got %v", req.Params[1])
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"data": []map[string]interface{}{
					{"coinType": "0x2::sui::SUI", "coinObjectId": "0xc1", "version": "1", "digest": testDigest1, "balance": "100"},
					{"coinType": "0xabc::mnm::MNM", "coinObjectId": "0xc2", "version": "2", "digest": testDigest2, "balance": "500"},
				},
				"nextCursor":  "cursor-2",
				"hasNextPage": true,
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	page, err := client.GetAllCoins(context.Background(), "0xowner", "cursor-1", 50)
	if err != nil {
		t.Fatalf("GetAllCoins: %v", err)
	}

	if len(page.Data) != 2 {
		t.Fatalf("expected 2 coins, got %d", len(page.Data))
	}
	if page.Data[1].Balance != "500" {
		t.Errorf("expected balance 500, got %s", page.Data[1].Balance)
	}
	if !page.HasNextPage || page.NextCursor != "cursor-2" {
		t.Errorf("unexpected pagination: %+v", page)
	}
}

func TestHTTPClient_GetAllCoins_NullCursor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		if req.Params[1] != nil || req.Params[2] != nil {
			t.Errorf("expected null cursor and limit, got %v", req.Params)
		}

		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"data":[],"nextCursor":null,"hasNextPage":false}}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	page, err := client.GetAllCoins(context.Background(), "0xowner", "", 0)
	if err != nil {
		t.Fatalf("GetAllCoins: %v", err)
	}
	if page.HasNextPage || page.NextCursor != "" {
		t.Errorf("expected last page, got %+v", page)
	}
}

func TestHTTPClient_GetAllCoins_BadDigest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"data":[{"coinType":"x","coinObjectId":"0xc1","digest":"` + shortDigest + `","balance":"1"}],"hasNextPage":false}}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	if _, err := client.GetAllCoins(context.Background(), "0xowner", "", 0); err == nil {
		t.Fatal("expected digest validation error")
	}
}

func TestHTTPClient_GetCoinMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		if req.Method != "suix_getCoinMetadata" {
			t.Errorf("expected method suix_getCoinMetadata, got %s", req.Method)
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"decimals":    9,
				"name":        "Little Man",
				"symbol":      "MNM",
				"description": "",
				"iconUrl":     nil,
				"id":          "0xmeta",
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	meta, err := client.GetCoinMetadata(context.Background(), "0xabc::mnm::MNM")
	if err != nil {
		t.Fatalf("GetCoinMetadata: %v", err)
	}
	if meta == nil {
		t.Fatal("expected metadata, got nil")
	}
	if meta.Decimals != 9 || meta.Symbol != "MNM" || meta.ID != "0xmeta" {
		t.Errorf("unexpected metadata %+v", meta)
	}
}

func TestHTTPClient_GetCoinMetadata_Null(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":null}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	meta, err := client.GetCoinMetadata(context.Background(), "0xabc::mnm::MNM")
	if err != nil {
		t.Fatalf("GetCoinMetadata: %v", err)
	}
	if meta != nil {
		t.Errorf("expected nil metadata, got %+v", meta)
	}
}

func TestHTTPClient_RPCError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"Invalid params"}}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithMaxRetries(3))
	_, err := client.GetAllCoins(context.Background(), "bad", "", 0)

	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected RPCError, got %v", err)
	}
	if rpcErr.Code != -32602 {
		t.Errorf("expected code -32602, got %d", rpcErr.Code)
	}
}

func TestHTTPClient_Retry(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":null}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithMaxRetries(3), WithRetryDelay(0))
	if _, err := client.GetCoinMetadata(context.Background(), "x"); err != nil {
		t.Fatalf("GetCoinMetadata: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestNewHTTPClient_DefaultEndpoint(t *testing.T) {
	client := NewHTTPClient("")
	if client.endpoint != DefaultEndpoint {
		t.Errorf("expected default endpoint, got %s", client.endpoint)
	}
}
