package protocol

import (
	"errors"
	"testing"

	"zabbix-rpc/codec"
	"zabbix-rpc/message"
)

func TestBuildURL(t *testing.T) {
	cases := map[string]string{
		"http://zabbix.local/":  "http://zabbix.local/zabbix/api_jsonrpc.php",
		"http://zabbix.local":   "http://zabbix.local/zabbix/api_jsonrpc.php",
		"https://10.0.0.1:8443": "https://10.0.0.1:8443/zabbix/api_jsonrpc.php",
		"not a url":             "not a url/zabbix/api_jsonrpc.php",
	}
	for host, want := range cases {
		if got := BuildURL(host); got != want {
			t.Errorf("BuildURL(%q): expect %q, got %q", host, want, got)
		}
	}
}

func TestNewRequestDefaultsParams(t *testing.T) {
	req := NewRequest(nil, MethodLogout, nil, 3)

	if req.JSONRPC != "2.0" {
		t.Fatalf("expect version 2.0, got %q", req.JSONRPC)
	}
	if req.Auth != nil {
		t.Fatalf("expect nil auth, got %q", *req.Auth)
	}
	if req.Params == nil || len(req.Params) != 0 {
		t.Fatalf("expect empty params, got %v", req.Params)
	}
	if req.ID != 3 {
		t.Fatalf("expect id 3, got %d", req.ID)
	}
}

func TestDecodeResponseResult(t *testing.T) {
	for _, cdc := range []codec.Codec{&codec.JSONCodec{}, &codec.FastJSONCodec{}} {
		resp, err := DecodeResponse(cdc, []byte(`{"jsonrpc":"2.0","result":"tok123","id":1}`))
		if err != nil {
			t.Fatalf("%s: DecodeResponse failed: %v", cdc.Type(), err)
		}
		if resp.Failed() {
			t.Fatalf("%s: expect success", cdc.Type())
		}
		if string(resp.Result) != `"tok123"` {
			t.Errorf("%s: Result mismatch: got %s", cdc.Type(), string(resp.Result))
		}
		if resp.JSONRPC != "2.0" {
			t.Errorf("%s: JSONRPC mismatch: got %q", cdc.Type(), resp.JSONRPC)
		}
	}
}

func TestDecodeResponseNullResult(t *testing.T) {
	resp, err := DecodeResponse(&codec.JSONCodec{}, []byte(`{"jsonrpc":"2.0","result":null,"id":4}`))
	if err != nil {
		t.Fatal(err)
	}
	if resp.Failed() {
		t.Fatal("expect success")
	}
	if string(resp.Result) != "null" {
		t.Fatalf("expect null result, got %s", string(resp.Result))
	}
}

func TestDecodeResponseError(t *testing.T) {
	body := []byte(`{"jsonrpc":"2.0","error":{"code":-32602,"message":"Invalid params.","data":"Incorrect user name or password."},"id":1}`)
	resp, err := DecodeResponse(&codec.JSONCodec{}, body)
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Failed() {
		t.Fatal("expect error reply")
	}
	if resp.Error.Code != CodeInvalidParams {
		t.Errorf("Code mismatch: got %d, want %d", resp.Error.Code, CodeInvalidParams)
	}
	want := "-32602 Invalid params. Incorrect user name or password."
	if resp.Error.Error() != want {
		t.Errorf("expect %q, got %q", want, resp.Error.Error())
	}
}

func TestDecodeResponseErrorWins(t *testing.T) {
	body := []byte(`{"jsonrpc":"2.0","result":"x","error":{"code":-32500,"message":"Application error."},"id":1}`)
	resp, err := DecodeResponse(&codec.JSONCodec{}, body)
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Failed() {
		t.Fatal("error key must take precedence over result")
	}
	if resp.Result != nil {
		t.Fatalf("expect no result on error reply, got %s", string(resp.Result))
	}
}

func TestDecodeResponseNonStringVersion(t *testing.T) {
	resp, err := DecodeResponse(&codec.JSONCodec{}, []byte(`{"jsonrpc":2,"result":true,"id":1}`))
	if err != nil {
		t.Fatal(err)
	}
	if resp.JSONRPC != "2" {
		t.Fatalf("expect raw version text, got %q", resp.JSONRPC)
	}
	if string(resp.Result) != "true" {
		t.Fatalf("expect result true, got %s", string(resp.Result))
	}
}

func TestDecodeResponseMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":     `<html>502 Bad Gateway</html>`,
		"array":        `[1,2,3]`,
		"null":         `null`,
		"string":       `"hello"`,
		"no keys":      `{"jsonrpc":"2.0","id":1}`,
		"null error":   `{"jsonrpc":"2.0","error":null,"id":1}`,
		"string error": `{"jsonrpc":"2.0","error":"boom","id":1}`,
		"truncated":    `{"jsonrpc":"2.0","result":`,
		"empty":        ``,
	}
	for name, body := range cases {
		_, err := DecodeResponse(&codec.JSONCodec{}, []byte(body))
		if err == nil {
			t.Errorf("%s: expect error", name)
			continue
		}
		if !errors.Is(err, ErrMalformedResponse) {
			t.Errorf("%s: expect ErrMalformedResponse, got %v", name, err)
		}
	}
}

func TestIDMatches(t *testing.T) {
	cases := []struct {
		raw  string
		id   int
		want bool
	}{
		{`2`, 2, true},
		{`3`, 2, false},
		{`"2"`, 2, true},
		{``, 2, true},
		{`null`, 2, true},
		{`"abc"`, 2, false},
	}
	for _, tc := range cases {
		resp := &message.Response{ID: []byte(tc.raw)}
		if got := IDMatches(resp, tc.id); got != tc.want {
			t.Errorf("IDMatches(%q, %d): expect %v, got %v", tc.raw, tc.id, tc.want, got)
		}
	}
}
