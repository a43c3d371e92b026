package message

import (
	"encoding/json"
	"testing"
)

func TestRequestEncoding(t *testing.T) {
	req := &Request{
		JSONRPC: "2.0",
		Method:  "user.logout",
		Params:  Params{},
		ID:      3,
	}

	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}

	want := `{"jsonrpc":"2.0","auth":null,"method":"user.logout","params":{},"id":3}`
	if string(data) != want {
		t.Fatalf("expect %s, got %s", want, string(data))
	}

	token := "tok123"
	req.Auth = &token
	data, err = json.Marshal(req)
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}

	want = `{"jsonrpc":"2.0","auth":"tok123","method":"user.logout","params":{},"id":3}`
	if string(data) != want {
		t.Fatalf("expect %s, got %s", want, string(data))
	}
}

func TestErrorMessage(t *testing.T) {
	cases := []struct {
		name string
		err  Error
		want string
	}{
		{
			name: "string data",
			err:  Error{Code: -32602, Message: "Invalid params.", Data: json.RawMessage(`"Incorrect user name or password."`)},
			want: "-32602 Invalid params. Incorrect user name or password.",
		},
		{
			name: "object data",
			err:  Error{Code: -32500, Message: "Application error.", Data: json.RawMessage(`{"field":"host"}`)},
			want: `-32500 Application error. {"field":"host"}`,
		},
		{
			name: "no data",
			err:  Error{Code: -32601, Message: "Method not found."},
			want: "-32601 Method not found.",
		},
		{
			name: "null data",
			err:  Error{Code: -32601, Message: "Method not found.", Data: json.RawMessage(`null`)},
			want: "-32601 Method not found.",
		},
	}

	for _, tc := range cases {
		if got := tc.err.Error(); got != tc.want {
			t.Errorf("%s: expect %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestResponseFailed(t *testing.T) {
	var resp Response
	if err := json.Unmarshal([]byte(`{"jsonrpc":"2.0","result":"ok","id":1}`), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Failed() {
		t.Fatal("expect success response")
	}

	resp = Response{}
	if err := json.Unmarshal([]byte(`{"jsonrpc":"2.0","error":{"code":-32602,"message":"Invalid params.","data":"x"},"id":1}`), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Failed() {
		t.Fatal("expect error response")
	}
	if resp.Error.Code != -32602 {
		t.Fatalf("expect code -32602, got %d", resp.Error.Code)
	}
}
