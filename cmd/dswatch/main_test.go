package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dswatch/dswatch/internal/dsclient"
	"github.com/dswatch/dswatch/internal/settings"
)

func TestSplitIDs(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  []string
	}{
		{"empty", "", nil},
		{"single", "42", []string{"42"}},
		{"several", "dbid_1,dbid_2,dbid_3", []string{"dbid_1", "dbid_2", "dbid_3"}},
		{"spaces and empty segments", " dbid_1, ,dbid_2,", []string{"dbid_1", "dbid_2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := splitIDs(tt.value); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitIDs(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestClientHolderIgnoresUnchangedSettings(t *testing.T) {
	conn := settings.Connection{Host: "https://nas:5001", Username: "u", Password: "p"}
	holder := newClientHolder(conn)

	before := holder.current()
	holder.Reconfigure(conn)
	if holder.current() != before {
		t.Error("identical settings must not rebuild the client")
	}

	conn.Username = "other"
	holder.Reconfigure(conn)
	if holder.current() == before {
		t.Error("changed settings must rebuild the client")
	}
}

func TestClientHolderLogsOutReplacedSession(t *testing.T) {
	var logouts atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/webapi/auth.cgi", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("method") {
		case "login":
			fmt.Fprint(w, `{"success":true,"data":{"sid":"s1"}}`)
		case "logout":
			logouts.Add(1)
			fmt.Fprint(w, `{"success":true}`)
		}
	})
	mux.HandleFunc("/webapi/DownloadStation/task.cgi", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"success":true,"data":{"total":0,"tasks":[]}}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	conn := settings.Connection{Host: server.URL, Username: "u", Password: "p"}
	holder := newClientHolder(conn)

	// Establish a session on the first client.
	res := holder.ListTasks(context.Background(), dsclient.ListOptions{Limit: -1, Timeout: 5 * time.Second})
	if res.Failure != nil || !res.Response.Success {
		t.Fatalf("list failed: %+v", res)
	}

	conn.Password = "rotated"
	holder.Reconfigure(conn)

	deadline := time.After(3 * time.Second)
	for logouts.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("the replaced client's session was never logged out")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
