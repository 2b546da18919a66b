package browser

import (
	"strings"
	"testing"
	"time"

	"github.com/chromedp/cdproto/cdp"
)

func TestOptionsWithDefaults(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want Options
	}{
		{
			name: "zero options are bounded",
			opts: Options{},
			want: Options{
				QueryTimeout:  DefaultQueryTimeout,
				FetchTimeout:  DefaultQueryTimeout,
				ViewerTimeout: DefaultQueryTimeout,
				CloseTimeout:  DefaultQueryTimeout,
				LoginTimeout:  DefaultQueryTimeout,
			},
		},
		{
			name: "fetch falls back to query timeout",
			opts: Options{QueryTimeout: 3 * time.Second, ViewerTimeout: 5 * time.Second},
			want: Options{
				QueryTimeout:  3 * time.Second,
				FetchTimeout:  3 * time.Second,
				ViewerTimeout: 5 * time.Second,
				CloseTimeout:  3 * time.Second,
				LoginTimeout:  3 * time.Second,
			},
		},
		{
			name: "explicit values kept",
			opts: Options{UserDataDir: "p", QueryTimeout: time.Second, FetchTimeout: 30 * time.Second, ViewerTimeout: 2 * time.Second, CloseTimeout: time.Second, LoginTimeout: time.Minute},
			want: Options{UserDataDir: "p", QueryTimeout: time.Second, FetchTimeout: 30 * time.Second, ViewerTimeout: 2 * time.Second, CloseTimeout: time.Second, LoginTimeout: time.Minute},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.opts.withDefaults(); got != tt.want {
				t.Errorf("Expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestMessageID(t *testing.T) {
	m := &message{node: &cdp.Node{BackendNodeID: 42}}
	if got := m.ID(); got != "42" {
		t.Errorf("Expected ID 42, got %s", got)
	}
}

func TestFocusExpression(t *testing.T) {
	got, err := callExpr(jsFocus, `div[role="dialog"] img[draggable="true"]`)
	if err != nil {
		t.Fatalf("callExpr failed: %v", err)
	}
	if !strings.Contains(got, `el.focus()`) || !strings.HasSuffix(got, `("div[role=\"dialog\"] img[draggable=\"true\"]")`) {
		t.Errorf("Unexpected focus expression %s", got)
	}
}
