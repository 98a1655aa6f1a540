package bot

import (
	"io"
	"log/slog"
	"testing"

	telebot "gopkg.in/telebot.v3"

	"github.com/pptbot/pptbot/internal/bot/handlers"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noopCallback(name string, calls *[]string) handlers.CallbackHandler {
	return func(c telebot.Context) error {
		*calls = append(*calls, name)
		return nil
	}
}

func TestFindCallbackHandler_ExactBeforePrefix(t *testing.T) {
	var calls []string

	r := NewRouter(nil, testLogger())
	r.RegisterCallback("button_text_", noopCallback("prefix", &calls))
	r.RegisterCallback("button_text_custom", noopCallback("exact", &calls))

	h := r.findCallbackHandler("button_text_custom")
	if h == nil {
		t.Fatal("expected a handler")
	}
	if err := h(nil); err != nil {
		t.Fatal(err)
	}
	if len(calls) != 1 || calls[0] != "exact" {
		t.Errorf("exact registration must win over the prefix, got %v", calls)
	}
}

func TestFindCallbackHandler_PrefixMatchesVariants(t *testing.T) {
	var calls []string

	r := NewRouter(nil, testLogger())
	r.RegisterCallback("button_text_", noopCallback("prefix", &calls))

	for _, data := range []string{"button_text_1", "button_text_2"} {
		h := r.findCallbackHandler(data)
		if h == nil {
			t.Fatalf("expected prefix handler for %q", data)
		}
	}
}

func TestFindCallbackHandler_NoBarePrefixMatch(t *testing.T) {
	var calls []string

	r := NewRouter(nil, testLogger())
	r.RegisterCallback("video_watched", noopCallback("exact", &calls))

	// A registration not ending in "_" is exact-only.
	if h := r.findCallbackHandler("video_watched_extra"); h != nil {
		t.Error("non-prefix registration must not match longer data")
	}
	if h := r.findCallbackHandler("unknown"); h != nil {
		t.Error("unexpected handler for unregistered data")
	}
}

func TestApplyMiddlewares_Order(t *testing.T) {
	var order []string

	mw := func(name string) handlers.Middleware {
		return func(next handlers.Handler) handlers.Handler {
			return func(c telebot.Context) error {
				order = append(order, name)
				return next(c)
			}
		}
	}

	r := NewRouter(nil, testLogger())
	r.Use(mw("outer"))
	r.Use(mw("inner"))

	h := r.applyMiddlewares(func(c telebot.Context) error {
		order = append(order, "handler")
		return nil
	})

	if err := h(nil); err != nil {
		t.Fatal(err)
	}

	want := []string{"outer", "inner", "handler"}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v, want %v", order, want)
		}
	}
}
