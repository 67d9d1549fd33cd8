package telegramnotifier_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	telegramnotifier "github.com/ark-network/raffle/internal/infrastructure/notifier/telegram"
	"github.com/stretchr/testify/require"
)

const token = "123456:TEST"

type botServer struct {
	lock     sync.Mutex
	messages []url.Values
}

func (b *botServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/getMe"):
		fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"raffle","username":"raffle_bot"}}`)
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		_ = r.ParseForm()
		b.lock.Lock()
		b.messages = append(b.messages, r.PostForm)
		id := len(b.messages)
		b.lock.Unlock()
		fmt.Fprintf(
			w, `{"ok":true,"result":{"message_id":%d,"date":0,"chat":{"id":%s,"type":"group"}}}`,
			id, r.PostForm.Get("chat_id"),
		)
	default:
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"ok":false,"error_code":404,"description":"Not Found"}`)
	}
}

// redirect sends every bot api call to the local test server.
type redirect struct {
	target *url.URL
}

func (r redirect) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = r.target.Scheme
	req.URL.Host = r.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

func TestNotifier(t *testing.T) {
	bot := &botServer{}
	server := httptest.NewServer(bot)
	defer server.Close()

	target, err := url.Parse(server.URL)
	require.NoError(t, err)
	client := &http.Client{Transport: redirect{target}}

	t.Run("valid", func(t *testing.T) {
		svc, err := telegramnotifier.NewNotifierWithClient(token, -100, client)
		require.NoError(t, err)

		ctx := context.Background()
		require.NoError(t, svc.Notify(ctx, nil, "*Winner* of round `r1`"))
		require.NoError(t, svc.Notify(ctx, int64(42), "hello"))
		require.NoError(t, svc.Notify(ctx, "7", "hello"))

		bot.lock.Lock()
		defer bot.lock.Unlock()
		require.Len(t, bot.messages, 3)
		require.Equal(t, "-100", bot.messages[0].Get("chat_id"))
		require.Equal(t, "Markdown", bot.messages[0].Get("parse_mode"))
		require.Equal(t, "*Winner* of round `r1`", bot.messages[0].Get("text"))
		require.Equal(t, "42", bot.messages[1].Get("chat_id"))
		require.Equal(t, "7", bot.messages[2].Get("chat_id"))
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := telegramnotifier.NewNotifierWithClient("", 0, client)
		require.EqualError(t, err, "missing telegram bot token")

		svc, err := telegramnotifier.NewNotifierWithClient(token, 0, client)
		require.NoError(t, err)

		ctx := context.Background()
		err = svc.Notify(ctx, nil, "hello")
		require.EqualError(t, err, "missing recipient and no default chat configured")

		err = svc.Notify(ctx, "abc", "hello")
		require.EqualError(t, err, "invalid chat id abc")

		err = svc.Notify(ctx, 1.5, "hello")
		require.EqualError(t, err, "invalid recipient type float64")
	})
}
