package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dipwatch/dipwatch/pkg/config"
	"github.com/dipwatch/dipwatch/pkg/httputil"
	"github.com/dipwatch/dipwatch/pkg/logger"
)

func newTwilio(t *testing.T, handler http.HandlerFunc) *TwilioMessenger {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{Env: "test", LogLevel: "error"}
	log := logger.New(cfg)

	return NewTwilioMessenger(config.TwilioConfig{
		AccountSID: "AC123",
		AuthToken:  "secret",
		FromNumber: "+15550001111",
		BaseURL:    server.URL,
	}, httputil.New(cfg, log).DisableRetry(), log)
}

func TestSendPostsFormAndReturnsSID(t *testing.T) {
	var gotPath, gotTo, gotFrom, gotBody string
	var gotUser, gotPass string

	messenger := newTwilio(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		require.NoError(t, r.ParseForm())
		gotTo = r.PostFormValue("To")
		gotFrom = r.PostFormValue("From")
		gotBody = r.PostFormValue("Body")

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid": "SM999", "status": "queued"}`))
	})

	sid, err := messenger.Send(context.Background(), "+15557654321", "hello")
	require.NoError(t, err)

	assert.Equal(t, "SM999", sid)
	assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", gotPath)
	assert.Equal(t, "AC123", gotUser)
	assert.Equal(t, "secret", gotPass)
	assert.Equal(t, "+15557654321", gotTo)
	assert.Equal(t, "+15550001111", gotFrom)
	assert.Equal(t, "hello", gotBody)
}

func TestSendTruncatesLongBodies(t *testing.T) {
	var gotBody string
	messenger := newTwilio(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotBody = r.PostFormValue("Body")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid": "SM1"}`))
	})

	_, err := messenger.Send(context.Background(), "+15557654321", strings.Repeat("x", 2000))
	require.NoError(t, err)

	assert.Len(t, gotBody, MaxMessageLength)
	assert.True(t, strings.HasSuffix(gotBody, "..."))
}

func TestSendSurfacesAPIErrors(t *testing.T) {
	messenger := newTwilio(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message": "The 'To' number is not a valid phone number."}`))
	})

	_, err := messenger.Send(context.Background(), "bogus", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a valid phone number")
}

func TestTruncateShortBodyUnchanged(t *testing.T) {
	assert.Equal(t, "short", Truncate("short"))
}

func TestTruncateKeepsRuneBoundaries(t *testing.T) {
	// 4-byte emoji do not divide MaxMessageLength-3 evenly, so a byte
	// cut would split one mid-sequence.
	body := strings.Repeat("📉", 500)

	got := Truncate(body)
	assert.LessOrEqual(t, len(got), MaxMessageLength)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.True(t, utf8.ValidString(got))
}

func TestLogMessengerAcceptsEverything(t *testing.T) {
	cfg := &config.Config{Env: "test", LogLevel: "error"}
	m := NewLogMessenger(logger.New(cfg))

	id1, err := m.Send(context.Background(), "+1555", "one")
	require.NoError(t, err)
	id2, err := m.Send(context.Background(), "+1555", "two")
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2)
}
