package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CamHV12/edupulse/internal/logx"
)

func TestReminderFor(t *testing.T) {
	m, err := ReminderFor("An", " an@school.vn ", "Bài 1")
	require.NoError(t, err)
	assert.Equal(t, "an@school.vn", m.To.Address)
	assert.Equal(t, "[EduPulse] Nhắc nhở hoàn thành bài tập: Bài 1", m.Subject)
	assert.True(t, strings.HasPrefix(m.Body, "Chào An,\n\n"))
	assert.Contains(t, m.Body, `cho bài tập "Bài 1".`)
	assert.True(t, strings.HasSuffix(m.Body, "Trân trọng,\nGiáo viên bộ môn."))

	_, err = ReminderFor("An", "", "Bài 1")
	assert.ErrorIs(t, err, ErrNoRecipient)
}

func TestMailtoURL(t *testing.T) {
	m := Message{To: mail.Address{Address: "an@school.vn"}, Subject: "Hi (you) & me", Body: "a b\nc"}
	got := MailtoURL(m)
	assert.Equal(t, "mailto:an@school.vn?subject=Hi%20(you)%20%26%20me&body=a%20b%0Ac", got)

	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "Hi (you) & me", u.Query().Get("subject"))
}

func TestEncodeURIComponentUTF8(t *testing.T) {
	assert.Equal(t, "B%C3%A0i", encodeURIComponent("Bài"))
	assert.Equal(t, "-_.!~*'()", encodeURIComponent("-_.!~*'()"))
}

type recordingSender struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (r *recordingSender) Send(_ context.Context, m Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, m)
	return r.err
}

func TestDispatcherIsFireAndForget(t *testing.T) {
	s := &recordingSender{err: errors.New("smtp down")}
	d := NewDispatcher(s, logx.Discard())
	m, _ := ReminderFor("An", "an@school.vn", "L1")

	d.Dispatch(m)
	d.Dispatch(m)
	d.Wait()
	assert.Len(t, s.sent, 2)
}

func TestSendGridSender(t *testing.T) {
	var got map[string]interface{}
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		auth = r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewSendGridSender("SG.key", mail.Address{Name: "EduPulse", Address: "no-reply@edupulse.vn"}).WithHost(srv.URL)
	m, _ := ReminderFor("An", "an@school.vn", "L1")
	require.NoError(t, s.Send(context.Background(), m))

	assert.Equal(t, "Bearer SG.key", auth)
	from := got["from"].(map[string]interface{})
	assert.Equal(t, "no-reply@edupulse.vn", from["email"])
	p := got["personalizations"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, m.Subject, p["subject"])
}

func TestSendGridSenderReportsRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad key"}]}`))
	}))
	defer srv.Close()

	s := NewSendGridSender("bad", mail.Address{Address: "x@y.z"}).WithHost(srv.URL)
	err := s.Send(context.Background(), Message{To: mail.Address{Address: "a@b.c"}, Subject: "s", Body: "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
