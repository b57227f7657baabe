package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-telegram/bot"

	"github.com/edgard/relaybot/internal/database"
	"github.com/edgard/relaybot/internal/relay"
)

const testToken = "123456:test-token"

// fakeBotAPI serves the few Bot API methods the transport uses.
type fakeBotAPI struct {
	mu      sync.Mutex
	methods []string
	forms   []map[string]string
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	prefix := "/bot" + testToken + "/"
	filePrefix := "/file/bot" + testToken + "/"

	switch {
	case strings.HasPrefix(r.URL.Path, filePrefix):
		if strings.TrimPrefix(r.URL.Path, filePrefix) != "documents/file_1.pdf" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, "%PDF-1.4 quarantined")

	case strings.HasPrefix(r.URL.Path, prefix):
		method := strings.TrimPrefix(r.URL.Path, prefix)
		_ = r.ParseMultipartForm(1 << 20)
		form := map[string]string{}
		for k, v := range r.Form {
			form[k] = v[0]
		}
		f.mu.Lock()
		f.methods = append(f.methods, method)
		f.forms = append(f.forms, form)
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch method {
		case "getFile":
			if form["file_id"] == "missing" {
				_, _ = io.WriteString(w, `{"ok":false,"error_code":400,"description":"Bad Request: invalid file_id"}`)
				return
			}
			_, _ = io.WriteString(w, `{"ok":true,"result":{"file_id":"f","file_unique_id":"u","file_path":"documents/file_1.pdf"}}`)
		default:
			_, _ = fmt.Fprintf(w, `{"ok":true,"result":{"message_id":1,"date":1,"chat":{"id":%s,"type":"private"}}}`, form["chat_id"])
		}

	default:
		http.NotFound(w, r)
	}
}

func newTestTransport(t *testing.T) (*Transport, *fakeBotAPI) {
	t.Helper()

	api := &fakeBotAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	b, err := bot.New(testToken, bot.WithServerURL(srv.URL), bot.WithSkipGetMe())
	if err != nil {
		t.Fatalf("bot.New() error = %v", err)
	}
	return NewTransport(b, testToken, nil, WithServerURL(srv.URL), WithHTTPClient(srv.Client())), api
}

func TestTransportSendAttachmentMethod(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind       database.AttachmentKind
		wantMethod string
		wantField  string
	}{
		{kind: database.KindPhoto, wantMethod: "sendPhoto", wantField: "photo"},
		{kind: database.KindDocument, wantMethod: "sendDocument", wantField: "document"},
		{kind: database.KindAudio, wantMethod: "sendAudio", wantField: "audio"},
		{kind: database.KindVoice, wantMethod: "sendVoice", wantField: "voice"},
		{kind: database.KindVideo, wantMethod: "sendVideo", wantField: "video"},
		{kind: database.KindSticker, wantMethod: "sendSticker", wantField: "sticker"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			t.Parallel()
			tr, api := newTestTransport(t)

			err := tr.SendAttachment(context.Background(), 42, relay.Attachment{Kind: tt.kind, FileID: "file-xyz"}, "cap")
			if err != nil {
				t.Fatalf("SendAttachment() error = %v", err)
			}
			if len(api.methods) != 1 || api.methods[0] != tt.wantMethod {
				t.Fatalf("called %v, want [%s]", api.methods, tt.wantMethod)
			}
			if got := api.forms[0][tt.wantField]; got != "file-xyz" {
				t.Errorf("%s = %q, want file id", tt.wantField, got)
			}
			if got := api.forms[0]["chat_id"]; got != "42" {
				t.Errorf("chat_id = %q, want 42", got)
			}
		})
	}
}

func TestTransportDocumentCaption(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		att     relay.Attachment
		caption string
		want    string
	}{
		{name: "filename fills empty caption", att: relay.Attachment{Kind: database.KindDocument, FileID: "d", Filename: "report.pdf"}, want: "report.pdf"},
		{name: "explicit caption kept", att: relay.Attachment{Kind: database.KindDocument, FileID: "d", Filename: "report.pdf"}, caption: "from bob", want: "from bob"},
		{name: "no filename", att: relay.Attachment{Kind: database.KindDocument, FileID: "d"}, want: ""},
		{name: "audio ignores filename", att: relay.Attachment{Kind: database.KindAudio, FileID: "a", Filename: "song.mp3"}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tr, api := newTestTransport(t)

			if err := tr.SendAttachment(context.Background(), 42, tt.att, tt.caption); err != nil {
				t.Fatalf("SendAttachment() error = %v", err)
			}
			if got := api.forms[0]["caption"]; got != tt.want {
				t.Errorf("caption = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTransportRejectsUnknownKind(t *testing.T) {
	t.Parallel()
	tr, api := newTestTransport(t)

	err := tr.SendAttachment(context.Background(), 1, relay.Attachment{Kind: KindAnimation, FileID: "gif"}, "")
	if !errors.Is(err, relay.ErrUnsupportedKind) {
		t.Errorf("SendAttachment(animation) error = %v, want ErrUnsupportedKind", err)
	}
	if len(api.methods) != 0 {
		t.Errorf("unexpected API calls %v", api.methods)
	}
}

func TestTransportSendText(t *testing.T) {
	t.Parallel()
	tr, api := newTestTransport(t)

	if err := tr.SendText(context.Background(), 7, "hello"); err != nil {
		t.Fatalf("SendText() error = %v", err)
	}
	if len(api.forms) != 1 || api.forms[0]["text"] != "hello" {
		t.Errorf("sendMessage forms = %v", api.forms)
	}
}

func TestTransportDownload(t *testing.T) {
	t.Parallel()
	tr, _ := newTestTransport(t)

	var buf bytes.Buffer
	n, err := tr.Download(context.Background(), "f", &buf)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if buf.String() != "%PDF-1.4 quarantined" || n != int64(buf.Len()) {
		t.Errorf("Download() wrote %d bytes %q", n, buf.String())
	}

	if _, err := tr.Download(context.Background(), "missing", &buf); err == nil {
		t.Errorf("Download(missing) error = nil, want error")
	}
	if _, err := tr.Download(context.Background(), "", &buf); err == nil {
		t.Errorf("Download(\"\") error = nil, want error")
	}
}

func TestTransportFetchHidesToken(t *testing.T) {
	t.Parallel()
	tr, _ := newTestTransport(t)

	_, err := tr.fetch(context.Background(), "documents/absent.bin", io.Discard)
	if err == nil {
		t.Fatal("fetch() error = nil, want status error")
	}
	if strings.Contains(err.Error(), testToken) {
		t.Errorf("fetch() error leaks token: %v", err)
	}

	tr.serverURL = "http://127.0.0.1:1"
	_, err = tr.fetch(context.Background(), "documents/file_1.pdf", io.Discard)
	if err == nil {
		t.Fatal("fetch() error = nil, want connection error")
	}
	if strings.Contains(err.Error(), testToken) {
		t.Errorf("fetch() error leaks token: %v", err)
	}
}
