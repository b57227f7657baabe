package relay_test

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/edgard/relaybot/internal/config"
	"github.com/edgard/relaybot/internal/database"
	"github.com/edgard/relaybot/internal/relay"
)

const adminID = 100

type delivery struct {
	chatID  int64
	text    string
	att     *relay.Attachment
	caption string
}

type fakeTransport struct {
	mu        sync.Mutex
	delivered []delivery
	failChats map[int64]bool
}

func (f *fakeTransport) SendText(_ context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failChats[chatID] {
		return errors.New("chat unreachable")
	}
	f.delivered = append(f.delivered, delivery{chatID: chatID, text: text})
	return nil
}

func (f *fakeTransport) SendAttachment(_ context.Context, chatID int64, att relay.Attachment, caption string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failChats[chatID] {
		return errors.New("chat unreachable")
	}
	f.delivered = append(f.delivered, delivery{chatID: chatID, att: &att, caption: caption})
	return nil
}

func (f *fakeTransport) to(chatID int64) []delivery {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []delivery
	for _, d := range f.delivered {
		if d.chatID == chatID {
			out = append(out, d)
		}
	}
	return out
}

func (f *fakeTransport) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delivered = nil
}

type fixture struct {
	cfg       *config.Config
	store     database.Store
	transport *fakeTransport
	router    *relay.Router
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "relay.db"))
	if err != nil {
		t.Fatalf("NewDB() error = %v", err)
	}
	t.Cleanup(func() { database.CloseDB(db) })

	cfg := config.Defaults()
	cfg.Telegram.AdminID = adminID
	cfg.Telegram.Token = "test"

	store := database.NewStore(db, nil)
	transport := &fakeTransport{failChats: map[int64]bool{}}
	return &fixture{
		cfg:       cfg,
		store:     store,
		transport: transport,
		router:    relay.NewRouter(cfg, store, transport, nil),
	}
}

func (f *fixture) inbound(t *testing.T, ev relay.Event) {
	t.Helper()
	if err := f.router.HandleInbound(context.Background(), ev); err != nil {
		t.Fatalf("HandleInbound() error = %v", err)
	}
}

func (f *fixture) user(t *testing.T, chatID int64) *database.User {
	t.Helper()
	u, err := f.store.GetUserByChatID(context.Background(), chatID)
	if err != nil || u == nil {
		t.Fatalf("GetUserByChatID(%d) = %v, %v", chatID, u, err)
	}
	return u
}

func (f *fixture) messages(t *testing.T) []database.InboxEntry {
	t.Helper()
	entries, err := f.store.GetRecentMessages(context.Background(), 1000)
	if err != nil {
		t.Fatalf("GetRecentMessages() error = %v", err)
	}
	slices.Reverse(entries)
	return entries
}

func TestHandleInboundText(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.inbound(t, relay.Event{ChatID: 555, Username: "kate", Text: "hello"})

	user := f.user(t, 555)
	alias := user.Alias.String

	admin := f.transport.to(adminID)
	if len(admin) != 2 {
		t.Fatalf("administrator got %d deliveries, want 2: %+v", len(admin), admin)
	}
	if admin[0].text != "New message from 555 | kate: hello" {
		t.Errorf("raw notification = %q", admin[0].text)
	}
	if want := "New message from " + alias + " (anonymously):\nhello"; admin[1].text != want {
		t.Errorf("forward = %q, want %q", admin[1].text, want)
	}
	if strings.Contains(admin[1].text, "555") {
		t.Errorf("anonymous forward leaks chat id: %q", admin[1].text)
	}

	sender := f.transport.to(555)
	if len(sender) != 1 || sender[0].text != f.cfg.Messages.Delivered {
		t.Errorf("sender deliveries = %+v, want acknowledgment", sender)
	}

	msgs := f.messages(t)
	if len(msgs) != 2 {
		t.Fatalf("stored %d messages, want raw and classified", len(msgs))
	}
	for _, m := range msgs {
		if m.Direction != database.DirectionIn || m.Text.String != "hello" || m.Kind.Valid {
			t.Errorf("stored message = %+v", m.Message)
		}
	}
}

func TestHandleInboundPhotoWithCaption(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.inbound(t, relay.Event{
		ChatID:     7,
		Caption:    "look",
		Attachment: &relay.Attachment{Kind: database.KindPhoto, FileID: "photo-big"},
	})
	alias := f.user(t, 7).Alias.String

	admin := f.transport.to(adminID)
	if len(admin) != 3 {
		t.Fatalf("administrator got %d deliveries, want 3: %+v", len(admin), admin)
	}
	if admin[0].text != "New message from 7 | <without username>: <no text>" {
		t.Errorf("raw notification = %q", admin[0].text)
	}
	if !strings.HasSuffix(admin[1].text, "look") {
		t.Errorf("forward = %q, want caption appended", admin[1].text)
	}
	if admin[2].att == nil || admin[2].att.FileID != "photo-big" || admin[2].caption != "From "+alias {
		t.Errorf("forwarded attachment = %+v", admin[2])
	}

	msgs := f.messages(t)
	if len(msgs) != 2 {
		t.Fatalf("stored %d messages, want 2", len(msgs))
	}
	if msgs[0].Text.String != "<no text>" || msgs[0].Kind.Valid {
		t.Errorf("raw row = %+v", msgs[0].Message)
	}
	if msgs[1].Text.String != "look" || msgs[1].Kind.String != "photo" || msgs[1].FileID.String != "photo-big" {
		t.Errorf("classified row = %+v", msgs[1].Message)
	}
}

func TestHandleInboundRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		att   relay.Attachment
		reply func(*config.Config) string
	}{
		{
			name:  "unsupported kind",
			att:   relay.Attachment{Kind: "animation", FileID: "gif"},
			reply: func(c *config.Config) string { return c.Messages.UnsupportedType },
		},
		{
			name:  "disallowed extension",
			att:   relay.Attachment{Kind: database.KindDocument, FileID: "doc", Filename: "tool.exe"},
			reply: func(c *config.Config) string { return c.Messages.ExtensionNotAllowed },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			att := tt.att

			f.inbound(t, relay.Event{ChatID: 9, Attachment: &att})

			sender := f.transport.to(9)
			if len(sender) != 1 || sender[0].text != tt.reply(f.cfg) {
				t.Errorf("sender deliveries = %+v, want %q", sender, tt.reply(f.cfg))
			}
			if admin := f.transport.to(adminID); len(admin) != 1 {
				t.Errorf("administrator got %d deliveries, want only the raw notification", len(admin))
			}
			msgs := f.messages(t)
			if len(msgs) != 1 {
				t.Fatalf("stored %d messages, want only the raw row", len(msgs))
			}
			if msgs[0].Kind.Valid || msgs[0].FileID.Valid {
				t.Errorf("rejected attachment persisted: %+v", msgs[0].Message)
			}
		})
	}
}

func TestHandleInboundBlockedUser(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	f.inbound(t, relay.Event{ChatID: 31, Text: "first"})
	alias := f.user(t, 31).Alias.String
	if _, err := f.router.Block(ctx, alias, "spam"); err != nil {
		t.Fatalf("Block() error = %v", err)
	}
	f.transport.reset()

	f.inbound(t, relay.Event{ChatID: 31, Text: "second"})

	if sender := f.transport.to(31); len(sender) != 0 {
		t.Errorf("blocked sender got %+v, want silence", sender)
	}
	admin := f.transport.to(adminID)
	if len(admin) != 1 || !strings.Contains(admin[0].text, "second") {
		t.Errorf("administrator deliveries = %+v, want raw notification only", admin)
	}
	if got := len(f.messages(t)); got != 4 {
		t.Errorf("stored %d messages, want 4", got)
	}

	if _, err := f.router.Unblock(ctx, alias); err != nil {
		t.Fatalf("Unblock() error = %v", err)
	}
	f.transport.reset()
	f.inbound(t, relay.Event{ChatID: 31, Text: "third"})
	if sender := f.transport.to(31); len(sender) != 1 {
		t.Errorf("unblocked sender got %d deliveries, want acknowledgment", len(sender))
	}
}

func TestHandleInboundAdminUnreachable(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.transport.failChats[adminID] = true

	f.inbound(t, relay.Event{ChatID: 12, Text: "anyone?"})

	sender := f.transport.to(12)
	if len(sender) != 1 || sender[0].text != f.cfg.Messages.Delivered {
		t.Errorf("sender deliveries = %+v, want acknowledgment despite admin failure", sender)
	}
}

func TestStart(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	for range 2 {
		if err := f.router.Start(ctx, 44); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
	}

	got := f.transport.to(44)
	if len(got) != 2 {
		t.Fatalf("got %d greetings, want 2", len(got))
	}
	if got[0].text != f.cfg.Messages.Welcome || got[1].text != f.cfg.Messages.WelcomeBack {
		t.Errorf("greetings = %q, %q", got[0].text, got[1].text)
	}
}

func TestReply(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	if err := f.router.Reply(ctx, "User#999", "hi"); !errors.Is(err, relay.ErrUserNotFound) {
		t.Errorf("Reply(unknown) error = %v, want ErrUserNotFound", err)
	}
	if got := len(f.messages(t)); got != 0 {
		t.Errorf("stored %d messages after failed reply, want 0", got)
	}

	f.inbound(t, relay.Event{ChatID: 50, Text: "question"})
	alias := f.user(t, 50).Alias.String
	f.transport.reset()

	if err := f.router.Reply(ctx, alias, "answer"); err != nil {
		t.Fatalf("Reply() error = %v", err)
	}
	if got := f.transport.to(50); len(got) != 1 || got[0].text != "answer" {
		t.Errorf("user deliveries = %+v", got)
	}
	msgs := f.messages(t)
	if last := msgs[len(msgs)-1]; last.Direction != database.DirectionOut || last.Text.String != "answer" {
		t.Errorf("last stored message = %+v, want outgoing answer", last.Message)
	}

	f.transport.failChats[50] = true
	if err := f.router.Reply(ctx, alias, "again"); !errors.Is(err, relay.ErrDeliveryFailed) {
		t.Errorf("Reply() to unreachable chat error = %v, want ErrDeliveryFailed", err)
	}
}

func TestSendFileScopedToOwner(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	f.inbound(t, relay.Event{ChatID: 1, Attachment: &relay.Attachment{Kind: database.KindDocument, FileID: "a-doc", Filename: "a.pdf"}})
	f.inbound(t, relay.Event{ChatID: 2, Attachment: &relay.Attachment{Kind: database.KindPhoto, FileID: "b-photo"}})
	f.inbound(t, relay.Event{ChatID: 2, Text: "plain"})
	aliceAlias := f.user(t, 1).Alias.String
	bobAlias := f.user(t, 2).Alias.String

	var aliceDoc, bobPhoto, bobText int64
	for _, m := range f.messages(t) {
		switch {
		case m.FileID.String == "a-doc":
			aliceDoc = m.ID
		case m.FileID.String == "b-photo":
			bobPhoto = m.ID
		case m.Text.String == "plain" && m.UserID == f.user(t, 2).ID:
			bobText = m.ID
		}
	}
	f.transport.reset()

	if err := f.router.SendFile(ctx, aliceAlias, bobPhoto); !errors.Is(err, relay.ErrMessageNotFound) {
		t.Errorf("SendFile(foreign message) error = %v, want ErrMessageNotFound", err)
	}
	if err := f.router.SendFile(ctx, bobAlias, bobText); !errors.Is(err, relay.ErrUnsupportedKind) {
		t.Errorf("SendFile(text message) error = %v, want ErrUnsupportedKind", err)
	}
	if err := f.router.SendFile(ctx, "nobody", aliceDoc); !errors.Is(err, relay.ErrUserNotFound) {
		t.Errorf("SendFile(unknown alias) error = %v, want ErrUserNotFound", err)
	}
	if len(f.transport.delivered) != 0 {
		t.Fatalf("failed sends delivered %+v", f.transport.delivered)
	}

	if err := f.router.SendFile(ctx, bobAlias, bobPhoto); err != nil {
		t.Fatalf("SendFile() error = %v", err)
	}
	got := f.transport.to(2)
	if len(got) != 1 || got[0].att == nil || got[0].att.FileID != "b-photo" || got[0].caption != f.cfg.Messages.OutgoingPhotoCaption {
		t.Errorf("user deliveries = %+v", got)
	}

	msgs := f.messages(t)
	audit := msgs[len(msgs)-1]
	if audit.Direction != database.DirectionOut || audit.FileID.String != "b-photo" || !strings.Contains(audit.Text.String, "file sent") {
		t.Errorf("audit row = %+v", audit.Message)
	}
}

func TestInbox(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	chunks, err := f.router.Inbox(ctx)
	if err != nil {
		t.Fatalf("Inbox() error = %v", err)
	}
	if got := slices.Collect(chunks); len(got) != 1 || got[0] != f.cfg.Messages.NoMessages {
		t.Errorf("empty inbox = %q", got)
	}

	long := strings.Repeat("z", 1000)
	for range 20 {
		f.inbound(t, relay.Event{ChatID: 3, Text: long})
	}
	f.inbound(t, relay.Event{ChatID: 4, Text: "newest"})

	chunks, err = f.router.Inbox(ctx)
	if err != nil {
		t.Fatalf("Inbox() error = %v", err)
	}
	got := slices.Collect(chunks)
	if len(got) < 2 {
		t.Fatalf("inbox produced %d chunks, want several", len(got))
	}
	if !strings.Contains(got[0], "newest") {
		t.Errorf("first chunk does not start with the newest message: %q", got[0][:80])
	}

	entries := 0
	for _, c := range got {
		if n := len([]rune(c)); n > f.cfg.Relay.InboxChunkSize {
			t.Errorf("chunk has %d runes, over budget", n)
		}
		if strings.Contains(c, strings.Repeat("z", 301)) {
			t.Errorf("inbox text not truncated to 300 runes")
		}
		entries += strings.Count(c, "----\n")
	}
	if entries != f.cfg.Relay.InboxLimit {
		t.Errorf("inbox listed %d entries, want %d", entries, f.cfg.Relay.InboxLimit)
	}
}

func TestRename(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	f.inbound(t, relay.Event{ChatID: 1, Text: "a"})
	f.inbound(t, relay.Event{ChatID: 2, Text: "b"})
	first := f.user(t, 1).Alias.String
	second := f.user(t, 2).Alias.String

	if _, err := f.router.Rename(ctx, first, "vip"); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	if _, err := f.router.Rename(ctx, second, "vip"); !errors.Is(err, relay.ErrAliasTaken) {
		t.Errorf("Rename() to taken alias error = %v, want ErrAliasTaken", err)
	}
	if _, err := f.router.Rename(ctx, second, "User#12345"); !errors.Is(err, relay.ErrInvalidAlias) {
		t.Errorf("Rename() to reserved alias error = %v, want ErrInvalidAlias", err)
	}
	if _, err := f.router.Rename(ctx, first, "x"); !errors.Is(err, relay.ErrUserNotFound) {
		t.Errorf("Rename() of old alias error = %v, want ErrUserNotFound", err)
	}

	if err := f.router.Reply(ctx, "vip", "renamed"); err != nil {
		t.Errorf("Reply() to new alias error = %v", err)
	}
}

func TestBlockedList(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	f.inbound(t, relay.Event{ChatID: 8, Text: "x"})
	alias := f.user(t, 8).Alias.String

	if _, err := f.router.Block(ctx, "missing", ""); !errors.Is(err, relay.ErrUserNotFound) {
		t.Errorf("Block(missing) error = %v, want ErrUserNotFound", err)
	}
	for range 2 {
		if _, err := f.router.Block(ctx, alias, "flood"); err != nil {
			t.Fatalf("Block() error = %v", err)
		}
	}

	blocks, err := f.router.Blocked(ctx)
	if err != nil {
		t.Fatalf("Blocked() error = %v", err)
	}
	if len(blocks) != 1 || blocks[0].Alias.String != alias || blocks[0].Reason.String != "flood" {
		t.Errorf("Blocked() = %+v", blocks)
	}
}

// countingStore records how often a user row is written.
type countingStore struct {
	database.Store
	creates int
}

func (c *countingStore) GetOrCreateUser(ctx context.Context, chatID int64) (*database.User, error) {
	c.creates++
	return c.Store.GetOrCreateUser(ctx, chatID)
}

func TestResolveOrCreateReadsKnownUsers(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	store := &countingStore{Store: f.store}
	ids := relay.NewIdentities(store, f.cfg.Relay.StoreTimeout)
	ctx := context.Background()

	first, err := ids.ResolveOrCreate(ctx, 55)
	if err != nil {
		t.Fatalf("ResolveOrCreate() error = %v", err)
	}
	again, err := ids.ResolveOrCreate(ctx, 55)
	if err != nil {
		t.Fatalf("ResolveOrCreate() second call error = %v", err)
	}

	if first.ID != again.ID || first.Alias.String != again.Alias.String {
		t.Errorf("second resolve = %+v, want %+v", again, first)
	}
	if store.creates != 1 {
		t.Errorf("GetOrCreateUser called %d times, want 1", store.creates)
	}
}
