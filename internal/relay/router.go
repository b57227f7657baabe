package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/edgard/relaybot/internal/config"
	"github.com/edgard/relaybot/internal/database"
)

// Router carries messages between end users and the administrator and
// implements the administrator's commands.
type Router struct {
	adminID    int64
	relayCfg   config.RelayConfig
	msgs       config.MessagesConfig
	store      database.Store
	identities *Identities
	filter     *Filter
	blocks     *Blocks
	transport  Transport
	recent     *LastMessages
	logger     *slog.Logger
}

// NewRouter wires a Router from configuration, a store and a transport.
func NewRouter(cfg *config.Config, store database.Store, transport Transport, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Router{
		adminID:    cfg.Telegram.AdminID,
		relayCfg:   cfg.Relay,
		msgs:       cfg.Messages,
		store:      store,
		identities: NewIdentities(store, cfg.Relay.StoreTimeout),
		filter:     NewFilter(cfg.Relay.AllowedDocumentExtensions),
		blocks:     NewBlocks(store, cfg.Relay.StoreTimeout),
		transport:  transport,
		recent:     NewLastMessages(cfg.Relay.LastMessageCacheSize),
		logger:     logger.With("component", "router"),
	}
}

// Start greets chatID: the welcome text on first contact, a shorter notice afterwards.
func (r *Router) Start(ctx context.Context, chatID int64) error {
	user, err := r.identities.ResolveOrCreate(ctx, chatID)
	if err != nil {
		return fmt.Errorf("failed to resolve chat %d: %w", chatID, err)
	}

	if !user.FirstContact {
		return r.send(ctx, chatID, r.msgs.WelcomeBack)
	}

	if err := r.send(ctx, chatID, r.msgs.Welcome); err != nil {
		return err
	}
	if err := r.identities.MarkStarted(ctx, chatID); err != nil {
		return fmt.Errorf("failed to mark chat %d started: %w", chatID, err)
	}
	return nil
}

// HandleInbound runs one end-user message through the relay pipeline.
// A returned error means the event was not relayed and the sender should be
// told so; rejections and blocks are not errors.
func (r *Router) HandleInbound(ctx context.Context, ev Event) error {
	log := r.logger.With("chat_id", ev.ChatID)

	user, err := r.identities.ResolveOrCreate(ctx, ev.ChatID)
	if err != nil {
		return fmt.Errorf("failed to resolve chat %d: %w", ev.ChatID, err)
	}
	alias := user.DisplayAlias()
	log = log.With("user_id", user.ID, "alias", alias)

	raw := ev.Text
	if raw == "" {
		raw = r.msgs.NoText
	}
	if r.recent.Remember(ev.ChatID, raw) {
		log.DebugContext(ctx, "Sender repeated previous message")
	}
	username := ev.Username
	if username == "" {
		username = r.msgs.NoUsername
	}

	if err := r.save(ctx, &database.Message{
		UserID:    user.ID,
		Text:      database.NullString(raw),
		Direction: database.DirectionIn,
	}); err != nil {
		return err
	}

	if err := r.send(ctx, r.adminID, fmt.Sprintf(r.msgs.AdminRawFmt, ev.ChatID, username, raw)); err != nil {
		log.ErrorContext(ctx, "Failed to notify administrator", "error", err)
	}

	var classified database.Message
	classified.UserID = user.ID
	classified.Direction = database.DirectionIn
	classified.Text = database.NullString(ev.Body())

	if att := ev.Attachment; att != nil {
		if err := r.filter.Check(att.Kind, att.Filename); err != nil {
			log.InfoContext(ctx, "Attachment rejected", "kind", att.Kind, "filename", att.Filename, "reason", err)
			reply := r.msgs.UnsupportedType
			if errors.Is(err, ErrExtensionNotAllowed) {
				reply = r.msgs.ExtensionNotAllowed
			}
			if err := r.send(ctx, ev.ChatID, reply); err != nil {
				log.ErrorContext(ctx, "Failed to send rejection", "error", err)
			}
			return nil
		}
		classified.FileID = database.NullString(att.FileID)
		classified.Kind = database.NullString(string(att.Kind))
		classified.Filename = database.NullString(att.Filename)
	}

	if err := r.save(ctx, &classified); err != nil {
		return err
	}

	blocked, err := r.blocks.IsBlocked(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to check block for user %d: %w", user.ID, err)
	}
	if blocked {
		log.InfoContext(ctx, "Message from blocked user stored but not relayed", "message_id", classified.ID)
		return nil
	}

	r.forward(ctx, log, alias, ev)

	if err := r.send(ctx, ev.ChatID, r.msgs.Delivered); err != nil {
		log.ErrorContext(ctx, "Failed to acknowledge delivery", "error", err)
	}
	return nil
}

// forward relays an admitted event to the administrator. Failures are logged only.
func (r *Router) forward(ctx context.Context, log *slog.Logger, alias string, ev Event) {
	notice := fmt.Sprintf(r.msgs.AdminForwardFmt, alias) + ev.Body()
	if err := r.send(ctx, r.adminID, notice); err != nil {
		log.ErrorContext(ctx, "Failed to forward message to administrator", "error", err)
	}

	if ev.Attachment == nil {
		return
	}
	var caption string
	if ev.Attachment.Kind == database.KindPhoto {
		caption = fmt.Sprintf(r.msgs.AdminPhotoCaptionFmt, alias)
	}
	if err := r.sendAttachment(ctx, r.adminID, *ev.Attachment, caption); err != nil {
		log.ErrorContext(ctx, "Failed to forward attachment to administrator", "kind", ev.Attachment.Kind, "error", err)
	}
}

func (r *Router) send(ctx context.Context, chatID int64, text string) error {
	ctx, cancel := bounded(ctx, r.relayCfg.SendTimeout)
	defer cancel()
	return r.transport.SendText(ctx, chatID, text)
}

func (r *Router) sendAttachment(ctx context.Context, chatID int64, att Attachment, caption string) error {
	ctx, cancel := bounded(ctx, r.relayCfg.SendTimeout)
	defer cancel()
	return r.transport.SendAttachment(ctx, chatID, att, caption)
}

func (r *Router) save(ctx context.Context, msg *database.Message) error {
	ctx, cancel := bounded(ctx, r.relayCfg.StoreTimeout)
	defer cancel()
	if err := r.store.SaveMessage(ctx, msg); err != nil {
		return fmt.Errorf("failed to save message for user %d: %w", msg.UserID, err)
	}
	return nil
}

// lookup resolves alias, mapping an unknown alias to ErrUserNotFound.
func (r *Router) lookup(ctx context.Context, alias string) (*database.User, error) {
	user, err := r.identities.LookupByAlias(ctx, alias)
	if err != nil {
		return nil, fmt.Errorf("failed to look up alias %q: %w", alias, err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
