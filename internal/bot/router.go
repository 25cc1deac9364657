// Package bot contains the intent router: it classifies inbound chat events
// into commands, guided-dialog steps, moderated text, or free-text title
// searches, and drives every reply through the chat transport. All state the
// router touches is owned by injected services, so handlers stay testable.
package bot

import (
	"context"
	"errors"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-movie-bot/internal/omdb"
	"github.com/tbourn/go-movie-bot/internal/quota"
	"github.com/tbourn/go-movie-bot/internal/registry"
)

// Metadata is the slice of the provider client the router consumes.
type Metadata interface {
	LookupMovie(ctx context.Context, title string) (omdb.Title, error)
	LookupSeries(ctx context.Context, title string) (omdb.Title, error)
	LookupSeason(ctx context.Context, seriesTitle string, season int) (omdb.Season, error)
	QuotaSnapshot() quota.Snapshot
	CacheLen() int
	ClearCache() int
}

// Recommender produces similar-title lists for the wizard and /recommend.
type Recommender interface {
	Recommend(ctx context.Context, title, mediaType string) ([]string, error)
	ByGenre(ctx context.Context, genre, mediaType string) ([]string, error)
}

// Moderator is the filter-word service.
type Moderator interface {
	Match(text string) (string, bool)
	Add(word string) (bool, error)
	Words() []string
	Reload() (int, error)
}

// URLShortener shortens poster links, falling back to the original URL.
type URLShortener interface {
	Shorten(ctx context.Context, u string) string
}

// Delays groups the auto-deletion delays per reply category.
type Delays struct {
	Search time.Duration
	Info   time.Duration
	Notice time.Duration
	Filter time.Duration
}

// Options carries the router's static wiring.
type Options struct {
	OperatorID int64
	Username   string // bot username, without the leading @
	Delays     Delays
	DialogTTL  time.Duration
}

// Router dispatches inbound updates.
type Router struct {
	m         Messenger
	meta      Metadata
	rec       Recommender
	mod       Moderator
	reg       *registry.Registry
	short     URLShortener
	sched     *Scheduler
	dialogs   *Dialogs
	opts      Options
	startedAt time.Time
}

// NewRouter wires the router with its collaborating services.
func NewRouter(m Messenger, meta Metadata, rec Recommender, mod Moderator, reg *registry.Registry, short URLShortener, opts Options) *Router {
	return &Router{
		m:         m,
		meta:      meta,
		rec:       rec,
		mod:       mod,
		reg:       reg,
		short:     short,
		sched:     NewScheduler(),
		dialogs:   NewDialogs(opts.DialogTTL),
		opts:      opts,
		startedAt: time.Now(),
	}
}

// Shutdown drains pending deletion timers.
func (r *Router) Shutdown() { r.sched.Stop() }

// seasonPattern extracts "<series name> season <number>" from free text.
var seasonPattern = regexp.MustCompile(`(?i)^(.+?)\s+season\s+(\d+)\s*$`)

// HandleUpdate processes one inbound update to completion. A panic in any
// handler is recovered so one malformed event degrades to an apology instead
// of taking the process down.
func (r *Router) HandleUpdate(ctx context.Context, u *gotgbot.Update) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Int64("update_id", u.UpdateId).Msg("handler panicked")
			if u.Message != nil {
				r.reply(ctx, u.Message, msgApology, nil, r.opts.Delays.Notice)
			}
		}
	}()

	switch {
	case u.MyChatMember != nil:
		updatesTotal.WithLabelValues("membership").Inc()
		r.handleMembership(u.MyChatMember)
	case u.Message != nil:
		updatesTotal.WithLabelValues("message").Inc()
		r.handleMessage(ctx, u.Message)
	default:
		updatesTotal.WithLabelValues("other").Inc()
	}
}

// handleMembership records chats the bot was added to.
func (r *Router) handleMembership(ev *gotgbot.ChatMemberUpdated) {
	switch ev.NewChatMember.GetStatus() {
	case "member", "administrator", "creator":
	default:
		return
	}
	added, err := r.reg.ObserveChat(ev.Chat.Id, ev.Chat.Type)
	if err != nil {
		log.Error().Err(err).Int64("chat_id", ev.Chat.Id).Msg("failed to persist chat registry")
		return
	}
	if added {
		log.Info().Int64("chat_id", ev.Chat.Id).Str("type", ev.Chat.Type).Msg("joined new chat")
	}
}

func (r *Router) handleMessage(ctx context.Context, msg *gotgbot.Message) {
	if _, err := r.reg.ObserveChat(msg.Chat.Id, msg.Chat.Type); err != nil {
		log.Error().Err(err).Int64("chat_id", msg.Chat.Id).Msg("failed to persist chat registry")
	}
	if msg.From != nil {
		r.reg.Touch(msg.From.Id)
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}
	if strings.HasPrefix(text, "/") {
		r.handleCommand(ctx, msg, text)
		return
	}
	r.handleText(ctx, msg, text)
}

// handleText runs the non-command pipeline: moderation first, then any
// active dialog step, then the season pattern, then the movie-to-series
// lookup fallback.
func (r *Router) handleText(ctx context.Context, msg *gotgbot.Message, text string) {
	if word, hit := r.mod.Match(text); hit {
		r.removeFiltered(ctx, msg, word)
		return
	}

	if msg.From != nil {
		state, mediaType := r.dialogs.Get(msg.Chat.Id, msg.From.Id)
		if state != StateIdle {
			r.handleDialogStep(ctx, msg, state, mediaType, text)
			return
		}
	}

	if m := seasonPattern.FindStringSubmatch(text); m != nil {
		season, err := strconv.Atoi(m[2])
		if err == nil {
			r.replySeason(ctx, msg, strings.TrimSpace(m[1]), season)
			return
		}
	}

	r.replyTitleWithFallback(ctx, msg, text)
}

// removeFiltered deletes the offending message and posts a short-lived notice.
func (r *Router) removeFiltered(ctx context.Context, msg *gotgbot.Message, word string) {
	filterHitsTotal.Inc()
	log.Info().Int64("chat_id", msg.Chat.Id).Str("word", word).Msg("message removed by filter")
	if err := r.m.Delete(ctx, msg.Chat.Id, msg.MessageId); err != nil {
		log.Warn().Err(err).Msg("failed to delete filtered message")
	}
	noticeID, err := r.m.Send(ctx, msg.Chat.Id, msgFilterNotice, nil)
	if err != nil {
		log.Warn().Err(err).Msg("failed to post filter notice")
		return
	}
	r.scheduleDelete(msg.Chat.Id, noticeID, r.opts.Delays.Filter)
}

// handleDialogStep advances a guided dialog.
func (r *Router) handleDialogStep(ctx context.Context, msg *gotgbot.Message, state State, mediaType, text string) {
	userID := msg.From.Id
	defer dialogsActive.Set(float64(r.dialogs.Active()))

	switch state {
	case StateAwaitingBroadcast:
		r.finishBroadcast(ctx, msg, text)
		return

	case StateAwaitingMediaType:
		choice := strings.TrimSpace(text)
		if !strings.EqualFold(choice, mediaTypeChoices[0]) && !strings.EqualFold(choice, mediaTypeChoices[1]) {
			r.dialogs.Reset(msg.Chat.Id, userID)
			r.reply(ctx, msg, msgCancelled, &SendOptions{RemoveKeyboard: true}, r.opts.Delays.Notice)
			return
		}
		mt := omdb.TypeMovie
		if strings.EqualFold(choice, "Series") {
			mt = omdb.TypeSeries
		}
		r.dialogs.Set(msg.Chat.Id, userID, StateAwaitingGenre, mt)
		keyboard := append(rows(genreChoices, 2), []string{cancelChoice})
		r.reply(ctx, msg, msgAskGenre, &SendOptions{Keyboard: keyboard}, 0)
		return

	case StateAwaitingGenre:
		genre, valid := matchGenre(text)
		if !valid {
			r.dialogs.Reset(msg.Chat.Id, userID)
			r.reply(ctx, msg, msgCancelled, &SendOptions{RemoveKeyboard: true}, r.opts.Delays.Notice)
			return
		}
		r.dialogs.Reset(msg.Chat.Id, userID)
		titles, err := r.rec.ByGenre(ctx, genre, mediaType)
		if err != nil {
			r.reply(ctx, msg, r.lookupFailureReply(err), &SendOptions{RemoveKeyboard: true}, r.opts.Delays.Notice)
			return
		}
		display := titleCaser.String(mediaType)
		r.reply(ctx, msg, formatRecommendations(titles, genre, display), &SendOptions{RemoveKeyboard: true}, r.opts.Delays.Search)
	}
}

// replySeason answers a "<series> season <n>" request.
func (r *Router) replySeason(ctx context.Context, msg *gotgbot.Message, series string, season int) {
	s, err := r.meta.LookupSeason(ctx, series, season)
	if err != nil {
		lookupsTotal.WithLabelValues("season", outcomeOf(err)).Inc()
		r.reply(ctx, msg, r.lookupFailureReply(err), nil, r.opts.Delays.Search)
		return
	}
	lookupsTotal.WithLabelValues("season", outcomeFound).Inc()
	r.reply(ctx, msg, formatSeason(s, season), nil, r.opts.Delays.Search)
}

// replyTitleWithFallback tries free text as a movie, then as a series, and
// emits the generic not-found message exactly once when both miss.
func (r *Router) replyTitleWithFallback(ctx context.Context, msg *gotgbot.Message, query string) {
	t, err := r.meta.LookupMovie(ctx, query)
	if err == nil {
		lookupsTotal.WithLabelValues("movie", outcomeFound).Inc()
		r.replyTitle(ctx, msg, t, query, omdb.TypeMovie)
		return
	}
	lookupsTotal.WithLabelValues("movie", outcomeOf(err)).Inc()
	if !errors.Is(err, omdb.ErrNotFound) {
		r.reply(ctx, msg, r.lookupFailureReply(err), nil, r.opts.Delays.Search)
		return
	}

	t, err = r.meta.LookupSeries(ctx, query)
	if err == nil {
		lookupsTotal.WithLabelValues("series", outcomeFound).Inc()
		r.replyTitle(ctx, msg, t, query, omdb.TypeSeries)
		return
	}
	lookupsTotal.WithLabelValues("series", outcomeOf(err)).Inc()
	r.reply(ctx, msg, r.lookupFailureReply(err), nil, r.opts.Delays.Search)
}

// replyTitle renders a found title with shortened trailer, watch, and IMDb
// links and appends up to five similar titles. A failed recommendation fetch
// never blocks the title reply.
func (r *Router) replyTitle(ctx context.Context, msg *gotgbot.Message, t omdb.Title, query, mediaType string) {
	watch := query + " full movie"
	if mediaType == omdb.TypeSeries {
		watch = query + " full series"
	}
	links := titleLinks{
		Poster:  r.short.Shorten(ctx, t.Poster),
		Trailer: r.short.Shorten(ctx, youtubeSearchURL(query+" trailer")),
		Watch:   r.short.Shorten(ctx, youtubeSearchURL(watch)),
	}
	if t.ImdbID != "" {
		links.Info = r.short.Shorten(ctx, "https://www.imdb.com/title/"+t.ImdbID+"/")
	}
	recs, err := r.rec.Recommend(ctx, query, mediaType)
	if err != nil {
		log.Debug().Err(err).Str("title", query).Msg("inline recommendations unavailable")
	}
	r.reply(ctx, msg, formatTitle(t, mediaType, links, recs), nil, r.opts.Delays.Search)
}

// lookupFailureReply maps a lookup error to user-facing wording. Provider
// failures read the same as a miss; the details stay in the logs.
func (r *Router) lookupFailureReply(err error) string {
	if errors.Is(err, omdb.ErrQuotaExceeded) {
		return msgQuotaExhausted
	}
	if !errors.Is(err, omdb.ErrNotFound) {
		log.Warn().Err(err).Msg("metadata lookup failed")
	}
	return msgNotFound
}

// reply sends text as a reply to msg and, when delay > 0, schedules deletion
// of both the reply and the user's message.
func (r *Router) reply(ctx context.Context, msg *gotgbot.Message, text string, opts *SendOptions, delay time.Duration) {
	if opts == nil {
		opts = &SendOptions{}
	}
	if opts.ReplyTo == 0 {
		opts.ReplyTo = msg.MessageId
	}
	replyID, err := r.m.Send(ctx, msg.Chat.Id, text, opts)
	if err != nil {
		log.Warn().Err(err).Int64("chat_id", msg.Chat.Id).Msg("failed to send reply")
		return
	}
	if delay <= 0 {
		return
	}
	r.scheduleDelete(msg.Chat.Id, replyID, delay)
	r.scheduleDelete(msg.Chat.Id, msg.MessageId, delay)
}

// scheduleDelete queues a best-effort deletion. Failures (message already
// gone, missing permission) are logged and swallowed.
func (r *Router) scheduleDelete(chatID, messageID int64, delay time.Duration) {
	r.sched.After(delay, func() {
		if err := r.m.Delete(context.Background(), chatID, messageID); err != nil {
			deletionsTotal.WithLabelValues("failed").Inc()
			log.Debug().Err(err).Int64("chat_id", chatID).Int64("message_id", messageID).Msg("scheduled deletion failed")
			return
		}
		deletionsTotal.WithLabelValues("deleted").Inc()
	})
}

func (r *Router) isOperator(msg *gotgbot.Message) bool {
	return msg.From != nil && r.opts.OperatorID != 0 && msg.From.Id == r.opts.OperatorID
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, omdb.ErrNotFound):
		return outcomeNotFound
	case errors.Is(err, omdb.ErrQuotaExceeded):
		return outcomeQuota
	default:
		return outcomeError
	}
}

// matchGenre validates a dialog genre pick against the fixed genre table.
func matchGenre(text string) (string, bool) {
	choice := strings.TrimSpace(text)
	for _, g := range genreChoices {
		if strings.EqualFold(choice, g) {
			return g, true
		}
	}
	return "", false
}

// rows splits choices into keyboard rows of the given width.
func rows(choices []string, width int) [][]string {
	var out [][]string
	for len(choices) > 0 {
		n := width
		if n > len(choices) {
			n = len(choices)
		}
		out = append(out, choices[:n])
		choices = choices[n:]
	}
	return out
}

// goRuntimeLine is the /devinfo runtime summary.
func goRuntimeLine() string {
	return runtime.Version() + ", " + strconv.Itoa(runtime.NumGoroutine()) + " goroutines"
}
