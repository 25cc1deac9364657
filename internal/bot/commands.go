package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-movie-bot/internal/omdb"
	"github.com/tbourn/go-movie-bot/internal/registry"
)

// operator-only commands; everything else is open to any user.
var operatorCommands = map[string]bool{
	"filter":           true,
	"clearcache":       true,
	"stats":            true,
	"devinfo":          true,
	"reload":           true,
	"broadcast":        true,
	"broadcast_status": true,
}

// handleCommand dispatches a message whose text starts with "/". Matching is
// exact on the first token, with an optional @botname suffix stripped, so
// "/idx" never triggers /id.
func (r *Router) handleCommand(ctx context.Context, msg *gotgbot.Message, text string) {
	fields := strings.Fields(text)
	name := strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		if !strings.EqualFold(name[at+1:], r.opts.Username) {
			return // addressed to another bot in the group
		}
		name = name[:at]
	}
	name = strings.ToLower(name)
	args := strings.TrimSpace(strings.TrimPrefix(text, fields[0]))

	if operatorCommands[name] && !r.isOperator(msg) {
		commandsTotal.WithLabelValues("unauthorized").Inc()
		log.Warn().Int64("chat_id", msg.Chat.Id).Str("command", name).Msg("unauthorized command attempt")
		r.reply(ctx, msg, msgUnauthorized, nil, r.opts.Delays.Notice)
		return
	}

	switch name {
	case "start":
		commandsTotal.WithLabelValues(name).Inc()
		r.cmdStart(ctx, msg)
	case "help":
		commandsTotal.WithLabelValues(name).Inc()
		r.reply(ctx, msg, helpText(), nil, r.opts.Delays.Info)
	case "id":
		commandsTotal.WithLabelValues(name).Inc()
		var userID int64
		if msg.From != nil {
			userID = msg.From.Id
		}
		r.reply(ctx, msg, idText(msg.Chat.Id, userID), nil, r.opts.Delays.Info)
	case "info":
		commandsTotal.WithLabelValues(name).Inc()
		r.reply(ctx, msg, userInfoText(msg.From), nil, r.opts.Delays.Info)
	case "recommend":
		commandsTotal.WithLabelValues(name).Inc()
		r.cmdRecommend(ctx, msg)
	case "searchmovie":
		commandsTotal.WithLabelValues(name).Inc()
		r.cmdSearchTitle(ctx, msg, args, false)
	case "searchseries":
		commandsTotal.WithLabelValues(name).Inc()
		r.cmdSearchTitle(ctx, msg, args, true)
	case "searchseason":
		commandsTotal.WithLabelValues(name).Inc()
		r.cmdSearchSeason(ctx, msg, args)
	case "filter":
		commandsTotal.WithLabelValues(name).Inc()
		r.cmdFilter(ctx, msg, args)
	case "clearcache":
		commandsTotal.WithLabelValues(name).Inc()
		n := r.meta.ClearCache()
		r.reply(ctx, msg, fmt.Sprintf("Cache cleared, %d entries dropped.", n), nil, r.opts.Delays.Notice)
	case "stats":
		commandsTotal.WithLabelValues(name).Inc()
		r.cmdStats(ctx, msg)
	case "devinfo":
		commandsTotal.WithLabelValues(name).Inc()
		r.cmdDevInfo(ctx, msg)
	case "reload":
		commandsTotal.WithLabelValues(name).Inc()
		r.cmdReload(ctx, msg)
	case "broadcast":
		commandsTotal.WithLabelValues(name).Inc()
		r.cmdBroadcast(ctx, msg)
	case "broadcast_status":
		commandsTotal.WithLabelValues(name).Inc()
		r.cmdBroadcastStatus(ctx, msg)
	default:
		commandsTotal.WithLabelValues("unknown").Inc()
		r.reply(ctx, msg, msgUnknownCommand, nil, r.opts.Delays.Notice)
	}
}

func (r *Router) cmdStart(ctx context.Context, msg *gotgbot.Message) {
	var first string
	if msg.From != nil {
		first = msg.From.FirstName
	}
	opts := &SendOptions{}
	if r.opts.Username != "" {
		opts.InlineURL = &InlineURL{
			Text: "Add me to your group",
			URL:  "https://t.me/" + r.opts.Username + "?startgroup=true",
		}
	}
	r.reply(ctx, msg, startText(first), opts, r.opts.Delays.Info)
}

func (r *Router) cmdRecommend(ctx context.Context, msg *gotgbot.Message) {
	if msg.From == nil {
		return
	}
	r.dialogs.Set(msg.Chat.Id, msg.From.Id, StateAwaitingMediaType, "")
	dialogsActive.Set(float64(r.dialogs.Active()))
	keyboard := [][]string{mediaTypeChoices, {cancelChoice}}
	r.reply(ctx, msg, msgAskMediaType, &SendOptions{Keyboard: keyboard}, 0)
}

func (r *Router) cmdSearchTitle(ctx context.Context, msg *gotgbot.Message, args string, series bool) {
	if args == "" {
		usage := "Usage: /searchmovie &lt;name&gt;"
		if series {
			usage = "Usage: /searchseries &lt;name&gt;"
		}
		r.reply(ctx, msg, usage, nil, r.opts.Delays.Notice)
		return
	}
	var (
		kind   = omdb.TypeMovie
		lookup = r.meta.LookupMovie
	)
	if series {
		kind = omdb.TypeSeries
		lookup = r.meta.LookupSeries
	}
	t, err := lookup(ctx, args)
	if err != nil {
		lookupsTotal.WithLabelValues(kind, outcomeOf(err)).Inc()
		r.reply(ctx, msg, r.lookupFailureReply(err), nil, r.opts.Delays.Search)
		return
	}
	lookupsTotal.WithLabelValues(kind, outcomeFound).Inc()
	r.replyTitle(ctx, msg, t, args, kind)
}

func (r *Router) cmdSearchSeason(ctx context.Context, msg *gotgbot.Message, args string) {
	fields := strings.Fields(args)
	var season int
	if len(fields) >= 2 {
		if n, err := strconv.Atoi(fields[len(fields)-1]); err == nil && n > 0 {
			season = n
		}
	}
	if season == 0 {
		r.reply(ctx, msg, "Usage: /searchseason &lt;name&gt; &lt;season&gt;", nil, r.opts.Delays.Notice)
		return
	}
	series := strings.Join(fields[:len(fields)-1], " ")
	r.replySeason(ctx, msg, series, season)
}

func (r *Router) cmdFilter(ctx context.Context, msg *gotgbot.Message, args string) {
	if args == "" {
		words := r.mod.Words()
		if len(words) == 0 {
			r.reply(ctx, msg, "No filter words configured.", nil, r.opts.Delays.Notice)
			return
		}
		r.reply(ctx, msg, "Filtered words: "+strings.Join(words, ", "), nil, r.opts.Delays.Notice)
		return
	}
	added, err := r.mod.Add(args)
	if err != nil {
		log.Error().Err(err).Msg("failed to persist filter word")
		r.reply(ctx, msg, msgApology, nil, r.opts.Delays.Notice)
		return
	}
	if !added {
		r.reply(ctx, msg, "That word is already filtered.", nil, r.opts.Delays.Notice)
		return
	}
	r.reply(ctx, msg, fmt.Sprintf("Added %q to the filter list.", strings.ToLower(args)), nil, r.opts.Delays.Notice)
}

func (r *Router) cmdStats(ctx context.Context, msg *gotgbot.Message) {
	groups, channels, users := r.reg.Counts()
	var repPtr *registry.Report
	if rep, ok := r.reg.LastReport(); ok {
		repPtr = &rep
	}
	text := statsText(r.meta.QuotaSnapshot(), r.meta.CacheLen(), groups, channels, users, repPtr, time.Since(r.startedAt))
	r.reply(ctx, msg, text, nil, r.opts.Delays.Info)
}

func (r *Router) cmdDevInfo(ctx context.Context, msg *gotgbot.Message) {
	text := fmt.Sprintf("<b>Runtime</b>\n\n%s\nPending deletions: %d\nActive dialogs: %d",
		goRuntimeLine(), r.sched.Pending(), r.dialogs.Active())
	r.reply(ctx, msg, text, nil, r.opts.Delays.Info)
}

func (r *Router) cmdReload(ctx context.Context, msg *gotgbot.Message) {
	n, err := r.mod.Reload()
	if err != nil {
		log.Error().Err(err).Msg("failed to reload filter words")
		r.reply(ctx, msg, msgApology, nil, r.opts.Delays.Notice)
		return
	}
	r.reply(ctx, msg, fmt.Sprintf("Reloaded %d filter words.", n), nil, r.opts.Delays.Notice)
}

// cmdBroadcast starts the two-step broadcast flow: the operator is asked for
// the message text, which finishBroadcast then fans out.
func (r *Router) cmdBroadcast(ctx context.Context, msg *gotgbot.Message) {
	if msg.From == nil {
		return
	}
	r.dialogs.Set(msg.Chat.Id, msg.From.Id, StateAwaitingBroadcast, "")
	dialogsActive.Set(float64(r.dialogs.Active()))
	r.reply(ctx, msg, msgAskBroadcast, &SendOptions{Keyboard: [][]string{{cancelChoice}}}, 0)
}

func (r *Router) finishBroadcast(ctx context.Context, msg *gotgbot.Message, text string) {
	r.dialogs.Reset(msg.Chat.Id, msg.From.Id)
	if !r.isOperator(msg) {
		r.reply(ctx, msg, msgUnauthorized, &SendOptions{RemoveKeyboard: true}, r.opts.Delays.Notice)
		return
	}
	if strings.EqualFold(strings.TrimSpace(text), cancelChoice) {
		r.reply(ctx, msg, msgCancelled, &SendOptions{RemoveKeyboard: true}, r.opts.Delays.Notice)
		return
	}
	rep := r.reg.Broadcast(ctx, senderFunc(r.m), text)
	r.reply(ctx, msg, broadcastReportText(rep), &SendOptions{RemoveKeyboard: true}, r.opts.Delays.Info)
}

func (r *Router) cmdBroadcastStatus(ctx context.Context, msg *gotgbot.Message) {
	rep, ok := r.reg.LastReport()
	if !ok {
		r.reply(ctx, msg, "No broadcast has been sent yet.", nil, r.opts.Delays.Notice)
		return
	}
	text := fmt.Sprintf("%s\nStarted %s, finished %s.",
		broadcastReportText(rep),
		rep.StartedAt.Format(time.RFC3339),
		rep.FinishedAt.Format(time.RFC3339))
	r.reply(ctx, msg, text, nil, r.opts.Delays.Notice)
}

// messengerSender adapts a Messenger to the registry's Sender.
type messengerSender struct{ m Messenger }

func senderFunc(m Messenger) messengerSender { return messengerSender{m: m} }

func (s messengerSender) Send(ctx context.Context, chatID int64, text string) error {
	_, err := s.m.Send(ctx, chatID, text, nil)
	return err
}
