package bot

import (
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/tbourn/go-movie-bot/internal/omdb"
	"github.com/tbourn/go-movie-bot/internal/quota"
	"github.com/tbourn/go-movie-bot/internal/registry"
)

// Fixed replies. User-visible wording lives here so handlers stay short.
const (
	msgQuotaExhausted = "Daily search limit reached. Please try again tomorrow."
	msgNotFound       = "Sorry, I couldn't find anything matching that title."
	msgUnauthorized   = "You are not allowed to use this command."
	msgApology        = "Something went wrong while handling that. Please try again."
	msgFilterNotice   = "That message was removed because it contained a filtered word."
	msgCancelled      = "Okay, cancelled."
	msgAskMediaType   = "What would you like a recommendation for?"
	msgAskGenre       = "Pick a genre:"
	msgAskBroadcast   = "Send me the message to broadcast, or Cancel."
	msgNoRecs         = "No recommendations found for that choice."
	msgUnknownCommand = "Unknown command. Please use /help to see what I can do."
)

// titleCaser renders user choices like "movie" or "sci-fi" in display form.
var titleCaser = cases.Title(language.English)

// mediaTypeChoices and genreChoices are the guided-dialog keyboards.
var (
	mediaTypeChoices = []string{"Movie", "Series"}
	genreChoices     = []string{"Action", "Comedy", "Drama", "Horror", "Romance", "Sci-Fi", "Thriller"}
)

const cancelChoice = "Cancel"

// titleLinks carries the shortened outbound links appended to a title reply.
// Empty fields are skipped.
type titleLinks struct {
	Poster  string
	Trailer string
	Watch   string
	Info    string
}

// formatTitle renders a full metadata record followed by the outbound links
// and an optional recommendations block; "N/A" and empty provider values
// render as a dash.
func formatTitle(t omdb.Title, mediaType string, links titleLinks, recs []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b> (%s)\n\n", html.EscapeString(t.Title), html.EscapeString(orDash(t.Year)))
	writeField(&b, "Rated", t.Rated)
	writeField(&b, "Released", t.Released)
	writeField(&b, "Runtime", t.Runtime)
	writeField(&b, "Genre", t.Genre)
	writeField(&b, "Director", t.Director)
	writeField(&b, "Writer", t.Writer)
	writeField(&b, "Actors", t.Actors)
	writeField(&b, "Language", t.Language)
	writeField(&b, "Country", t.Country)
	writeField(&b, "Awards", t.Awards)
	writeField(&b, "IMDb Rating", t.ImdbRating)
	if links.Poster != "" && links.Poster != "N/A" {
		fmt.Fprintf(&b, "\n<a href=\"%s\">Poster</a>\n", html.EscapeString(links.Poster))
	}
	if links.Trailer != "" {
		fmt.Fprintf(&b, "\n<b>Trailer:</b> <a href=\"%s\">Watch Trailer</a>\n", html.EscapeString(links.Trailer))
	}
	if links.Watch != "" {
		label := "Movie"
		if mediaType == omdb.TypeSeries {
			label = "Series"
		}
		fmt.Fprintf(&b, "\n<b>%s:</b> <a href=\"%s\">Watch %s (if available)</a>\n", label, html.EscapeString(links.Watch), label)
	}
	if links.Info != "" {
		fmt.Fprintf(&b, "\n<a href=\"%s\">More Information</a>\n", html.EscapeString(links.Info))
	}
	if len(recs) > 0 {
		b.WriteString("\n<b>Recommendations:</b>\n")
		for _, title := range recs {
			b.WriteString(html.EscapeString(title))
			b.WriteByte('\n')
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// youtubeSearchURL builds a YouTube search link for a free-text query.
func youtubeSearchURL(query string) string {
	return "https://www.youtube.com/results?search_query=" + url.QueryEscape(query)
}

// formatSeason renders a season's episode listing.
func formatSeason(s omdb.Season, seasonNumber int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b> — Season %d\n\n", html.EscapeString(s.Title), seasonNumber)
	if len(s.Episodes) == 0 {
		b.WriteString("No episode data available.")
		return b.String()
	}
	for _, ep := range s.Episodes {
		rating := orDash(ep.ImdbRating)
		fmt.Fprintf(&b, "%s. %s — ⭐ %s\n", html.EscapeString(ep.Episode), html.EscapeString(ep.Title), html.EscapeString(rating))
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatRecommendations renders an up-to-five title list for a genre pick.
func formatRecommendations(titles []string, genre, mediaType string) string {
	if len(titles) == 0 {
		return msgNoRecs
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Recommended %s %ss:\n\n", html.EscapeString(genre), html.EscapeString(strings.ToLower(mediaType)))
	for i, title := range titles {
		fmt.Fprintf(&b, "%d. %s\n", i+1, html.EscapeString(title))
	}
	return strings.TrimRight(b.String(), "\n")
}

func startText(firstName string) string {
	name := strings.TrimSpace(firstName)
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf("Hi <b>%s</b>! I look up movie and TV metadata for you.\n\n"+
		"Send me a title, or try /help for the full command list.", html.EscapeString(name))
}

func helpText() string {
	return strings.Join([]string{
		"<b>Commands</b>",
		"/searchmovie &lt;name&gt; — movie lookup",
		"/searchseries &lt;name&gt; — series lookup",
		"/searchseason &lt;name&gt; &lt;n&gt; — episode list for a season",
		"/recommend — guided recommendation wizard",
		"/id — show this chat's id",
		"/info — show your account details",
		"",
		"You can also just send a title, or \"&lt;series&gt; season &lt;n&gt;\".",
	}, "\n")
}

func statsText(q quota.Snapshot, cacheLen int, groups, channels, users int, rep *registry.Report, uptime time.Duration) string {
	var b strings.Builder
	b.WriteString("<b>Stats</b>\n\n")
	fmt.Fprintf(&b, "Quota: %d/%d used today (%s), %d left\n", q.Used, q.Limit, q.Day, q.Remaining)
	fmt.Fprintf(&b, "Cached responses: %d\n", cacheLen)
	fmt.Fprintf(&b, "Known chats: %d groups, %d channels, %d users\n", groups, channels, users)
	fmt.Fprintf(&b, "Uptime: %s", uptime.Round(time.Second))
	if rep != nil {
		fmt.Fprintf(&b, "\nLast broadcast: %d/%d delivered", rep.Delivered, rep.Recipients)
	}
	return b.String()
}

func broadcastReportText(rep registry.Report) string {
	return fmt.Sprintf("Broadcast finished: %d delivered, %d failed out of %d recipients.",
		rep.Delivered, rep.Failed, rep.Recipients)
}

func idText(chatID, userID int64) string {
	return fmt.Sprintf("Chat id: <code>%d</code>\nYour id: <code>%d</code>", chatID, userID)
}

func userInfoText(u *gotgbot.User) string {
	if u == nil {
		return "No account details available."
	}
	var b strings.Builder
	b.WriteString("<b>Your account</b>\n\n")
	fmt.Fprintf(&b, "Id: <code>%d</code>\n", u.Id)
	fmt.Fprintf(&b, "Name: %s\n", html.EscapeString(u.FirstName))
	if u.Username != "" {
		fmt.Fprintf(&b, "Username: @%s\n", html.EscapeString(u.Username))
	}
	if u.LanguageCode != "" {
		fmt.Fprintf(&b, "Language: %s\n", html.EscapeString(u.LanguageCode))
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeField(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "<b>%s:</b> %s\n", label, html.EscapeString(orDash(value)))
}

func orDash(v string) string {
	if strings.TrimSpace(v) == "" || v == "N/A" {
		return "—"
	}
	return v
}
