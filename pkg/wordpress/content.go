package wordpress

import (
	"fmt"
	"html"
	"strings"

	"github.com/seongsu-hq/popup-harvester/internal/domain"
)

// Post rendering. The title carries a short period suffix so listings are
// scannable in the admin view; the body is simple HTML sections.

func postTitle(event domain.Event) string {
	if !event.HasPeriod() {
		return event.Name
	}
	suffix := fmt.Sprintf(" (%s~", event.StartDate.Format("01/02"))
	if !event.EndDate.IsZero() {
		suffix += event.EndDate.Format("01/02")
	}
	return event.Name + suffix + ")"
}

func postMeta(event domain.Event) map[string]string {
	meta := map[string]string{
		"event_location": event.Place,
		"event_address":  event.Address,
	}
	if event.HasPeriod() {
		meta["event_start_date"] = event.StartDate.Format(domain.DateLayout)
		if !event.EndDate.IsZero() {
			meta["event_end_date"] = event.EndDate.Format(domain.DateLayout)
		}
	}
	return meta
}

func postContent(event domain.Event) string {
	var b strings.Builder

	b.WriteString(`<div class="event-info">`)

	b.WriteString("<p><strong>행사 기간: ")
	if event.HasPeriod() {
		b.WriteString(event.StartDate.Format("2006년 01월 02일"))
		if !event.EndDate.IsZero() {
			b.WriteString(" ~ ")
			b.WriteString(event.EndDate.Format("2006년 01월 02일"))
		}
	} else {
		b.WriteString("미정")
	}
	b.WriteString("</strong></p>")

	b.WriteString("<p><strong>장소: ")
	if event.Place != "" {
		b.WriteString(html.EscapeString(event.Place))
		if event.Address != "" {
			b.WriteString(" (" + html.EscapeString(event.Address) + ")")
		}
	} else {
		b.WriteString("미정")
	}
	b.WriteString("</strong></p>")

	if event.Brand != "" {
		b.WriteString("<p>브랜드: " + html.EscapeString(event.Brand) + "</p>")
	}

	if event.Description != "" {
		b.WriteString("<p>" + html.EscapeString(event.Description) + "</p>")
	}

	if event.SourceURL != "" {
		b.WriteString(`<p><a href="` + html.EscapeString(event.SourceURL) +
			`" target="_blank">출처 보기</a></p>`)
	}

	b.WriteString("</div>")
	return b.String()
}
