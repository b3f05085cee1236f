package extractor

import (
	"fmt"
	"strings"

	"github.com/seongsu-hq/popup-harvester/internal/domain"
)

const promptTemplate = `You extract pop-up store event information from Korean blog listings.

Listing title: %s

Listing text: %s

Respond with ONLY one JSON object, no prose, matching exactly this schema:
{
  "name": "official event name",
  "brand": "brand running the event, or empty string",
  "location": {
    "place": "venue name, or empty string",
    "address": "street address, or empty string"
  },
  "start_date": "YYYY-MM-DD or empty string",
  "end_date": "YYYY-MM-DD or empty string",
  "description": "one-sentence summary in Korean"
}

Rules:
- Use only information stated in the listing. Never invent dates; if a date
  is not stated, use an empty string.
- Dates must be the YYYY-MM-DD format.
- "name" is required; if the listing is not about a pop-up store event,
  still fill in the most plausible event name from the text.`

func buildPrompt(listing domain.Listing) string {
	return fmt.Sprintf(promptTemplate, listing.Title, listing.Snippet)
}

// popupKeywords mark listings that plausibly describe a pop-up store.
var popupKeywords = []string{
	"팝업", "팝업스토어", "pop-up", "popup", "pop up",
	"프리오픈", "런칭", "한정",
}

// LooksLikePopup is a cheap keyword pre-filter applied before spending a
// model call on a listing.
func LooksLikePopup(title, snippet string) bool {
	combined := strings.ToLower(title + " " + snippet)
	for _, kw := range popupKeywords {
		if strings.Contains(combined, kw) {
			return true
		}
	}
	return false
}
