package twitter

import (
	"fmt"
	"time"

	"faves_sorter/internal/domain"
)

// Tweet is the subset of a liked item the service keeps. The API returns either a
// full tweet object (full_text with tweet_mode=extended) or an abbreviated item.
type Tweet struct {
	IDStr     string  `json:"id_str"`
	CreatedAt string  `json:"created_at"`
	Text      *string `json:"text"`
	FullText  *string `json:"full_text"`
}

// Profile is the user object returned by users/show and account/verify_credentials.
type Profile struct {
	IDStr                string `json:"id_str"`
	ScreenName           string `json:"screen_name"`
	Name                 string `json:"name"`
	Description          string `json:"description"`
	ProfileImageURLHTTPS string `json:"profile_image_url_https"`
	FavouritesCount      int    `json:"favourites_count"`
	FollowersCount       int    `json:"followers_count"`
}

type apiErrorBody struct {
	Errors []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

var timeLayouts = []string{time.RubyDate, time.RFC3339Nano}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized created_at %q", s)
}

// RemoteItem normalizes the tweet into the shape the sync engine consumes.
func (t Tweet) RemoteItem() (domain.RemoteItem, error) {
	if t.IDStr == "" {
		return domain.RemoteItem{}, fmt.Errorf("missing id_str")
	}
	createdAt, err := parseTime(t.CreatedAt)
	if err != nil {
		return domain.RemoteItem{}, err
	}

	text := t.FullText
	if text == nil {
		text = t.Text
	}

	return domain.RemoteItem{
		ID:        t.IDStr,
		CreatedAt: createdAt,
		Text:      text,
	}, nil
}
