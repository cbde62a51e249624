package twitterapi

import (
	"context"
	"fmt"

	"github.com/dghubble/go-twitter/twitter"
)

// Status is a tweet as returned by the API.
type Status struct {
	ID                int64   `json:"id"`
	IDStr             string  `json:"id_str"`
	Text              string  `json:"text"`
	CreatedAt         string  `json:"created_at"`
	ScreenName        string  `json:"screen_name,omitempty"`
	InReplyToStatusID int64   `json:"in_reply_to_status_id,omitempty"`
	MediaIDs          []int64 `json:"media_ids,omitempty"`
}

// StatusUpdate is a request to create a tweet. Only the listed options are
// forwarded to the API.
type StatusUpdate struct {
	Text     string
	MediaIDs []int64

	InReplyToStatusID         int64
	AutoPopulateReplyMetadata bool
	AttachmentURL             string
	PossiblySensitive         bool
	PlaceID                   string
	TrimUser                  bool
}

// UpdateStatus posts a tweet as the authenticating user. go-twitter requests
// carry no context, so ctx is not consulted.
func (c *Client) UpdateStatus(ctx context.Context, u StatusUpdate) (*Status, error) {
	params := &twitter.StatusUpdateParams{
		InReplyToStatusID: u.InReplyToStatusID,
		AttachmentURL:     u.AttachmentURL,
		MediaIds:          u.MediaIDs,
		PlaceID:           u.PlaceID,
	}
	if u.AutoPopulateReplyMetadata {
		params.AutoPopulateReplyMetadata = twitter.Bool(true)
	}
	if u.PossiblySensitive {
		params.PossiblySensitive = twitter.Bool(true)
	}
	if u.TrimUser {
		params.TrimUser = twitter.Bool(true)
	}

	tweet, _, err := c.tw.Statuses.Update(u.Text, params)
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	return statusFromTweet(tweet), nil
}

// GetStatus fetches a single tweet by id.
func (c *Client) GetStatus(ctx context.Context, id int64) (*Status, error) {
	tweet, _, err := c.tw.Statuses.Show(id, &twitter.StatusShowParams{TweetMode: "extended"})
	if err != nil {
		return nil, fmt.Errorf("get status %d: %w", id, err)
	}
	return statusFromTweet(tweet), nil
}

func statusFromTweet(t *twitter.Tweet) *Status {
	s := &Status{
		ID:                t.ID,
		IDStr:             t.IDStr,
		Text:              t.Text,
		CreatedAt:         t.CreatedAt,
		InReplyToStatusID: t.InReplyToStatusID,
	}
	if t.FullText != "" {
		s.Text = t.FullText
	}
	if t.User != nil {
		s.ScreenName = t.User.ScreenName
	}

	var media []twitter.MediaEntity
	switch {
	case t.ExtendedEntities != nil:
		media = t.ExtendedEntities.Media
	case t.Entities != nil:
		media = t.Entities.Media
	}
	for _, m := range media {
		s.MediaIDs = append(s.MediaIDs, m.ID)
	}
	return s
}
