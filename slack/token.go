package slack

// TokenResponse is the decoded body of a successful oauth.v2.access call.
// Every field is optional on the wire; missing fields decode to their zero
// value rather than being null-propagated at the call sites.
type TokenResponse struct {
	OK          bool   `json:"ok"`
	Error       string `json:"error,omitempty"`
	AccessToken string `json:"access_token"`
	BotUserID   string `json:"bot_user_id,omitempty"`

	AuthedUser      AuthedUser      `json:"authed_user"`
	IncomingWebhook IncomingWebhook `json:"incoming_webhook"`
	Team            Team            `json:"team"`

	// Bot is only present in legacy (v1-shaped) responses.
	Bot Bot `json:"bot"`
}

// AuthedUser identifies the human who authorized the app.
type AuthedUser struct {
	ID          string `json:"id,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
}

// IncomingWebhook is returned when the installation included an incoming
// webhook. Channel and ChannelID are distinct fields: one is the display
// name, the other the opaque id.
type IncomingWebhook struct {
	Channel          string `json:"channel,omitempty"`
	ChannelID        string `json:"channel_id,omitempty"`
	ConfigurationURL string `json:"configuration_url,omitempty"`
	URL              string `json:"url,omitempty"`
}

// Team identifies the workspace the app was installed into.
type Team struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// Bot carries bot credentials in legacy token responses.
type Bot struct {
	BotUserID      string `json:"bot_user_id,omitempty"`
	BotAccessToken string `json:"bot_access_token,omitempty"`
}

// UserInfoResponse is the decoded body of a users.info call.
type UserInfoResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	User  User   `json:"user"`
}

// User is the profile subset this package cares about.
type User struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}
