package slack

// Identity is the normalized result of one successful callback. It is handed
// to the caller for claims/session mapping and is not persisted here.
type Identity struct {
	AccessToken    string `json:"access_token,omitempty"`
	BotAccessToken string `json:"bot_access_token,omitempty"`

	TeamID   string `json:"team_id,omitempty"`
	TeamName string `json:"team_name,omitempty"`

	UserID   string `json:"user_id,omitempty"`
	UserName string `json:"user_name,omitempty"`

	BotUserID string `json:"bot_user_id,omitempty"`

	WebhookChannel          string `json:"webhook_channel,omitempty"`
	WebhookChannelID        string `json:"webhook_channel_id,omitempty"`
	WebhookConfigurationURL string `json:"webhook_configuration_url,omitempty"`
	WebhookURL              string `json:"webhook_url,omitempty"`
}

// UserSub returns the composite "{team_id}_{user_id}" identifier.
func (id *Identity) UserSub() string {
	return id.TeamID + "_" + id.UserID
}

// BotUserSub returns the composite "{team_id}_{bot_user_id}" identifier,
// or "" when the installation has no bot user.
func (id *Identity) BotUserSub() string {
	if id.BotUserID == "" {
		return ""
	}
	return id.TeamID + "_" + id.BotUserID
}

// IdentityFromToken assembles an Identity from a decoded token response.
// User id/name may later be refined from a users.info response.
func IdentityFromToken(token *TokenResponse) *Identity {
	identity := &Identity{
		AccessToken:             token.AccessToken,
		TeamID:                  token.Team.ID,
		TeamName:                token.Team.Name,
		UserID:                  token.AuthedUser.ID,
		BotUserID:               token.BotUserID,
		WebhookChannel:          token.IncomingWebhook.Channel,
		WebhookChannelID:        token.IncomingWebhook.ChannelID,
		WebhookConfigurationURL: token.IncomingWebhook.ConfigurationURL,
		WebhookURL:              token.IncomingWebhook.URL,
	}

	// Legacy responses carry the bot credentials in a nested object; in the
	// v2 shape the top-level access token is the bot token whenever a bot
	// user was installed.
	if token.Bot.BotUserID != "" {
		identity.BotUserID = token.Bot.BotUserID
		identity.BotAccessToken = token.Bot.BotAccessToken
	} else if identity.BotUserID != "" {
		identity.BotAccessToken = token.AccessToken
	}

	return identity
}

// Claim types produced by ClaimsFor.
const (
	ClaimNameIdentifier = "sub"
	ClaimName           = "name"
	ClaimTeamID         = "team_id"
	ClaimTeamName       = "team_name"
)

// Claim is one typed assertion about an identity.
type Claim struct {
	Type  string
	Value string
}

// ClaimsFor maps an identity into an ordered claim list. Pure and
// deterministic: a claim is omitted when its source value is empty. Bot
// installations identify as the bot user rather than the installing human.
func ClaimsFor(identity *Identity) []Claim {
	nameID := identity.UserID
	name := identity.UserName
	if identity.BotUserID != "" {
		nameID = identity.BotUserID
		name = identity.BotUserID
	}

	claims := make([]Claim, 0, 4)
	if nameID != "" {
		claims = append(claims, Claim{Type: ClaimNameIdentifier, Value: nameID})
	}
	if name != "" {
		claims = append(claims, Claim{Type: ClaimName, Value: name})
	}
	if identity.TeamID != "" {
		claims = append(claims, Claim{Type: ClaimTeamID, Value: identity.TeamID})
	}
	if identity.TeamName != "" {
		claims = append(claims, Claim{Type: ClaimTeamName, Value: identity.TeamName})
	}
	return claims
}
