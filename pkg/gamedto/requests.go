package gamedto

// REST payloads.

type RegisterRequest struct {
	DisplayName string `json:"display_name"`
	Secret      string `json:"secret"`
}

type LoginRequest struct {
	DisplayName string `json:"display_name"`
	Secret      string `json:"secret"`
}

type AuthResponse struct {
	Token   string         `json:"token"`
	Account AccountSummary `json:"account"`
}

type CreateSessionRequest struct {
	Mode        string           `json:"mode"`
	TimeControl *TimeControlInfo `json:"time_control,omitempty"`
}

type SessionListResponse struct {
	Sessions []*SessionState `json:"sessions"`
}

type LeaderboardResponse struct {
	Accounts []AccountSummary `json:"accounts"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
