package notify

import (
	"context"
	"log/slog"
)

type ActionKind string

const (
	ActionApproveTeam  ActionKind = "approve_team"
	ActionDenyTeam     ActionKind = "deny_team"
	ActionJoinTeam     ActionKind = "join_team"
	ActionLeaveTeam    ActionKind = "leave_team"
	ActionStart        ActionKind = "start_tournament"
	ActionCheckIn      ActionKind = "check_in"
	ActionReportWinner ActionKind = "report_winner"
	ActionViewBracket  ActionKind = "view_bracket"
)

// Action is a control the chat adapter should render next to the message.
type Action struct {
	Kind     ActionKind `json:"kind"`
	Label    string     `json:"label"`
	TargetID string     `json:"target_id,omitempty"`
}

type Message struct {
	Title   string   `json:"title,omitempty"`
	Text    string   `json:"text"`
	Actions []Action `json:"actions,omitempty"`
	// Suggested name when the adapter has to create a channel for this message
	ChannelName string `json:"channel_name,omitempty"`
}

type Notifier interface {
	// NotifyUsers sends a direct message to each user.
	NotifyUsers(ctx context.Context, userIDs []string, msg Message) error
	// NotifyChannel posts to a channel managed by the adapter.
	NotifyChannel(ctx context.Context, channelID string, msg Message) error
}

// LogNotifier only logs. Used when no broker is configured.
type LogNotifier struct{}

func (LogNotifier) NotifyUsers(_ context.Context, userIDs []string, msg Message) error {
	slog.Info("notify users", "users", userIDs, "title", msg.Title, "text", msg.Text)
	return nil
}

func (LogNotifier) NotifyChannel(_ context.Context, channelID string, msg Message) error {
	slog.Info("notify channel", "channel_id", channelID, "title", msg.Title, "text", msg.Text)
	return nil
}
