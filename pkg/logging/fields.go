package logging

import "log/slog"

// Domain identifiers

func Conversation(id string) slog.Attr {
	return slog.String("conversation_id", id)
}

func Channel(id string) slog.Attr {
	return slog.String("channel_id", id)
}

func User(id string) slog.Attr {
	return slog.String("user_id", id)
}

func Recipient(id string) slog.Attr {
	return slog.String("recipient_id", id)
}

func Event(name string) slog.Attr {
	return slog.String("event", name)
}

// Error handling

func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}
