package wsrouter

import "context"

type messageTypeCtxKey struct{}

func withMessageType(ctx context.Context, messageType string) context.Context {
	return context.WithValue(ctx, messageTypeCtxKey{}, messageType)
}

// MessageType returns the type of the inbound message being handled, or "".
func MessageType(ctx context.Context) string {
	messageType, _ := ctx.Value(messageTypeCtxKey{}).(string)
	return messageType
}
