package push

import (
	"context"
	"fmt"
)

// Router sends to FCM or APNS depending on the device platform.
type Router struct {
	android PushProvider
	ios     PushProvider
}

func NewRouter(android, ios PushProvider) *Router {
	return &Router{android: android, ios: ios}
}

func (r *Router) Send(ctx context.Context, platform string, request *NotificationRequest) (*NotificationResponse, error) {
	var provider PushProvider
	switch platform {
	case PlatformAndroid:
		provider = r.android
	case PlatformIOS:
		provider = r.ios
	default:
		return nil, fmt.Errorf("unsupported push platform %q", platform)
	}
	if provider == nil {
		return nil, fmt.Errorf("push provider for %s is not configured", platform)
	}
	return provider.SendNotification(ctx, request)
}
