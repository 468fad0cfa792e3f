package controller

import (
	"context"

	"github.com/watchparty/server/internal/domain"
)

type contextKey int

const identityCtxKey contextKey = iota

func (c controller) getIdentityFromCtx(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(identityCtxKey).(domain.Identity)

	return identity, ok
}
