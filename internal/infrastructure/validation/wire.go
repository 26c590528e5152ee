package validation

import (
	"github.com/google/wire"

	"github.com/freightdesk/backend/internal/application/inbox"
)

// ProviderSet 校验 ProviderSet
var ProviderSet = wire.NewSet(
	NewFilterDecoder,
	wire.Bind(new(inbox.FilterDecoder), new(*FilterDecoder)),
)
