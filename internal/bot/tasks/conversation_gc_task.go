package tasks

import (
	"context"

	"github.com/edgard/alarmbot/internal/config"
)

// newConversationGCTask drops conversations nobody touched for the
// configured idle timeout, abandoned drafts included.
func newConversationGCTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "conversation_gc")

	return func(ctx context.Context) error {
		idle := deps.Config.Conversation.IdleTimeout
		if idle <= 0 {
			idle = config.DefaultConversationIdleTimeout
		}

		removed := deps.States.Sweep(idle)
		log.InfoContext(ctx, "Swept idle conversations", "removed", removed, "remaining", deps.States.Len(), "idle_timeout", idle)
		return nil
	}
}
